// Package config loads the bot configuration: the shared core settings plus
// database, session, admin and validation-limit sections.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	coreconfig "github.com/unimeeting/unimeetbot/core/config"
	"github.com/unimeeting/unimeetbot/core/database"
)

// Session backends.
const (
	SessionMemory = "memory"
	SessionRedis  = "redis"
)

// SessionConfig selects where conversation state lives.
type SessionConfig struct {
	Backend  string        `yaml:"backend" envconfig:"SESSION_BACKEND"`
	RedisURL string        `yaml:"redis_url" envconfig:"REDIS_URL"`
	TTL      time.Duration `yaml:"ttl" envconfig:"SESSION_TTL"`
}

// Limits bounds profile fields accepted by the registration wizard.
type Limits struct {
	NameMin        int `yaml:"name_min" envconfig:"NAME_MIN_LENGTH"`
	NameMax        int `yaml:"name_max" envconfig:"NAME_MAX_LENGTH"`
	MajorMin       int `yaml:"major_min" envconfig:"MAJOR_MIN_LENGTH"`
	MajorMax       int `yaml:"major_max" envconfig:"MAJOR_MAX_LENGTH"`
	DescriptionMin int `yaml:"description_min" envconfig:"DESCRIPTION_MIN_LENGTH"`
	DescriptionMax int `yaml:"description_max" envconfig:"DESCRIPTION_MAX_LENGTH"`
	AgeMin         int `yaml:"age_min" envconfig:"AGE_MIN"`
	AgeMax         int `yaml:"age_max" envconfig:"AGE_MAX"`
}

// DefaultLimits mirrors the limits the bot ships with.
func DefaultLimits() Limits {
	return Limits{
		NameMin: 2, NameMax: 50,
		MajorMin: 2, MajorMax: 100,
		DescriptionMin: 10, DescriptionMax: 500,
		AgeMin: 16, AgeMax: 30,
	}
}

// MetricsConfig configures the Prometheus exporter. An empty Listen disables it.
type MetricsConfig struct {
	Listen string `yaml:"listen" envconfig:"METRICS_LISTEN"`
}

// Config is the full bot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database database.Config `yaml:"database"`
	Session  SessionConfig   `yaml:"session"`
	Limits   Limits          `yaml:"limits"`
	Metrics  MetricsConfig   `yaml:"metrics"`

	// Admins lists numeric ids and @handles.
	Admins []string `yaml:"admins" envconfig:"ADMIN_IDS"`

	AdminIDs     []int64  `yaml:"-" ignored:"true"`
	AdminHandles []string `yaml:"-" ignored:"true"`
}

// CoreConfig exposes the embedded core section.
func (c *Config) CoreConfig() *coreconfig.Config { return &c.Config }

// Load reads .env (when present), the YAML file at path and the environment.
func Load(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := Normalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadTools loads the configuration for the command-line utilities. Only
// the database section is validated, so no bot token is needed.
func LoadTools(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Database.Normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func read(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	cfg := &Config{Limits: DefaultLimits()}
	if err := coreconfig.LoadInto(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Normalize validates every section and splits admin identifiers.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}
	if err := cfg.Database.Normalize(); err != nil {
		return err
	}

	cfg.Session.Backend = strings.ToLower(strings.TrimSpace(cfg.Session.Backend))
	switch cfg.Session.Backend {
	case "", SessionMemory:
		cfg.Session.Backend = SessionMemory
	case SessionRedis:
		if strings.TrimSpace(cfg.Session.RedisURL) == "" {
			return fmt.Errorf("config: session.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("config: invalid session.backend %q; allowed: memory, redis", cfg.Session.Backend)
	}
	if cfg.Session.TTL < 0 {
		return fmt.Errorf("config: session.ttl must be >= 0")
	}

	if err := cfg.Limits.validate(); err != nil {
		return err
	}

	ids, handles, err := ParseAdmins(cfg.Admins)
	if err != nil {
		return err
	}
	cfg.AdminIDs, cfg.AdminHandles = ids, handles
	return nil
}

func (l Limits) validate() error {
	pairs := []struct {
		name     string
		min, max int
	}{
		{"name", l.NameMin, l.NameMax},
		{"major", l.MajorMin, l.MajorMax},
		{"description", l.DescriptionMin, l.DescriptionMax},
		{"age", l.AgeMin, l.AgeMax},
	}
	for _, p := range pairs {
		if p.min < 0 || p.max <= 0 || p.min > p.max {
			return fmt.Errorf("config: invalid limits for %s: min=%d max=%d", p.name, p.min, p.max)
		}
	}
	return nil
}

// ParseAdmins splits identifiers into numeric ids and lower-cased handles
// without the '@'. Blank entries are skipped.
func ParseAdmins(raw []string) ([]int64, []string, error) {
	var (
		ids     []int64
		handles []string
	)
	for _, entry := range raw {
		for _, part := range strings.Split(entry, ",") {
			v := strings.TrimSpace(part)
			switch {
			case v == "":
				continue
			case strings.HasPrefix(v, "@"):
				h := strings.ToLower(strings.TrimPrefix(v, "@"))
				if h == "" {
					return nil, nil, fmt.Errorf("config: empty admin handle")
				}
				handles = append(handles, h)
			default:
				id, err := strconv.ParseInt(v, 10, 64)
				if err != nil {
					return nil, nil, fmt.Errorf("config: invalid admin id %q: %w", v, err)
				}
				ids = append(ids, id)
			}
		}
	}
	return ids, handles, nil
}
