package database

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Config holds database connection settings.
type Config struct {
	Driver string `yaml:"driver" envconfig:"DB_DRIVER"`
	// URL is a full connection string; it wins over the discrete fields.
	// For sqlite3 it is the database file path.
	URL            string `yaml:"url" envconfig:"DATABASE_URL"`
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
	// MigrationsDir holds one subdirectory per driver; defaults to "migrations".
	MigrationsDir string `yaml:"migrations_dir" envconfig:"DB_MIGRATIONS_DIR"`
}

// Normalize fills defaults and validates the driver name.
func (c *Config) Normalize() error {
	c.Driver = strings.ToLower(strings.TrimSpace(c.Driver))
	switch c.Driver {
	case "", "postgresql", DriverPostgres:
		c.Driver = DriverPostgres
		if c.URL == "" && c.Host == "" {
			return fmt.Errorf("database: url or host is required for postgres")
		}
		if c.SSLMode == "" {
			c.SSLMode = "disable"
		}
	case "sqlite", DriverSQLite:
		c.Driver = DriverSQLite
		if c.URL == "" {
			c.URL = c.Name
		}
		if c.URL == "" {
			return fmt.Errorf("database: url (file path) is required for sqlite3")
		}
	default:
		return fmt.Errorf("database: unsupported driver %q; allowed: postgres, sqlite3", c.Driver)
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = 10
	}
	if c.MigrationsDir == "" {
		c.MigrationsDir = "migrations"
	}
	return nil
}

// DSN returns the connection string for database/sql.
func (c Config) DSN() string {
	if c.Driver == DriverSQLite {
		return sqliteDSN(c.URL)
	}
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("postgres://%s@%s/%s?sslmode=%s",
		url.UserPassword(c.User, c.Password).String(), hostPort(c.Host, c.Port), c.Name, c.SSLMode)
}

// MigrateURL returns the golang-migrate database URL.
func (c Config) MigrateURL() string {
	if c.Driver == DriverSQLite {
		return "sqlite3://" + sqliteDSN(c.URL)
	}
	return c.DSN()
}

// MigrationsPath returns the driver specific migrations directory.
func (c Config) MigrationsPath() string {
	return filepath.Join(c.MigrationsDir, c.Driver)
}

// Target renders the connection target without credentials for logs.
func (c Config) Target() string {
	if c.Driver == DriverSQLite {
		return c.URL
	}
	if c.URL != "" {
		if u, err := url.Parse(c.URL); err == nil {
			return u.Host + u.Path
		}
		return "url"
	}
	return hostPort(c.Host, c.Port) + "/" + c.Name
}

func hostPort(host, port string) string {
	if port == "" {
		return host
	}
	return host + ":" + port
}

// sqliteDSN turns on foreign keys so membership rows cascade with their event.
func sqliteDSN(path string) string {
	if strings.Contains(path, "_foreign_keys") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on"
}
