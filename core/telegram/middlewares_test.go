package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"

	coreconfig "github.com/unimeeting/unimeetbot/core/config"
)

func names(mws []Middleware) []string {
	out := make([]string, 0, len(mws))
	for _, mw := range mws {
		out = append(out, mw.Name)
	}
	return out
}

func TestDefaultMiddlewares(t *testing.T) {
	assert.Equal(t, []string{"recover", "serial", "logger", "metrics"}, names(DefaultMiddlewares(nil, nil, nil)))

	cfg := &coreconfig.Config{RateLimit: coreconfig.RateLimitConfig{IntervalMS: 500}}
	assert.Equal(t, []string{"recover", "rate_limit", "serial", "logger", "metrics"}, names(DefaultMiddlewares(cfg, nil, nil)))
}
