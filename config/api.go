package config

import (
	"strings"
	"time"
)

const (
	minAPITimeout = time.Second
	maxAPITimeout = 5 * time.Minute
)

// APIConfig contains platform API connection configuration.
type APIConfig struct {
	// BaseURL is the root of the platform session/role API.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8000/api"`

	// RefreshPath is the token-renewal endpoint, relative to BaseURL.
	RefreshPath string `env:"REFRESH_PATH" envDefault:"refresh-token"`

	// Timeout bounds each HTTP exchange, the refresh call included.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

// Sanitize applies guardrails to API configuration values.
func (c *APIConfig) Sanitize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.RefreshPath = strings.Trim(strings.TrimSpace(c.RefreshPath), "/")

	if c.Timeout < minAPITimeout {
		c.Timeout = minAPITimeout
	}
	if c.Timeout > maxAPITimeout {
		c.Timeout = maxAPITimeout
	}
}
