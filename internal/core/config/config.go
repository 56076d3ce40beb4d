// Package config handles configuration loading and validation for oauth-sessions.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hay-kot/criterio"
	"gopkg.in/yaml.v3"

	"github.com/hay-kot/oauth-sessions/internal/core/oauthsession"
)

// Pagination defaults. The load-more increment matches what the web UI asks
// for on each "load more".
const (
	DefaultInitialPageSize = 10
	DefaultPageSize        = 2
	DefaultRequestTimeout  = 15 * time.Second
	DefaultTokenEnv        = "OAUTH_SESSIONS_TOKEN"
)

// Config holds the application configuration.
type Config struct {
	Endpoint       string        `yaml:"endpoint"`
	TokenEnv       string        `yaml:"token_env"`
	Auth           []AuthRule    `yaml:"auth"`
	UserID         string        `yaml:"user_id"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	Pagination     Pagination    `yaml:"pagination"`
	Keybindings    Keybindings   `yaml:"keybindings"`
	Token          string        `yaml:"-"` // set by caller from flags, never read from disk
}

// Pagination controls how many sessions are requested per page.
type Pagination struct {
	// InitialPageSize is the size of the first page loaded on mount.
	InitialPageSize int `yaml:"initial_page_size"`
	// PageSize is the number of sessions appended by each load-more.
	PageSize int `yaml:"page_size"`
}

// AuthRule selects a token environment variable for endpoints matching Pattern.
type AuthRule struct {
	// Pattern is a doublestar glob matched against "host/path" of the endpoint.
	Pattern  string `yaml:"pattern"`
	TokenEnv string `yaml:"token_env"`
}

// Keybindings maps TUI actions to keys.
type Keybindings struct {
	LoadMore string `yaml:"load_more"`
	Retry    string `yaml:"retry"`
	Reload   string `yaml:"reload"`
	Filter   string `yaml:"filter"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		TokenEnv:       DefaultTokenEnv,
		Auth:           []AuthRule{},
		RequestTimeout: DefaultRequestTimeout,
		Pagination: Pagination{
			InitialPageSize: DefaultInitialPageSize,
			PageSize:        DefaultPageSize,
		},
		Keybindings: Keybindings{
			LoadMore: "m",
			Retry:    "r",
			Reload:   "R",
			Filter:   "s",
		},
	}
}

// Load reads configuration from the given path. A missing file yields the
// defaults. Validation is left to the caller so flag overrides can be applied
// first.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.TokenEnv == "" {
		c.TokenEnv = defaults.TokenEnv
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = defaults.RequestTimeout
	}
	if c.Pagination.InitialPageSize == 0 {
		c.Pagination.InitialPageSize = defaults.Pagination.InitialPageSize
	}
	if c.Pagination.PageSize == 0 {
		c.Pagination.PageSize = defaults.Pagination.PageSize
	}
	if c.Keybindings.LoadMore == "" {
		c.Keybindings.LoadMore = defaults.Keybindings.LoadMore
	}
	if c.Keybindings.Retry == "" {
		c.Keybindings.Retry = defaults.Keybindings.Retry
	}
	if c.Keybindings.Reload == "" {
		c.Keybindings.Reload = defaults.Keybindings.Reload
	}
	if c.Keybindings.Filter == "" {
		c.Keybindings.Filter = defaults.Keybindings.Filter
	}
}

// Validate checks that the configuration is usable. Errors are returned as
// criterio.FieldErrors keyed by YAML path.
func (c *Config) Validate() error {
	var errs criterio.FieldErrorsBuilder

	if c.Endpoint == "" {
		errs = errs.Append("endpoint", errors.New("is required (set in config, --endpoint or OAUTH_SESSIONS_ENDPOINT)"))
	} else if u, err := url.Parse(c.Endpoint); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = errs.Append("endpoint", fmt.Errorf("must be an absolute http(s) URL, got %q", c.Endpoint))
	}

	if c.RequestTimeout < 0 {
		errs = errs.Append("request_timeout", errors.New("cannot be negative"))
	}

	if err := validPageSize(c.Pagination.InitialPageSize); err != nil {
		errs = errs.Append("pagination.initial_page_size", err)
	}
	if err := validPageSize(c.Pagination.PageSize); err != nil {
		errs = errs.Append("pagination.page_size", err)
	}

	for i, rule := range c.Auth {
		field := fmt.Sprintf("auth[%d]", i)
		if rule.Pattern == "" || !doublestar.ValidatePattern(rule.Pattern) {
			errs = errs.Append(field+".pattern", fmt.Errorf("invalid glob %q", rule.Pattern))
		}
		if rule.TokenEnv == "" {
			errs = errs.Append(field+".token_env", errors.New("is required"))
		}
	}

	seen := make(map[string]string, 4)
	for _, kb := range []struct{ name, key string }{
		{"load_more", c.Keybindings.LoadMore},
		{"retry", c.Keybindings.Retry},
		{"reload", c.Keybindings.Reload},
		{"filter", c.Keybindings.Filter},
	} {
		field := "keybindings." + kb.name
		if kb.key == "" {
			errs = errs.Append(field, errors.New("cannot be empty"))
			continue
		}
		if reservedKeys[kb.key] {
			errs = errs.Append(field, fmt.Errorf("key %q is reserved", kb.key))
			continue
		}
		if other, ok := seen[kb.key]; ok {
			errs = errs.Append(field, fmt.Errorf("key %q already bound to %s", kb.key, other))
			continue
		}
		seen[kb.key] = kb.name
	}

	return errs.ToError()
}

// reservedKeys are handled by the list itself and cannot be rebound.
var reservedKeys = map[string]bool{
	"q": true, "ctrl+c": true, "enter": true, "esc": true, "/": true, "?": true,
	"up": true, "down": true, "j": true, "k": true,
}

func validPageSize(n int) error {
	if n < 1 || n > oauthsession.MaxPageSize {
		return fmt.Errorf("must be between 1 and %d, got %d", oauthsession.MaxPageSize, n)
	}
	return nil
}
