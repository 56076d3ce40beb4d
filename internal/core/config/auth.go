package config

import (
	"net/url"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ResolveToken picks the bearer token for the configured endpoint. An explicit
// Token wins, then the first auth rule whose pattern matches the endpoint,
// then TokenEnv. getenv is usually os.Getenv.
func (c *Config) ResolveToken(getenv func(string) string) string {
	if c.Token != "" {
		return c.Token
	}

	if env, ok := c.MatchAuthRule(); ok {
		if tok := getenv(env); tok != "" {
			return tok
		}
	}

	if c.TokenEnv != "" {
		return getenv(c.TokenEnv)
	}

	return ""
}

// MatchAuthRule returns the token env of the first auth rule matching the
// endpoint.
func (c *Config) MatchAuthRule() (string, bool) {
	target := endpointTarget(c.Endpoint)
	if target == "" {
		return "", false
	}

	for _, rule := range c.Auth {
		ok, err := doublestar.Match(rule.Pattern, target)
		if err == nil && ok {
			return rule.TokenEnv, true
		}
	}

	return "", false
}

// endpointTarget turns https://host:port/path into host:port/path.
func endpointTarget(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Host + "/" + strings.TrimPrefix(u.Path, "/")
}
