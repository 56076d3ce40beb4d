package config

import (
	"fmt"
	"net"
	"net/url"

	"github.com/bmatcuk/doublestar/v4"
)

// Warning is a non-fatal configuration issue.
type Warning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// Warnings reports settings that are valid but probably not intended. It
// assumes Validate has passed for the fields it inspects.
func (c *Config) Warnings() []Warning {
	var warnings []Warning

	if u, err := url.Parse(c.Endpoint); err == nil && u.Scheme == "http" && !isLoopback(u.Hostname()) {
		warnings = append(warnings, Warning{
			Category: "Endpoint",
			Item:     "endpoint",
			Message:  "plain http to a remote host sends the bearer token unencrypted",
		})
	}

	target := endpointTarget(c.Endpoint)
	matched := false
	for i, rule := range c.Auth {
		ok, err := doublestar.Match(rule.Pattern, target)
		if err != nil || !ok {
			continue
		}
		if matched {
			warnings = append(warnings, Warning{
				Category: "Auth",
				Item:     fmt.Sprintf("auth[%d]", i),
				Message:  fmt.Sprintf("shadowed by an earlier rule matching %s", target),
			})
		}
		matched = true
	}

	if c.Pagination.PageSize > c.Pagination.InitialPageSize {
		warnings = append(warnings, Warning{
			Category: "Pagination",
			Item:     "pagination.page_size",
			Message: fmt.Sprintf("load-more size %d is larger than the initial page size %d",
				c.Pagination.PageSize, c.Pagination.InitialPageSize),
		})
	}

	return warnings
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
