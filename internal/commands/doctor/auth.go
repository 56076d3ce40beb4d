package doctor

import (
	"context"

	"github.com/hay-kot/oauth-sessions/internal/core/config"
)

// AuthCheck reports where the bearer token comes from.
type AuthCheck struct {
	config *config.Config
	getenv func(string) string
}

// NewAuthCheck creates a token resolution check. getenv is usually os.Getenv.
func NewAuthCheck(cfg *config.Config, getenv func(string) string) *AuthCheck {
	return &AuthCheck{config: cfg, getenv: getenv}
}

func (c *AuthCheck) Name() string {
	return "Authentication"
}

func (c *AuthCheck) RequiresPrevious() bool { return true }

func (c *AuthCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	env := c.config.TokenEnv
	source := "token_env"
	if rule, ok := c.config.MatchAuthRule(); ok {
		env = rule
		source = "auth rule"
	}

	switch {
	case c.config.Token != "":
		result.Items = append(result.Items, CheckItem{
			Label:  "Token",
			Status: StatusPass,
			Detail: "provided by --token",
		})
	case env != "" && c.getenv(env) != "":
		result.Items = append(result.Items, CheckItem{
			Label:  "Token",
			Status: StatusPass,
			Detail: "read from $" + env + " (" + source + ")",
		})
	default:
		result.Items = append(result.Items, CheckItem{
			Label:  "Token",
			Status: StatusFail,
			Detail: "no token found, set $" + env + " or pass --token",
		})
	}

	return result
}
