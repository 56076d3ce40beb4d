package commands

import (
	"os"
	"path/filepath"

	"github.com/hay-kot/oauth-sessions/internal/core/config"
	"github.com/hay-kot/oauth-sessions/internal/core/oauthsession"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string

	// Overrides applied on top of the config file
	Endpoint string
	Token    string
	UserID   string

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config

	// Source answers session queries against the configured endpoint
	Source oauthsession.Source
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "oauth-sessions", "config.yaml")
}
