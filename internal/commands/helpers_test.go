package commands

import "github.com/hay-kot/oauth-sessions/internal/core/config"

func testFlagsConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Endpoint = "https://auth.example.com/graphql"
	return &cfg
}
