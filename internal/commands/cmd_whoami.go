package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v3"
)

type WhoamiCmd struct {
	flags *Flags
	json  bool
}

// NewWhoamiCmd creates a new whoami command
func NewWhoamiCmd(flags *Flags) *WhoamiCmd {
	return &WhoamiCmd{flags: flags}
}

// Register adds the whoami command to the application
func (cmd *WhoamiCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "whoami",
		Usage:       "Show the authenticated user",
		UsageText:   "oauth-sessions whoami [options]",
		Description: "Queries the endpoint for the user the token belongs to.",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON",
				Destination: &cmd.json,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *WhoamiCmd) run(ctx context.Context, c *cli.Command) error {
	if err := requireValidConfig(cmd.flags); err != nil {
		return err
	}

	viewer, err := cmd.flags.Source.Viewer(ctx)
	if err != nil {
		return fmt.Errorf("resolve viewer: %w", err)
	}

	out := c.Root().Writer
	if cmd.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(viewer)
	}

	_, err = fmt.Fprintf(out, "%s\t%s\n", viewer.Username, viewer.ID)
	return err
}
