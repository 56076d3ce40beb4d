package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/hay-kot/oauth-sessions/internal/core/oauthsession"
	"github.com/hay-kot/oauth-sessions/internal/tui"
)

type TuiCmd struct {
	flags *Flags
	state string
}

// NewTuiCmd creates a new tui command
func NewTuiCmd(flags *Flags) *TuiCmd {
	return &TuiCmd{
		flags: flags,
	}
}

// Flags returns the TUI-specific flags for registration on the root command
func (cmd *TuiCmd) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "state",
			Usage:       "initial state filter (all, active, finished)",
			Value:       string(oauthsession.FilterAll),
			Destination: &cmd.state,
		},
	}
}

// Run executes the TUI. Exported for use as default command.
func (cmd *TuiCmd) Run(ctx context.Context, c *cli.Command) error {
	return cmd.run(ctx, c)
}

func (cmd *TuiCmd) run(ctx context.Context, _ *cli.Command) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("the interactive view needs a terminal, use 'oauth-sessions ls' instead")
	}

	if err := requireValidConfig(cmd.flags); err != nil {
		return err
	}

	state, err := oauthsession.ParseStateFilter(cmd.state)
	if err != nil {
		return fmt.Errorf("--state: %w", err)
	}

	who, err := resolveUser(ctx, cmd.flags)
	if err != nil {
		return err
	}

	opts := tui.Options{
		UserID: who.UserID,
		Label:  who.Label,
		State:  state,
		Logger: log.With().Str("component", "tui").Logger(),
	}

	m := tui.New(cmd.flags.Source, cmd.flags.Config, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}

	return nil
}
