package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/hay-kot/oauth-sessions/internal/core/oauthsession"
	"github.com/hay-kot/oauth-sessions/internal/styles"
)

// target identifies whose sessions a command lists.
type target struct {
	UserID string
	Label  string
}

// resolveUser picks the user to list: --user, then user_id from the config,
// then the authenticated viewer. When the viewer lookup fails for a reason
// other than authentication and a terminal is attached, the user is asked.
func resolveUser(ctx context.Context, flags *Flags) (target, error) {
	if flags.UserID != "" {
		return target{UserID: flags.UserID, Label: flags.UserID}, nil
	}
	if flags.Config.UserID != "" {
		return target{UserID: flags.Config.UserID, Label: flags.Config.UserID}, nil
	}

	viewer, err := flags.Source.Viewer(ctx)
	if err == nil {
		return target{UserID: viewer.ID, Label: viewer.Username}, nil
	}
	if errors.Is(err, oauthsession.ErrUnauthenticated) {
		return target{}, fmt.Errorf("resolve viewer: %w", err)
	}

	log.Warn().Err(err).Msg("viewer lookup failed")

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return target{}, fmt.Errorf("resolve viewer: %w (pass --user to choose a user)", err)
	}

	id, err := promptUserID()
	if err != nil {
		return target{}, err
	}
	return target{UserID: id, Label: id}, nil
}

// promptUserID asks for a user ID on the terminal.
func promptUserID() (string, error) {
	var id string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("User ID *").
				Description("The ID of the user whose OAuth2 sessions to list").
				Placeholder("01H8PKNWKKRPCBW4YGH1RWV279").
				Value(&id).
				Validate(requiredValidator("User ID")),
		),
	).WithTheme(styles.FormTheme())

	if err := form.Run(); err != nil {
		return "", fmt.Errorf("prompt for user: %w", err)
	}

	return strings.TrimSpace(id), nil
}

// requiredValidator returns a validator that checks for non-empty values.
func requiredValidator(label string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", label)
		}
		return nil
	}
}
