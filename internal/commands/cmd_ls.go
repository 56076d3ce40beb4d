package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/oauth-sessions/internal/core/connection"
	"github.com/hay-kot/oauth-sessions/internal/core/oauthsession"
	"github.com/hay-kot/oauth-sessions/internal/printer"
	"github.com/hay-kot/oauth-sessions/pkg/tmpl"
)

type LsCmd struct {
	flags  *Flags
	first  int
	after  string
	all    bool
	state  string
	json   bool
	format string
}

// NewLsCmd creates a new ls command
func NewLsCmd(flags *Flags) *LsCmd {
	return &LsCmd{flags: flags}
}

// Register adds the ls command to the application
func (cmd *LsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "ls",
		Usage:     "List OAuth2 sessions",
		UsageText: "oauth-sessions ls [options]",
		Description: `Prints one page of OAuth2 sessions as a table. When more sessions are
available the end cursor is printed so the next page can be requested with
--after, or use --all to follow every page.

--format takes a Go template executed once per session. Fields: .Cursor,
.ID, .Scope, .CreatedAt, .FinishedAt, .LastActiveAt, .LastActiveIP,
.Client.ClientID, .Client.ClientName, .State, .DisplayName. Functions:
ago, join, upper.`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "first",
				Aliases:     []string{"n"},
				Usage:       "sessions per page (defaults to pagination.initial_page_size)",
				Destination: &cmd.first,
			},
			&cli.StringFlag{
				Name:        "after",
				Usage:       "cursor to start after",
				Destination: &cmd.after,
			},
			&cli.BoolFlag{
				Name:        "all",
				Aliases:     []string{"a"},
				Usage:       "follow pages until the end of the list",
				Destination: &cmd.all,
			},
			&cli.StringFlag{
				Name:        "state",
				Usage:       "filter by state (all, active, finished)",
				Value:       string(oauthsession.FilterAll),
				Destination: &cmd.state,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON",
				Destination: &cmd.json,
			},
			&cli.StringFlag{
				Name:        "format",
				Usage:       "Go template rendered for each session",
				Destination: &cmd.format,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *LsCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	if err := requireValidConfig(cmd.flags); err != nil {
		return err
	}

	if cmd.json && cmd.format != "" {
		return fmt.Errorf("--json and --format cannot be combined")
	}

	state, err := oauthsession.ParseStateFilter(cmd.state)
	if err != nil {
		return fmt.Errorf("--state: %w", err)
	}

	var format *tmpl.Template
	if cmd.format != "" {
		format, err = tmpl.Parse(cmd.format)
		if err != nil {
			return fmt.Errorf("--format: %w", err)
		}
	}

	who, err := resolveUser(ctx, cmd.flags)
	if err != nil {
		return err
	}

	first := cmd.first
	if first == 0 {
		first = cmd.flags.Config.Pagination.InitialPageSize
	}
	if first < 1 || first > oauthsession.MaxPageSize {
		return fmt.Errorf("--first must be between 1 and %d, got %d", oauthsession.MaxPageSize, first)
	}

	conn, err := collectPages(ctx, cmd.flags.Source, pageQuery{
		UserID: who.UserID,
		First:  first,
		After:  cmd.after,
		State:  state,
		All:    cmd.all,
	})
	if err != nil {
		return err
	}

	out := c.Root().Writer
	edges := conn.Edges()

	switch {
	case cmd.json:
		return writeJSON(out, conn)
	case format != nil:
		if err := writeFormatted(out, format, edges); err != nil {
			return err
		}
	case len(edges) == 0:
		p.Infof("No sessions found")
		return nil
	default:
		writeTable(out, edges, time.Now())
	}

	if conn.HasNext() {
		p.Printf("")
		p.Infof("More sessions available: oauth-sessions ls --after %s", conn.EndCursor())
	}

	return nil
}

// pageQuery describes the pages ls fetches.
type pageQuery struct {
	UserID string
	First  int
	After  string
	State  oauthsession.StateFilter
	All    bool
}

// collectPages loads the first page, and every following page when q.All is
// set, into a connection.
func collectPages(ctx context.Context, source oauthsession.Source, q pageQuery) (*connection.Connection, error) {
	conn := connection.New()

	for {
		ticket, ok := conn.Begin(q.First)
		if !ok {
			return conn, nil
		}

		after := ticket.After
		if !conn.Loaded() {
			after = q.After
		}

		page, err := source.ListSessions(ctx, oauthsession.PageRequest{
			UserID: q.UserID,
			First:  ticket.First,
			After:  after,
			State:  q.State,
		})
		if err != nil {
			conn.Fail(ticket, err)
			return nil, fmt.Errorf("list sessions: %w", err)
		}

		if _, err := conn.Complete(ticket, page); err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}

		if !q.All {
			return conn, nil
		}
	}
}

func writeTable(w io.Writer, edges []oauthsession.Edge, now time.Time) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "CURSOR\tID\tCLIENT\tSTATE\tCREATED\tLAST ACTIVE")

	for _, e := range edges {
		s := e.Node
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Cursor,
			s.ID,
			s.DisplayName(),
			s.State(),
			humanize.RelTime(s.CreatedAt, now, "ago", "from now"),
			lastActive(s, now),
		)
	}

	_ = tw.Flush()
}

func lastActive(s oauthsession.Session, now time.Time) string {
	if s.LastActiveAt == nil {
		return "never"
	}
	return humanize.RelTime(*s.LastActiveAt, now, "ago", "from now")
}

// formatRow is the data handed to --format templates.
type formatRow struct {
	Cursor string
	oauthsession.Session
}

func writeFormatted(w io.Writer, t *tmpl.Template, edges []oauthsession.Edge) error {
	for _, e := range edges {
		line, err := t.Render(formatRow{Cursor: e.Cursor, Session: e.Node})
		if err != nil {
			return fmt.Errorf("render %s: %w", e.Cursor, err)
		}
		if !strings.HasSuffix(line, "\n") {
			line += "\n"
		}
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, conn *connection.Connection) error {
	out := struct {
		Edges       []oauthsession.Edge `json:"edges"`
		HasNextPage bool                `json:"hasNextPage"`
		EndCursor   string              `json:"endCursor,omitempty"`
		TotalCount  int                 `json:"totalCount,omitempty"`
	}{
		Edges:       conn.Edges(),
		HasNextPage: conn.HasNext(),
		EndCursor:   conn.EndCursor(),
		TotalCount:  conn.TotalCount(),
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
