package commands

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/oauth-sessions/internal/commands/doctor"
	"github.com/hay-kot/oauth-sessions/internal/printer"
)

type DoctorCmd struct {
	flags   *Flags
	format  string
	offline bool
}

// NewDoctorCmd creates a new doctor command
func NewDoctorCmd(flags *Flags) *DoctorCmd {
	return &DoctorCmd{flags: flags}
}

// Register adds the doctor command to the application
func (cmd *DoctorCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "doctor",
		Usage:     "Check that sessions can be listed",
		UsageText: "oauth-sessions doctor [options]",
		Description: `Verifies the setup step by step: the configuration validates, a bearer token
resolves for the endpoint, and the endpoint answers a viewer query and a
one-session page. A step is skipped when an earlier one failed.

Use --offline to stop after the token check.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (text, json)",
				Value:       "text",
				Destination: &cmd.format,
			},
			&cli.BoolFlag{
				Name:        "offline",
				Usage:       "skip the checks that contact the endpoint",
				Destination: &cmd.offline,
			},
		},
		Action: cmd.run,
	})
	return app
}

// checks lists the doctor checks for the current flags, in run order.
func (cmd *DoctorCmd) checks() []doctor.Check {
	checks := []doctor.Check{
		doctor.NewConfigCheck(cmd.flags.Config, cmd.flags.ConfigPath),
		doctor.NewAuthCheck(cmd.flags.Config, os.Getenv),
	}
	if cmd.offline {
		return checks
	}

	userID := cmd.flags.UserID
	if userID == "" && cmd.flags.Config != nil {
		userID = cmd.flags.Config.UserID
	}
	return append(checks, doctor.NewAPICheck(cmd.flags.Source, userID))
}

func (cmd *DoctorCmd) run(ctx context.Context, c *cli.Command) error {
	results := doctor.RunAll(ctx, cmd.checks())

	var err error
	if cmd.format == "json" {
		err = writeDoctorJSON(c.Root().Writer, results)
	} else {
		writeDoctorText(printer.Ctx(ctx), results)
	}
	if err != nil {
		return err
	}

	if _, _, failed := doctor.Summary(results); failed > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

type doctorReport struct {
	Healthy bool            `json:"healthy"`
	Passed  int             `json:"passed"`
	Warned  int             `json:"warned"`
	Failed  int             `json:"failed"`
	Checks  []doctor.Result `json:"checks"`
}

func writeDoctorJSON(w io.Writer, results []doctor.Result) error {
	passed, warned, failed := doctor.Summary(results)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doctorReport{
		Healthy: failed == 0,
		Passed:  passed,
		Warned:  warned,
		Failed:  failed,
		Checks:  results,
	})
}

func writeDoctorText(p *printer.Printer, results []doctor.Result) {
	for _, result := range results {
		p.Section(result.Name)
		for _, item := range result.Items {
			switch item.Status {
			case doctor.StatusPass:
				p.CheckItem(item.Label, item.Detail)
			case doctor.StatusWarn:
				p.WarnItem(item.Label, item.Detail)
			default:
				p.FailItem(item.Label, item.Detail)
			}
		}
		p.Printf("")
	}

	passed, warned, failed := doctor.Summary(results)
	if failed > 0 {
		p.Errorf("%d check(s) failed, %d passed, %d warning(s)", failed, passed, warned)
		return
	}
	p.Successf("Ready to list sessions (%d passed, %d warning(s))", passed, warned)
}
