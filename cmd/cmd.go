// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/insights/internal/formatter"
	"github.com/desertthunder/insights/internal/insights"
	"github.com/urfave/cli/v3"
)

// register returns the top-level commands wired to the runner's actions.
func (r *Runner) register() []*cli.Command {
	return []*cli.Command{
		loginCommand(r),
		logoutCommand(r),
		statusCommand(r),
		topCommand(r),
		tuiCommand(r),
		setupCommand(r),
	}
}

// loginCommand runs the PKCE authorization flow.
func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "login",
		Usage:  "Authenticate with Spotify in the browser",
		Action: r.Login,
	}
}

func logoutCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Forget the stored access token",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Also clear any pending login state",
			},
		},
		Action: r.Logout,
	}
}

func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show authentication state and the last login attempt",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "verify",
				Usage: "Check the token against the Spotify profile endpoint",
			},
		},
		Action: r.Status,
	}
}

// topCommand prints listening insights for one or all time ranges.
func topCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "top",
		Aliases: []string{"insights"},
		Usage:   "Show top artists, tracks and genres",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "range",
				Aliases: []string{"r"},
				Usage:   "Time range: short (4 weeks), medium (6 months) or long (all time)",
				Value:   string(insights.DefaultTimeRange),
			},
			&cli.BoolFlag{
				Name:  "all-ranges",
				Usage: "Fetch every time range",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: txt, json, csv or markdown",
				Value:   string(formatter.Text),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to a file instead of stdout",
			},
		},
		Action: r.Top,
	}
}

// tuiCommand returns the top-level TUI command for browsing insights interactively.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive insights dashboard",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "range",
				Aliases: []string{"r"},
				Usage:   "Initial time range",
				Value:   string(insights.DefaultTimeRange),
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the dashboard is open",
				Value: "insights.log",
			},
		},
		Action: r.TUI,
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write an example config file to the --config path",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}
