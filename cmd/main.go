package main

import (
	"context"
	"os"

	"github.com/desertthunder/insights/internal/shared"
	"github.com/urfave/cli/v3"
)

// -v is --verbose, so --version has no short alias.
func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:  "version",
		Usage: "print the version",
	}
}

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	if err := newApp(runner).Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}

// newApp builds the root command. Config is loaded before any subcommand and resources are
// released after it.
func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "insights",
		Usage:   "Explore your Spotify listening history from the terminal",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Before:   r.Configure,
		After:    r.Close,
		Commands: r.register(),
	}
}
