package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/insights/internal/insights"
	"github.com/desertthunder/insights/internal/shared"
	"github.com/desertthunder/insights/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive listening insights dashboard.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	initial, err := insights.ParseTimeRange(cmd.String("range"))
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, r.logger.GetLevel())
	r.SetLogger(fileLogger)

	if err := r.open(); err != nil {
		return err
	}
	if err := r.requireToken(); err != nil {
		return err
	}

	model := ui.NewModel(ctx, r.cache, initial)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
