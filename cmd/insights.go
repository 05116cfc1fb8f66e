package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/insights/internal/formatter"
	"github.com/desertthunder/insights/internal/insights"
	"github.com/urfave/cli/v3"
)

// Top prints the user's top artists, tracks and genres for one or all time ranges.
func (r *Runner) Top(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	ranges := insights.AllTimeRanges()
	if !cmd.Bool("all-ranges") {
		tr, err := insights.ParseTimeRange(cmd.String("range"))
		if err != nil {
			return err
		}
		ranges = []insights.TimeRange{tr}
	}

	if err := r.open(); err != nil {
		return err
	}
	if err := r.requireToken(); err != nil {
		return err
	}

	entries := make([]*insights.Insights, 0, len(ranges))
	for _, tr := range ranges {
		entry, err := r.cache.Fetch(ctx, tr)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
	}

	data, err := formatter.Render(entries, format)
	if err != nil {
		return err
	}

	if path := cmd.String("output"); path != "" {
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		r.logger.Info("insights saved", "file", path, "format", format)
		return nil
	}

	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
