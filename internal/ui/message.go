package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/insights/internal/insights"
)

var _ tea.Msg = insightsLoadedMsg{}

// insightsLoadedMsg carries the outcome of a fetch for timeRange.
//
// It may arrive after the user has moved to another range; see [Model.Update].
type insightsLoadedMsg struct {
	timeRange insights.TimeRange
	entry     *insights.Insights
	err       error
}
