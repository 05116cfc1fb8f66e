package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/insights/internal/insights"
)

// Panel is the list shown below the range selector.
type Panel int

const (
	ArtistsPanel Panel = iota
	TracksPanel
	GenresPanel
)

func (p Panel) String() string {
	switch p {
	case ArtistsPanel:
		return "Artists"
	case TracksPanel:
		return "Tracks"
	case GenresPanel:
		return "Genres"
	default:
		return fmt.Sprintf("Panel(%d)", int(p))
	}
}

var panels = []Panel{ArtistsPanel, TracksPanel, GenresPanel}

// Fetcher is the part of [insights.Cache] the dashboard uses.
type Fetcher interface {
	Fetch(ctx context.Context, key insights.TimeRange) (*insights.Insights, error)
	Get(key insights.TimeRange) (*insights.Insights, bool)
}

var _ Fetcher = (*insights.Cache)(nil)

// Model is the dashboard state.
//
// Only responses for the selected range are applied; a response for a range the user has since
// left is dropped (the cache still keeps it).
type Model struct {
	ctx      context.Context
	cache    Fetcher
	ranges   []insights.TimeRange
	selected int
	panel    Panel
	entry    *insights.Insights
	loading  bool
	err      error
	width    int
	height   int
	list     list.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap
}

// NewModel creates a dashboard that opens on initial.
func NewModel(ctx context.Context, cache Fetcher, initial insights.TimeRange) *Model {
	ranges := insights.AllTimeRanges()
	selected := 0
	for i, r := range ranges {
		if r == initial {
			selected = i
		}
	}

	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)

	return &Model{
		ctx:      ctx,
		cache:    cache,
		ranges:   ranges,
		selected: selected,
		list:     l,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.ok)),
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Selected is the time range currently shown.
func (m *Model) Selected() insights.TimeRange {
	return m.ranges[m.selected]
}

func (m *Model) Init() tea.Cmd {
	return m.load()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-10)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case insightsLoadedMsg:
		if msg.timeRange != m.Selected() {
			return m, nil
		}
		m.loading = false
		m.err = msg.err
		m.entry = msg.entry
		m.refreshList()
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.prev):
		return m, m.selectRange((m.selected + len(m.ranges) - 1) % len(m.ranges))
	case key.Matches(msg, m.keys.next):
		return m, m.selectRange((m.selected + 1) % len(m.ranges))
	case key.Matches(msg, m.keys.short):
		return m, m.selectRange(0)
	case key.Matches(msg, m.keys.medium):
		return m, m.selectRange(1)
	case key.Matches(msg, m.keys.long):
		return m, m.selectRange(2)
	case key.Matches(msg, m.keys.panel):
		m.panel = (m.panel + 1) % Panel(len(panels))
		m.refreshList()
		return m, nil
	case key.Matches(msg, m.keys.retry):
		if m.err != nil && !m.loading {
			return m, m.load()
		}
		return m, nil
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// selectRange switches to ranges[i]. Reselecting the current range is a no-op.
func (m *Model) selectRange(i int) tea.Cmd {
	if i == m.selected {
		return nil
	}
	m.selected = i
	return m.load()
}

// load shows the selected range, straight from the cache when possible.
func (m *Model) load() tea.Cmd {
	r := m.Selected()
	m.err = nil

	if entry, ok := m.cache.Get(r); ok {
		m.loading = false
		m.entry = entry
		m.refreshList()
		return nil
	}

	m.loading = true
	m.entry = nil
	m.refreshList()
	return tea.Batch(m.spinner.Tick, m.fetch(r))
}

func (m *Model) fetch(r insights.TimeRange) tea.Cmd {
	return func() tea.Msg {
		entry, err := m.cache.Fetch(m.ctx, r)
		return insightsLoadedMsg{timeRange: r, entry: entry, err: err}
	}
}

func (m *Model) refreshList() {
	var items []list.Item
	if m.entry != nil {
		switch m.panel {
		case ArtistsPanel:
			for i, a := range m.entry.Artists {
				items = append(items, artistItem{rank: i + 1, artist: a})
			}
		case TracksPanel:
			for i, t := range m.entry.Tracks {
				items = append(items, trackItem{rank: i + 1, track: t})
			}
		case GenresPanel:
			top := 0
			if len(m.entry.Genres) > 0 {
				top = m.entry.Genres[0].Count
			}
			for _, g := range m.entry.Genres {
				items = append(items, genreItem{genre: g, top: top})
			}
		}
	}
	m.list.SetItems(items)
	m.list.ResetSelected()
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("Listening Insights"))
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	switch {
	case m.loading:
		fmt.Fprintf(&b, "%s Loading %s...\n", m.spinner.View(), m.Selected().Label())
	case m.err != nil:
		b.WriteString(styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
		b.WriteString(styles.warn.Render("Press r to retry, q to quit"))
		b.WriteString("\n")
	case m.entry != nil:
		b.WriteString(m.renderPanels())
		b.WriteString("\n")
		b.WriteString(m.list.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderTabs() string {
	tabs := make([]string, 0, len(m.ranges))
	for i, r := range m.ranges {
		label := fmt.Sprintf("%d %s", i+1, r.Label())
		if i == m.selected {
			tabs = append(tabs, styles.active.Render(label))
		} else {
			tabs = append(tabs, styles.inactive.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) renderPanels() string {
	tabs := make([]string, 0, len(panels))
	for _, p := range panels {
		if p == m.panel {
			tabs = append(tabs, styles.active.Render(p.String()))
		} else {
			tabs = append(tabs, styles.inactive.Render(p.String()))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}
