package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/insights/internal/insights"
	tu "github.com/desertthunder/insights/internal/testing"
)

// fakeFetcher serves entries from a map and counts fetches per range.
type fakeFetcher struct {
	cached  map[insights.TimeRange]*insights.Insights
	fetched map[insights.TimeRange]int
	err     error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		cached:  map[insights.TimeRange]*insights.Insights{},
		fetched: map[insights.TimeRange]int{},
	}
}

func (f *fakeFetcher) Fetch(ctx context.Context, key insights.TimeRange) (*insights.Insights, error) {
	f.fetched[key]++
	if f.err != nil {
		return nil, f.err
	}
	return sampleEntry(key), nil
}

func (f *fakeFetcher) Get(key insights.TimeRange) (*insights.Insights, bool) {
	e, ok := f.cached[key]
	return e, ok
}

func sampleEntry(r insights.TimeRange) *insights.Insights {
	artists := tu.SampleArtists()
	return &insights.Insights{
		TimeRange: r,
		Artists:   artists,
		Tracks:    tu.SampleTracks(),
		Genres:    insights.RankGenres(artists, insights.TopGenres),
	}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m *Model, msg tea.Msg) tea.Cmd {
	t.Helper()
	_, cmd := m.Update(msg)
	return cmd
}

func TestModel(t *testing.T) {
	t.Run("opens on the initial range", func(t *testing.T) {
		m := NewModel(context.Background(), newFakeFetcher(), insights.LongTerm)
		if m.Selected() != insights.LongTerm {
			t.Errorf("expected long_term, got %v", m.Selected())
		}
	})

	t.Run("cache miss shows loading then the entry", func(t *testing.T) {
		fetcher := newFakeFetcher()
		m := NewModel(context.Background(), fetcher, insights.MediumTerm)

		if cmd := m.Init(); cmd == nil {
			t.Fatal("expected a fetch command on a miss")
		}
		if !m.loading {
			t.Error("expected loading state")
		}
		if !strings.Contains(m.View(), "Loading Last 6 Months") {
			t.Errorf("expected loading view, got:\n%s", m.View())
		}

		msg := m.fetch(insights.MediumTerm)()
		if fetcher.fetched[insights.MediumTerm] != 1 {
			t.Errorf("expected one fetch, got %d", fetcher.fetched[insights.MediumTerm])
		}

		update(t, m, msg)
		if m.loading || m.entry == nil {
			t.Fatalf("expected entry to be shown, loading=%v entry=%v", m.loading, m.entry)
		}
		if len(m.list.Items()) != 3 {
			t.Errorf("expected 3 artist items, got %d", len(m.list.Items()))
		}
	})

	t.Run("cache hit renders without loading", func(t *testing.T) {
		fetcher := newFakeFetcher()
		fetcher.cached[insights.ShortTerm] = sampleEntry(insights.ShortTerm)
		m := NewModel(context.Background(), fetcher, insights.MediumTerm)

		cmd := update(t, m, keyRunes("1"))
		if cmd != nil {
			t.Error("a cache hit should not issue a command")
		}
		if m.loading {
			t.Error("a cache hit should not enter the loading state")
		}
		if m.entry != fetcher.cached[insights.ShortTerm] {
			t.Error("expected the cached entry to be shown")
		}
	})

	t.Run("stale response is dropped", func(t *testing.T) {
		fetcher := newFakeFetcher()
		m := NewModel(context.Background(), fetcher, insights.ShortTerm)
		m.Init()
		stale := m.fetch(insights.ShortTerm)()

		update(t, m, tea.KeyMsg{Type: tea.KeyRight})
		if m.Selected() != insights.MediumTerm {
			t.Fatalf("expected medium_term, got %v", m.Selected())
		}

		update(t, m, stale)
		if m.entry != nil || !m.loading {
			t.Error("a response for a range no longer selected must not be applied")
		}

		update(t, m, m.fetch(insights.MediumTerm)())
		if m.entry == nil || m.entry.TimeRange != insights.MediumTerm {
			t.Errorf("expected medium_term entry, got %+v", m.entry)
		}
	})

	t.Run("range navigation wraps", func(t *testing.T) {
		m := NewModel(context.Background(), newFakeFetcher(), insights.ShortTerm)

		update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
		if m.Selected() != insights.LongTerm {
			t.Errorf("expected wrap to long_term, got %v", m.Selected())
		}
		update(t, m, keyRunes("l"))
		if m.Selected() != insights.ShortTerm {
			t.Errorf("expected wrap to short_term, got %v", m.Selected())
		}
	})

	t.Run("reselecting the current range does nothing", func(t *testing.T) {
		m := NewModel(context.Background(), newFakeFetcher(), insights.MediumTerm)
		if cmd := update(t, m, keyRunes("2")); cmd != nil {
			t.Error("expected no command")
		}
	})

	t.Run("error and retry", func(t *testing.T) {
		fetcher := newFakeFetcher()
		fetcher.err = errors.New("boom")
		m := NewModel(context.Background(), fetcher, insights.ShortTerm)
		m.Init()

		update(t, m, m.fetch(insights.ShortTerm)())
		if m.err == nil || m.loading {
			t.Fatalf("expected error state, err=%v loading=%v", m.err, m.loading)
		}
		if !strings.Contains(m.View(), "boom") {
			t.Errorf("expected error in view, got:\n%s", m.View())
		}

		fetcher.err = nil
		if cmd := update(t, m, keyRunes("r")); cmd == nil {
			t.Fatal("expected retry to issue a fetch")
		}
		if !m.loading || m.err != nil {
			t.Error("retry should clear the error and show loading")
		}
	})

	t.Run("panels cycle", func(t *testing.T) {
		fetcher := newFakeFetcher()
		fetcher.cached[insights.ShortTerm] = sampleEntry(insights.ShortTerm)
		m := NewModel(context.Background(), fetcher, insights.ShortTerm)
		m.Init()

		want := []struct {
			panel Panel
			items int
		}{
			{TracksPanel, 2},
			{GenresPanel, 3},
			{ArtistsPanel, 3},
		}
		for _, w := range want {
			update(t, m, tea.KeyMsg{Type: tea.KeyTab})
			if m.panel != w.panel {
				t.Fatalf("expected %v, got %v", w.panel, m.panel)
			}
			if n := len(m.list.Items()); n != w.items {
				t.Errorf("%v: expected %d items, got %d", w.panel, w.items, n)
			}
		}
	})

	t.Run("quit", func(t *testing.T) {
		m := NewModel(context.Background(), newFakeFetcher(), insights.ShortTerm)
		cmd := update(t, m, keyRunes("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}

func TestItems(t *testing.T) {
	entry := sampleEntry(insights.ShortTerm)

	artist := artistItem{rank: 1, artist: entry.Artists[0]}
	if artist.Title() != "1. Artist One" || artist.Description() != "pop • rock" {
		t.Errorf("unexpected artist item %q / %q", artist.Title(), artist.Description())
	}

	track := trackItem{rank: 2, track: entry.Tracks[1]}
	if track.Description() != "Artist Two, Artist Three • Second Album" {
		t.Errorf("unexpected track description %q", track.Description())
	}

	genre := genreItem{genre: insights.GenreCount{Genre: "indie", Count: 1}, top: 2}
	if strings.Count(genre.Description(), "█") != genreBarWidth/2 {
		t.Errorf("unexpected bar %q", genre.Description())
	}

	if Panel(7).String() != "Panel(7)" {
		t.Error("unexpected panel name")
	}
}
