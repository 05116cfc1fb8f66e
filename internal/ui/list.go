package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/insights/internal/insights"
	"github.com/desertthunder/insights/internal/services"
)

var (
	_ list.Item = artistItem{}
	_ list.Item = trackItem{}
	_ list.Item = genreItem{}
)

// artistItem wraps [services.Artist] to implement [list.Item].
type artistItem struct {
	rank   int
	artist services.Artist
}

func (i artistItem) FilterValue() string { return i.artist.Name }
func (i artistItem) Title() string       { return fmt.Sprintf("%d. %s", i.rank, i.artist.Name) }
func (i artistItem) Description() string {
	if len(i.artist.Genres) == 0 {
		return "no genres"
	}
	return strings.Join(i.artist.Genres, " • ")
}

// trackItem wraps [services.Track] to implement [list.Item].
type trackItem struct {
	rank  int
	track services.Track
}

func (i trackItem) FilterValue() string { return i.track.Name }
func (i trackItem) Title() string       { return fmt.Sprintf("%d. %s", i.rank, i.track.Name) }
func (i trackItem) Description() string {
	names := make([]string, 0, len(i.track.Artists))
	for _, a := range i.track.Artists {
		names = append(names, a.Name)
	}
	desc := strings.Join(names, ", ")
	if i.track.Album.Name != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album.Name)
	}
	return desc
}

// genreItem draws a text bar relative to the most common genre.
type genreItem struct {
	genre insights.GenreCount
	top   int
}

const genreBarWidth = 30

func (i genreItem) FilterValue() string { return i.genre.Genre }
func (i genreItem) Title() string       { return i.genre.Genre }
func (i genreItem) Description() string {
	n := 0
	if i.top > 0 {
		n = max(1, i.genre.Count*genreBarWidth/i.top)
	}
	return fmt.Sprintf("%s %d", styles.bar.Render(strings.Repeat("█", n)), i.genre.Count)
}
