// package formatter renders listening insights as plain text, Markdown, CSV or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/insights/internal/insights"
	"github.com/desertthunder/insights/internal/services"
	"github.com/desertthunder/insights/internal/shared"
)

// Format is an output format for [Render].
type Format string

const (
	Text     Format = "txt"
	JSON     Format = "json"
	CSV      Format = "csv"
	Markdown Format = "markdown"
)

// barWidth is the width of the bar drawn for the most common genre.
const barWidth = 20

// ParseFormat accepts txt, text, json, csv, md and markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "txt", "text":
		return Text, nil
	case "json":
		return JSON, nil
	case "csv":
		return CSV, nil
	case "md", "markdown":
		return Markdown, nil
	default:
		return "", fmt.Errorf("%w: %q", shared.ErrUnsupportedFormat, s)
	}
}

// Extension is the file extension for f, without the dot.
func (f Format) Extension() string {
	if f == Markdown {
		return "md"
	}
	return string(f)
}

// Render formats one or more entries in order.
func Render(entries []*insights.Insights, format Format) ([]byte, error) {
	switch format {
	case Text:
		return ToText(entries), nil
	case Markdown:
		return ToMarkdown(entries), nil
	case CSV:
		return ToCSV(entries)
	case JSON:
		if len(entries) == 1 {
			return shared.MarshalJSON(entries[0], true)
		}
		return shared.MarshalJSON(entries, true)
	default:
		return nil, fmt.Errorf("%w: %q", shared.ErrUnsupportedFormat, string(format))
	}
}

func artistNames(artists []services.Artist) string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// bar scales count against top into a row of blocks.
func bar(count, top int) string {
	if top <= 0 || count <= 0 {
		return ""
	}
	n := count * barWidth / top
	if n == 0 {
		n = 1
	}
	return strings.Repeat("█", n)
}

// ToText renders a plain-text report with a text bar per genre.
func ToText(entries []*insights.Insights) []byte {
	var buf bytes.Buffer

	for i, e := range entries {
		if i > 0 {
			buf.WriteString("\n")
		}
		fmt.Fprintf(&buf, "Top items: %s (%s)\n\n", e.TimeRange.Label(), e.TimeRange)

		fmt.Fprintf(&buf, "Artists (%d):\n", len(e.Artists))
		for j, a := range e.Artists {
			fmt.Fprintf(&buf, "%3d. %s\n", j+1, a.Name)
		}

		fmt.Fprintf(&buf, "\nTracks (%d):\n", len(e.Tracks))
		for j, t := range e.Tracks {
			fmt.Fprintf(&buf, "%3d. %s - %s\n", j+1, artistNames(t.Artists), t.Name)
		}

		buf.WriteString("\nGenres:\n")
		if len(e.Genres) == 0 {
			buf.WriteString("  (none)\n")
			continue
		}

		width := 0
		for _, g := range e.Genres {
			width = max(width, len(g.Genre))
		}
		top := e.Genres[0].Count
		for _, g := range e.Genres {
			fmt.Fprintf(&buf, "  %-*s %3d %s\n", width, g.Genre, g.Count, bar(g.Count, top))
		}
	}

	return buf.Bytes()
}

// ToMarkdown renders one section per time range, with the first artist image when present.
func ToMarkdown(entries []*insights.Insights) []byte {
	var buf bytes.Buffer

	buf.WriteString("# Listening Insights\n")

	for _, e := range entries {
		fmt.Fprintf(&buf, "\n## %s\n\n", e.TimeRange.Label())

		if len(e.Artists) > 0 && len(e.Artists[0].Images) > 0 {
			fmt.Fprintf(&buf, "![%s](%s)\n\n", e.Artists[0].Name, e.Artists[0].Images[0].URL)
		}

		buf.WriteString("### Artists\n\n")
		for i, a := range e.Artists {
			genres := ""
			if len(a.Genres) > 0 {
				genres = fmt.Sprintf(" (%s)", strings.Join(a.Genres, ", "))
			}
			fmt.Fprintf(&buf, "%d. %s%s\n", i+1, a.Name, genres)
		}

		buf.WriteString("\n### Tracks\n\n")
		for i, t := range e.Tracks {
			album := ""
			if t.Album.Name != "" {
				album = fmt.Sprintf(" (%s)", t.Album.Name)
			}
			fmt.Fprintf(&buf, "%d. %s - %s%s\n", i+1, artistNames(t.Artists), t.Name, album)
		}

		buf.WriteString("\n### Genres\n\n")
		buf.WriteString("| Genre | Artists |\n")
		buf.WriteString("|-------|---------|\n")
		for _, g := range e.Genres {
			fmt.Fprintf(&buf, "| %s | %d |\n", g.Genre, g.Count)
		}
	}

	return buf.Bytes()
}

// ToCSV renders one row per item with columns: TimeRange, Kind, Rank, ID, Name, Detail, Count
func ToCSV(entries []*insights.Insights) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"TimeRange", "Kind", "Rank", "ID", "Name", "Detail", "Count"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, e := range entries {
		tr := string(e.TimeRange)
		records := [][]string{}

		for i, a := range e.Artists {
			records = append(records, []string{tr, "artist", strconv.Itoa(i + 1), a.ID, a.Name, strings.Join(a.Genres, "; "), ""})
		}
		for i, t := range e.Tracks {
			records = append(records, []string{tr, "track", strconv.Itoa(i + 1), t.ID, t.Name, artistNames(t.Artists), ""})
		}
		for i, g := range e.Genres {
			records = append(records, []string{tr, "genre", strconv.Itoa(i + 1), "", g.Genre, "", strconv.Itoa(g.Count)})
		}

		if err := writer.WriteAll(records); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}
