package insights

import (
	"slices"
	"time"

	"github.com/desertthunder/insights/internal/services"
)

// TopGenres is the default length of a genre ranking.
const TopGenres = 10

// GenreCount is the number of top artists tagged with Genre.
type GenreCount struct {
	Genre string `json:"genre"`
	Count int    `json:"count"`
}

// Insights is one cache entry: the top items for a time range and the derived genre ranking.
//
// Entries are shared between callers and must not be modified.
type Insights struct {
	TimeRange TimeRange         `json:"time_range"`
	Artists   []services.Artist `json:"artists"`
	Tracks    []services.Track  `json:"tracks"`
	Genres    []GenreCount      `json:"genres"`
	FetchedAt time.Time         `json:"fetched_at"`
}

// RankGenres counts how many artists carry each genre, most common first.
//
// A genre repeated on one artist counts once. Ties keep first-seen order. The result is
// truncated to n entries; n <= 0 keeps them all.
func RankGenres(artists []services.Artist, n int) []GenreCount {
	index := make(map[string]int)
	ranked := []GenreCount{}

	for _, artist := range artists {
		seen := make(map[string]struct{}, len(artist.Genres))
		for _, genre := range artist.Genres {
			if _, dup := seen[genre]; dup {
				continue
			}
			seen[genre] = struct{}{}

			if i, ok := index[genre]; ok {
				ranked[i].Count++
				continue
			}
			index[genre] = len(ranked)
			ranked = append(ranked, GenreCount{Genre: genre, Count: 1})
		}
	}

	slices.SortStableFunc(ranked, func(a, b GenreCount) int {
		return b.Count - a.Count
	})

	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
