package insights

import (
	"fmt"
	"strings"

	"github.com/desertthunder/insights/internal/shared"
)

// TimeRange is the window the provider aggregates listening history over.
type TimeRange string

const (
	ShortTerm  TimeRange = "short_term"  // ~4 weeks
	MediumTerm TimeRange = "medium_term" // ~6 months
	LongTerm   TimeRange = "long_term"   // several years
)

const DefaultTimeRange = MediumTerm

// AllTimeRanges lists every range from shortest to longest.
func AllTimeRanges() []TimeRange {
	return []TimeRange{ShortTerm, MediumTerm, LongTerm}
}

// ParseTimeRange accepts the provider keys and the aliases short, medium, long (case-insensitive).
func ParseTimeRange(s string) (TimeRange, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "short_term", "short", "4w":
		return ShortTerm, nil
	case "medium_term", "medium", "6m":
		return MediumTerm, nil
	case "long_term", "long", "all":
		return LongTerm, nil
	default:
		return "", fmt.Errorf("%w: %q (want short_term, medium_term or long_term)", shared.ErrInvalidTimeRange, s)
	}
}

// Valid reports whether r is one of the three provider keys.
func (r TimeRange) Valid() bool {
	switch r {
	case ShortTerm, MediumTerm, LongTerm:
		return true
	}
	return false
}

// Label is the human-readable name.
func (r TimeRange) Label() string {
	switch r {
	case ShortTerm:
		return "Last 4 Weeks"
	case MediumTerm:
		return "Last 6 Months"
	case LongTerm:
		return "All Time"
	default:
		return string(r)
	}
}

func (r TimeRange) String() string {
	return string(r)
}
