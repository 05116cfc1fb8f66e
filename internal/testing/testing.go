// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/insights/internal/services"
)

// MockSource is a test double for insights.Source.
//
// Calls are counted per method. When Gate is non-nil every call blocks until it is closed or the
// call's context ends. Errors maps a time range to the error both methods return for it.
type MockSource struct {
	Artists []services.Artist
	Tracks  []services.Track
	Gate    chan struct{}

	ArtistCalls atomic.Int32
	TrackCalls  atomic.Int32

	mu     sync.Mutex
	errors map[string]error
	ranges []string
}

// NewMockSource returns a source serving the sample fixtures.
func NewMockSource() *MockSource {
	return &MockSource{Artists: SampleArtists(), Tracks: SampleTracks(), errors: map[string]error{}}
}

// Fail makes every call for timeRange return err; a nil err clears it.
func (m *MockSource) Fail(timeRange string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errors == nil {
		m.errors = map[string]error{}
	}
	if err == nil {
		delete(m.errors, timeRange)
		return
	}
	m.errors[timeRange] = err
}

// Ranges lists the time range of every call in arrival order.
func (m *MockSource) Ranges() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ranges...)
}

func (m *MockSource) enter(ctx context.Context, timeRange string) error {
	m.mu.Lock()
	m.ranges = append(m.ranges, timeRange)
	err := m.errors[timeRange]
	gate := m.Gate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (m *MockSource) TopArtists(ctx context.Context, timeRange string, limit int) ([]services.Artist, error) {
	m.ArtistCalls.Add(1)
	if err := m.enter(ctx, timeRange); err != nil {
		return nil, err
	}
	return m.Artists, nil
}

func (m *MockSource) TopTracks(ctx context.Context, timeRange string, limit int) ([]services.Track, error) {
	m.TrackCalls.Add(1)
	if err := m.enter(ctx, timeRange); err != nil {
		return nil, err
	}
	return m.Tracks, nil
}

// SampleArtists has overlapping genres: pop=2, rock=2, indie=1.
func SampleArtists() []services.Artist {
	return []services.Artist{
		{ID: "a1", Name: "Artist One", Genres: []string{"pop", "rock"}},
		{ID: "a2", Name: "Artist Two", Genres: []string{"pop"}},
		{ID: "a3", Name: "Artist Three", Genres: []string{"rock", "rock", "indie"}},
	}
}

func SampleTracks() []services.Track {
	return []services.Track{
		{
			ID:      "t1",
			Name:    "Track One",
			Album:   services.Album{ID: "al1", Name: "First Album"},
			Artists: []services.Artist{{ID: "a1", Name: "Artist One"}},
		},
		{
			ID:      "t2",
			Name:    "Track Two",
			Album:   services.Album{ID: "al2", Name: "Second Album"},
			Artists: []services.Artist{{ID: "a2", Name: "Artist Two"}, {ID: "a3", Name: "Artist Three"}},
		},
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
