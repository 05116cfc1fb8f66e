package insights

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/insights/internal/shared"
	tu "github.com/desertthunder/insights/internal/testing"
	"github.com/google/go-cmp/cmp"
)

var errUpstream = errors.New("upstream failed")

// waitFor polls cond until it holds or a second passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestCacheFetch(t *testing.T) {
	t.Run("second fetch is served from cache", func(t *testing.T) {
		source := tu.NewMockSource()
		cache := NewCache(source, CacheOptions{})

		first, err := cache.Fetch(context.Background(), ShortTerm)
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		second, err := cache.Fetch(context.Background(), ShortTerm)
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}

		if first != second {
			t.Error("expected the cached entry to be returned")
		}
		if a, tr := source.ArtistCalls.Load(), source.TrackCalls.Load(); a != 1 || tr != 1 {
			t.Errorf("expected exactly one pair of calls, got artists=%d tracks=%d", a, tr)
		}
	})

	t.Run("entry content", func(t *testing.T) {
		source := tu.NewMockSource()
		cache := NewCache(source, CacheOptions{})

		entry, err := cache.Fetch(context.Background(), MediumTerm)
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}

		if entry.TimeRange != MediumTerm {
			t.Errorf("unexpected range %v", entry.TimeRange)
		}
		if diff := cmp.Diff(tu.SampleArtists(), entry.Artists); diff != "" {
			t.Errorf("artists mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(tu.SampleTracks(), entry.Tracks); diff != "" {
			t.Errorf("tracks mismatch (-want +got):\n%s", diff)
		}

		want := []GenreCount{{"pop", 2}, {"rock", 2}, {"indie", 1}}
		if diff := cmp.Diff(want, entry.Genres); diff != "" {
			t.Errorf("genres mismatch (-want +got):\n%s", diff)
		}
		if entry.FetchedAt.IsZero() {
			t.Error("expected fetch time to be set")
		}
	})

	t.Run("ranges are cached independently", func(t *testing.T) {
		source := tu.NewMockSource()
		cache := NewCache(source, CacheOptions{})

		for _, r := range []TimeRange{ShortTerm, LongTerm, ShortTerm, LongTerm} {
			if _, err := cache.Fetch(context.Background(), r); err != nil {
				t.Fatalf("Fetch(%v) error = %v", r, err)
			}
		}

		if n := source.ArtistCalls.Load(); n != 2 {
			t.Errorf("expected one artists call per range, got %d", n)
		}
	})

	t.Run("failure caches nothing and retry refetches", func(t *testing.T) {
		source := tu.NewMockSource()
		source.Fail(string(LongTerm), errUpstream)
		cache := NewCache(source, CacheOptions{})

		_, err := cache.Fetch(context.Background(), LongTerm)
		if !errors.Is(err, shared.ErrFetch) || !errors.Is(err, errUpstream) {
			t.Fatalf("expected ErrFetch wrapping the upstream error, got %v", err)
		}
		if _, ok := cache.Get(LongTerm); ok {
			t.Error("failed fetch must not create an entry")
		}
		if cache.Loading(LongTerm) {
			t.Error("loading state should be cleared after failure")
		}

		source.Fail(string(LongTerm), nil)
		if _, err := cache.Fetch(context.Background(), LongTerm); err != nil {
			t.Fatalf("retry failed: %v", err)
		}
		if a, tr := source.ArtistCalls.Load(), source.TrackCalls.Load(); a != 2 || tr != 2 {
			t.Errorf("expected the retry to reissue both calls, got artists=%d tracks=%d", a, tr)
		}
		if _, ok := cache.Get(LongTerm); !ok {
			t.Error("expected entry after successful retry")
		}
	})

	t.Run("invalid range", func(t *testing.T) {
		source := tu.NewMockSource()
		cache := NewCache(source, CacheOptions{})

		if _, err := cache.Fetch(context.Background(), "weekly"); !errors.Is(err, shared.ErrInvalidTimeRange) {
			t.Errorf("expected ErrInvalidTimeRange, got %v", err)
		}
		if source.ArtistCalls.Load() != 0 {
			t.Error("invalid range should not reach the source")
		}
	})

	t.Run("top genres option", func(t *testing.T) {
		cache := NewCache(tu.NewMockSource(), CacheOptions{TopGenres: 1})

		entry, err := cache.Fetch(context.Background(), ShortTerm)
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if len(entry.Genres) != 1 || entry.Genres[0].Genre != "pop" {
			t.Errorf("unexpected genres %v", entry.Genres)
		}
	})
}

func TestCacheConcurrency(t *testing.T) {
	t.Run("concurrent misses share one load", func(t *testing.T) {
		source := tu.NewMockSource()
		source.Gate = make(chan struct{})
		cache := NewCache(source, CacheOptions{})

		const callers = 5
		results := make([]*Insights, callers)
		errs := make([]error, callers)

		var wg sync.WaitGroup
		for i := range callers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i], errs[i] = cache.Fetch(context.Background(), ShortTerm)
			}()
		}

		waitFor(t, func() bool { return source.ArtistCalls.Load() == 1 && source.TrackCalls.Load() == 1 })
		if !cache.Loading(ShortTerm) {
			t.Error("expected the range to be loading")
		}
		if cache.Loading(LongTerm) {
			t.Error("other ranges should not be loading")
		}

		close(source.Gate)
		wg.Wait()

		for i := range callers {
			if errs[i] != nil {
				t.Fatalf("caller %d: %v", i, errs[i])
			}
			if results[i] != results[0] {
				t.Errorf("caller %d got a different entry", i)
			}
		}
		if a, tr := source.ArtistCalls.Load(), source.TrackCalls.Load(); a != 1 || tr != 1 {
			t.Errorf("expected one shared pair of calls, got artists=%d tracks=%d", a, tr)
		}
		if cache.Loading(ShortTerm) {
			t.Error("loading should clear once the load completes")
		}
	})

	t.Run("abandoned wait still caches", func(t *testing.T) {
		source := tu.NewMockSource()
		source.Gate = make(chan struct{})
		cache := NewCache(source, CacheOptions{})

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			_, err := cache.Fetch(ctx, MediumTerm)
			done <- err
		}()

		waitFor(t, func() bool { return cache.Loading(MediumTerm) })
		cancel()

		if err := <-done; !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}

		close(source.Gate)
		waitFor(t, func() bool { _, ok := cache.Get(MediumTerm); return ok })
	})

	t.Run("reset discards in-flight results", func(t *testing.T) {
		source := tu.NewMockSource()
		source.Gate = make(chan struct{})
		cache := NewCache(source, CacheOptions{})

		done := make(chan error, 1)
		go func() {
			_, err := cache.Fetch(context.Background(), ShortTerm)
			done <- err
		}()

		waitFor(t, func() bool { return cache.Loading(ShortTerm) })
		cache.Reset()

		if cache.Loading(ShortTerm) {
			t.Error("a load from before the reset should not be reported")
		}

		// the stale load was cancelled by the reset
		if err := <-done; !errors.Is(err, shared.ErrFetch) || !errors.Is(err, context.Canceled) {
			t.Errorf("expected cancelled fetch, got %v", err)
		}
		if _, ok := cache.Get(ShortTerm); ok {
			t.Error("stale result must not be cached")
		}

		close(source.Gate)
		if _, err := cache.Fetch(context.Background(), ShortTerm); err != nil {
			t.Fatalf("fetch after reset failed: %v", err)
		}
		if n := source.ArtistCalls.Load(); n != 2 {
			t.Errorf("expected a fresh load after reset, got %d artists calls", n)
		}
	})

	t.Run("reset drops entries", func(t *testing.T) {
		source := tu.NewMockSource()
		cache := NewCache(source, CacheOptions{})

		cache.Fetch(context.Background(), ShortTerm)
		cache.Reset()

		if _, ok := cache.Get(ShortTerm); ok {
			t.Error("expected entries to be dropped")
		}
		cache.Fetch(context.Background(), ShortTerm)
		if n := source.ArtistCalls.Load(); n != 2 {
			t.Errorf("expected refetch after reset, got %d calls", n)
		}
	})
}
