package insights

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/insights/internal/services"
	"github.com/desertthunder/insights/internal/shared"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// DefaultLimit is the page size of each top-items request.
const DefaultLimit = 30

// Source loads the user's top items. [services.SpotifyClient] implements it.
type Source interface {
	TopArtists(ctx context.Context, timeRange string, limit int) ([]services.Artist, error)
	TopTracks(ctx context.Context, timeRange string, limit int) ([]services.Track, error)
}

var _ Source = (*services.SpotifyClient)(nil)

// CacheOptions configures a [Cache].
type CacheOptions struct {
	Limit     int // default [DefaultLimit]
	TopGenres int // default [TopGenres]
	Logger    *log.Logger
}

// Cache holds one [Insights] per time range for the lifetime of a session.
//
// Entries are never evicted; only [Cache.Reset] drops them. Failed fetches leave no entry, so the
// next Fetch for that range goes back to the network.
type Cache struct {
	source    Source
	limit     int
	topGenres int
	logger    *log.Logger
	group     singleflight.Group

	mu      sync.Mutex
	entries map[TimeRange]*Insights
	loading map[string]struct{}
	epoch   uint64
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewCache creates an empty [Cache] over source.
func NewCache(source Source, opts CacheOptions) *Cache {
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.TopGenres <= 0 {
		opts.TopGenres = TopGenres
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Cache{
		source:    source,
		limit:     opts.Limit,
		topGenres: opts.TopGenres,
		logger:    shared.WithLogger(opts.Logger, "component", "cache"),
		entries:   make(map[TimeRange]*Insights),
		loading:   make(map[string]struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
}

func flightKey(key TimeRange, epoch uint64) string {
	return fmt.Sprintf("%s#%d", key, epoch)
}

// Fetch returns the entry for key, loading it on a miss.
//
// A hit never touches the network. A miss issues the artists and tracks requests concurrently and
// caches the combined result only when both succeed; otherwise the error wraps [shared.ErrFetch].
// Concurrent misses for the same key share one load. Cancelling ctx abandons the wait but not the
// load, whose result is still cached for the next caller.
func (c *Cache) Fetch(ctx context.Context, key TimeRange) (*Insights, error) {
	if !key.Valid() {
		return nil, fmt.Errorf("%w: %q", shared.ErrInvalidTimeRange, string(key))
	}

	c.mu.Lock()
	if entry, ok := c.entries[key]; ok {
		c.mu.Unlock()
		c.logger.Debug("cache hit", "range", key)
		return entry, nil
	}
	epoch, loadCtx := c.epoch, c.ctx
	c.mu.Unlock()

	fk := flightKey(key, epoch)
	ch := c.group.DoChan(fk, func() (any, error) {
		return c.load(loadCtx, key, epoch)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Insights), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) load(ctx context.Context, key TimeRange, epoch uint64) (*Insights, error) {
	fk := flightKey(key, epoch)

	c.mu.Lock()
	c.loading[fk] = struct{}{}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.loading, fk)
		c.mu.Unlock()
	}()

	c.logger.Info("fetching insights", "range", key, "limit", c.limit)

	var (
		artists []services.Artist
		tracks  []services.Track
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		artists, err = c.source.TopArtists(gctx, string(key), c.limit)
		if err != nil {
			return fmt.Errorf("top artists: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		tracks, err = c.source.TopTracks(gctx, string(key), c.limit)
		if err != nil {
			return fmt.Errorf("top tracks: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		err = fmt.Errorf("%w: %s: %w", shared.ErrFetch, key, err)
		c.logger.Error("fetch failed", "range", key, "error", err)
		return nil, err
	}

	entry := &Insights{
		TimeRange: key,
		Artists:   artists,
		Tracks:    tracks,
		Genres:    RankGenres(artists, c.topGenres),
		FetchedAt: time.Now(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		c.logger.Debug("discarding result loaded before reset", "range", key)
		return entry, nil
	}
	c.entries[key] = entry
	return entry, nil
}

// Get returns the cached entry for key without loading it.
func (c *Cache) Get(key TimeRange) (*Insights, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	return entry, ok
}

// Loading reports whether a load for key is in flight.
func (c *Cache) Loading(key TimeRange) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.loading[flightKey(key, c.epoch)]
	return ok
}

// Reset drops every entry and cancels in-flight loads. Loads started before the reset never
// write into the cache.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancel()
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.entries = make(map[TimeRange]*Insights)
	c.epoch++
	c.logger.Debug("cache reset", "epoch", c.epoch)
}
