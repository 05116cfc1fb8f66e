// Spotify Web API client for the current user's top items.
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/insights/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the Spotify Web API root.
const DefaultBaseURL = "https://api.spotify.com/v1"

// Image is an image resource.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// Artist is a Spotify artist. Genres is empty for the simplified artists nested in tracks.
type Artist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Images []Image  `json:"images"`
	Genres []string `json:"genres"`
}

// Album is the simplified album attached to a track.
type Album struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Images []Image `json:"images"`
}

// Track is a Spotify track.
type Track struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Album   Album    `json:"album"`
	Artists []Artist `json:"artists"`
}

// User is the current user's public profile.
type User struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Country     string  `json:"country"`
	Product     string  `json:"product"`
	Images      []Image `json:"images"`
}

type page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Limit int `json:"limit"`
}

type apiError struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// SpotifyClient calls the Web API with the bearer token from its token source.
//
// Requests are paced by a shared limiter and never retried.
type SpotifyClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// SpotifyClientOpts configures a [SpotifyClient].
type SpotifyClientOpts struct {
	BaseURL           string             // default [DefaultBaseURL]
	TokenSource       oauth2.TokenSource // required
	HTTPClient        *http.Client       // base transport; nil means [http.DefaultClient]
	RequestsPerSecond float64            // non-positive disables pacing
	Logger            *log.Logger
}

// NewSpotifyClient creates a [SpotifyClient].
func NewSpotifyClient(opts SpotifyClientOpts) *SpotifyClient {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	base := opts.HTTPClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	return &SpotifyClient{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		httpClient: &http.Client{
			Transport: &oauth2.Transport{Source: opts.TokenSource, Base: base},
			Timeout:   opts.HTTPClient.Timeout,
		},
		limiter: rate.NewLimiter(limit, 1),
		logger:  shared.WithLogger(opts.Logger, "component", "spotify"),
	}
}

// TopArtists returns the user's top artists for timeRange (short_term, medium_term, long_term).
func (c *SpotifyClient) TopArtists(ctx context.Context, timeRange string, limit int) ([]Artist, error) {
	var response page[Artist]
	if err := c.get(ctx, "/me/top/artists", topParams(timeRange, limit), &response); err != nil {
		return nil, err
	}
	return response.Items, nil
}

// TopTracks returns the user's top tracks for timeRange.
func (c *SpotifyClient) TopTracks(ctx context.Context, timeRange string, limit int) ([]Track, error) {
	var response page[Track]
	if err := c.get(ctx, "/me/top/tracks", topParams(timeRange, limit), &response); err != nil {
		return nil, err
	}
	return response.Items, nil
}

// CurrentUser returns the profile of the token's owner.
func (c *SpotifyClient) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.get(ctx, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func topParams(timeRange string, limit int) url.Values {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if timeRange != "" {
		params.Set("time_range", timeRange)
	}
	return params
}

// get performs an authenticated GET and decodes the JSON body into result.
func (c *SpotifyClient) get(ctx context.Context, endpoint string, params url.Values, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}

	apiURL := c.baseURL + endpoint
	if len(params) > 0 {
		apiURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("request", "endpoint", endpoint, "params", params.Encode())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s", shared.ErrNotAuthenticated, errorMessage(resp))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, errorMessage(resp))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: failed to decode response: %w", shared.ErrAPIRequest, err)
	}
	return nil
}

func errorMessage(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var e apiError
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	if len(body) > 0 {
		return strings.TrimSpace(string(body))
	}
	return http.StatusText(resp.StatusCode)
}
