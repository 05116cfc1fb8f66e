package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/insights/internal/auth"
	"github.com/desertthunder/insights/internal/insights"
	"github.com/desertthunder/insights/internal/repositories"
	"github.com/desertthunder/insights/internal/services"
	"github.com/desertthunder/insights/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Persistence and the API client are opened on first use, so commands like "setup config" run
// without a database.
type Runner struct {
	config     *shared.Config
	configPath string
	db         *sql.DB
	store      auth.Store
	events     *repositories.AuthEventRepository
	source     insights.Source
	cache      *insights.Cache
	httpClient *http.Client
	navigate   auth.Navigator
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Store      auth.Store
	Events     *repositories.AuthEventRepository
	Source     insights.Source
	HTTPClient *http.Client
	Navigator  auth.Navigator
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Navigator == nil {
		opts.Navigator = shared.OpenBrowser
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		store:      opts.Store,
		events:     opts.Events,
		source:     opts.Source,
		httpClient: opts.HTTPClient,
		navigate:   opts.Navigator,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger replaces the logger used by components opened afterwards.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// Configure loads the config file named by --config and applies --verbose.
//
// A missing file falls back to defaults so "setup config" can create it.
func (r *Runner) Configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	r.configPath = cmd.String("config")

	if _, err := os.Stat(r.configPath); err == nil {
		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return ctx, fmt.Errorf("%w: %w", shared.ErrInvalidConfig, err)
		}
		r.config = config
	} else if cmd.IsSet("config") {
		r.logger.Warn("config file not found, using defaults", "path", r.configPath)
	} else {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	}

	level, err := shared.ParseLogLevel(r.config.Log.Level)
	if err != nil {
		return ctx, err
	}
	if cmd.Bool("verbose") {
		level = log.DebugLevel
	}
	shared.SetLogLevel(r.logger, level)

	return ctx, nil
}

// open connects the auth context store and the insights cache if they were not injected.
func (r *Runner) open() error {
	if r.store == nil {
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		r.db = db
		r.store = repositories.NewAuthContextRepository(db)
		r.events = repositories.NewAuthEventRepository(db)
	}

	if r.source == nil {
		r.source = services.NewSpotifyClient(services.SpotifyClientOpts{
			BaseURL:           r.config.Credentials.Spotify.APIURL,
			TokenSource:       auth.TokenSource(r.store),
			HTTPClient:        r.httpClient,
			RequestsPerSecond: r.config.Insights.RequestsPerSecond,
			Logger:            r.logger,
		})
	}

	if r.cache == nil {
		r.cache = insights.NewCache(r.source, insights.CacheOptions{
			Limit:     r.config.Insights.Limit,
			TopGenres: r.config.Insights.TopGenres,
			Logger:    r.logger,
		})
	}

	return nil
}

// Close releases the database, if one was opened.
func (r *Runner) Close(ctx context.Context, cmd *cli.Command) error {
	if r.cache != nil {
		r.cache.Reset()
	}
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// requireToken fails with a login hint when no access token is stored.
func (r *Runner) requireToken() error {
	if _, err := auth.AccessToken(r.store); err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) {
			return fmt.Errorf("%w: run 'insights login' first", err)
		}
		return err
	}
	return nil
}

// record appends a login outcome to the history. Failures are logged, never returned.
func (r *Runner) record(outcome, detail string) {
	if r.events == nil {
		return
	}
	if _, err := r.events.Record(outcome, detail); err != nil {
		r.logger.Warn("failed to record auth event", "outcome", outcome, "error", err)
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
