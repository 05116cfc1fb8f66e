package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/insights/internal/auth"
	"github.com/desertthunder/insights/internal/repositories"
	"github.com/desertthunder/insights/internal/server"
	"github.com/desertthunder/insights/internal/services"
	"github.com/desertthunder/insights/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Login performs the PKCE authorization flow.
//
// Starts a local HTTP server, opens the browser for user authorization, and waits for the callback
// to exchange the code and persist the access token.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	oauthConfig := r.config.OAuth2()
	if oauthConfig.ClientID == "" {
		return fmt.Errorf("%w: set credentials.spotify.client_id in %s or %s", shared.ErrMissingCredentials, r.configPath, shared.ClientIDEnv)
	}

	token, err := r.doOAuth(ctx, oauthConfig)
	if err != nil {
		outcome := repositories.OutcomeFailed
		if errors.Is(err, shared.ErrTimeout) {
			outcome = repositories.OutcomeTimeout
		}
		r.record(outcome, err.Error())
		return err
	}

	r.record(repositories.OutcomeAuthenticated, "")
	r.cache.Reset()

	r.logger.Debug("received token", "type", token.Type())
	r.writePlainln("✓ Authorization successful")
	r.writePlain("You can now use: insights top\n")
	return nil
}

func (r *Runner) doOAuth(ctx context.Context, oauthConfig *oauth2.Config) (*oauth2.Token, error) {
	path, err := r.config.CallbackPath()
	if err != nil {
		return nil, err
	}

	callback := auth.NewCallback(auth.CallbackOpts{
		Config:     oauthConfig,
		Store:      r.store,
		HTTPClient: r.httpClient,
		Logger:     r.logger,
	})
	handler := server.NewCallbackHandler(callback, path, r.logger)

	router := server.NewBasicRouter()
	router.Use(server.RequestID, server.RequestLogger(r.logger))
	router.Handler(handler)

	srv, err := server.Listen(r.config.Addr(), router, r.logger)
	if err != nil {
		return nil, err
	}
	srv.Serve()
	defer srv.Shutdown()
	r.logger.Infof("waiting for callback at %v%v", srv.Addr(), path)

	authorizer := auth.NewAuthorizer(oauthConfig, r.store)

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	authURL, err := authorizer.Login(r.navigate)
	if err != nil {
		if authURL == "" {
			return nil, err
		}
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	timeout := r.config.CallbackTimeout()
	r.writePlain("→ Waiting for authorization (%v timeout)...\n", timeout)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-handler.Result():
		if result.Err != nil {
			return nil, fmt.Errorf("authorization failed: %w", result.Err)
		}
		return result.Token, nil
	case err := <-srv.Errors():
		return nil, fmt.Errorf("server error: %w", err)
	case <-timer.C:
		return nil, fmt.Errorf("%w: authorization timed out after %v", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type clearer interface {
	Clear() (int64, error)
}

type keyLister interface {
	Keys() ([]string, error)
}

// Logout removes the access token. With --all the whole auth context is cleared, including any
// pending login. Cached insights are dropped either way.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	if cmd.Bool("all") {
		if c, ok := r.store.(clearer); ok {
			n, err := c.Clear()
			if err != nil {
				return err
			}
			r.logger.Debug("cleared auth context", "keys", n)
		} else {
			for _, key := range []string{auth.KeyAccessToken, auth.KeyState, auth.KeyVerifier} {
				if err := r.store.Delete(key); err != nil {
					return fmt.Errorf("failed to clear %s: %w", key, err)
				}
			}
		}
	} else if err := auth.Logout(r.store); err != nil {
		return err
	}

	r.cache.Reset()
	r.record(repositories.OutcomeLogout, "")

	return r.writePlain("✓ Logged out\n")
}

// StatusReport is the output of the status command.
type StatusReport struct {
	Authenticated bool                    `json:"authenticated"`
	PendingLogin  bool                    `json:"pending_login"`
	StoredKeys    []string                `json:"stored_keys,omitempty"`
	User          *services.User          `json:"user,omitempty"`
	LastEvent     *repositories.AuthEvent `json:"last_event,omitempty"`
}

// Status reports whether a token and a pending login exist. With --verify the token is checked
// against the API.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	report := StatusReport{}

	if _, err := auth.AccessToken(r.store); err == nil {
		report.Authenticated = true
	} else if !errors.Is(err, shared.ErrNotAuthenticated) {
		return err
	}

	if _, err := r.store.Get(auth.KeyState); err == nil {
		report.PendingLogin = true
	} else if !errors.Is(err, shared.ErrKeyNotFound) {
		return fmt.Errorf("failed to read auth context: %w", err)
	}

	if l, ok := r.store.(keyLister); ok {
		keys, err := l.Keys()
		if err != nil {
			return fmt.Errorf("failed to read auth context: %w", err)
		}
		report.StoredKeys = keys
	}

	if r.events != nil {
		latest, err := r.events.Latest()
		if err != nil {
			r.logger.Warn("failed to read auth history", "error", err)
		}
		report.LastEvent = latest
	}

	if report.Authenticated && cmd.Bool("verify") {
		client, ok := r.source.(*services.SpotifyClient)
		if !ok {
			return fmt.Errorf("%w: token verification needs the Spotify client", shared.ErrServiceUnavailable)
		}
		user, err := client.CurrentUser(ctx)
		if errors.Is(err, shared.ErrNotAuthenticated) {
			report.Authenticated = false
		} else if err != nil {
			return err
		}
		report.User = user
	}

	if cmd.Bool("json") {
		return r.writeJSON(report, true)
	}

	r.writePlainHeader("Authentication status")
	if report.Authenticated {
		r.writePlain("Authentication: ✓ Authenticated\n")
	} else {
		r.writePlain("Authentication: ✗ Not authenticated\n")
	}
	if report.User != nil {
		r.writePlain("User: %s (%s)\n", report.User.DisplayName, report.User.ID)
	}
	if report.PendingLogin {
		r.writePlain("Pending login: yes\n")
	}
	if len(report.StoredKeys) > 0 {
		r.writePlain("Stored keys: %s\n", strings.Join(report.StoredKeys, ", "))
	}
	if report.LastEvent != nil {
		r.writePlain("Last event: %s at %s\n", report.LastEvent.Outcome, report.LastEvent.CreatedAt.Local().Format(time.DateTime))
	}
	return nil
}
