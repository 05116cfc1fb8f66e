package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/insights/internal/shared"
	"golang.org/x/oauth2"
)

// CallbackState is a step of the callback state machine.
type CallbackState int

const (
	Awaiting CallbackState = iota
	Exchanging
	Authenticated
	Failed
)

func (s CallbackState) String() string {
	switch s {
	case Awaiting:
		return "awaiting"
	case Exchanging:
		return "exchanging"
	case Authenticated:
		return "authenticated"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("CallbackState(%d)", int(s))
	}
}

// Result is the terminal outcome of a callback.
type Result struct {
	State CallbackState
	Token *oauth2.Token
	Err   error
}

// Callback validates the provider redirect and exchanges the authorization code exactly once.
type Callback struct {
	config     *oauth2.Config
	store      Store
	httpClient *http.Client
	logger     *log.Logger

	mu      sync.Mutex
	state   CallbackState
	handled bool
}

// CallbackOpts configures a [Callback].
type CallbackOpts struct {
	Config     *oauth2.Config
	Store      Store
	HTTPClient *http.Client // used for the token request; nil means [http.DefaultClient]
	Logger     *log.Logger
}

// NewCallback creates a [Callback] in the [Awaiting] state.
func NewCallback(opts CallbackOpts) *Callback {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Callback{
		config:     opts.Config,
		store:      opts.Store,
		httpClient: opts.HTTPClient,
		logger:     shared.WithLogger(opts.Logger, "component", "callback"),
		state:      Awaiting,
	}
}

// State reports the current step.
func (c *Callback) State() CallbackState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Callback) transition(to CallbackState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = to
}

// CheckState compares the returned state with the persisted one.
//
// A missing or empty persisted state is a mismatch.
func CheckState(store Store, returned string) error {
	stored, ok, err := lookup(store, KeyState)
	if err != nil {
		return fmt.Errorf("failed to read persisted state: %w", err)
	}
	if !ok || stored == "" || returned == "" {
		return shared.ErrStateMismatch
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(returned)) != 1 {
		return shared.ErrStateMismatch
	}
	return nil
}

// Handle runs the state machine for the redirect query (code, state, or error).
//
// On a state mismatch the token endpoint is never contacted and the verifier is kept.
// Otherwise the persisted state is erased, the code is exchanged with the verifier, and the
// verifier is discarded. Failures are terminal; nothing is retried. Only the first call does
// any work; later calls fail with [shared.ErrCallbackConsumed].
func (c *Callback) Handle(ctx context.Context, query url.Values) Result {
	c.mu.Lock()
	if c.handled {
		c.mu.Unlock()
		return Result{State: Failed, Err: shared.ErrCallbackConsumed}
	}
	c.handled = true
	c.mu.Unlock()

	if err := CheckState(c.store, query.Get("state")); err != nil {
		c.logger.Error("rejecting callback", "error", err)
		return c.fail(err)
	}

	c.transition(Exchanging)

	if err := c.store.Delete(KeyState); err != nil {
		return c.fail(fmt.Errorf("failed to erase state: %w", err))
	}

	verifier, _, err := lookup(c.store, KeyVerifier)
	if err != nil {
		return c.fail(fmt.Errorf("failed to read code verifier: %w", err))
	}
	defer c.discardVerifier()

	code := query.Get("code")
	if errParam := query.Get("error"); errParam != "" || code == "" {
		if errParam == "" {
			errParam = "missing authorization code"
		}
		err := fmt.Errorf("%w: provider returned %s", shared.ErrTokenExchange, errParam)
		c.logger.Error("authorization failed", "error", err, "description", query.Get("error_description"))
		return c.fail(err)
	}

	c.logger.Debug("exchanging authorization code")

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := c.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		err = fmt.Errorf("%w: %w", shared.ErrTokenExchange, err)
		c.logger.Error("error fetching access token", "error", err)
		return c.fail(err)
	}

	if err := c.store.Set(KeyAccessToken, token.AccessToken); err != nil {
		return c.fail(fmt.Errorf("failed to persist access token: %w", err))
	}

	c.transition(Authenticated)
	c.logger.Info("authenticated")
	return Result{State: Authenticated, Token: token}
}

func (c *Callback) fail(err error) Result {
	c.transition(Failed)
	return Result{State: Failed, Err: err}
}

func (c *Callback) discardVerifier() {
	if err := c.store.Delete(KeyVerifier); err != nil {
		c.logger.Warn("failed to discard code verifier", "error", err)
	}
}
