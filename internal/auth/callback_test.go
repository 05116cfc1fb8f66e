package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/insights/internal/shared"
	"golang.org/x/oauth2"
)

type tokenServer struct {
	*httptest.Server
	calls atomic.Int32
	form  url.Values
}

// newTokenServer answers every token request with status and body.
func newTokenServer(t *testing.T, status int, body string) *tokenServer {
	t.Helper()

	ts := &tokenServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.calls.Add(1)
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse token request: %v", err)
		}
		ts.form = r.PostForm

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func pendingStore(state, verifier string) *MemoryStore {
	store := NewMemoryStore()
	store.Set(KeyState, state)
	store.Set(KeyVerifier, verifier)
	return store
}

func newTestCallback(ts *tokenServer, store Store) *Callback {
	return NewCallback(CallbackOpts{
		Config:     testOAuthConfig(ts.URL),
		Store:      store,
		HTTPClient: ts.Client(),
	})
}

func TestCallbackHandle(t *testing.T) {
	t.Run("successful exchange", func(t *testing.T) {
		ts := newTokenServer(t, http.StatusOK, `{"access_token":"abc123","token_type":"Bearer"}`)
		store := pendingStore("s1", "v1")
		cb := newTestCallback(ts, store)

		result := cb.Handle(context.Background(), url.Values{"code": {"c1"}, "state": {"s1"}})
		if result.Err != nil {
			t.Fatalf("Handle() error = %v", result.Err)
		}
		if result.State != Authenticated || cb.State() != Authenticated {
			t.Errorf("expected authenticated, got %v / %v", result.State, cb.State())
		}
		if result.Token.AccessToken != "abc123" {
			t.Errorf("unexpected token %q", result.Token.AccessToken)
		}

		want := map[string]string{
			"client_id":     "client id&more",
			"grant_type":    "authorization_code",
			"code":          "c1",
			"redirect_uri":  "http://127.0.0.1:3000/callback",
			"code_verifier": "v1",
		}
		for key, value := range want {
			if got := ts.form.Get(key); got != value {
				t.Errorf("form %s = %q, want %q", key, got, value)
			}
		}
		if ts.form.Has("client_secret") && ts.form.Get("client_secret") != "" {
			t.Error("public client must not send a secret")
		}

		if token, _ := AccessToken(store); token != "abc123" {
			t.Errorf("expected persisted token abc123, got %q", token)
		}
		if _, err := store.Get(KeyState); !errors.Is(err, shared.ErrKeyNotFound) {
			t.Error("expected state to be erased")
		}
		if _, err := store.Get(KeyVerifier); !errors.Is(err, shared.ErrKeyNotFound) {
			t.Error("expected verifier to be discarded")
		}
	})

	t.Run("state mismatch", func(t *testing.T) {
		ts := newTokenServer(t, http.StatusOK, `{"access_token":"abc123"}`)
		store := pendingStore("s1", "v1")
		cb := newTestCallback(ts, store)

		result := cb.Handle(context.Background(), url.Values{"code": {"c1"}, "state": {"s2"}})
		if !errors.Is(result.Err, shared.ErrStateMismatch) {
			t.Fatalf("expected ErrStateMismatch, got %v", result.Err)
		}
		if result.State != Failed {
			t.Errorf("expected failed, got %v", result.State)
		}
		if n := ts.calls.Load(); n != 0 {
			t.Errorf("token endpoint should not be contacted, got %d calls", n)
		}
		if v, _ := store.Get(KeyVerifier); v != "v1" {
			t.Error("verifier should be kept on mismatch")
		}
		if _, err := AccessToken(store); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Error("no token should be stored")
		}
	})

	t.Run("missing stored state", func(t *testing.T) {
		ts := newTokenServer(t, http.StatusOK, `{"access_token":"abc123"}`)
		store := NewMemoryStore()
		store.Set(KeyVerifier, "v1")
		cb := newTestCallback(ts, store)

		result := cb.Handle(context.Background(), url.Values{"code": {"c1"}, "state": {"s1"}})
		if !errors.Is(result.Err, shared.ErrStateMismatch) {
			t.Errorf("expected ErrStateMismatch, got %v", result.Err)
		}
		if ts.calls.Load() != 0 {
			t.Error("token endpoint should not be contacted")
		}
	})

	t.Run("provider error", func(t *testing.T) {
		ts := newTokenServer(t, http.StatusOK, `{"access_token":"abc123"}`)
		store := pendingStore("s1", "v1")
		cb := newTestCallback(ts, store)

		result := cb.Handle(context.Background(), url.Values{"error": {"access_denied"}, "state": {"s1"}})
		if !errors.Is(result.Err, shared.ErrTokenExchange) {
			t.Errorf("expected ErrTokenExchange, got %v", result.Err)
		}
		if ts.calls.Load() != 0 {
			t.Error("token endpoint should not be contacted")
		}
		if _, err := store.Get(KeyState); !errors.Is(err, shared.ErrKeyNotFound) {
			t.Error("expected state to be erased")
		}
	})

	t.Run("missing code", func(t *testing.T) {
		ts := newTokenServer(t, http.StatusOK, `{"access_token":"abc123"}`)
		cb := newTestCallback(ts, pendingStore("s1", "v1"))

		result := cb.Handle(context.Background(), url.Values{"state": {"s1"}})
		if !errors.Is(result.Err, shared.ErrTokenExchange) {
			t.Errorf("expected ErrTokenExchange, got %v", result.Err)
		}
	})

	t.Run("token endpoint rejects", func(t *testing.T) {
		ts := newTokenServer(t, http.StatusBadRequest, `{"error":"invalid_grant"}`)
		store := pendingStore("s1", "v1")
		cb := newTestCallback(ts, store)

		result := cb.Handle(context.Background(), url.Values{"code": {"c1"}, "state": {"s1"}})
		if !errors.Is(result.Err, shared.ErrTokenExchange) {
			t.Fatalf("expected ErrTokenExchange, got %v", result.Err)
		}

		var retrieveErr *oauth2.RetrieveError
		if !errors.As(result.Err, &retrieveErr) {
			t.Fatalf("expected *oauth2.RetrieveError in chain, got %T", result.Err)
		}
		if retrieveErr.Response.StatusCode != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", retrieveErr.Response.StatusCode)
		}

		if cb.State() != Failed {
			t.Errorf("expected failed, got %v", cb.State())
		}
		if _, err := store.Get(KeyVerifier); !errors.Is(err, shared.ErrKeyNotFound) {
			t.Error("verifier should be discarded after an exchange attempt")
		}
		if _, err := AccessToken(store); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Error("no token should be stored")
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		ts := newTokenServer(t, http.StatusOK, `{not json`)
		cb := newTestCallback(ts, pendingStore("s1", "v1"))

		result := cb.Handle(context.Background(), url.Values{"code": {"c1"}, "state": {"s1"}})
		if !errors.Is(result.Err, shared.ErrTokenExchange) {
			t.Errorf("expected ErrTokenExchange, got %v", result.Err)
		}
	})

	t.Run("missing access token", func(t *testing.T) {
		ts := newTokenServer(t, http.StatusOK, `{"token_type":"Bearer"}`)
		store := pendingStore("s1", "v1")
		cb := newTestCallback(ts, store)

		result := cb.Handle(context.Background(), url.Values{"code": {"c1"}, "state": {"s1"}})
		if !errors.Is(result.Err, shared.ErrTokenExchange) {
			t.Errorf("expected ErrTokenExchange, got %v", result.Err)
		}
		if _, err := AccessToken(store); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Error("no token should be stored")
		}
	})

	t.Run("second call is rejected", func(t *testing.T) {
		ts := newTokenServer(t, http.StatusOK, `{"access_token":"abc123"}`)
		cb := newTestCallback(ts, pendingStore("s1", "v1"))
		query := url.Values{"code": {"c1"}, "state": {"s1"}}

		if result := cb.Handle(context.Background(), query); result.Err != nil {
			t.Fatalf("first call failed: %v", result.Err)
		}

		result := cb.Handle(context.Background(), query)
		if !errors.Is(result.Err, shared.ErrCallbackConsumed) {
			t.Errorf("expected ErrCallbackConsumed, got %v", result.Err)
		}
		if n := ts.calls.Load(); n != 1 {
			t.Errorf("expected a single token request, got %d", n)
		}
		if cb.State() != Authenticated {
			t.Errorf("a rejected repeat should not change state, got %v", cb.State())
		}
	})

	t.Run("store failure", func(t *testing.T) {
		ts := newTokenServer(t, http.StatusOK, `{"access_token":"abc123"}`)
		cb := newTestCallback(ts, failingStore{})

		result := cb.Handle(context.Background(), url.Values{"code": {"c1"}, "state": {"s1"}})
		if !errors.Is(result.Err, errStoreDown) {
			t.Errorf("expected store error, got %v", result.Err)
		}
		if ts.calls.Load() != 0 {
			t.Error("token endpoint should not be contacted")
		}
	})
}

func TestNewCallback(t *testing.T) {
	cb := NewCallback(CallbackOpts{Config: testOAuthConfig(""), Store: NewMemoryStore()})
	if cb.State() != Awaiting {
		t.Errorf("expected awaiting, got %v", cb.State())
	}
}

func TestCallbackStateString(t *testing.T) {
	tests := []struct {
		state CallbackState
		want  string
	}{
		{Awaiting, "awaiting"},
		{Exchanging, "exchanging"},
		{Authenticated, "authenticated"},
		{Failed, "failed"},
		{CallbackState(9), "CallbackState(9)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
