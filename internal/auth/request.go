package auth

import (
	"fmt"

	"golang.org/x/oauth2"
)

// Navigator sends the user agent to url.
type Navigator func(url string) error

// Authorizer builds authorization requests for a public PKCE client.
type Authorizer struct {
	config *oauth2.Config
	store  Store
}

// NewAuthorizer creates an [Authorizer] that persists pending login state in store.
func NewAuthorizer(config *oauth2.Config, store Store) *Authorizer {
	return &Authorizer{config: config, store: store}
}

// AuthorizationURL starts a login attempt and returns the provider URL to visit.
//
// A fresh state and verifier are persisted first, replacing any pending attempt, so only one
// login is in flight per store. The client identifier is not validated.
func (a *Authorizer) AuthorizationURL() (string, error) {
	state := GenerateRandomString(StateLength)
	verifier := GenerateRandomString(VerifierLength)

	if err := a.store.Set(KeyState, state); err != nil {
		return "", fmt.Errorf("failed to persist state: %w", err)
	}
	if err := a.store.Set(KeyVerifier, verifier); err != nil {
		return "", fmt.Errorf("failed to persist code verifier: %w", err)
	}

	challenge := GenerateCodeChallenge(verifier)

	return a.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		oauth2.SetAuthURLParam("code_challenge", challenge),
	), nil
}

// Login builds the authorization URL and hands it to nav. The URL is returned either way
// so callers can show it when navigation fails.
func (a *Authorizer) Login(nav Navigator) (string, error) {
	authURL, err := a.AuthorizationURL()
	if err != nil {
		return "", err
	}

	if err := nav(authURL); err != nil {
		return authURL, fmt.Errorf("failed to navigate to authorization URL: %w", err)
	}
	return authURL, nil
}
