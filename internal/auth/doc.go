// Package auth implements the authorization code flow with PKCE for a public client.
//
// A login attempt generates a random state and code verifier ([GenerateRandomString]), persists
// both in a [Store], and sends the user agent to the provider with the S256 challenge
// ([GenerateCodeChallenge]). The provider redirects back to the local callback, where [Callback]
// checks the returned state, exchanges the code together with the verifier, and persists the
// resulting access token.
package auth
