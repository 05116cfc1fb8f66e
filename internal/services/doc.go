// Package services implements the Spotify Web API client used to load listening insights.
//
// # Authentication
//
// [SpotifyClient] wraps its transport in an [oauth2.Transport], so every request carries
// "Authorization: Bearer <token>" taken from the configured token source. The CLI uses a source
// that reads the persisted access token on each call.
//
// # Rate Limiting
//
// Requests are paced with a [rate.Limiter] shared by all calls of one client, including the two
// concurrent top-item requests issued per time range.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : no token, or the API answered 401
//   - [shared.ErrAPIRequest] : transport failure, other non-2xx status, or an undecodable body
//
// Nothing is retried.
package services
