// Package server runs the short-lived local HTTP server that receives the OAuth redirect.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [BasicRouter] uses
// [http.ServeMux] method patterns internally. [Middleware] added first wraps outermost, so
// [RequestID] should be added before [RequestLogger].
//
// # Callback Handler
//
// [CallbackHandler] adapts an auth.Callback to HTTP. It answers the browser with a small HTML page
// (200 on success, 400 on a state mismatch or a repeated callback, 502 when the token exchange
// fails) and publishes the outcome of the first callback on a one-shot channel.
//
// # Lifecycle
//
// [Listen] binds the configured address up front so a port conflict surfaces before the browser
// opens. The login command serves until a result arrives or the callback timeout elapses, then
// calls [Server.Shutdown].
package server
