package server

import (
	"errors"
	"html/template"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/insights/internal/auth"
	"github.com/desertthunder/insights/internal/shared"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: {{.Color}}; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Title}}</h1>
        <p>{{.Message}}</p>
    </div>
</body>
</html>
`))

type page struct {
	Title   string
	Message string
	Color   template.CSS
}

// CallbackHandler serves the redirect URI and drives an [auth.Callback].
//
// The first request decides the outcome, which is published once on [CallbackHandler.Result].
type CallbackHandler struct {
	callback *auth.Callback
	path     string
	results  chan auth.Result
	once     sync.Once
	logger   *log.Logger
}

var _ Handler = (*CallbackHandler)(nil)

// NewCallbackHandler serves callback at path (the redirect URI path).
func NewCallbackHandler(callback *auth.Callback, path string, logger *log.Logger) *CallbackHandler {
	if path == "" {
		path = "/callback"
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &CallbackHandler{
		callback: callback,
		path:     path,
		results:  make(chan auth.Result, 1),
		logger:   logger,
	}
}

func (h *CallbackHandler) Routes() []string {
	return []string{h.path}
}

func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	result := h.callback.Handle(r.Context(), r.URL.Query())

	if errors.Is(result.Err, shared.ErrCallbackConsumed) {
		h.writePage(w, http.StatusBadRequest, page{
			Title:   "Callback already processed",
			Message: "This login has already been handled. Return to the terminal.",
			Color:   "#e22134",
		})
		return
	}

	h.send(result)

	switch {
	case result.Err == nil:
		h.writePage(w, http.StatusOK, page{
			Title:   "✓ Authorization Successful",
			Message: "You can close this window and return to the terminal.",
			Color:   "#1DB954",
		})
	case errors.Is(result.Err, shared.ErrStateMismatch):
		h.writePage(w, http.StatusBadRequest, page{
			Title:   "Invalid state parameter",
			Message: "The login could not be verified. Start it again from the terminal.",
			Color:   "#e22134",
		})
	case errors.Is(result.Err, shared.ErrTokenExchange):
		h.writePage(w, http.StatusBadGateway, page{
			Title:   "Authorization failed",
			Message: "The access token could not be obtained. Check the terminal for details.",
			Color:   "#e22134",
		})
	default:
		h.writePage(w, http.StatusInternalServerError, page{
			Title:   "Authorization failed",
			Message: "Check the terminal for details.",
			Color:   "#e22134",
		})
	}
}

func (h *CallbackHandler) send(result auth.Result) {
	h.once.Do(func() {
		h.results <- result
		close(h.results)
	})
}

// Result receives exactly one result and is then closed.
func (h *CallbackHandler) Result() <-chan auth.Result {
	return h.results
}

// writePage renders p. The outcome does not depend on the page, so a failed write is only logged.
func (h *CallbackHandler) writePage(w http.ResponseWriter, status int, p page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, p); err != nil {
		h.logger.Debug("failed to write callback page", "status", status, "error", err)
	}
}
