package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrStateMismatch    = fmt.Errorf("state mismatch")
	ErrTokenExchange    = fmt.Errorf("token exchange failed")
	ErrCallbackConsumed = fmt.Errorf("callback already processed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrKeyNotFound      = fmt.Errorf("key not found")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrFetch              = fmt.Errorf("failed to fetch listening history")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrInvalidTimeRange  = fmt.Errorf("invalid time range")
	ErrUnsupportedFormat = fmt.Errorf("unsupported output format")
)
