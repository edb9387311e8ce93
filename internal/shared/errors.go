package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")
	ErrConfigMissing = fmt.Errorf("sync settings not configured")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Job gating errors
	ErrSyncInProgress = fmt.Errorf("sync already in progress")
	ErrSyncNotRunning = fmt.Errorf("no sync in progress")

	// Input validation errors
	ErrInvalidInput     = fmt.Errorf("invalid input")
	ErrInvalidDateRange = fmt.Errorf("invalid date range")
)
