package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Catalog errors
	ErrCatalogLoadFailed = fmt.Errorf("catalog load failed")
	ErrCatalogNotReady   = fmt.Errorf("catalog not loaded")
	ErrItemNotFound      = fmt.Errorf("catalog item not found")

	// List synchronization errors
	ErrListCreationFailed = fmt.Errorf("list creation failed")
	ErrNoActiveList       = fmt.Errorf("no active list")
	ErrListNotFound       = fmt.Errorf("list not found")
	ErrListAlreadyActive  = fmt.Errorf("a different list is already active")
	ErrDuplicateItem      = fmt.Errorf("item already in list")
	ErrSyncFailed         = fmt.Errorf("list sync failed")
	ErrSyncClosed         = fmt.Errorf("synchronizer closed")

	// API and service errors
	ErrTimeout            = fmt.Errorf("operation timed out")
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
