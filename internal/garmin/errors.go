package garmin

import (
	"errors"
)

// Sentinel error kinds for this package. Callers match with errors.Is.
var (
	ErrAuthentication = errors.New("authentication failed")
	ErrNetwork        = errors.New("network error")
	ErrNotFound       = errors.New("activity not found")
)
