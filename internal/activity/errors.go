package activity

import (
	"errors"
)

// Sentinel error kinds for this package. Callers match with errors.Is.
var (
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrInvalidFilter     = errors.New("invalid filter")
	ErrInsufficientData  = errors.New("insufficient data")
)
