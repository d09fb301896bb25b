package usecase

import "errors"

// Error definitions shared by the usecases.
var (
	ErrModelNotFound       = errors.New("model not found")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrUnsupportedKind     = errors.New("unsupported classifier kind")
	ErrZeroShotUnavailable = errors.New("zero-shot classification unavailable")
)
