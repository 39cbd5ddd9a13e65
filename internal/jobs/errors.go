package jobs

import "errors"

var (
	ErrNotFound = errors.New("job not found")
	// ErrTerminal is returned when a write reaches a job that already
	// completed or failed; terminal records are immutable.
	ErrTerminal = errors.New("job is terminal")
	// ErrProgressBackward is returned when an advance would lower progress.
	ErrProgressBackward = errors.New("progress must not decrease")
)
