package refine

import "errors"

// Sentinel errors returned by the Refiner.
var (
	// ErrNilSource is returned by New when no input stream is given.
	ErrNilSource = errors.New("refine: nil alignment source")

	// ErrConsumed is yielded when the output sequence is iterated a second time.
	ErrConsumed = errors.New("refine: output already consumed")

	// ErrInvalidWindowSize is returned by New for a non-positive window size.
	ErrInvalidWindowSize = errors.New("refine: window size must be positive")
)
