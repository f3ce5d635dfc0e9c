package analysis

import "github.com/pkg/errors"

var (
	// ErrSeriesTooShort is returned when a series cannot fill a single
	// local variance window.
	ErrSeriesTooShort = errors.New("series is too short for the local variance window")

	// ErrSectionsNotComputed is returned by feature extraction and break
	// detection when they are handed no section result.
	ErrSectionsNotComputed = errors.New("sections have not been computed, run section construction first")

	ErrInvalidTau    = errors.New("tau must be a positive finite number")
	ErrInvalidWindow = errors.New("q must be at least 1")
	ErrNonFinite     = errors.New("returns must not contain NaN or infinite values")
)
