package errs

import "errors"

// Common sentinel errors for cross-layer signaling.
var (
	ErrNotFound = errors.New("not_found")
	// ErrInvalid is used for malformed input: blank names, bad dates, non-positive counts.
	ErrInvalid = errors.New("invalid")
	// ErrBadReference indicates a foreign id (mpa, genre, user, film) that does not exist at write time.
	ErrBadReference = errors.New("bad_reference")
	ErrConflict     = errors.New("conflict")
)
