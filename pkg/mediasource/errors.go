package mediasource

import "errors"

// Sentinel error kinds a caller can match against with errors.Is. They
// classify *why* an operation failed at the facade boundary; the
// underlying cause (a fetch error, a parse error, context cancellation)
// is wrapped beneath them.
var (
	ErrCancelled          = errors.New("mediasource: operation cancelled")
	ErrBrowseFailed       = errors.New("mediasource: browse failed")
	ErrSearchFailed       = errors.New("mediasource: search failed")
	ErrResolveFailed      = errors.New("mediasource: resolve failed")
	ErrUnableToReadSource = errors.New("mediasource: unable to read source")
)
