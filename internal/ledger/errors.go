package ledger

import "github.com/pkg/errors"

// The mutation and query taxonomy. Callers branch on these with errors.Is;
// anything else surfaces as a storage fault.
var (
	// ErrNegativeStock rejects an output whose magnitude exceeds the
	// current quantity. Never retried.
	ErrNegativeStock = errors.New("stock quantity cannot go negative")
	// ErrNotFound is returned when the mutation target does not exist.
	ErrNotFound = errors.New("item not found")
	// ErrConflict is surfaced once the bounded retry on concurrent-write
	// collisions is exhausted.
	ErrConflict = errors.New("item was modified concurrently")
	// ErrValidation covers malformed mutation requests.
	ErrValidation = errors.New("invalid request")
)
