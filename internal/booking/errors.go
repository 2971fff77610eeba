package booking

import (
	"errors"

	"github.com/lib/pq"
)

// Business-rule failures. All of them are detected before any write, so the
// transaction rolls back clean and the caller sees the tables exactly as they
// were before the call.
var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrEventNotFound       = errors.New("event not found")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrInsufficientTickets = errors.New("not enough tickets available")
	ErrUserLimitExceeded   = errors.New("user ticket limit exceeded")
	ErrAlreadyCancelled    = errors.New("booking is already cancelled")
)

// ErrLockContention marks a transient store abort (deadlock victim,
// serialization failure). Nothing was committed, so the caller may retry the
// whole operation.
var ErrLockContention = errors.New("transaction aborted by lock contention")

// postgres class 40 errors: 40001 serialization_failure, 40P01 deadlock_detected
func isTransientPgError(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}

// IsRetryable reports whether the failed operation can be safely re-run.
// Business-rule failures are deterministic and never retryable.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrLockContention)
}
