package attendance

import "errors"

// Every failure leaving this package wraps exactly one of these sentinels so
// callers can branch with errors.Is and transports can map to a stable kind.
var (
	// ErrValidation marks malformed input. Never retried.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidToken means no session exists for the presented token.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredOrInactive covers both past-expiry and force-deactivated
	// sessions. Callers are deliberately not told which.
	ErrExpiredOrInactive = errors.New("session expired or inactive")
	// ErrAlreadyClaimed means a claim for this (subject, session) pair was
	// committed first, possibly by a concurrent request. On a retry after a
	// timeout this is success, not failure.
	ErrAlreadyClaimed = errors.New("attendance already recorded")
	// ErrTokenExists is the issuer-side collision on the session token.
	ErrTokenExists = errors.New("token already exists")
	// ErrNotFound is returned by lookups with no matching row.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable wraps transient store failures; retryable with backoff.
	ErrUnavailable = errors.New("store unavailable")
)

// Kind returns the stable machine-readable tag for an error.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, ErrExpiredOrInactive):
		return "expired_or_inactive"
	case errors.Is(err, ErrAlreadyClaimed):
		return "already_claimed"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnavailable):
		return "store_unavailable"
	default:
		return "internal"
	}
}
