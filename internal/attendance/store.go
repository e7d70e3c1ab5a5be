package attendance

import (
	"context"
	"time"
)

// Store is the single source of truth for sessions and the claim ledger.
// Both uniqueness contracts live here, not in the services: InsertSession
// must fail with ErrTokenExists on a duplicate token, and InsertClaim must
// fail with ErrAlreadyClaimed on a duplicate (subject, session) pair. The
// service may run as many replicas, so a check-then-insert in two steps is
// not an acceptable implementation of either.
//
// For every listing method, limit <= 0 returns the whole scope: the
// aggregator computes percentages over complete scopes, so implementations
// must not substitute their own caps. Paging is the caller's concern.
type Store interface {
	InsertSession(ctx context.Context, s Session) error
	SessionByToken(ctx context.Context, token string) (Session, error)
	SessionByID(ctx context.Context, id string) (Session, error)
	SessionsByIssuer(ctx context.Context, issuerID string, limit int) ([]Session, error)
	DeactivateSession(ctx context.Context, id string) error
	// DeleteExpiredSessions removes sessions whose expiry is before cutoff.
	// Cleanup only; validity is always re-derived at read time.
	DeleteExpiredSessions(ctx context.Context, cutoff time.Time) (int64, error)

	InsertClaim(ctx context.Context, c Claim) error
	ClaimByID(ctx context.Context, id string) (Claim, error)
	ClaimsBySession(ctx context.Context, sessionID string) ([]Claim, error)
	ClaimsBySubject(ctx context.Context, subjectID, unitCode string, limit int) ([]Claim, error)
	ClaimsByIssuer(ctx context.Context, issuerID string, limit int) ([]Claim, error)
	AllClaims(ctx context.Context) ([]Claim, error)

	SessionCountsByIssuer(ctx context.Context, issuerID string) (map[string]int, error)
	CountSessions(ctx context.Context) (int64, error)
	CountClaims(ctx context.Context) (int64, error)
}
