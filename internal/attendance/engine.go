package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Engine redeems session tokens. It holds no state of its own: the store's
// composite unique constraint is what orders concurrent redemptions of the
// same (subject, session) pair, so any number of engine replicas behave as
// one.
type Engine struct {
	store Store
	// lateAfter marks claims late when the scan lands that long after the
	// session opened. Zero disables the policy.
	lateAfter time.Duration
}

// NewEngine creates a redemption engine.
func NewEngine(store Store, lateAfter time.Duration) *Engine {
	return &Engine{store: store, lateAfter: lateAfter}
}

// Redeem validates the token and records a claim for subjectID, exactly once
// per (subject, session). Outcomes: the claim, ErrValidation,
// ErrInvalidToken, ErrExpiredOrInactive, ErrAlreadyClaimed or ErrUnavailable.
func (e *Engine) Redeem(ctx context.Context, subjectID, token string, now time.Time) (Claim, error) {
	if subjectID == "" {
		return Claim{}, fmt.Errorf("%w: subject id required", ErrValidation)
	}
	if len(token) != TokenLength {
		return Claim{}, ErrInvalidToken
	}

	sess, err := e.store.SessionByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Claim{}, ErrInvalidToken
		}
		return Claim{}, err
	}
	if !sess.Valid(now) {
		return Claim{}, ErrExpiredOrInactive
	}

	claim := Claim{
		ID:        uuid.NewString(),
		SubjectID: subjectID,
		SessionID: sess.ID,
		UnitCode:  sess.UnitCode,
		UnitName:  sess.UnitName,
		IssuerID:  sess.IssuerID,
		Location:  sess.Location,
		ScannedAt: now.UTC(),
		Status:    e.status(sess, now),
		Verified:  true,
	}

	// The insert either commits or it does not; there is no partial write
	// for a cancelled request to leave behind.
	if err := e.store.InsertClaim(ctx, claim); err != nil {
		return Claim{}, err
	}
	return claim, nil
}

func (e *Engine) status(sess Session, now time.Time) string {
	if e.lateAfter > 0 && now.After(sess.CreatedAt.Add(e.lateAfter)) {
		return StatusLate
	}
	return StatusPresent
}
