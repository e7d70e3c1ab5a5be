package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultLabel is used when the caller does not name the session.
const DefaultLabel = "session"

// IssueParams describes the session to create. TTL is how long the token can
// be redeemed, counted from issuance.
type IssueParams struct {
	IssuerID string
	UnitCode string
	UnitName string
	TTL      time.Duration
	Location string
	Label    string
}

// Issuer mints session tokens.
type Issuer struct {
	store  Store
	maxTTL time.Duration
	now    func() time.Time
}

// NewIssuer creates an issuer. maxTTL caps session validity so no token can
// be made effectively permanent.
func NewIssuer(store Store, maxTTL time.Duration) *Issuer {
	if maxTTL <= 0 {
		maxTTL = 8 * time.Hour
	}
	return &Issuer{store: store, maxTTL: maxTTL, now: time.Now}
}

// Issue creates and persists a new session. A token collision is detected by
// the store's unique index and retried once with a fresh token.
func (i *Issuer) Issue(ctx context.Context, p IssueParams) (Session, error) {
	switch {
	case p.IssuerID == "":
		return Session{}, fmt.Errorf("%w: issuer id required", ErrValidation)
	case p.UnitCode == "" || p.UnitName == "":
		return Session{}, fmt.Errorf("%w: unit code and name required", ErrValidation)
	case p.TTL <= 0:
		return Session{}, fmt.Errorf("%w: ttl must be positive", ErrValidation)
	case p.TTL > i.maxTTL:
		return Session{}, fmt.Errorf("%w: ttl exceeds maximum %s", ErrValidation, i.maxTTL)
	}
	if p.Label == "" {
		p.Label = DefaultLabel
	}

	now := i.now().UTC()
	sess := Session{
		ID:        uuid.NewString(),
		Token:     NewToken(),
		IssuerID:  p.IssuerID,
		UnitCode:  p.UnitCode,
		UnitName:  p.UnitName,
		Label:     p.Label,
		Location:  p.Location,
		CreatedAt: now,
		ExpiresAt: now.Add(p.TTL),
		Active:    true,
	}

	err := i.store.InsertSession(ctx, sess)
	if errors.Is(err, ErrTokenExists) {
		sess.Token = NewToken()
		err = i.store.InsertSession(ctx, sess)
		if errors.Is(err, ErrTokenExists) {
			err = fmt.Errorf("%w: token collision persisted across retry", ErrUnavailable)
		}
	}
	if err != nil {
		return Session{}, err
	}
	return sess, nil
}
