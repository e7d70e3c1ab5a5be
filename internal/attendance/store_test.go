package attendance_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qrattend/internal/attendance"
)

// The aggregator reads whole scopes with limit 0, so listing methods must
// never substitute caps of their own, no matter how large the scope grows.
func TestListingLimitZeroReturnsWholeScope(t *testing.T) {
	store := attendance.NewMemoryStore()
	ctx := context.Background()

	const total = 550
	for i := 0; i < total; i++ {
		subject := fmt.Sprintf("stu-%d", i)
		if i < 250 {
			subject = "stu-a"
		}
		insertClaim(t, store, subject, fmt.Sprintf("s-%d", i), "CS101", "Intro to Computing", "lec-1", attendance.StatusPresent)
	}

	bySubject, err := store.ClaimsBySubject(ctx, "stu-a", "", 0)
	require.NoError(t, err)
	assert.Len(t, bySubject, 250)

	byIssuer, err := store.ClaimsByIssuer(ctx, "lec-1", 0)
	require.NoError(t, err)
	assert.Len(t, byIssuer, total)

	// Positive limits still page.
	page, err := store.ClaimsBySubject(ctx, "stu-a", "", 10)
	require.NoError(t, err)
	assert.Len(t, page, 10)

	summary, err := attendance.NewAggregator(store).SummarizeIssuer(ctx, "lec-1")
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, total, summary[0].TotalClaims, "rollup must see every claim in scope")
}

func TestSessionsByIssuerLimitZeroReturnsWholeScope(t *testing.T) {
	store := attendance.NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	const total = 60
	for i := 0; i < total; i++ {
		err := store.InsertSession(ctx, attendance.Session{
			ID:        uuid.NewString(),
			Token:     attendance.NewToken(),
			IssuerID:  "lec-1",
			UnitCode:  "CS101",
			UnitName:  "Intro to Computing",
			Label:     attendance.DefaultLabel,
			CreatedAt: now,
			ExpiresAt: now.Add(time.Hour),
			Active:    true,
		})
		require.NoError(t, err)
	}

	sessions, err := store.SessionsByIssuer(ctx, "lec-1", 0)
	require.NoError(t, err)
	assert.Len(t, sessions, total)

	page, err := store.SessionsByIssuer(ctx, "lec-1", 25)
	require.NoError(t, err)
	assert.Len(t, page, 25)
}
