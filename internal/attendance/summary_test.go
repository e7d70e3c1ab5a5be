package attendance_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qrattend/internal/attendance"
)

func insertClaim(t *testing.T, store attendance.Store, subject, session, unitCode, unitName, issuer, status string) {
	t.Helper()
	err := store.InsertClaim(context.Background(), attendance.Claim{
		ID:        uuid.NewString(),
		SubjectID: subject,
		SessionID: session,
		UnitCode:  unitCode,
		UnitName:  unitName,
		IssuerID:  issuer,
		ScannedAt: time.Now().UTC(),
		Status:    status,
		Verified:  true,
	})
	require.NoError(t, err)
}

func TestSummarizeSubject(t *testing.T) {
	store := attendance.NewMemoryStore()
	agg := attendance.NewAggregator(store)

	insertClaim(t, store, "stu-a", "s1", "CS101", "Intro to Computing", "lec-1", attendance.StatusPresent)
	insertClaim(t, store, "stu-a", "s2", "CS101", "Intro to Computing", "lec-1", attendance.StatusPresent)
	insertClaim(t, store, "stu-a", "s3", "CS101", "Intro to Computing", "lec-1", attendance.StatusLate)
	insertClaim(t, store, "stu-a", "s4", "MA201", "Linear Algebra", "lec-2", attendance.StatusPresent)
	insertClaim(t, store, "stu-b", "s1", "CS101", "Intro to Computing", "lec-1", attendance.StatusPresent)

	summary, err := agg.SummarizeSubject(context.Background(), "stu-a")
	require.NoError(t, err)
	require.Len(t, summary, 2)

	cs := summary[0]
	assert.Equal(t, "CS101", cs.UnitCode)
	assert.Equal(t, "Intro to Computing", cs.UnitName)
	assert.Equal(t, 3, cs.TotalClaims)
	assert.Equal(t, 2, cs.Attended, "late claims do not count as attended")
	assert.InDelta(t, 66.66, cs.Percentage, 0.1)

	ma := summary[1]
	assert.Equal(t, "MA201", ma.UnitCode)
	assert.Equal(t, 1, ma.TotalClaims)
	assert.InDelta(t, 100.0, ma.Percentage, 0.001)
}

func TestSummarizeSubjectNoClaims(t *testing.T) {
	agg := attendance.NewAggregator(attendance.NewMemoryStore())

	summary, err := agg.SummarizeSubject(context.Background(), "stu-none")
	require.NoError(t, err)
	assert.Empty(t, summary)
}

func TestSummarizeIssuerCountsUnclaimedSessions(t *testing.T) {
	store := attendance.NewMemoryStore()
	agg := attendance.NewAggregator(store)
	issuer := attendance.NewIssuer(store, 24*time.Hour)

	// Three CS101 sessions, only one scanned; one PH100 session never
	// scanned at all.
	var tokens []string
	for i := 0; i < 3; i++ {
		sess, err := issuer.Issue(context.Background(), attendance.IssueParams{
			IssuerID: "lec-1", UnitCode: "CS101", UnitName: "Intro to Computing", TTL: time.Hour,
		})
		require.NoError(t, err)
		tokens = append(tokens, sess.Token)
	}
	_, err := issuer.Issue(context.Background(), attendance.IssueParams{
		IssuerID: "lec-1", UnitCode: "PH100", UnitName: "Physics", TTL: time.Hour,
	})
	require.NoError(t, err)

	engine := attendance.NewEngine(store, 0)
	_, err = engine.Redeem(context.Background(), "stu-a", tokens[0], time.Now())
	require.NoError(t, err)

	summary, err := agg.SummarizeIssuer(context.Background(), "lec-1")
	require.NoError(t, err)
	require.Len(t, summary, 2)

	cs := summary[0]
	assert.Equal(t, "CS101", cs.UnitCode)
	assert.Equal(t, 3, cs.TotalSessions)
	assert.Equal(t, 1, cs.TotalClaims)
	assert.InDelta(t, 100.0, cs.Percentage, 0.001)

	// A unit with sessions but zero claims must report zero, not divide.
	ph := summary[1]
	assert.Equal(t, "PH100", ph.UnitCode)
	assert.Equal(t, 1, ph.TotalSessions)
	assert.Equal(t, 0, ph.TotalClaims)
	assert.Zero(t, ph.Percentage)
}

func TestSummarizeGlobal(t *testing.T) {
	store := attendance.NewMemoryStore()
	agg := attendance.NewAggregator(store)
	issuer := attendance.NewIssuer(store, 24*time.Hour)
	engine := attendance.NewEngine(store, 0)

	sess, err := issuer.Issue(context.Background(), attendance.IssueParams{
		IssuerID: "lec-1", UnitCode: "CS101", UnitName: "Intro to Computing", TTL: time.Hour,
	})
	require.NoError(t, err)
	_, err = engine.Redeem(context.Background(), "stu-a", sess.Token, time.Now())
	require.NoError(t, err)
	_, err = engine.Redeem(context.Background(), "stu-b", sess.Token, time.Now())
	require.NoError(t, err)

	stats, err := agg.SummarizeGlobal(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.TotalSessions)
	assert.EqualValues(t, 2, stats.TotalClaims)
	require.Len(t, stats.Units, 1)
	assert.Equal(t, 2, stats.Units[0].TotalClaims)
	assert.InDelta(t, 100.0, stats.Units[0].Percentage, 0.001)
}

func TestSummarizeGlobalEmptyStore(t *testing.T) {
	agg := attendance.NewAggregator(attendance.NewMemoryStore())

	stats, err := agg.SummarizeGlobal(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalSessions)
	assert.Zero(t, stats.TotalClaims)
	assert.Empty(t, stats.Units)
}
