package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qrattend/internal/auth"
)

const (
	testKey    = "test-signing-key"
	testIssuer = "campus-identity"
)

func TestIssueAndParse(t *testing.T) {
	token, exp, err := auth.Issue("stu-1", auth.RoleStudent, testIssuer, testKey, 15*time.Minute)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), exp, 2*time.Second)

	claims, err := auth.Parse(token, testKey, testIssuer)
	require.NoError(t, err)
	assert.Equal(t, "stu-1", claims.Subject)
	assert.Equal(t, auth.RoleStudent, claims.Role)
}

func TestParseRejectsWrongKey(t *testing.T) {
	token, _, err := auth.Issue("stu-1", auth.RoleStudent, testIssuer, testKey, 15*time.Minute)
	require.NoError(t, err)

	_, err = auth.Parse(token, "other-key", testIssuer)
	assert.Error(t, err)
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	token, _, err := auth.Issue("stu-1", auth.RoleStudent, "someone-else", testKey, 15*time.Minute)
	require.NoError(t, err)

	_, err = auth.Parse(token, testKey, testIssuer)
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	token, _, err := auth.Issue("stu-1", auth.RoleStudent, testIssuer, testKey, -time.Minute)
	require.NoError(t, err)

	_, err = auth.Parse(token, testKey, testIssuer)
	assert.Error(t, err)
}
