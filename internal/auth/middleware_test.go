package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qrattend/internal/auth"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/staff", auth.RequireRole(testKey, testIssuer, auth.RoleLecturer, auth.RoleAdmin), func(c *gin.Context) {
		claims, ok := auth.FromContext(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"sub": claims.Subject, "role": claims.Role})
	})
	return r
}

func doReq(t *testing.T, r *gin.Engine, authz string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/staff", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireRoleMissingToken(t *testing.T) {
	w := doReq(t, newTestRouter(), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRoleMalformedHeader(t *testing.T) {
	w := doReq(t, newTestRouter(), "Token abc")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRoleInvalidToken(t *testing.T) {
	w := doReq(t, newTestRouter(), "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRoleForbiddenRole(t *testing.T) {
	token, _, err := auth.Issue("stu-1", auth.RoleStudent, testIssuer, testKey, time.Minute)
	require.NoError(t, err)

	w := doReq(t, newTestRouter(), "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRoleAllows(t *testing.T) {
	token, _, err := auth.Issue("lec-1", auth.RoleLecturer, testIssuer, testKey, time.Minute)
	require.NoError(t, err)

	w := doReq(t, newTestRouter(), "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "lec-1")
}
