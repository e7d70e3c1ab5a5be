package attendance_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"qrattend/internal/attendance"
)

func TestNewToken(t *testing.T) {
	token := attendance.NewToken()
	assert.Len(t, token, attendance.TokenLength)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]+$`), token)

	n := 8192
	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		seen[attendance.NewToken()] = true
	}
	assert.Len(t, seen, n, "tokens must be unique")
}
