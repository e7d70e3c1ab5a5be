package attendance

import (
	"crypto/rand"
	"encoding/hex"
)

// TokenLength is the fixed length of a session token in hex characters.
// 20 random bytes = 160 bits of entropy.
const TokenLength = 40

// NewToken returns an unguessable opaque session token.
func NewToken() string {
	b := make([]byte, TokenLength/2)
	if _, err := rand.Read(b); err != nil {
		panic("attendance: crypto/rand failed: " + err.Error())
	}
	return hex.EncodeToString(b)
}
