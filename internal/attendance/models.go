package attendance

import "time"

// Claim statuses. Status is decided by policy at redemption time,
// never by the claimant.
const (
	StatusPresent = "present"
	StatusLate    = "late"
	StatusAbsent  = "absent"
)

// Session is a single-use-per-student attendance window. The token is the
// opaque string embedded in the QR code handed to claimants.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	IssuerID  string    `json:"issuer_id"`
	UnitCode  string    `json:"unit_code"`
	UnitName  string    `json:"unit_name"`
	Label     string    `json:"label"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Active    bool      `json:"active"`
}

// Valid reports whether the session can be redeemed at the given instant.
func (s Session) Valid(now time.Time) bool {
	return s.Active && now.Before(s.ExpiresAt)
}

// Claim is one student's proof of presence for one session. Unit fields are
// copied from the session at scan time so reports survive session deletion.
type Claim struct {
	ID        string    `json:"id"`
	SubjectID string    `json:"subject_id"`
	SessionID string    `json:"session_id"`
	UnitCode  string    `json:"unit_code"`
	UnitName  string    `json:"unit_name"`
	IssuerID  string    `json:"issuer_id"`
	Location  string    `json:"location"`
	ScannedAt time.Time `json:"scanned_at"`
	Status    string    `json:"status"`
	Verified  bool      `json:"verified"`
}

// Summary is a per-unit attendance rollup.
type Summary struct {
	UnitCode      string  `json:"unit_code"`
	UnitName      string  `json:"unit_name"`
	TotalSessions int     `json:"total_sessions,omitempty"`
	TotalClaims   int     `json:"total_claims"`
	Attended      int     `json:"attended"`
	Percentage    float64 `json:"percentage"`
}

// Stats is the administrative whole-store view.
type Stats struct {
	TotalSessions int64     `json:"total_sessions"`
	TotalClaims   int64     `json:"total_claims"`
	Units         []Summary `json:"units"`
}
