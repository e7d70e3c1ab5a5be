package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Repository persists sessions and claims in Postgres. The unique indexes on
// sessions.token and claims (subject_id, session_id) are what make
// InsertSession and InsertClaim safe under concurrent replicas.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const uniqueViolation = "23505"

// storeErr translates driver failures into the package error taxonomy.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if strings.Contains(pgErr.ConstraintName, "claims") {
			return ErrAlreadyClaimed
		}
		return ErrTokenExists
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func (r *Repository) InsertSession(ctx context.Context, s Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, token, issuer_id, unit_code, unit_name, label, location, created_at, expires_at, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, s.ID, s.Token, s.IssuerID, s.UnitCode, s.UnitName, s.Label, s.Location, s.CreatedAt, s.ExpiresAt, s.Active)
	return storeErr(err)
}

const sessionCols = `id, token, issuer_id, unit_code, unit_name, label, location, created_at, expires_at, active`

func scanSession(row interface{ Scan(...any) error }) (Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.Token, &s.IssuerID, &s.UnitCode, &s.UnitName, &s.Label, &s.Location, &s.CreatedAt, &s.ExpiresAt, &s.Active)
	if err != nil {
		return Session{}, storeErr(err)
	}
	return s, nil
}

func (r *Repository) SessionByToken(ctx context.Context, token string) (Session, error) {
	return scanSession(r.db.QueryRowContext(ctx,
		`SELECT `+sessionCols+` FROM sessions WHERE token = $1`, token))
}

func (r *Repository) SessionByID(ctx context.Context, id string) (Session, error) {
	return scanSession(r.db.QueryRowContext(ctx,
		`SELECT `+sessionCols+` FROM sessions WHERE id = $1`, id))
}

// withLimit appends a LIMIT clause for positive limits. limit <= 0 means the
// whole scope; the aggregator depends on that, so paging caps belong to the
// callers that want them.
func withLimit(query string, args []any, limit int) (string, []any) {
	if limit <= 0 {
		return query, args
	}
	args = append(args, limit)
	return fmt.Sprintf("%s LIMIT $%d", query, len(args)), args
}

func (r *Repository) SessionsByIssuer(ctx context.Context, issuerID string, limit int) ([]Session, error) {
	query := `SELECT ` + sessionCols + ` FROM sessions WHERE issuer_id = $1 ORDER BY created_at DESC`
	args := []any{issuerID}
	query, args = withLimit(query, args, limit)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()
	var res []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, storeErr(rows.Err())
}

func (r *Repository) DeactivateSession(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE sessions SET active = FALSE WHERE id = $1`, id)
	if err != nil {
		return storeErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteExpiredSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, storeErr(err)
	}
	n, err := res.RowsAffected()
	return n, storeErr(err)
}

func (r *Repository) InsertClaim(ctx context.Context, c Claim) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO claims (id, subject_id, session_id, unit_code, unit_name, issuer_id, location, scanned_at, status, verified)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, c.ID, c.SubjectID, c.SessionID, c.UnitCode, c.UnitName, c.IssuerID, c.Location, c.ScannedAt, c.Status, c.Verified)
	return storeErr(err)
}

const claimCols = `id, subject_id, session_id, unit_code, unit_name, issuer_id, location, scanned_at, status, verified`

func scanClaim(row interface{ Scan(...any) error }) (Claim, error) {
	var c Claim
	err := row.Scan(&c.ID, &c.SubjectID, &c.SessionID, &c.UnitCode, &c.UnitName, &c.IssuerID, &c.Location, &c.ScannedAt, &c.Status, &c.Verified)
	if err != nil {
		return Claim{}, storeErr(err)
	}
	return c, nil
}

func (r *Repository) ClaimByID(ctx context.Context, id string) (Claim, error) {
	return scanClaim(r.db.QueryRowContext(ctx,
		`SELECT `+claimCols+` FROM claims WHERE id = $1`, id))
}

func (r *Repository) queryClaims(ctx context.Context, query string, args ...any) ([]Claim, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()
	var res []Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, storeErr(rows.Err())
}

func (r *Repository) ClaimsBySession(ctx context.Context, sessionID string) ([]Claim, error) {
	return r.queryClaims(ctx,
		`SELECT `+claimCols+` FROM claims WHERE session_id = $1 ORDER BY scanned_at DESC`, sessionID)
}

func (r *Repository) ClaimsBySubject(ctx context.Context, subjectID, unitCode string, limit int) ([]Claim, error) {
	query := `SELECT ` + claimCols + ` FROM claims WHERE subject_id = $1`
	args := []any{subjectID}
	if unitCode != "" {
		args = append(args, unitCode)
		query += fmt.Sprintf(" AND unit_code = $%d", len(args))
	}
	query += ` ORDER BY scanned_at DESC`
	query, args = withLimit(query, args, limit)
	return r.queryClaims(ctx, query, args...)
}

func (r *Repository) ClaimsByIssuer(ctx context.Context, issuerID string, limit int) ([]Claim, error) {
	query := `SELECT ` + claimCols + ` FROM claims WHERE issuer_id = $1 ORDER BY scanned_at DESC`
	args := []any{issuerID}
	query, args = withLimit(query, args, limit)
	return r.queryClaims(ctx, query, args...)
}

func (r *Repository) AllClaims(ctx context.Context) ([]Claim, error) {
	return r.queryClaims(ctx,
		`SELECT `+claimCols+` FROM claims ORDER BY scanned_at DESC`)
}

func (r *Repository) SessionCountsByIssuer(ctx context.Context, issuerID string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT unit_code, COUNT(*) FROM sessions
		WHERE issuer_id = $1
		GROUP BY unit_code
	`, issuerID)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var code string
		var n int
		if err := rows.Scan(&code, &n); err != nil {
			return nil, storeErr(err)
		}
		counts[code] = n
	}
	return counts, storeErr(rows.Err())
}

func (r *Repository) CountSessions(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n)
	return n, storeErr(err)
}

func (r *Repository) CountClaims(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM claims`).Scan(&n)
	return n, storeErr(err)
}
