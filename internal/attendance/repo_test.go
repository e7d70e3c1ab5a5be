package attendance

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithLimit(t *testing.T) {
	base := "SELECT 1 FROM claims WHERE subject_id = $1"

	query, args := withLimit(base, []any{"stu-a"}, 0)
	assert.Equal(t, base, query, "limit 0 must mean the whole scope")
	assert.Equal(t, []any{"stu-a"}, args)

	query, args = withLimit(base, []any{"stu-a"}, -5)
	assert.Equal(t, base, query)
	assert.Len(t, args, 1)

	query, args = withLimit(base, []any{"stu-a"}, 10)
	assert.Equal(t, base+" LIMIT $2", query)
	assert.Equal(t, []any{"stu-a", 10}, args)
}

// Stub driver whose Exec results are controlled by the DSN, to exercise
// result-handling paths without a live database.

type stubResult struct{ affectedErr error }

func (stubResult) LastInsertId() (int64, error)   { return 0, nil }
func (r stubResult) RowsAffected() (int64, error) { return 0, r.affectedErr }

type stubStmt struct{ res driver.Result }

func (stubStmt) Close() error  { return nil }
func (stubStmt) NumInput() int { return -1 }
func (s stubStmt) Exec(args []driver.Value) (driver.Result, error) {
	return s.res, nil
}
func (stubStmt) Query(args []driver.Value) (driver.Rows, error) {
	return nil, errors.New("query not supported")
}

type stubConn struct{ res driver.Result }

func (c stubConn) Prepare(query string) (driver.Stmt, error) { return stubStmt{res: c.res}, nil }
func (stubConn) Close() error                                { return nil }
func (stubConn) Begin() (driver.Tx, error)                   { return nil, errors.New("tx not supported") }

type stubDriver struct{}

func (stubDriver) Open(dsn string) (driver.Conn, error) {
	res := stubResult{}
	if dsn == "rowsaffected-error" {
		res.affectedErr = errors.New("rows affected unavailable")
	}
	return stubConn{res: res}, nil
}

func init() {
	sql.Register("attendance-stub", stubDriver{})
}

func TestDeactivateSessionPropagatesRowsAffectedError(t *testing.T) {
	db, err := sql.Open("attendance-stub", "rowsaffected-error")
	require.NoError(t, err)
	defer db.Close()

	err = NewRepository(db).DeactivateSession(context.Background(), "some-id")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestDeactivateSessionZeroRowsIsNotFound(t *testing.T) {
	db, err := sql.Open("attendance-stub", "")
	require.NoError(t, err)
	defer db.Close()

	err = NewRepository(db).DeactivateSession(context.Background(), "missing-id")
	assert.ErrorIs(t, err, ErrNotFound)
}
