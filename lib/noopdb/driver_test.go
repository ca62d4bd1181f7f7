package noopdb_test

import (
	"database/sql"
	"github.com/ktb3/community-go/lib/noopdb"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestNoOpDB_queriesFindNothing(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	db, err := sql.Open(noopdb.DriverName, "")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var email string
	err = db.QueryRowContext(ctx, "select EMAIL from MEMBER where ID = ? and DELETED_AT is null", 7).Scan(&email)
	require.ErrorIs(t, err, sql.ErrNoRows)

	rows, err := db.QueryContext(ctx, "select MEMBER_ID, TOKEN from REFRESH_TOKEN")
	require.NoError(t, err)
	require.False(t, rows.Next())
	require.NoError(t, rows.Err())
	require.NoError(t, rows.Close())
}

func TestNoOpDB_execChangesNothing(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	db, err := sql.Open(noopdb.DriverName, "")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	result, err := tx.ExecContext(ctx,
		"update REFRESH_TOKEN set TOKEN = ?, EXPIRES_AT = ? where MEMBER_ID = ? and TOKEN = ?",
		"next", 1.5, 7, "presented",
	)
	require.NoError(t, err)
	affected, err := result.RowsAffected()
	require.NoError(t, err)
	require.Zero(t, affected)
	id, err := result.LastInsertId()
	require.NoError(t, err)
	require.Zero(t, id)
	require.NoError(t, tx.Commit())
}
