package kvstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, KeyAuthToken)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, KeyAuthToken, "abc"))
	require.NoError(t, s.Set(ctx, KeyAuthToken, "def"))
	got, err := s.Get(ctx, KeyAuthToken)
	require.NoError(t, err)
	assert.Equal(t, "def", got)

	require.NoError(t, s.Remove(ctx, KeyAuthToken))
	require.NoError(t, s.Remove(ctx, KeyAuthToken))
	_, err = s.Get(ctx, KeyAuthToken)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "store.db")
	s, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	exerciseStore(t, s)
}

func TestSQLitePersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, KeySessionKey, "guest-1"))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	got, err := s.Get(ctx, KeySessionKey)
	require.NoError(t, err)
	assert.Equal(t, "guest-1", got)
}

func TestSQLiteErrorsAreWrapped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS kv").WillReturnResult(sqlmock.NewResult(0, 0))
	s, err := NewSQLite(context.Background(), db)
	require.NoError(t, err)

	diskErr := errors.New("disk I/O error")
	mock.ExpectQuery(`SELECT value FROM kv WHERE key = \?`).WithArgs(KeyCartData).WillReturnError(diskErr)
	_, err = s.Get(context.Background(), KeyCartData)
	require.ErrorIs(t, err, diskErr)
	assert.NotErrorIs(t, err, ErrNotFound)

	mock.ExpectQuery(`SELECT value FROM kv WHERE key = \?`).WithArgs(KeyCartData).
		WillReturnRows(sqlmock.NewRows([]string{"value"}))
	_, err = s.Get(context.Background(), KeyCartData)
	assert.ErrorIs(t, err, ErrNotFound)

	mock.ExpectExec(`INSERT INTO kv`).WithArgs(KeyCartData, "{}").WillReturnError(diskErr)
	assert.ErrorIs(t, s.Set(context.Background(), KeyCartData, "{}"), diskErr)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteSchemaFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("read-only"))
	_, err = NewSQLite(context.Background(), db)
	assert.ErrorContains(t, err, "create kv table")
}

func TestGetOrAndRemoveAll(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	got, err := GetOr(ctx, m, KeyCartLastSync, "never")
	require.NoError(t, err)
	assert.Equal(t, "never", got)

	require.NoError(t, m.Set(ctx, KeyAuthToken, "t"))
	require.NoError(t, m.Set(ctx, KeyUserData, "{}"))
	require.NoError(t, RemoveAll(ctx, m, KeyAuthToken, KeyUserData))
	_, err = m.Get(ctx, KeyUserData)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveAllJoinsFailures(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS kv").WillReturnResult(sqlmock.NewResult(0, 0))
	s, err := NewSQLite(context.Background(), db)
	require.NoError(t, err)

	lockedErr := errors.New("database is locked")
	fullErr := errors.New("database or disk is full")
	mock.ExpectExec(`DELETE FROM kv WHERE key = \?`).WithArgs(KeyAuthToken).WillReturnError(lockedErr)
	mock.ExpectExec(`DELETE FROM kv WHERE key = \?`).WithArgs(KeyUserData).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM kv WHERE key = \?`).WithArgs(KeyCartData).WillReturnError(fullErr)

	err = RemoveAll(context.Background(), s, KeyAuthToken, KeyUserData, KeyCartData)
	require.Error(t, err)
	assert.ErrorIs(t, err, lockedErr)
	assert.ErrorIs(t, err, fullErr)
	require.NoError(t, mock.ExpectationsWereMet())
}
