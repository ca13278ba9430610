package credentials

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/serviya/serviya-go/internal/common"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE credentials (
  key   TEXT PRIMARY KEY,
  value BLOB NOT NULL
);`)
	require.NoError(t, err)
	return db
}

func setupRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	return NewSQLiteRepository(setupDB(t), common.GenerateRandByteArray(32))
}

func TestSQLiteRepository_SetGet(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "k1", []byte("v1")))

	v, err := r.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), v)
}

func TestSQLiteRepository_GetAbsent_ReturnsNilNil(t *testing.T) {
	r := setupRepo(t)

	v, err := r.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestSQLiteRepository_SetUpserts(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "k", []byte("old")))
	require.NoError(t, r.Set(ctx, "k", []byte("new")))

	v, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), v)
}

func TestSQLiteRepository_ValuesEncryptedAtRest(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db, common.GenerateRandByteArray(32))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "access_token", []byte("super-secret")))

	var raw []byte
	require.NoError(t, db.QueryRow(`SELECT value FROM credentials WHERE key = 'access_token'`).Scan(&raw))
	assert.NotContains(t, string(raw), "super-secret")
}

func TestSQLiteRepository_GetWithWrongKeyFails(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	require.NoError(t, NewSQLiteRepository(db, common.GenerateRandByteArray(32)).Set(ctx, "k", []byte("v")))

	_, err := NewSQLiteRepository(db, common.GenerateRandByteArray(32)).Get(ctx, "k")
	require.Error(t, err)
}

func TestSQLiteRepository_SetMany_AllOrNothing(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, r.SetMany(ctx, map[string][]byte{
		"a": []byte("1"),
		"b": []byte("2"),
	}))

	for key, want := range map[string]string{"a": "1", "b": "2"} {
		v, err := r.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte(want), v)
	}
}

func TestSQLiteRepository_Delete_Idempotent(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "k", []byte("v")))
	require.NoError(t, r.Delete(ctx, "k"))
	require.NoError(t, r.Delete(ctx, "k")) // absent key is fine

	v, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestOpenDatabase_RunsMigrations(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "creds.db")

	db, err := OpenDatabase(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	r := NewSQLiteRepository(db, common.GenerateRandByteArray(32))
	require.NoError(t, r.Set(ctx, "k", []byte("v")))
}
