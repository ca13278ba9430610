package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/serviya/serviya-go/internal/cryptox"
)

// SQLiteRepository stores credential entries in a local sqlite table,
// sealing every value with AES-GCM before it touches disk.
type SQLiteRepository struct {
	db  *sql.DB
	key []byte
}

// NewSQLiteRepository wraps db with the given 32-byte store key.
func NewSQLiteRepository(db *sql.DB, key []byte) *SQLiteRepository {
	return &SQLiteRepository{db: db, key: key}
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var sealed []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM credentials WHERE key = ?`, key).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credentials[%s]: %w", key, err)
	}

	value, err := cryptox.Open(sealed, r.key)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt credentials[%s]: %w", key, err)
	}
	return value, nil
}

func (r *SQLiteRepository) Set(ctx context.Context, key string, value []byte) error {
	sealed, err := cryptox.Seal(value, r.key)
	if err != nil {
		return fmt.Errorf("failed to encrypt credentials[%s]: %w", key, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO credentials (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, sealed)
	if err != nil {
		return fmt.Errorf("failed to set credentials[%s]: %w", key, err)
	}
	return nil
}

// SetMany writes all pairs inside one transaction so a crash mid-save can
// never leave a half-written credential record on disk.
func (r *SQLiteRepository) SetMany(ctx context.Context, values map[string][]byte) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin credentials tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for key, value := range values {
		sealed, err := cryptox.Seal(value, r.key)
		if err != nil {
			return fmt.Errorf("failed to encrypt credentials[%s]: %w", key, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO credentials (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, key, sealed); err != nil {
			return fmt.Errorf("failed to set credentials[%s]: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit credentials tx: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete credentials[%s]: %w", key, err)
	}
	return nil
}
