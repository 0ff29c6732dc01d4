package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cinderauth/cinder/internal/auth/store"
)

// Get returns the sealed signing secret for a category.
func (s *Store) Get(ctx context.Context, category string) ([]byte, error) {
	var sealed []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT secret_sealed FROM signing_secrets WHERE category = ?;`,
		category,
	).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sealed, nil
}

// Put stores or replaces the sealed signing secret for a category.
func (s *Store) Put(ctx context.Context, category string, sealed []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO signing_secrets (category, secret_sealed, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (category) DO UPDATE SET
			secret_sealed = excluded.secret_sealed,
			updated_at = excluded.updated_at;`,
		category, sealed, time.Now().UTC(),
	)
	return err
}
