package sqlite

import (
	"context"
	"time"
)

// Add lists a revoked token ID until its deadline. Re-revoking the same
// jti just refreshes the deadline.
func (s *Store) Add(ctx context.Context, jti string, ttl time.Duration) error {
	deadline := time.Now().UTC().Add(ttl)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revoked_tokens (jti, expires_at)
		VALUES (?, ?)
		ON CONFLICT (jti) DO UPDATE SET expires_at = excluded.expires_at;`,
		jti, deadline,
	)
	return err
}

// Has reports whether a token ID is currently listed. Entries past their
// deadline count as unlisted even before housekeeping purges the row.
func (s *Store) Has(ctx context.Context, jti string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM revoked_tokens
		WHERE jti = ? AND expires_at > ?;`,
		jti, time.Now().UTC(),
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// PurgeExpired deletes rows whose deadline has passed. Housekeeping
// calls this on an interval; correctness doesn't depend on it, Has
// already ignores dead rows.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM revoked_tokens WHERE expires_at <= ?;`,
		time.Now().UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
