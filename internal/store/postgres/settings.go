package postgres

import (
	"context"
	"fmt"
	"strconv"
)

// GetInt returns the integer value stored under key.
// Returns sql.ErrNoRows (unwrapped) when the key is absent; callers decide
// whether that means "use the default".
func (s *Store) GetInt(ctx context.Context, key string) (int, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&raw)
	if err != nil {
		return 0, err
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("setting %s is not an integer: %w", key, err)
	}
	return v, nil
}

// SetInt upserts the integer value stored under key.
func (s *Store) SetInt(ctx context.Context, key string, value int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, key, strconv.Itoa(value))
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}
