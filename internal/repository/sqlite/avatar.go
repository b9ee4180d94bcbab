package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/codewaltz/codewaltz/internal/repository"
)

var _ repository.AvatarRepository = (*DB)(nil)

// SetAvatarObject records which stored object is a user's avatar, replacing
// any previous mapping. The object file itself lives in the disk store; this
// table is only the owner → object-name index.
func (db *DB) SetAvatarObject(ctx context.Context, userID, objectName string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO avatars (owner, object_name, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(owner) DO UPDATE SET object_name = excluded.object_name, updated_at = excluded.updated_at`,
		userID, objectName, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting avatar for %s: %w", userID, err)
	}
	return nil
}

// GetAvatarObject returns the stored object name for a user. No avatar is
// not an error — it returns "", and the caller renders a placeholder.
func (db *DB) GetAvatarObject(ctx context.Context, userID string) (string, error) {
	var name string
	err := db.conn.QueryRowContext(ctx,
		`SELECT object_name FROM avatars WHERE owner = ?`, userID,
	).Scan(&name)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("sqlite: getting avatar for %s: %w", userID, err)
	}
	return name, nil
}
