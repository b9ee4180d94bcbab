package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/codewaltz/codewaltz/internal/model"
	"github.com/codewaltz/codewaltz/internal/repository"
)

var _ repository.CommentRepository = (*DB)(nil)

// CreateComment appends a comment to a snippet's flat comment list.
//
// parent_id is stored as NULL for top-level comments so the column reads
// naturally in SQL; the Go model uses "" for the same thing. No validation
// that the parent actually exists — a dangling reference degrades to a root
// at thread-building time, by design.
func (db *DB) CreateComment(ctx context.Context, comment *model.Comment) error {
	comment.ID = xid.New().String()
	comment.CreatedAt = time.Now()

	var parent sql.NullString
	if comment.ParentID != "" {
		parent = sql.NullString{String: comment.ParentID, Valid: true}
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO snippet_comments (id, snippet_id, user_id, author, content, parent_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		comment.ID,
		comment.SnippetID,
		comment.UserID,
		comment.Author,
		comment.Content,
		parent,
		comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating comment: %w", err)
	}

	return nil
}

// ListComments returns a snippet's comments ordered by creation time
// ascending. This ordering is load-bearing: the thread builder preserves
// input order for siblings, so replies appear chronologically within each
// parent because the rows arrive chronologically here.
//
// No pagination — the product renders whole threads, and the defensive
// story is the snippet-level list limits, not comment windowing.
func (db *DB) ListComments(ctx context.Context, snippetID string) ([]model.Comment, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, snippet_id, user_id, author, content, parent_id, created_at
		 FROM snippet_comments
		 WHERE snippet_id = ?
		 ORDER BY created_at ASC, id ASC`,
		snippetID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing comments for %s: %w", snippetID, err)
	}
	defer rows.Close()

	comments := make([]model.Comment, 0, 16)
	for rows.Next() {
		var c model.Comment
		var parent sql.NullString
		if err := rows.Scan(
			&c.ID, &c.SnippetID, &c.UserID, &c.Author, &c.Content,
			&parent, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning comment row: %w", err)
		}
		if parent.Valid {
			c.ParentID = parent.String
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating comments: %w", err)
	}

	return comments, nil
}

// CountComments returns the live comment count for a snippet, straight from
// the comments table (not the denormalised counter on the snippet row).
func (db *DB) CountComments(ctx context.Context, snippetID string) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM snippet_comments WHERE snippet_id = ?`,
		snippetID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting comments for %s: %w", snippetID, err)
	}
	return count, nil
}
