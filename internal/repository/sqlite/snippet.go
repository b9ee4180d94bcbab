package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/codewaltz/codewaltz/internal/apperror"
	"github.com/codewaltz/codewaltz/internal/model"
	"github.com/codewaltz/codewaltz/internal/repository"
)

// Compile-time check that *DB implements repository.SnippetRepository.
// If a method is missing or has the wrong signature, this line fails to
// compile instead of surfacing much later at a call site.
var _ repository.SnippetRepository = (*DB)(nil)

const snippetColumns = `id, title, language, code, author, user_id,
	likes_count, shares_count, comments_count, created_at, updated_at`

func scanSnippet(row interface{ Scan(...any) error }, s *model.Snippet) error {
	return row.Scan(
		&s.ID, &s.Title, &s.Language, &s.Code, &s.Author, &s.UserID,
		&s.LikesCount, &s.SharesCount, &s.CommentsCount,
		&s.CreatedAt, &s.UpdatedAt,
	)
}

// Create inserts a new snippet.
//
// The server owns identity and time: ID (a sortable xid), CreatedAt and
// UpdatedAt are assigned here, never taken from the request. UserID must
// already be set by the service from the authenticated session — it is
// written once and no later operation can change it.
func (db *DB) Create(ctx context.Context, snippet *model.Snippet) error {
	snippet.ID = xid.New().String()

	now := time.Now()
	snippet.CreatedAt = now
	snippet.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO snippets (id, title, language, code, author, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snippet.ID,
		snippet.Title,
		snippet.Language,
		snippet.Code,
		snippet.Author,
		snippet.UserID,
		snippet.CreatedAt,
		snippet.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating snippet: %w", err)
	}

	return nil
}

// GetByID retrieves a single snippet by its ID.
// Returns apperror.ErrNotFound if no row matches — sql.ErrNoRows never
// escapes this package.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	var s model.Snippet

	err := scanSnippet(db.conn.QueryRowContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets WHERE id = ?`, id,
	), &s)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("sqlite: getting snippet %s: %w", id, err)
	}

	return &s, nil
}

// List retrieves snippets ordered by last update, newest first — the order
// the browse view displays.
func (db *DB) List(ctx context.Context, opts repository.ListOptions) ([]model.Snippet, error) {
	limit, offset := clampListOptions(opts)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets
		 ORDER BY updated_at DESC
		 LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets: %w", err)
	}
	defer rows.Close()

	return collectSnippets(rows, limit)
}

// ListByOwner retrieves one user's snippets, same ordering as List.
func (db *DB) ListByOwner(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Snippet, error) {
	limit, offset := clampListOptions(opts)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets
		 WHERE user_id = ?
		 ORDER BY updated_at DESC
		 LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets for user %s: %w", userID, err)
	}
	defer rows.Close()

	return collectSnippets(rows, limit)
}

func clampListOptions(opts repository.ListOptions) (limit, offset int) {
	limit = opts.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	offset = opts.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func collectSnippets(rows *sql.Rows, capacity int) ([]model.Snippet, error) {
	snippets := make([]model.Snippet, 0, capacity)
	for rows.Next() {
		var s model.Snippet
		if err := scanSnippet(rows, &s); err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet row: %w", err)
		}
		snippets = append(snippets, s)
	}
	// rows.Err() catches errors that happened DURING iteration (connection
	// dropping mid-scan) that Next() swallows.
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippets: %w", err)
	}
	return snippets, nil
}

// Update modifies a snippet's editable fields, scoped to the owner.
//
// The WHERE clause matches both id and user_id: an update by anyone but the
// owner affects zero rows, which we report as not-found. The API deliberately
// does not distinguish "someone else's snippet" from "no such snippet" —
// leaking which is which would confirm the row exists.
//
// likes/shares/comments counters are NOT touched here; they move only
// through their own dedicated paths.
func (db *DB) Update(ctx context.Context, snippet *model.Snippet) error {
	snippet.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE snippets
		 SET title = ?, language = ?, code = ?, author = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		snippet.Title,
		snippet.Language,
		snippet.Code,
		snippet.Author,
		snippet.UpdatedAt,
		snippet.ID,
		snippet.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating snippet %s: %w", snippet.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", snippet.ID)
	}

	return nil
}

// Delete removes a snippet, scoped to the owner. Same zero-rows-means-
// not-found pattern as Update. Comments and reactions go with it via
// ON DELETE CASCADE.
func (db *DB) Delete(ctx context.Context, id, userID string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM snippets WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting snippet %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", id)
	}

	return nil
}

// DeleteAllByOwner removes every snippet owned by userID and reports how
// many went. Zero is not an error — "delete all" on an empty shelf succeeds.
func (db *DB) DeleteAllByOwner(ctx context.Context, userID string) (int64, error) {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM snippets WHERE user_id = ?`, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: deleting snippets for user %s: %w", userID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return rowsAffected, nil
}

// RefreshCommentCount recomputes comments_count from the comments table and
// returns the fresh value. This is the second, independent half of "add a
// comment" — it is not part of any transaction with the insert, so a failure
// leaves the stored counter stale but the comment in place.
func (db *DB) RefreshCommentCount(ctx context.Context, snippetID string) (int, error) {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE snippets
		 SET comments_count = (SELECT COUNT(*) FROM snippet_comments WHERE snippet_id = ?)
		 WHERE id = ?`,
		snippetID, snippetID,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: refreshing comment count for %s: %w", snippetID, err)
	}

	var count int
	err = db.conn.QueryRowContext(ctx,
		`SELECT comments_count FROM snippets WHERE id = ?`, snippetID,
	).Scan(&count)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, apperror.NotFound("snippet", snippetID)
		}
		return 0, fmt.Errorf("sqlite: reading comment count for %s: %w", snippetID, err)
	}
	return count, nil
}
