package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/codewaltz/codewaltz/internal/apperror"
	"github.com/codewaltz/codewaltz/internal/model"
	"github.com/codewaltz/codewaltz/internal/repository"
)

var _ repository.ReactionRepository = (*DB)(nil)

// AddReaction records a like or share and bumps the matching counter.
//
// DEDUP SEMANTICS:
// One row per (snippet, actor). The actor is the authenticated user when
// there is one, otherwise the caller-supplied anonymous client id — which
// lives in the client's config file, so the dedup is best-effort only: a
// cleared config or a second device can react again. That matches the
// product's intent (a counter, not a ledger).
//
// A duplicate insert violates the UNIQUE constraint; we then return the
// current snippet row unchanged rather than erroring. The counter bump is a
// SEPARATE statement from the reaction insert — no transaction spans the
// two, so a failed bump leaves the reaction recorded and the counter one
// behind. Consistent with the comment-count rule: counters are displays,
// not sources of truth.
func (db *DB) AddReaction(ctx context.Context, kind repository.ReactionKind, snippetID, userID, clientID string) (*model.Snippet, error) {
	var table, counter string
	switch kind {
	case repository.ReactionLike:
		table, counter = "snippet_likes", "likes_count"
	case repository.ReactionShare:
		table, counter = "snippet_shares", "shares_count"
	default:
		return nil, fmt.Errorf("sqlite: unknown reaction kind %q", kind)
	}

	actorKey := userID
	if actorKey == "" {
		if clientID == "" {
			return nil, apperror.ValidationFailed("client_id", "a client id is required for anonymous reactions")
		}
		actorKey = "client:" + clientID
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO `+table+` (snippet_id, actor_key) VALUES (?, ?)`,
		snippetID, actorKey,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			// Already reacted: no counter change, hand back the current row.
			return db.GetByID(ctx, snippetID)
		}
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return nil, apperror.NotFound("snippet", snippetID)
		}
		return nil, fmt.Errorf("sqlite: recording %s for %s: %w", kind, snippetID, err)
	}

	_, err = db.conn.ExecContext(ctx,
		`UPDATE snippets SET `+counter+` = `+counter+` + 1 WHERE id = ?`,
		snippetID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: bumping %s for %s: %w", counter, snippetID, err)
	}

	return db.GetByID(ctx, snippetID)
}
