package model

import "time"

// Comment is one row of a snippet's discussion. Comments are append-only from
// the client's point of view — there is no edit or delete operation.
//
// ParentID is the optional reference that turns the flat comment list into a
// tree: empty for a top-level comment, otherwise the ID of the comment being
// replied to. The tree itself is never stored; it is rebuilt from the flat
// list by the thread package whenever the list changes. A ParentID pointing at
// a comment that no longer resolves is not an error — the comment is treated
// as top-level (see thread.Build).
type Comment struct {
	ID        string    `json:"id"         db:"id"`
	SnippetID string    `json:"snippet_id" db:"snippet_id"`
	UserID    string    `json:"user_id"    db:"user_id"`
	Author    string    `json:"author"     db:"author"`
	Content   string    `json:"content"    db:"content"`
	ParentID  string    `json:"parent_id,omitempty" db:"parent_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
