// Package repository defines the storage interfaces the service layer is
// programmed against. The sqlite subpackage provides the real implementation;
// tests substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/codewaltz/codewaltz/internal/model"
)

// ListOptions controls defensive bounds on list queries. Zero values mean
// "use defaults"; the implementation clamps to sane limits.
type ListOptions struct {
	Limit  int
	Offset int
}

type SnippetRepository interface {
	Create(ctx context.Context, snippet *model.Snippet) error
	GetByID(ctx context.Context, id string) (*model.Snippet, error)
	// List returns snippets ordered by last update, newest first.
	List(ctx context.Context, opts ListOptions) ([]model.Snippet, error)
	// ListByOwner returns one user's snippets, same ordering as List.
	ListByOwner(ctx context.Context, userID string, opts ListOptions) ([]model.Snippet, error)
	// Update and Delete are owner-scoped: the WHERE clause matches both id and
	// owner, so a non-owner's call affects zero rows and reads as not-found.
	Update(ctx context.Context, snippet *model.Snippet) error
	Delete(ctx context.Context, id, userID string) error
	// DeleteAllByOwner removes every snippet owned by userID. No recovery path.
	DeleteAllByOwner(ctx context.Context, userID string) (int64, error)
	// RefreshCommentCount recomputes the stored comments_count for a snippet
	// from the comments table. Deliberately a separate call from comment
	// insertion — a failure here leaves the counter stale, never rolls back
	// the comment.
	RefreshCommentCount(ctx context.Context, snippetID string) (int, error)
}

type CommentRepository interface {
	// CreateComment appends a comment. ID and CreatedAt are assigned here.
	CreateComment(ctx context.Context, comment *model.Comment) error
	// ListComments returns a snippet's comments ordered by creation time
	// ascending — the order thread building and sibling display depend on.
	ListComments(ctx context.Context, snippetID string) ([]model.Comment, error)
	CountComments(ctx context.Context, snippetID string) (int, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	// UpsertGitHubUser inserts or refreshes an account keyed by GitHub ID,
	// preserving the internal ID across logins.
	UpsertGitHubUser(ctx context.Context, user *model.User) error
}

// ReactionKind names the two reaction tables. Likes and shares behave
// identically: one row per (snippet, actor), counter bumped on first insert.
type ReactionKind string

const (
	ReactionLike  ReactionKind = "like"
	ReactionShare ReactionKind = "share"
)

type ReactionRepository interface {
	// AddReaction records a reaction by an authenticated user (userID) or an
	// anonymous client (clientID); exactly one of the two is non-empty.
	// A duplicate reaction returns the snippet unchanged — the counter only
	// moves on the first insert. Dedup is best-effort: an anonymous client
	// that loses its client id can react again.
	AddReaction(ctx context.Context, kind ReactionKind, snippetID, userID, clientID string) (*model.Snippet, error)
}

type AvatarRepository interface {
	// SetAvatarObject records the stored object name for a user, replacing
	// any previous one.
	SetAvatarObject(ctx context.Context, userID, objectName string) error
	// GetAvatarObject returns the stored object name, or "" when the user
	// has no avatar (not an error).
	GetAvatarObject(ctx context.Context, userID string) (string, error)
}
