// Package view holds the client-side controllers behind the snippet screens:
// the list/detail controller and the reply-state controller for comment
// threads.
//
// Controllers are plain state machines with no rendering and no transport of
// their own — they talk to the backend through the narrow client interfaces
// below and expose state for whatever front end drives them (the bundled TUI,
// or a test). All methods assume a single goroutine: the bubbletea update
// loop calls them from Update only, and async work is split into
// Begin.../Complete... pairs so network calls happen outside the controller.
//
// Deliberately NOT ambient: every controller receives its client and session
// context at construction. There are no package-level singletons to tear
// down — dropping the controller drops the state.
package view

import (
	"context"

	"github.com/codewaltz/codewaltz/internal/model"
)

// SnippetClient is the slice of the repository client the list controller
// needs. internal/client implements it over HTTP; tests implement it in
// memory.
type SnippetClient interface {
	// FetchSnippets returns all public snippets, newest-updated first.
	FetchSnippets(ctx context.Context) ([]model.Snippet, error)
	// FetchMySnippets returns the session user's snippets.
	FetchMySnippets(ctx context.Context) ([]model.Snippet, error)
	AddSnippet(ctx context.Context, form SnippetForm) (*model.Snippet, error)
	UpdateSnippet(ctx context.Context, id string, form SnippetForm) (*model.Snippet, error)
	DeleteSnippet(ctx context.Context, id string) error
	DeleteAllSnippets(ctx context.Context) error
}

// CommentClient is the slice of the repository client the reply controller
// needs.
type CommentClient interface {
	// FetchComments returns a snippet's comments, creation time ascending.
	FetchComments(ctx context.Context, snippetID string) ([]model.Comment, error)
	// AddComment appends a comment; parentID is empty for top-level.
	AddComment(ctx context.Context, snippetID, content, parentID string) (*model.Comment, error)
	FetchCommentCount(ctx context.Context, snippetID string) (int, error)
}

// SnippetForm is the editable snippet payload a user fills in.
type SnippetForm struct {
	Title    string
	Language string
	Code     string
}
