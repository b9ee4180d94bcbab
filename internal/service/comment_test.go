package service

import (
	"context"
	"errors"
	"testing"

	"github.com/codewaltz/codewaltz/internal/apperror"
	"github.com/codewaltz/codewaltz/internal/model"
)

func newTestCommentService(t *testing.T) (*CommentService, *mockCommentRepo, *mockSnippetRepo, *mockUserRepo) {
	t.Helper()
	comments := &mockCommentRepo{}
	snippets := newMockSnippetRepo()
	users := newMockUserRepo()
	svc := NewCommentService(comments, snippets, users, testLogger(t))
	return svc, comments, snippets, users
}

func seedSnippet(t *testing.T, snippets *mockSnippetRepo, userID string) *model.Snippet {
	t.Helper()
	s := &model.Snippet{Title: "t", Code: "c", UserID: userID}
	if err := snippets.Create(context.Background(), s); err != nil {
		t.Fatalf("seeding snippet: %v", err)
	}
	return s
}

func TestCommentAdd(t *testing.T) {
	svc, _, snippets, users := newTestCommentService(t)
	user := users.add(model.User{Email: "a@b.c", Username: "alice"})
	snippet := seedSnippet(t, snippets, user.ID)
	ctx := context.Background()

	comment, err := svc.Add(ctx, user.ID, snippet.ID, "  nice one  ", "")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if comment.Content != "nice one" {
		t.Errorf("Content = %q, want trimmed", comment.Content)
	}
	if comment.Author != "alice" {
		t.Errorf("Author = %q, want alice", comment.Author)
	}
	if comment.ParentID != "" {
		t.Errorf("ParentID = %q, want empty for top-level", comment.ParentID)
	}

	// The denormalised counter refresh follows every insert.
	if len(snippets.refreshed) != 1 || snippets.refreshed[0] != snippet.ID {
		t.Errorf("refreshed = %v, want [%s]", snippets.refreshed, snippet.ID)
	}

	reply, err := svc.Add(ctx, user.ID, snippet.ID, "agreed", comment.ID)
	if err != nil {
		t.Fatalf("Add() reply error = %v", err)
	}
	if reply.ParentID != comment.ID {
		t.Errorf("reply ParentID = %q, want %q", reply.ParentID, comment.ID)
	}
}

func TestCommentAdd_Rejections(t *testing.T) {
	svc, _, snippets, users := newTestCommentService(t)
	user := users.add(model.User{Email: "a@b.c", Username: "alice"})
	snippet := seedSnippet(t, snippets, user.ID)
	ctx := context.Background()

	if _, err := svc.Add(ctx, "", snippet.ID, "hi", ""); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("anonymous Add() error = %v, want ErrUnauthorized", err)
	}
	if _, err := svc.Add(ctx, user.ID, snippet.ID, "   ", ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("blank Add() error = %v, want ErrValidation", err)
	}
	if _, err := svc.Add(ctx, user.ID, "missing", "hi", ""); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Add() to missing snippet error = %v, want ErrNotFound", err)
	}
}

func TestCommentAdd_AuthorFallback(t *testing.T) {
	svc, _, snippets, users := newTestCommentService(t)
	// No display name: comments fall back to the email as the byline.
	user := users.add(model.User{Email: "plain@example.com"})
	snippet := seedSnippet(t, snippets, user.ID)

	comment, err := svc.Add(context.Background(), user.ID, snippet.ID, "hello", "")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if comment.Author != "plain@example.com" {
		t.Errorf("Author = %q, want email fallback", comment.Author)
	}
}

func TestCommentAdd_CounterFailureIsSwallowed(t *testing.T) {
	svc, _, snippets, users := newTestCommentService(t)
	user := users.add(model.User{Email: "a@b.c", Username: "alice"})
	snippet := seedSnippet(t, snippets, user.ID)
	snippets.refreshErr = errors.New("counter table on fire")

	// The comment is durable; the stale counter heals on the next refresh.
	if _, err := svc.Add(context.Background(), user.ID, snippet.ID, "hi", ""); err != nil {
		t.Fatalf("Add() error = %v, want counter failure swallowed", err)
	}
}

func TestCommentListAndCount(t *testing.T) {
	svc, _, snippets, users := newTestCommentService(t)
	user := users.add(model.User{Email: "a@b.c", Username: "alice"})
	snippet := seedSnippet(t, snippets, user.ID)
	ctx := context.Background()

	svc.Add(ctx, user.ID, snippet.ID, "one", "")
	svc.Add(ctx, user.ID, snippet.ID, "two", "")

	comments, err := svc.List(ctx, snippet.ID)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(comments) != 2 || comments[0].Content != "one" {
		t.Errorf("List() = %+v, want [one two] in order", comments)
	}

	count, err := svc.Count(ctx, snippet.ID)
	if err != nil || count != 2 {
		t.Errorf("Count() = (%d, %v), want (2, nil)", count, err)
	}

	if _, err := svc.List(ctx, " "); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("List() blank id error = %v, want ErrValidation", err)
	}
}
