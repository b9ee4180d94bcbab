package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/codewaltz/codewaltz/internal/apperror"
	"github.com/codewaltz/codewaltz/internal/model"
)

func newTestSnippetService(t *testing.T) (*SnippetService, *mockSnippetRepo, *mockUserRepo, *mockReactionRepo) {
	t.Helper()
	repo := newMockSnippetRepo()
	users := newMockUserRepo()
	reactions := &mockReactionRepo{}
	svc := NewSnippetService(repo, reactions, users, testLogger(t))
	return svc, repo, users, reactions
}

func TestSnippetCreate(t *testing.T) {
	svc, repo, users, _ := newTestSnippetService(t)
	user := users.add(model.User{Email: "a@b.c", Username: "alice"})

	snippet, err := svc.Create(context.Background(), user.ID, SnippetFields{
		Title:    "  Hello  ",
		Language: "python",
		Code:     "print('hi')",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Title is trimmed, author stamped from the profile, owner recorded.
	if snippet.Title != "Hello" {
		t.Errorf("Title = %q, want trimmed %q", snippet.Title, "Hello")
	}
	if snippet.Author != "alice" {
		t.Errorf("Author = %q, want alice", snippet.Author)
	}
	if snippet.UserID != user.ID {
		t.Errorf("UserID = %q, want %q", snippet.UserID, user.ID)
	}
	if len(repo.snippets) != 1 {
		t.Errorf("stored %d snippets, want 1", len(repo.snippets))
	}
}

func TestSnippetCreate_Validation(t *testing.T) {
	svc, _, users, _ := newTestSnippetService(t)
	user := users.add(model.User{Email: "a@b.c", Username: "alice"})
	noName := users.add(model.User{Email: "new@b.c"})
	ctx := context.Background()

	tests := []struct {
		name   string
		userID string
		fields SnippetFields
		want   error
	}{
		{"anonymous", "", SnippetFields{Title: "t", Code: "c"}, apperror.ErrUnauthorized},
		{"empty title", user.ID, SnippetFields{Title: "  ", Code: "c"}, apperror.ErrValidation},
		{"empty code", user.ID, SnippetFields{Title: "t", Code: " "}, apperror.ErrValidation},
		{"title too long", user.ID, SnippetFields{Title: strings.Repeat("x", MaxTitleLength+1), Code: "c"}, apperror.ErrValidation},
		{"code too long", user.ID, SnippetFields{Title: "t", Code: strings.Repeat("x", MaxCodeLength+1)}, apperror.ErrValidation},
		{"no display name", noName.ID, SnippetFields{Title: "t", Code: "c"}, apperror.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.userID, tt.fields)
			if !errors.Is(err, tt.want) {
				t.Errorf("Create() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSnippetUpdate_OwnerScoping(t *testing.T) {
	svc, _, users, _ := newTestSnippetService(t)
	alice := users.add(model.User{Email: "a@b.c", Username: "alice"})
	bob := users.add(model.User{Email: "b@b.c", Username: "bob"})
	ctx := context.Background()

	snippet, err := svc.Create(ctx, alice.ID, SnippetFields{Title: "mine", Code: "v1"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Someone else's update reads as not-found, exactly like a missing row.
	_, err = svc.Update(ctx, bob.ID, snippet.ID, SnippetFields{Title: "stolen", Code: "v2"})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() by non-owner error = %v, want ErrNotFound", err)
	}

	updated, err := svc.Update(ctx, alice.ID, snippet.ID, SnippetFields{Title: "mine", Code: "v2"})
	if err != nil {
		t.Fatalf("Update() by owner error = %v", err)
	}
	if updated.Code != "v2" {
		t.Errorf("Code = %q, want v2", updated.Code)
	}
}

func TestSnippetDelete(t *testing.T) {
	svc, _, users, _ := newTestSnippetService(t)
	alice := users.add(model.User{Email: "a@b.c", Username: "alice"})
	bob := users.add(model.User{Email: "b@b.c", Username: "bob"})
	ctx := context.Background()

	snippet, _ := svc.Create(ctx, alice.ID, SnippetFields{Title: "t", Code: "c"})

	if err := svc.Delete(ctx, bob.ID, snippet.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() by non-owner error = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, alice.ID, snippet.ID); err != nil {
		t.Fatalf("Delete() by owner error = %v", err)
	}
	if _, err := svc.GetByID(ctx, snippet.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
}

func TestSnippetDeleteAll(t *testing.T) {
	svc, _, users, _ := newTestSnippetService(t)
	alice := users.add(model.User{Email: "a@b.c", Username: "alice"})
	bob := users.add(model.User{Email: "b@b.c", Username: "bob"})
	ctx := context.Background()

	svc.Create(ctx, alice.ID, SnippetFields{Title: "one", Code: "c"})
	svc.Create(ctx, alice.ID, SnippetFields{Title: "two", Code: "c"})
	svc.Create(ctx, bob.ID, SnippetFields{Title: "keep", Code: "c"})

	deleted, err := svc.DeleteAll(ctx, alice.ID)
	if err != nil {
		t.Fatalf("DeleteAll() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}

	remaining, _ := svc.ListByOwner(ctx, bob.ID, 0, 0)
	if len(remaining) != 1 {
		t.Errorf("bob's snippets = %d, want untouched 1", len(remaining))
	}

	if _, err := svc.DeleteAll(ctx, ""); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("DeleteAll() anonymous error = %v, want ErrUnauthorized", err)
	}
}

func TestSnippetReactions(t *testing.T) {
	svc, _, _, reactions := newTestSnippetService(t)
	ctx := context.Background()

	if _, err := svc.Like(ctx, "s1", "user-1", ""); err != nil {
		t.Fatalf("Like() error = %v", err)
	}
	if _, err := svc.Share(ctx, "s1", "", "client-9"); err != nil {
		t.Fatalf("Share() error = %v", err)
	}

	if len(reactions.calls) != 2 {
		t.Fatalf("reaction calls = %d, want 2", len(reactions.calls))
	}
	like, share := reactions.calls[0], reactions.calls[1]
	if like.kind != "like" || like.userID != "user-1" {
		t.Errorf("like call = %+v", like)
	}
	if share.kind != "share" || share.clientID != "client-9" {
		t.Errorf("share call = %+v", share)
	}

	// Reacting to "nothing" fails before the repository is involved.
	if _, err := svc.Like(ctx, "  ", "user-1", ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Like() empty id error = %v, want ErrValidation", err)
	}
}
