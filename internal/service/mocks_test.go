package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/codewaltz/codewaltz/internal/apperror"
	"github.com/codewaltz/codewaltz/internal/model"
	"github.com/codewaltz/codewaltz/internal/repository"
)

// Hand-written in-memory mocks. The services are programmed against the
// repository interfaces, so swapping sqlite for a map is all dependency
// injection asks of us — no database, no disk, microsecond tests, and error
// paths we can trigger at will via the err fields.

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockSnippetRepo struct {
	snippets map[string]*model.Snippet
	nextID   int

	createErr  error
	refreshed  []string
	refreshErr error
}

func newMockSnippetRepo() *mockSnippetRepo {
	return &mockSnippetRepo{snippets: make(map[string]*model.Snippet)}
}

func (m *mockSnippetRepo) Create(_ context.Context, snippet *model.Snippet) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	snippet.ID = fmt.Sprintf("mock-%d", m.nextID)
	stored := *snippet
	m.snippets[snippet.ID] = &stored
	return nil
}

func (m *mockSnippetRepo) GetByID(_ context.Context, id string) (*model.Snippet, error) {
	snippet, ok := m.snippets[id]
	if !ok {
		return nil, apperror.NotFound("snippet", id)
	}
	result := *snippet
	return &result, nil
}

func (m *mockSnippetRepo) sorted() []model.Snippet {
	out := make([]model.Snippet, 0, len(m.snippets))
	for _, s := range m.snippets {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *mockSnippetRepo) List(_ context.Context, opts repository.ListOptions) ([]model.Snippet, error) {
	out := m.sorted()
	if opts.Offset >= len(out) {
		return []model.Snippet{}, nil
	}
	out = out[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *mockSnippetRepo) ListByOwner(_ context.Context, userID string, _ repository.ListOptions) ([]model.Snippet, error) {
	out := make([]model.Snippet, 0)
	for _, s := range m.sorted() {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockSnippetRepo) Update(_ context.Context, snippet *model.Snippet) error {
	existing, ok := m.snippets[snippet.ID]
	if !ok || existing.UserID != snippet.UserID {
		return apperror.NotFound("snippet", snippet.ID)
	}
	stored := *snippet
	m.snippets[snippet.ID] = &stored
	return nil
}

func (m *mockSnippetRepo) Delete(_ context.Context, id, userID string) error {
	existing, ok := m.snippets[id]
	if !ok || existing.UserID != userID {
		return apperror.NotFound("snippet", id)
	}
	delete(m.snippets, id)
	return nil
}

func (m *mockSnippetRepo) DeleteAllByOwner(_ context.Context, userID string) (int64, error) {
	var deleted int64
	for id, s := range m.snippets {
		if s.UserID == userID {
			delete(m.snippets, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *mockSnippetRepo) RefreshCommentCount(_ context.Context, snippetID string) (int, error) {
	m.refreshed = append(m.refreshed, snippetID)
	if m.refreshErr != nil {
		return 0, m.refreshErr
	}
	return 0, nil
}

type mockUserRepo struct {
	users  map[string]*model.User
	nextID int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) add(u model.User) *model.User {
	if u.ID == "" {
		m.nextID++
		u.ID = fmt.Sprintf("user-%d", m.nextID)
	}
	m.users[u.ID] = &u
	return &u
}

func (m *mockUserRepo) CreateUser(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return apperror.Conflict("user", "email is already registered")
		}
	}
	m.nextID++
	user.ID = fmt.Sprintf("user-%d", m.nextID)
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *user
	return &result, nil
}

func (m *mockUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (m *mockUserRepo) UpdateUser(_ context.Context, user *model.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return apperror.NotFound("user", user.ID)
	}
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) UpsertGitHubUser(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.GitHubID == user.GitHubID {
			user.ID = u.ID
			stored := *user
			m.users[u.ID] = &stored
			return nil
		}
	}
	m.nextID++
	user.ID = fmt.Sprintf("user-%d", m.nextID)
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

type mockCommentRepo struct {
	comments []model.Comment
	nextID   int

	createErr error
}

func (m *mockCommentRepo) CreateComment(_ context.Context, comment *model.Comment) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	comment.ID = fmt.Sprintf("comment-%d", m.nextID)
	m.comments = append(m.comments, *comment)
	return nil
}

func (m *mockCommentRepo) ListComments(_ context.Context, snippetID string) ([]model.Comment, error) {
	out := make([]model.Comment, 0)
	for _, c := range m.comments {
		if c.SnippetID == snippetID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockCommentRepo) CountComments(_ context.Context, snippetID string) (int, error) {
	count := 0
	for _, c := range m.comments {
		if c.SnippetID == snippetID {
			count++
		}
	}
	return count, nil
}

type reactionCall struct {
	kind      repository.ReactionKind
	snippetID string
	userID    string
	clientID  string
}

type mockReactionRepo struct {
	calls   []reactionCall
	snippet *model.Snippet
	err     error
}

func (m *mockReactionRepo) AddReaction(_ context.Context, kind repository.ReactionKind, snippetID, userID, clientID string) (*model.Snippet, error) {
	m.calls = append(m.calls, reactionCall{kind, snippetID, userID, clientID})
	if m.err != nil {
		return nil, m.err
	}
	if m.snippet != nil {
		result := *m.snippet
		return &result, nil
	}
	return &model.Snippet{ID: snippetID}, nil
}

// Compile-time checks: the mocks must track the real interfaces.
var (
	_ repository.SnippetRepository  = (*mockSnippetRepo)(nil)
	_ repository.UserRepository     = (*mockUserRepo)(nil)
	_ repository.CommentRepository  = (*mockCommentRepo)(nil)
	_ repository.ReactionRepository = (*mockReactionRepo)(nil)
)
