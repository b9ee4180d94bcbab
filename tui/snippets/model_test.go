package snippets

import (
	"context"
	"strconv"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	appclient "github.com/codewaltz/codewaltz/internal/client"
	"github.com/codewaltz/codewaltz/internal/model"
	"github.com/codewaltz/codewaltz/internal/view"
)

type fakeClient struct {
	snippets []model.Snippet
	comments []model.Comment
	user     *model.User

	deleted    []string
	deletedAll int
	liked      []string
	nextID     int

	fetchGate chan struct{} // when set, FetchSnippets blocks until it closes
}

func (f *fakeClient) FetchSnippets(context.Context) ([]model.Snippet, error) {
	if f.fetchGate != nil {
		<-f.fetchGate
	}
	return append([]model.Snippet{}, f.snippets...), nil
}

func (f *fakeClient) FetchMySnippets(ctx context.Context) ([]model.Snippet, error) {
	return f.FetchSnippets(ctx)
}

func (f *fakeClient) AddSnippet(_ context.Context, form view.SnippetForm) (*model.Snippet, error) {
	f.nextID++
	s := model.Snippet{
		ID: "s" + strconv.Itoa(f.nextID), Title: form.Title,
		Language: form.Language, Code: form.Code, Author: f.user.Username,
	}
	return &s, nil
}

func (f *fakeClient) UpdateSnippet(_ context.Context, id string, form view.SnippetForm) (*model.Snippet, error) {
	s := model.Snippet{ID: id, Title: form.Title, Language: form.Language, Code: form.Code}
	return &s, nil
}

func (f *fakeClient) DeleteSnippet(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeClient) DeleteAllSnippets(context.Context) error {
	f.deletedAll++
	return nil
}

func (f *fakeClient) FetchComments(context.Context, string) ([]model.Comment, error) {
	return append([]model.Comment{}, f.comments...), nil
}

func (f *fakeClient) AddComment(_ context.Context, snippetID, content, parentID string) (*model.Comment, error) {
	f.nextID++
	c := model.Comment{
		ID: "c" + strconv.Itoa(f.nextID), SnippetID: snippetID,
		Content: content, ParentID: parentID, Author: "alice",
	}
	return &c, nil
}

func (f *fakeClient) FetchCommentCount(context.Context, string) (int, error) {
	return len(f.comments), nil
}

func (f *fakeClient) Me(context.Context) (*model.User, error) {
	return f.user, nil
}

func (f *fakeClient) UpdateProfile(_ context.Context, username, email, password *string) (*model.User, error) {
	u := *f.user
	if username != nil {
		u.Username = *username
	}
	if email != nil {
		u.Email = *email
	}
	f.user = &u
	return &u, nil
}

func (f *fakeClient) Like(_ context.Context, id string) (*model.Snippet, error) {
	f.liked = append(f.liked, id)
	for _, s := range f.snippets {
		if s.ID == id {
			s.LikesCount++
			return &s, nil
		}
	}
	return &model.Snippet{ID: id, LikesCount: 1}, nil
}

func (f *fakeClient) Share(_ context.Context, id string) (*model.Snippet, error) {
	return &model.Snippet{ID: id, SharesCount: 1}, nil
}

func (f *fakeClient) RunSnippet(context.Context, string) (*appclient.RunResult, error) {
	return &appclient.RunResult{Stdout: "ok\n", Duration: time.Millisecond}, nil
}

func newFake() *fakeClient {
	return &fakeClient{
		user: &model.User{ID: "u1", Username: "alice"},
		snippets: []model.Snippet{
			{ID: "s1", Title: "hello", Language: "python", Author: "alice", Code: "print(1)"},
			{ID: "s2", Title: "world", Language: "go", Author: "bob", Code: "fmt.Println(2)"},
		},
		comments: []model.Comment{
			{ID: "c1", SnippetID: "s1", Author: "bob", Content: "nice"},
		},
	}
}

func step(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	next, ok := updated.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", updated)
	}
	return next, cmd
}

// run executes a command chain synchronously, feeding each result back.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for cmd != nil {
		msg := cmd()
		if msg == nil {
			break
		}
		m, cmd = step(t, m, msg)
	}
	return m
}

func loadedModel(t *testing.T) (Model, *fakeClient) {
	t.Helper()
	fake := newFake()
	m := New(fake)
	m, cmd := step(t, m, sessionMsg{Name: "alice"})
	m = run(t, m, cmd)
	if !m.list.Loaded() {
		t.Fatalf("expected list to be loaded")
	}
	return m, fake
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestListLoadAndNavigation(t *testing.T) {
	m, _ := loadedModel(t)

	if got := len(m.Visible()); got != 2 {
		t.Fatalf("visible = %d, want 2", got)
	}

	m, _ = step(t, m, keyRune('j'))
	if s, _ := m.Selected(); s.ID != "s2" {
		t.Fatalf("selected %q after move down, want s2", s.ID)
	}
	m, _ = step(t, m, keyRune('j'))
	if s, _ := m.Selected(); s.ID != "s2" {
		t.Fatalf("cursor escaped the list: %q", s.ID)
	}
}

func TestFilterPromptNarrowsList(t *testing.T) {
	m, _ := loadedModel(t)

	m, _ = step(t, m, keyRune('/'))
	if !m.filtering {
		t.Fatalf("expected filter prompt to be active")
	}
	for _, r := range "bob" {
		m, _ = step(t, m, keyRune(r))
	}
	if got := len(m.Visible()); got != 1 {
		t.Fatalf("visible = %d after filtering on author, want 1", got)
	}

	// While the prompt is active, action keys are text, not commands.
	m, _ = step(t, m, keyRune('d'))
	if pending, _ := m.list.Pending(); pending != view.PendingNone {
		t.Fatalf("typing into the filter staged a delete")
	}

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.filtering || len(m.Visible()) != 2 {
		t.Fatalf("esc should clear the filter")
	}
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	m, fake := loadedModel(t)

	m, _ = step(t, m, keyRune('d'))
	if pending, target := m.list.Pending(); pending != view.PendingDelete || target != "s1" {
		t.Fatalf("pending = (%v, %q), want (delete, s1)", pending, target)
	}
	if len(fake.deleted) != 0 {
		t.Fatalf("delete ran before confirmation")
	}

	m, _ = step(t, m, keyRune('n'))
	if pending, _ := m.list.Pending(); pending != view.PendingNone {
		t.Fatalf("n should cancel the staged delete")
	}

	m, _ = step(t, m, keyRune('d'))
	m, cmd := step(t, m, keyRune('y'))
	m = run(t, m, cmd)
	if len(fake.deleted) != 1 || fake.deleted[0] != "s1" {
		t.Fatalf("deleted = %v, want [s1]", fake.deleted)
	}
	if got := len(m.Visible()); got != 1 {
		t.Fatalf("visible = %d after delete, want 1", got)
	}
}

func TestCommentsReplyFlow(t *testing.T) {
	m, fake := loadedModel(t)

	m, cmd := step(t, m, keyRune('c'))
	m = run(t, m, cmd)
	if m.mode != modeComments {
		t.Fatalf("expected comments mode")
	}
	if len(m.flat) != 1 {
		t.Fatalf("flat thread = %d nodes, want 1", len(m.flat))
	}

	m, _ = step(t, m, keyRune('r'))
	if id, open := m.reply.ActiveEditor(); !open || id != "c1" {
		t.Fatalf("editor = (%q, %v), want (c1, true)", id, open)
	}

	for _, r := range "thanks" {
		m, _ = step(t, m, keyRune(r))
	}
	m, cmd = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m = run(t, m, cmd)

	if len(m.flat) != 2 {
		t.Fatalf("flat thread = %d nodes after reply, want 2", len(m.flat))
	}
	if m.flat[1].Depth != 1 {
		t.Fatalf("reply depth = %d, want 1", m.flat[1].Depth)
	}
	if _, open := m.reply.ActiveEditor(); open {
		t.Fatalf("editor should close after a successful post")
	}
	_ = fake
}

func TestReplyDraftSurvivesClose(t *testing.T) {
	m, _ := loadedModel(t)

	m, cmd := step(t, m, keyRune('c'))
	m = run(t, m, cmd)

	m, _ = step(t, m, keyRune('r'))
	for _, r := range "wip" {
		m, _ = step(t, m, keyRune(r))
	}
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if _, open := m.reply.ActiveEditor(); open {
		t.Fatalf("esc should close the editor")
	}
	if m.reply.Draft("c1") != "wip" {
		t.Fatalf("draft = %q, want wip", m.reply.Draft("c1"))
	}

	m, _ = step(t, m, keyRune('r'))
	if m.replyArea.Value() != "wip" {
		t.Fatalf("reopened editor lost the draft: %q", m.replyArea.Value())
	}
}

// Commands run on their own goroutines while the program goroutine keeps
// rendering between frames. Drive one real fetch concurrently with a render
// loop so the race detector catches any controller write escaping Update.
func TestRenderWhileLoadInFlight(t *testing.T) {
	fake := newFake()
	gate := make(chan struct{})
	fake.fetchGate = gate

	m := New(fake)
	m, cmd := step(t, m, sessionMsg{Name: "alice"})
	if cmd == nil {
		t.Fatalf("session should start a load")
	}

	msgc := make(chan tea.Msg, 1)
	go func() { msgc <- cmd() }()

	var msg tea.Msg
	for i := 0; msg == nil; i++ {
		if i == 10 {
			close(gate)
		}
		_ = m.View()
		_ = m.Visible()
		select {
		case msg = <-msgc:
		default:
		}
	}

	m, _ = step(t, m, msg)
	if !m.list.Loaded() {
		t.Fatalf("expected list to be loaded")
	}
	if got := len(m.Visible()); got != 2 {
		t.Fatalf("visible = %d, want 2", got)
	}
}

func TestDeleteAppliesOnResultMessage(t *testing.T) {
	m, fake := loadedModel(t)

	m, _ = step(t, m, keyRune('d'))
	m, cmd := step(t, m, keyRune('y'))
	if cmd == nil {
		t.Fatalf("confirm should produce a command")
	}

	// The command has run against the server, but until its message is
	// delivered the collection must be untouched.
	msg := cmd()
	if len(fake.deleted) != 1 || fake.deleted[0] != "s1" {
		t.Fatalf("deleted = %v, want [s1]", fake.deleted)
	}
	if got := len(m.Visible()); got != 2 {
		t.Fatalf("row removed before the result message arrived: visible = %d", got)
	}

	m, _ = step(t, m, msg)
	if got := len(m.Visible()); got != 1 {
		t.Fatalf("visible = %d after result, want 1", got)
	}
}

func TestDeleteKeysWaitWhileBusy(t *testing.T) {
	m, _ := loadedModel(t)

	m, cmd := step(t, m, keyRune('R'))
	if !m.busy {
		t.Fatalf("refresh should mark the model busy")
	}

	m, _ = step(t, m, keyRune('d'))
	if pending, _ := m.list.Pending(); pending != view.PendingNone {
		t.Fatalf("delete staged while a load was in flight")
	}
	m, _ = step(t, m, keyRune('D'))
	if pending, _ := m.list.Pending(); pending != view.PendingNone {
		t.Fatalf("delete-all staged while a load was in flight")
	}

	m = run(t, m, cmd)
	m, _ = step(t, m, keyRune('d'))
	if pending, _ := m.list.Pending(); pending != view.PendingDelete {
		t.Fatalf("delete should stage once the load settles")
	}
}

func TestReplyCompletionLeavesOtherEditorAlone(t *testing.T) {
	m, _ := loadedModel(t)

	m, cmd := step(t, m, keyRune('c'))
	m = run(t, m, cmd)

	// Submit a reply under c1, then move on to a top-level comment while
	// that submission is still in flight.
	m, _ = step(t, m, keyRune('r'))
	for _, r := range "first" {
		m, _ = step(t, m, keyRune(r))
	}
	m, cmd = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd == nil {
		t.Fatalf("submit should produce a command")
	}

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	m, _ = step(t, m, keyRune('n'))
	for _, r := range "second" {
		m, _ = step(t, m, keyRune(r))
	}

	// c1's result lands mid-draft.
	m, _ = step(t, m, cmd())

	if len(m.flat) != 2 {
		t.Fatalf("flat thread = %d nodes, want 2", len(m.flat))
	}
	if id, open := m.reply.ActiveEditor(); !open || id != "" {
		t.Fatalf("composer should stay open, got (%q, %v)", id, open)
	}
	if m.replyArea.Value() != "second" {
		t.Fatalf("composer text wiped by the other reply's completion: %q", m.replyArea.Value())
	}
	if m.reply.Draft("") != "second" {
		t.Fatalf("draft = %q, want second", m.reply.Draft(""))
	}

	m, _ = step(t, m, keyRune('!'))
	if m.reply.Draft("") != "second!" {
		t.Fatalf("draft after keystroke = %q, want second!", m.reply.Draft(""))
	}
}

func TestProfileScreenUpdatesDisplayName(t *testing.T) {
	m, fake := loadedModel(t)

	m, _ = step(t, m, keyRune('p'))
	if m.mode != modeProfile {
		t.Fatalf("p should open the profile screen")
	}
	if m.nameInput.Value() != "alice" {
		t.Fatalf("name field = %q, want alice", m.nameInput.Value())
	}

	m, _ = step(t, m, keyRune('2'))
	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m = run(t, m, cmd)

	if fake.user.Username != "alice2" {
		t.Fatalf("server name = %q, want alice2", fake.user.Username)
	}
	if m.displayName != "alice2" || m.mode != modeList {
		t.Fatalf("displayName = %q mode = %v, want alice2 back on the list", m.displayName, m.mode)
	}
	if !m.list.Loaded() {
		t.Fatalf("list should reload after a rename")
	}
}

func TestLikeFoldsCountersBack(t *testing.T) {
	m, fake := loadedModel(t)

	m, cmd := step(t, m, keyRune('l'))
	m = run(t, m, cmd)

	if len(fake.liked) != 1 || fake.liked[0] != "s1" {
		t.Fatalf("liked = %v, want [s1]", fake.liked)
	}
	if s, _ := m.Selected(); s.LikesCount != 1 {
		t.Fatalf("likes = %d after reaction, want 1", s.LikesCount)
	}
}
