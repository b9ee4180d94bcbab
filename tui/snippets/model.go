// Package snippets is the terminal front end for browsing, authoring, and
// discussing snippets. It is a thin bubbletea shell over the controllers in
// internal/view: all list/reply semantics live there, this package only maps
// keys to controller calls and renders controller state.
//
// Network calls run inside tea.Cmds, which bubbletea executes on their own
// goroutines while the program goroutine keeps calling Update and View.
// Controller methods are not safe for concurrent use, so commands never touch
// a controller: every async operation is a Begin/Complete split where the
// command performs only the network call and its result message is applied to
// the controller inside Update. The busy flag additionally keeps a second
// operation from starting while one is in flight.
package snippets

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/codewaltz/codewaltz/internal/client"
	"github.com/codewaltz/codewaltz/internal/model"
	"github.com/codewaltz/codewaltz/internal/thread"
	"github.com/codewaltz/codewaltz/internal/view"
	"github.com/codewaltz/codewaltz/tui/common"
)

// Client is everything the terminal UI needs from the backend. The HTTP
// client in internal/client satisfies it; tests use an in-memory fake.
type Client interface {
	view.SnippetClient
	view.CommentClient
	Me(ctx context.Context) (*model.User, error)
	UpdateProfile(ctx context.Context, username, email, password *string) (*model.User, error)
	Like(ctx context.Context, id string) (*model.Snippet, error)
	Share(ctx context.Context, id string) (*model.Snippet, error)
	RunSnippet(ctx context.Context, id string) (*client.RunResult, error)
}

type mode int

const (
	modeList mode = iota
	modeForm
	modeComments
	modeRun
	modeProfile
)

// --- Messages ---

type sessionMsg struct {
	Name string // empty when browsing anonymously
}

type listDoneMsg struct {
	Snippets []model.Snippet
	Err      error
}

type saveDoneMsg struct {
	Req     view.SaveRequest
	Snippet *model.Snippet
	Err     error
}

type confirmDoneMsg struct {
	Req view.ConfirmRequest
	Err error
}

type reactDoneMsg struct {
	Verb    string
	Snippet *model.Snippet
	Err     error
}

type commentsDoneMsg struct {
	Comments []model.Comment
	Err      error
}

type replyDoneMsg struct {
	NodeID  string
	Comment *model.Comment
	Err     error
}

type runDoneMsg struct {
	Result *client.RunResult
	Err    error
}

type profileDoneMsg struct {
	User *model.User
	Err  error
}

type statusMsg string

// --- Model ---

// Model is the root bubbletea model.
type Model struct {
	client  Client
	keys    common.KeyMap
	spinner spinner.Model
	width   int
	height  int

	mode   mode
	busy   bool
	status string

	displayName string
	scope       view.Scope
	list        *view.ListController

	cursor      int
	language    string
	filtering   bool
	filterInput textinput.Model

	titleInput textinput.Model
	langInput  textinput.Model
	codeArea   textarea.Model
	formFocus  int

	nameInput textinput.Model

	snippet       *model.Snippet
	reply         *view.ReplyController
	flat          []thread.FlatNode
	commentCursor int
	replyArea     textarea.Model

	runResult *client.RunResult
}

// New creates the root model. The list controller is created once the
// session probe resolves the display name.
func New(c Client) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#C6A0F6"))

	filter := textinput.New()
	filter.Placeholder = "title or author"
	filter.CharLimit = 80

	title := textinput.New()
	title.Placeholder = "title"
	title.CharLimit = 200

	lang := textinput.New()
	lang.Placeholder = "language (python, go, ...)"
	lang.CharLimit = 40

	code := textarea.New()
	code.Placeholder = "code"

	reply := textarea.New()
	reply.Placeholder = "write a reply"
	reply.SetHeight(4)

	name := textinput.New()
	name.Placeholder = "display name"
	name.CharLimit = 80

	return Model{
		client:      c,
		keys:        common.DefaultKeyMap(),
		spinner:     s,
		scope:       view.ScopeAll,
		language:    view.LanguageAll,
		filterInput: filter,
		titleInput:  title,
		langInput:   lang,
		codeArea:    code,
		replyArea:   reply,
		nameInput:   name,
		busy:        true,
	}
}

// Init probes the session and starts the spinner; the first list load is
// chained off the session result.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.probeSession(), m.spinner.Tick)
}

// Visible returns the snippets after the active language and term filters.
func (m Model) Visible() []model.Snippet {
	if m.list == nil {
		return nil
	}
	return m.list.Filter(m.language, m.filterInput.Value())
}

// Selected returns the snippet under the cursor, if any.
func (m Model) Selected() (model.Snippet, bool) {
	visible := m.Visible()
	if len(visible) == 0 || m.cursor >= len(visible) {
		return model.Snippet{}, false
	}
	return visible[m.cursor], true
}

func (m *Model) clampCursor() {
	if n := len(m.Visible()); m.cursor >= n {
		m.cursor = max(0, n-1)
	}
}

// Update handles messages and routes keys to the active mode.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.codeArea.SetWidth(max(20, msg.Width-8))
		m.replyArea.SetWidth(max(20, msg.Width-12))
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case sessionMsg:
		m.displayName = msg.Name
		m.list = view.NewListController(m.client, m.scope, m.displayName)
		return m, m.loadList()

	case listDoneMsg:
		m.busy = false
		m.cursor = 0
		m.list.CompleteLoad(msg.Snippets, msg.Err)
		if msg.Err != nil {
			m.status = common.ErrorStyle.Render("load failed: " + msg.Err.Error())
		} else {
			m.status = ""
		}
		return m, nil

	case saveDoneMsg:
		m.busy = false
		m.list.CompleteSave(msg.Req, msg.Snippet, msg.Err)
		if msg.Err != nil {
			m.status = common.ErrorStyle.Render(msg.Err.Error())
			return m, nil
		}
		m.mode = modeList
		m.status = common.SuccessStyle.Render("saved " + msg.Snippet.Title)
		return m, nil

	case confirmDoneMsg:
		m.busy = false
		m.list.CompleteConfirm(msg.Req, msg.Err)
		m.clampCursor()
		if msg.Err != nil {
			m.status = common.ErrorStyle.Render("delete failed: " + msg.Err.Error())
		} else {
			m.status = common.SuccessStyle.Render("deleted")
		}
		return m, nil

	case reactDoneMsg:
		m.busy = false
		if msg.Err != nil {
			m.status = common.ErrorStyle.Render(msg.Verb + " failed: " + msg.Err.Error())
			return m, nil
		}
		m.list.Apply(*msg.Snippet)
		if m.snippet != nil && m.snippet.ID == msg.Snippet.ID {
			m.snippet = msg.Snippet
		}
		m.status = common.SuccessStyle.Render(msg.Verb + "d")
		return m, nil

	case commentsDoneMsg:
		m.busy = false
		m.reply.CompleteLoad(msg.Comments, msg.Err)
		if msg.Err != nil {
			m.status = common.ErrorStyle.Render("comments failed: " + msg.Err.Error())
			m.mode = modeList
			return m, nil
		}
		m.mode = modeComments
		m.flat = thread.Flatten(m.reply.Thread())
		m.commentCursor = 0
		m.status = ""
		return m, nil

	case replyDoneMsg:
		// The textarea mirrors the *active* editor. Only clear it when the
		// completed node is that editor — the user may have moved on to
		// drafting under a different node while this one was in flight.
		activeID, open := m.reply.ActiveEditor()
		wasActive := open && activeID == msg.NodeID
		m.reply.CompleteSubmit(msg.NodeID, msg.Comment, msg.Err)
		m.flat = thread.Flatten(m.reply.Thread())
		if msg.Err != nil {
			m.status = common.ErrorStyle.Render("post failed: " + msg.Err.Error())
		} else {
			if wasActive {
				m.replyArea.Reset()
				m.replyArea.Blur()
			}
			m.status = common.SuccessStyle.Render("posted")
		}
		return m, nil

	case runDoneMsg:
		m.busy = false
		if msg.Err != nil {
			m.status = common.ErrorStyle.Render("run failed: " + msg.Err.Error())
			return m, nil
		}
		m.runResult = msg.Result
		m.mode = modeRun
		m.status = ""
		return m, nil

	case profileDoneMsg:
		m.busy = false
		if msg.Err != nil {
			m.status = common.ErrorStyle.Render("profile update failed: " + msg.Err.Error())
			return m, nil
		}
		// The list controller carries the display name, so a rename means a
		// fresh controller and a reload.
		m.displayName = msg.User.Username
		m.list = view.NewListController(m.client, m.scope, m.displayName)
		m.mode = modeList
		m.busy = true
		m.status = common.SuccessStyle.Render("profile saved")
		return m, m.loadList()

	case statusMsg:
		m.status = string(msg)
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeList:
			return m.updateList(msg)
		case modeForm:
			return m.updateForm(msg)
		case modeComments:
			return m.updateComments(msg)
		case modeRun:
			return m.updateRun(msg)
		case modeProfile:
			return m.updateProfile(msg)
		}
	}

	return m, nil
}
