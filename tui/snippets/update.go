package snippets

import (
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/codewaltz/codewaltz/internal/view"
	"github.com/codewaltz/codewaltz/tui/common"
)

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The filter prompt captures everything except its own exits.
	if m.filtering {
		switch msg.String() {
		case "esc":
			m.filtering = false
			m.filterInput.Reset()
			m.filterInput.Blur()
			m.clampCursor()
		case "enter":
			m.filtering = false
			m.filterInput.Blur()
		default:
			var cmd tea.Cmd
			m.filterInput, cmd = m.filterInput.Update(msg)
			m.cursor = 0
			return m, cmd
		}
		return m, nil
	}

	// A staged delete only understands confirm or cancel.
	if m.list != nil {
		if pending, _ := m.list.Pending(); pending != view.PendingNone {
			switch msg.String() {
			case "y":
				if m.busy {
					return m, nil
				}
				req, ok := m.list.BeginConfirm()
				if !ok {
					return m, nil
				}
				m.busy = true
				return m, m.confirmPending(req)
			case "n", "esc":
				m.list.CancelPending()
			}
			return m, nil
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.Visible())-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		return m, m.filterInput.Focus()

	case key.Matches(msg, m.keys.Language):
		m.language = m.nextLanguage()
		m.cursor = 0

	case key.Matches(msg, m.keys.Refresh):
		if m.busy || m.list == nil {
			return m, nil
		}
		m.busy = true
		return m, m.loadList()

	case key.Matches(msg, m.keys.Scope):
		if m.busy {
			return m, nil
		}
		if m.scope == view.ScopeAll {
			m.scope = view.ScopeMine
		} else {
			m.scope = view.ScopeAll
		}
		m.list = view.NewListController(m.client, m.scope, m.displayName)
		m.busy = true
		m.cursor = 0
		return m, m.loadList()

	case key.Matches(msg, m.keys.New):
		if m.busy {
			return m, nil
		}
		m.openForm(view.SnippetForm{Language: "python"})

	case key.Matches(msg, m.keys.Edit):
		if m.busy {
			return m, nil
		}
		if s, ok := m.Selected(); ok {
			m.openForm(m.list.StartEdit(s))
		}

	case key.Matches(msg, m.keys.Delete):
		if m.busy {
			return m, nil
		}
		if s, ok := m.Selected(); ok {
			m.list.RequestDelete(s.ID)
		}

	case key.Matches(msg, m.keys.DeleteAll):
		if m.busy || m.list == nil {
			return m, nil
		}
		m.list.RequestDeleteAll()

	case key.Matches(msg, m.keys.Like):
		if m.busy {
			return m, nil
		}
		if s, ok := m.Selected(); ok {
			m.busy = true
			return m, m.react("like", s.ID)
		}

	case key.Matches(msg, m.keys.Share):
		if m.busy {
			return m, nil
		}
		if s, ok := m.Selected(); ok {
			m.busy = true
			return m, m.react("share", s.ID)
		}

	case key.Matches(msg, m.keys.Comments):
		if m.busy {
			return m, nil
		}
		if s, ok := m.Selected(); ok {
			snippet := s
			m.snippet = &snippet
			m.reply = view.NewReplyController(m.client, s.ID)
			m.busy = true
			return m, m.loadComments()
		}

	case key.Matches(msg, m.keys.Run):
		if m.busy {
			return m, nil
		}
		if s, ok := m.Selected(); ok {
			m.busy = true
			return m, m.runSnippet(s.ID)
		}

	case key.Matches(msg, m.keys.Copy):
		if s, ok := m.Selected(); ok {
			return m, copyToClipboard(s.Code)
		}

	case key.Matches(msg, m.keys.Profile):
		if m.busy {
			return m, nil
		}
		m.mode = modeProfile
		m.nameInput.SetValue(m.displayName)
		m.status = ""
		return m, m.nameInput.Focus()
	}

	return m, nil
}

func (m *Model) openForm(form view.SnippetForm) {
	m.mode = modeForm
	m.formFocus = 0
	m.titleInput.SetValue(form.Title)
	m.langInput.SetValue(form.Language)
	m.codeArea.SetValue(form.Code)
	m.langInput.Blur()
	m.codeArea.Blur()
	m.titleInput.Focus()
	m.status = ""
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "esc":
		m.mode = modeList
		m.list.CancelEdit()
		m.status = ""
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		if m.busy {
			return m, nil
		}
		req, err := m.list.BeginSave(view.SnippetForm{
			Title:    m.titleInput.Value(),
			Language: m.langInput.Value(),
			Code:     m.codeArea.Value(),
		})
		if err != nil {
			m.status = common.ErrorStyle.Render(err.Error())
			return m, nil
		}
		m.busy = true
		return m, m.saveForm(req)

	case msg.String() == "tab", msg.String() == "shift+tab":
		if msg.String() == "tab" {
			m.formFocus = (m.formFocus + 1) % 3
		} else {
			m.formFocus = (m.formFocus + 2) % 3
		}
		m.titleInput.Blur()
		m.langInput.Blur()
		m.codeArea.Blur()
		switch m.formFocus {
		case 0:
			return m, m.titleInput.Focus()
		case 1:
			return m, m.langInput.Focus()
		default:
			return m, m.codeArea.Focus()
		}
	}

	var cmd tea.Cmd
	switch m.formFocus {
	case 0:
		m.titleInput, cmd = m.titleInput.Update(msg)
	case 1:
		m.langInput, cmd = m.langInput.Update(msg)
	default:
		m.codeArea, cmd = m.codeArea.Update(msg)
	}
	return m, cmd
}

func (m Model) updateComments(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// With an editor open, keys feed the textarea; the draft shadows every
	// keystroke so it survives closing and reopening.
	if _, open := m.reply.ActiveEditor(); open {
		switch {
		case msg.String() == "esc":
			m.reply.CloseReplyEditor()
			m.replyArea.Blur()
			return m, nil

		case key.Matches(msg, m.keys.Submit):
			id, _ := m.reply.ActiveEditor()
			var (
				req view.SubmitRequest
				ok  bool
			)
			if id == "" {
				req, ok = m.reply.BeginPost()
			} else {
				req, ok = m.reply.BeginSubmit(id)
			}
			if !ok {
				return m, nil
			}
			return m, m.submitReply(req)
		}

		var cmd tea.Cmd
		m.replyArea, cmd = m.replyArea.Update(msg)
		if id, open := m.reply.ActiveEditor(); open {
			m.reply.SetDraftText(id, m.replyArea.Value())
		}
		return m, cmd
	}

	switch {
	case msg.String() == "esc", key.Matches(msg, m.keys.Quit):
		m.mode = modeList
		m.snippet = nil
		m.status = ""
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.commentCursor > 0 {
			m.commentCursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.commentCursor < len(m.flat)-1 {
			m.commentCursor++
		}

	case key.Matches(msg, m.keys.Reply):
		if len(m.flat) == 0 {
			break
		}
		id := m.flat[m.commentCursor].Node.Comment.ID
		m.reply.OpenReplyEditor(id)
		m.replyArea.SetValue(m.reply.Draft(id))
		return m, m.replyArea.Focus()

	case key.Matches(msg, m.keys.New):
		m.reply.OpenReplyEditor("")
		m.replyArea.SetValue(m.reply.Draft(""))
		return m, m.replyArea.Focus()
	}

	return m, nil
}

func (m Model) updateProfile(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "esc":
		m.mode = modeList
		m.nameInput.Blur()
		m.status = ""
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		if m.busy {
			return m, nil
		}
		name := strings.TrimSpace(m.nameInput.Value())
		if name == "" {
			m.status = common.ErrorStyle.Render("display name is required")
			return m, nil
		}
		m.busy = true
		return m, m.saveProfile(name)
	}

	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

func (m Model) updateRun(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "enter":
		m.mode = modeList
		m.runResult = nil
	}
	return m, nil
}

// nextLanguage cycles "all" -> each language present in the loaded snippets,
// in sorted order, and back to "all".
func (m Model) nextLanguage() string {
	if m.list == nil {
		return view.LanguageAll
	}
	seen := map[string]bool{}
	var langs []string
	for _, s := range m.list.Snippets() {
		if s.Language != "" && !seen[s.Language] {
			seen[s.Language] = true
			langs = append(langs, s.Language)
		}
	}
	sort.Strings(langs)
	if len(langs) == 0 {
		return view.LanguageAll
	}
	if m.language == view.LanguageAll {
		return langs[0]
	}
	for i, l := range langs {
		if l == m.language {
			if i+1 < len(langs) {
				return langs[i+1]
			}
			return view.LanguageAll
		}
	}
	return view.LanguageAll
}
