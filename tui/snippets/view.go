package snippets

import (
	"fmt"
	"strings"

	"github.com/codewaltz/codewaltz/internal/view"
	"github.com/codewaltz/codewaltz/tui/common"
)

const maxIndent = 8

// View renders the active mode.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(common.AppTitleStyle.Render("CodeWaltz"))
	b.WriteString(common.TaglineStyle.Render("share code, talk code"))
	b.WriteString("\n\n")

	switch m.mode {
	case modeForm:
		b.WriteString(m.viewForm())
	case modeComments:
		b.WriteString(m.viewComments())
	case modeRun:
		b.WriteString(m.viewRun())
	case modeProfile:
		b.WriteString(m.viewProfile())
	default:
		b.WriteString(m.viewList())
	}

	if m.status != "" {
		b.WriteString("\n" + common.StatusBarStyle.Render(m.status))
	}

	return b.String()
}

func (m Model) viewList() string {
	var b strings.Builder

	scope := "all snippets"
	if m.scope == view.ScopeMine {
		scope = "my snippets"
	}
	b.WriteString(common.LanguageStyle.Render("["+m.language+"]") + " " + scope)
	if m.filtering {
		b.WriteString("  filter: " + m.filterInput.View())
	} else if term := m.filterInput.Value(); term != "" {
		b.WriteString("  filter: " + term)
	}
	b.WriteString("\n\n")

	if m.busy && m.list != nil && !m.list.Loaded() {
		return b.String() + m.spinner.View() + " loading...\n"
	}
	if m.list != nil && m.list.Err() != nil {
		b.WriteString(common.ErrorStyle.Render("could not load snippets: "+m.list.Err().Error()) + "\n")
		b.WriteString(common.StatusBarStyle.Render("R refresh • q quit"))
		return b.String()
	}

	visible := m.Visible()
	if len(visible) == 0 {
		b.WriteString(common.TimestampStyle.Render("no snippets match") + "\n")
	}

	for i, s := range visible {
		header := common.AuthorStyle.Render(s.Author) + " " +
			common.LanguageStyle.Render(s.Language) + " " +
			common.TimestampStyle.Render(s.UpdatedAt.Format("2006-01-02 15:04"))
		counts := common.CountStyle.Render(
			fmt.Sprintf("♥ %d  ⇄ %d  🗨 %d", s.LikesCount, s.SharesCount, s.CommentsCount))

		row := s.Title + "\n" + header + "\n" +
			common.CodeStyle.Render(firstLine(s.Code)) + "\n" + counts

		if i == m.cursor {
			b.WriteString(common.SelectedStyle.Render(row))
		} else {
			b.WriteString(common.UnselectedStyle.Render(row))
		}
		b.WriteString("\n")
	}

	if m.list != nil {
		switch pending, _ := m.list.Pending(); pending {
		case view.PendingDelete:
			b.WriteString(common.ConfirmStyle.Render("delete this snippet? (y/n)") + "\n")
		case view.PendingDeleteAll:
			b.WriteString(common.ConfirmStyle.Render("delete ALL your snippets? (y/n)") + "\n")
		}
	}

	b.WriteString(common.StatusBarStyle.Render(
		"↑/↓ move • / filter • L language • m mine • n new • e edit • d delete • " +
			"l like • s share • c comments • x run • y copy • p profile • R refresh • q quit"))
	return b.String()
}

func (m Model) viewProfile() string {
	var b strings.Builder
	b.WriteString(common.AuthorStyle.Render("profile") + "\n\n")
	who := m.displayName
	if who == "" {
		who = "anonymous"
	}
	b.WriteString("signed in as " + common.AuthorStyle.Render(who) + "\n\n")
	b.WriteString("display name: " + m.nameInput.View() + "\n")
	if m.busy {
		b.WriteString(m.spinner.View() + " saving...\n")
	}
	b.WriteString(common.StatusBarStyle.Render("ctrl+s save • esc back"))
	return b.String()
}

func (m Model) viewForm() string {
	var b strings.Builder
	action := "new snippet"
	if m.list != nil && m.list.EditingID() != "" {
		action = "edit snippet"
	}
	b.WriteString(common.AuthorStyle.Render(action) + "\n\n")
	b.WriteString("title:    " + m.titleInput.View() + "\n")
	b.WriteString("language: " + m.langInput.View() + "\n\n")
	b.WriteString(m.codeArea.View() + "\n")
	b.WriteString(common.StatusBarStyle.Render("tab next field • ctrl+s save • esc cancel"))
	return b.String()
}

func (m Model) viewComments() string {
	var b strings.Builder

	if m.snippet != nil {
		b.WriteString(common.AuthorStyle.Render(m.snippet.Title) + " " +
			common.LanguageStyle.Render(m.snippet.Language) + "\n")
		b.WriteString(common.CodeStyle.Render(m.snippet.Code) + "\n\n")
	}

	if len(m.flat) == 0 {
		b.WriteString(common.TimestampStyle.Render("no comments yet") + "\n")
	}

	activeID, editorOpen := m.reply.ActiveEditor()
	for i, fn := range m.flat {
		c := fn.Node.Comment
		indent := strings.Repeat("  ", min(fn.Depth, maxIndent))
		cursor := "  "
		if i == m.commentCursor && !editorOpen {
			cursor = "> "
		}
		b.WriteString(indent + cursor + common.AuthorStyle.Render(c.Author) + " " +
			common.TimestampStyle.Render(c.CreatedAt.Format("Jan 2 15:04")) + "\n")
		b.WriteString(indent + "  " + c.Content + "\n")

		if editorOpen && activeID == c.ID {
			b.WriteString(indent + "  " + m.replyArea.View() + "\n")
			if m.reply.IsSubmitting(c.ID) {
				b.WriteString(indent + "  " + m.spinner.View() + " posting...\n")
			}
		}
	}

	// Top-level composer renders below the thread.
	if editorOpen && activeID == "" {
		b.WriteString("\n" + m.replyArea.View() + "\n")
		if m.reply.IsSubmitting("") {
			b.WriteString(m.spinner.View() + " posting...\n")
		}
	}

	if editorOpen {
		b.WriteString(common.StatusBarStyle.Render("ctrl+s post • esc close (draft kept)"))
	} else {
		b.WriteString(common.StatusBarStyle.Render("↑/↓ move • r reply • n new comment • esc back"))
	}
	return b.String()
}

func (m Model) viewRun() string {
	var b strings.Builder
	r := m.runResult
	if r == nil {
		return common.StatusBarStyle.Render("esc back")
	}

	if r.ExitCode == 0 {
		b.WriteString(common.SuccessStyle.Render(fmt.Sprintf("exit %d", r.ExitCode)))
	} else {
		b.WriteString(common.ErrorStyle.Render(fmt.Sprintf("exit %d", r.ExitCode)))
	}
	b.WriteString(common.TimestampStyle.Render("  "+r.Duration.String()) + "\n\n")

	if r.Stdout != "" {
		b.WriteString(common.CodeStyle.Render(r.Stdout) + "\n")
	}
	if r.Stderr != "" {
		b.WriteString(common.ErrorStyle.Render(r.Stderr) + "\n")
	}
	b.WriteString(common.StatusBarStyle.Render("esc back"))
	return b.String()
}

func firstLine(code string) string {
	for _, line := range strings.Split(code, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			if len(line) > 80 {
				return line[:80] + "…"
			}
			return line
		}
	}
	return ""
}
