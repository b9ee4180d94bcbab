package snippets

import (
	"context"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/codewaltz/codewaltz/internal/model"
	"github.com/codewaltz/codewaltz/internal/view"
)

// probeSession asks the server who the session belongs to. Anonymous browsing
// is fine — the controller just disables create until a name exists.
func (m Model) probeSession() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		user, err := c.Me(context.Background())
		if err != nil {
			return sessionMsg{}
		}
		return sessionMsg{Name: user.Username}
	}
}

// Commands run on their own goroutines, so none of them may write controller
// state: each performs only the network call and hands the result back in its
// message for Update to apply on the loop.

func (m Model) loadList() tea.Cmd {
	lc := m.list
	return func() tea.Msg {
		snippets, err := lc.Fetch(context.Background())
		return listDoneMsg{Snippets: snippets, Err: err}
	}
}

func (m Model) saveForm(req view.SaveRequest) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		var (
			s   *model.Snippet
			err error
		)
		if req.ID != "" {
			s, err = c.UpdateSnippet(context.Background(), req.ID, req.Form)
		} else {
			s, err = c.AddSnippet(context.Background(), req.Form)
		}
		return saveDoneMsg{Req: req, Snippet: s, Err: err}
	}
}

func (m Model) confirmPending(req view.ConfirmRequest) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		var err error
		switch req.Action {
		case view.PendingDelete:
			err = c.DeleteSnippet(context.Background(), req.Target)
		case view.PendingDeleteAll:
			err = c.DeleteAllSnippets(context.Background())
		}
		return confirmDoneMsg{Req: req, Err: err}
	}
}

func (m Model) react(verb, id string) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		switch verb {
		case "like":
			s, err := c.Like(context.Background(), id)
			return reactDoneMsg{Verb: verb, Snippet: s, Err: err}
		default:
			s, err := c.Share(context.Background(), id)
			return reactDoneMsg{Verb: verb, Snippet: s, Err: err}
		}
	}
}

func (m Model) loadComments() tea.Cmd {
	rc := m.reply
	return func() tea.Msg {
		comments, err := rc.Fetch(context.Background())
		return commentsDoneMsg{Comments: comments, Err: err}
	}
}

func (m Model) saveProfile(name string) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		user, err := c.UpdateProfile(context.Background(), &name, nil, nil)
		return profileDoneMsg{User: user, Err: err}
	}
}

// submitReply runs the network half of a reply submission. The controller's
// submitting flag was already set by BeginSubmit on the update loop;
// CompleteSubmit clears it when the result message arrives.
func (m Model) submitReply(req view.SubmitRequest) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		comment, err := c.AddComment(context.Background(), req.SnippetID, req.Content, req.ParentID)
		return replyDoneMsg{NodeID: req.NodeID, Comment: comment, Err: err}
	}
}

func (m Model) runSnippet(id string) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		result, err := c.RunSnippet(context.Background(), id)
		return runDoneMsg{Result: result, Err: err}
	}
}

func copyToClipboard(code string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(code); err != nil {
			return statusMsg("copy failed: " + err.Error())
		}
		return statusMsg("copied to clipboard")
	}
}
