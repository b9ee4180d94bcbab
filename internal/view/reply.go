package view

import (
	"context"
	"strings"

	"github.com/codewaltz/codewaltz/internal/model"
	"github.com/codewaltz/codewaltz/internal/thread"
)

// ReplyController manages the comment thread under one snippet: the flat
// fetched collection, the derived tree, and the reply-editor state machine.
//
// Editor state is three pieces, kept deliberately separate:
//   - active: at most one node has its reply editor open. Opening a node's
//     editor closes whichever node held it before. "" means the top-level
//     composer is the target.
//   - drafts: per-node draft text, keyed by node id. A draft survives its
//     editor being closed, so switching targets does not lose typed text.
//   - submitting: per-node in-flight flag. A second submit for a node whose
//     flag is set is rejected outright.
//
// The controller is not goroutine-safe; it belongs to the single update
// loop of its screen. Slow network calls are split into a BeginSubmit /
// CompleteSubmit pair so the loop stays responsive while one is in flight.
type ReplyController struct {
	client    CommentClient
	snippetID string

	comments []model.Comment
	roots    []*thread.Node
	loaded   bool
	loadErr  error

	active     string
	activeOpen bool
	drafts     map[string]string
	submitting map[string]bool
}

// SubmitRequest is the payload BeginSubmit hands the caller to execute
// against the repository client.
type SubmitRequest struct {
	SnippetID string
	NodeID    string // keys the draft and the in-flight flag
	ParentID  string // "" for a top-level comment
	Content   string // trimmed draft text
}

// NewReplyController builds a controller for the comment thread of one
// snippet. Call Load before reading the thread.
func NewReplyController(client CommentClient, snippetID string) *ReplyController {
	return &ReplyController{
		client:     client,
		snippetID:  snippetID,
		drafts:     make(map[string]string),
		submitting: make(map[string]bool),
	}
}

// Fetch retrieves the comment collection (creation-time ascending) without
// touching controller state, so it is safe to run off the update loop; the
// result goes back through CompleteLoad.
func (c *ReplyController) Fetch(ctx context.Context) ([]model.Comment, error) {
	return c.client.FetchComments(ctx, c.snippetID)
}

// CompleteLoad applies a Fetch result and rebuilds the tree. Editor state is
// untouched so a refresh mid-draft is harmless.
func (c *ReplyController) CompleteLoad(comments []model.Comment, err error) {
	if err != nil {
		c.loadErr = err
		return
	}
	c.comments = comments
	c.roots = thread.Build(comments)
	c.loaded = true
	c.loadErr = nil
}

// Load runs the Fetch/CompleteLoad pair synchronously.
func (c *ReplyController) Load(ctx context.Context) error {
	comments, err := c.Fetch(ctx)
	c.CompleteLoad(comments, err)
	return err
}

// Loaded reports whether a fetch has succeeded at least once.
func (c *ReplyController) Loaded() bool { return c.loaded }

// Err returns the last load failure, nil after a successful Load.
func (c *ReplyController) Err() error { return c.loadErr }

// Comments returns the flat collection in fetched order.
func (c *ReplyController) Comments() []model.Comment { return c.comments }

// Thread returns the derived forest. It is rebuilt in full whenever the
// collection changes, never patched incrementally.
func (c *ReplyController) Thread() []*thread.Node { return c.roots }

// OpenReplyEditor makes nodeID the reply target, closing any other node's
// editor. nodeID "" opens the top-level composer.
func (c *ReplyController) OpenReplyEditor(nodeID string) {
	c.active = nodeID
	c.activeOpen = true
}

// CloseReplyEditor closes the open editor. Drafts are kept.
func (c *ReplyController) CloseReplyEditor() {
	c.active = ""
	c.activeOpen = false
}

// ActiveEditor returns the open editor's target node id. ok is false when no
// editor is open; id "" with ok true means the top-level composer.
func (c *ReplyController) ActiveEditor() (id string, ok bool) {
	return c.active, c.activeOpen
}

// IsEditorOpen reports whether nodeID's reply editor is the open one.
func (c *ReplyController) IsEditorOpen(nodeID string) bool {
	return c.activeOpen && c.active == nodeID
}

// SetDraftText updates nodeID's draft. The node's editor need not be open.
func (c *ReplyController) SetDraftText(nodeID, text string) {
	c.drafts[nodeID] = text
}

// Draft returns nodeID's current draft text.
func (c *ReplyController) Draft(nodeID string) string { return c.drafts[nodeID] }

// IsSubmitting reports whether a submission for nodeID is in flight.
func (c *ReplyController) IsSubmitting(nodeID string) bool {
	return c.submitting[nodeID]
}

// BeginSubmit stages a reply submission for nodeID and marks it in flight.
// ok is false — and nothing changes — when the trimmed draft is empty or a
// submission for the same node is already in flight. The caller executes the
// returned request and reports back through CompleteSubmit; skipping
// CompleteSubmit leaves the node stuck in the submitting state.
func (c *ReplyController) BeginSubmit(nodeID string) (SubmitRequest, bool) {
	content := strings.TrimSpace(c.drafts[nodeID])
	if content == "" {
		return SubmitRequest{}, false
	}
	if c.submitting[nodeID] {
		return SubmitRequest{}, false
	}
	c.submitting[nodeID] = true
	return SubmitRequest{
		SnippetID: c.snippetID,
		NodeID:    nodeID,
		ParentID:  nodeID,
		Content:   content,
	}, true
}

// BeginPost stages a top-level comment from the composer draft (node id "").
// Same contract as BeginSubmit with no parent.
func (c *ReplyController) BeginPost() (SubmitRequest, bool) {
	req, ok := c.BeginSubmit("")
	if !ok {
		return SubmitRequest{}, false
	}
	req.ParentID = ""
	return req, true
}

// CompleteSubmit resolves the in-flight submission for nodeID. The flag is
// cleared on both paths. On success the comment joins the collection (tree
// rebuilt), the node's draft is cleared, and its editor closes if it was the
// open one. On failure the draft is left intact for retry; surfacing err is
// the caller's job.
func (c *ReplyController) CompleteSubmit(nodeID string, comment *model.Comment, err error) {
	delete(c.submitting, nodeID)
	if err != nil || comment == nil {
		return
	}
	c.comments = append(c.comments, *comment)
	c.roots = thread.Build(c.comments)
	delete(c.drafts, nodeID)
	if c.activeOpen && c.active == nodeID {
		c.CloseReplyEditor()
	}
}

// SubmitReply runs the Begin/Complete pair synchronously against the client.
// submitted is false with a nil error when the no-op guards fired.
func (c *ReplyController) SubmitReply(ctx context.Context, nodeID string) (submitted bool, err error) {
	req, ok := c.BeginSubmit(nodeID)
	if !ok {
		return false, nil
	}
	return c.finish(ctx, req)
}

// PostComment runs BeginPost synchronously against the client.
func (c *ReplyController) PostComment(ctx context.Context) (submitted bool, err error) {
	req, ok := c.BeginPost()
	if !ok {
		return false, nil
	}
	return c.finish(ctx, req)
}

func (c *ReplyController) finish(ctx context.Context, req SubmitRequest) (bool, error) {
	comment, err := c.client.AddComment(ctx, req.SnippetID, req.Content, req.ParentID)
	c.CompleteSubmit(req.NodeID, comment, err)
	if err != nil {
		return false, err
	}
	return true, nil
}
