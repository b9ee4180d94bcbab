package view

import (
	"context"
	"strings"

	"github.com/codewaltz/codewaltz/internal/apperror"
	"github.com/codewaltz/codewaltz/internal/model"
)

// Scope selects which snippet collection Load fetches.
type Scope int

const (
	// ScopeAll is the public browse view: every snippet.
	ScopeAll Scope = iota
	// ScopeMine is the authenticated user's own shelf.
	ScopeMine
)

// PendingAction is a destructive action staged behind the confirm gate.
// Delete and delete-all never fire directly — the UI stages them here, shows
// its dialog, and either Confirm or Cancel resolves the gate.
type PendingAction int

const (
	PendingNone PendingAction = iota
	PendingDelete
	PendingDeleteAll
)

// ListController orchestrates the snippet list screen: fetch-on-open,
// derived filtering, the create/edit form, and confirm-gated deletion.
//
// Filtering is a pure derivation over the loaded collection — changing the
// filter never refetches, and Snippets() always returns the unfiltered data
// in fetch order.
type ListController struct {
	client Client

	scope       Scope
	displayName string

	snippets []model.Snippet
	loaded   bool
	loadErr  error

	editingID string // staged edit target; "" means the form creates

	pending       PendingAction
	pendingTarget string
}

// Client is the full repository-client surface a screen may need; the
// controller only calls the SnippetClient part but carrying the composite
// keeps construction uniform for the TUI.
type Client interface {
	SnippetClient
}

// NewListController builds a controller for one screen visit.
// displayName is the session user's configured display name ("" when unset
// or anonymous); create is refused without it, per the product rule that
// snippets carry a real byline.
func NewListController(client Client, scope Scope, displayName string) *ListController {
	return &ListController{
		client:      client,
		scope:       scope,
		displayName: strings.TrimSpace(displayName),
	}
}

// Fetch retrieves the snippet collection for the scope without touching
// controller state. It only reads fields fixed at construction, so it is safe
// to run off the update loop; the result goes back through CompleteLoad.
func (c *ListController) Fetch(ctx context.Context) ([]model.Snippet, error) {
	switch c.scope {
	case ScopeMine:
		return c.client.FetchMySnippets(ctx)
	default:
		return c.client.FetchSnippets(ctx)
	}
}

// CompleteLoad applies a Fetch result. A failure is recorded in Err() for the
// view to display; there is no retry — the user refreshes explicitly.
func (c *ListController) CompleteLoad(snippets []model.Snippet, err error) {
	if err != nil {
		c.loadErr = err
		return
	}
	c.snippets = snippets
	c.loaded = true
	c.loadErr = nil
}

// Load runs the Fetch/CompleteLoad pair synchronously.
func (c *ListController) Load(ctx context.Context) error {
	snippets, err := c.Fetch(ctx)
	c.CompleteLoad(snippets, err)
	return err
}

// Loaded reports whether a fetch has succeeded at least once.
func (c *ListController) Loaded() bool { return c.loaded }

// Err returns the last load failure, nil after a successful Load.
func (c *ListController) Err() error { return c.loadErr }

// Snippets returns the unfiltered collection in fetch order.
func (c *ListController) Snippets() []model.Snippet { return c.snippets }

// Filter derives the visible subset: language must match (or be the "all"
// sentinel) and the case-folded term must appear in title or author. Order
// is preserved; the underlying collection is untouched.
func (c *ListController) Filter(language, term string) []model.Snippet {
	return FilterSnippets(c.snippets, language, term)
}

// FilterSnippets is the pure filter shared by the controller and any other
// caller that already holds a collection.
func FilterSnippets(snippets []model.Snippet, language, term string) []model.Snippet {
	out := make([]model.Snippet, 0, len(snippets))
	for _, s := range snippets {
		if matchSnippet(s.Title, s.Author, s.Language, language, term) {
			out = append(out, s)
		}
	}
	return out
}

// StartEdit stages an edit: the next Save targets this snippet and returns
// its current fields for the form to pre-fill.
func (c *ListController) StartEdit(s model.Snippet) SnippetForm {
	c.editingID = s.ID
	return SnippetForm{Title: s.Title, Language: s.Language, Code: s.Code}
}

// CancelEdit clears the staged edit; the form reverts to creating.
func (c *ListController) CancelEdit() { c.editingID = "" }

// EditingID returns the staged edit target, "" when the form creates.
func (c *ListController) EditingID() string { return c.editingID }

// SaveRequest is the validated payload BeginSave hands the caller to execute
// against the repository client: UpdateSnippet when ID is set, AddSnippet
// otherwise.
type SaveRequest struct {
	ID   string // staged edit target; "" creates
	Form SnippetForm
}

// BeginSave validates the form against the cheap client-side checks
// (non-empty title and code; a configured display name for create) so the
// user gets an answer without a round trip — the server enforces the same
// rules again. On success it returns the request for the caller to execute;
// the staged edit stays staged until CompleteSave resolves it.
func (c *ListController) BeginSave(form SnippetForm) (SaveRequest, error) {
	if strings.TrimSpace(form.Title) == "" {
		return SaveRequest{}, apperror.ValidationFailed("title", "title is required")
	}
	if strings.TrimSpace(form.Code) == "" {
		return SaveRequest{}, apperror.ValidationFailed("code", "code is required")
	}
	if c.editingID == "" && c.displayName == "" {
		return SaveRequest{}, apperror.ValidationFailed("author",
			"set a display name in settings before creating snippets")
	}
	return SaveRequest{ID: c.editingID, Form: form}, nil
}

// CompleteSave applies the result of an executed SaveRequest. On success the
// loaded collection is patched in place (updated row swapped, created row put
// first, matching the newest-updated-first fetch order) and the staged edit
// is cleared. On failure nothing changes, including the staged edit.
func (c *ListController) CompleteSave(req SaveRequest, s *model.Snippet, err error) {
	if err != nil || s == nil {
		return
	}
	if req.ID != "" {
		for i := range c.snippets {
			if c.snippets[i].ID == s.ID {
				c.snippets[i] = *s
				break
			}
		}
		if c.editingID == req.ID {
			c.editingID = ""
		}
		return
	}
	c.snippets = append([]model.Snippet{*s}, c.snippets...)
}

// Save runs the BeginSave/CompleteSave pair synchronously against the client.
func (c *ListController) Save(ctx context.Context, form SnippetForm) (*model.Snippet, error) {
	req, err := c.BeginSave(form)
	if err != nil {
		return nil, err
	}

	var s *model.Snippet
	if req.ID != "" {
		s, err = c.client.UpdateSnippet(ctx, req.ID, req.Form)
	} else {
		s, err = c.client.AddSnippet(ctx, req.Form)
	}
	c.CompleteSave(req, s, err)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Apply replaces the loaded row matching s.ID with s. Reaction endpoints
// return the snippet with fresh counters; this folds that response back into
// the collection without a refetch. Unknown IDs are ignored.
func (c *ListController) Apply(s model.Snippet) {
	for i := range c.snippets {
		if c.snippets[i].ID == s.ID {
			c.snippets[i] = s
			return
		}
	}
}

// RequestDelete stages deletion of one snippet behind the confirm gate.
func (c *ListController) RequestDelete(id string) {
	c.pending = PendingDelete
	c.pendingTarget = id
}

// RequestDeleteAll stages deletion of every owned snippet.
func (c *ListController) RequestDeleteAll() {
	c.pending = PendingDeleteAll
	c.pendingTarget = ""
}

// Pending returns the staged destructive action and its target.
func (c *ListController) Pending() (PendingAction, string) {
	return c.pending, c.pendingTarget
}

// CancelPending dismisses the confirm gate without acting.
func (c *ListController) CancelPending() {
	c.pending = PendingNone
	c.pendingTarget = ""
}

// ConfirmRequest is the staged action BeginConfirm pops for the caller to
// execute: DeleteSnippet(Target) for PendingDelete, DeleteAllSnippets for
// PendingDeleteAll.
type ConfirmRequest struct {
	Action PendingAction
	Target string
}

// BeginConfirm pops the staged destructive action. ok is false when nothing
// is staged. The gate is cleared here, before the call runs: a failed delete
// should not leave a live "are you sure?" pointing at state the user has
// moved past. The caller executes the request and reports back through
// CompleteConfirm.
func (c *ListController) BeginConfirm() (ConfirmRequest, bool) {
	if c.pending == PendingNone {
		return ConfirmRequest{}, false
	}
	req := ConfirmRequest{Action: c.pending, Target: c.pendingTarget}
	c.CancelPending()
	return req, true
}

// CompleteConfirm applies the result of an executed ConfirmRequest: on
// success the affected rows leave the collection and a staged edit pointing
// at them is cancelled. On failure the collection is untouched.
func (c *ListController) CompleteConfirm(req ConfirmRequest, err error) {
	if err != nil {
		return
	}
	switch req.Action {
	case PendingDelete:
		kept := c.snippets[:0]
		for _, s := range c.snippets {
			if s.ID != req.Target {
				kept = append(kept, s)
			}
		}
		c.snippets = kept
		if c.editingID == req.Target {
			c.editingID = ""
		}

	case PendingDeleteAll:
		if c.scope == ScopeMine {
			c.snippets = nil
		}
		c.editingID = ""
	}
}

// ConfirmPending fires the staged destructive action synchronously. With
// nothing staged it is a no-op.
func (c *ListController) ConfirmPending(ctx context.Context) error {
	req, ok := c.BeginConfirm()
	if !ok {
		return nil
	}

	var err error
	switch req.Action {
	case PendingDelete:
		err = c.client.DeleteSnippet(ctx, req.Target)
	case PendingDeleteAll:
		err = c.client.DeleteAllSnippets(ctx)
	}
	c.CompleteConfirm(req, err)
	return err
}
