package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/codewaltz/codewaltz/internal/auth"
	"github.com/codewaltz/codewaltz/internal/model"
	"github.com/codewaltz/codewaltz/internal/service"
)

// ClientIDHeader carries the anonymous client identifier used for
// best-effort reaction dedup. Signed-in users are keyed by account instead
// and may omit it.
const ClientIDHeader = "X-Client-Id"

// SnippetHandler exposes snippet CRUD, the bulk delete, and the like/share
// reactions.
type SnippetHandler struct {
	snippets *service.SnippetService
	logger   *slog.Logger
}

func NewSnippetHandler(snippets *service.SnippetService, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{snippets: snippets, logger: logger}
}

// snippetForm is the request body for create and update.
type snippetForm struct {
	Title    string `json:"title"`
	Language string `json:"language"`
	Code     string `json:"code"`
}

func (f snippetForm) fields() service.SnippetFields {
	return service.SnippetFields{Title: f.Title, Language: f.Language, Code: f.Code}
}

// HandleList returns snippets newest-updated first.
//
// HTTP: GET /api/snippets[?mine=1&limit=N&offset=N]
// With mine=1 the list is scoped to the session user's snippets and
// requires authentication.
func (h *SnippetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := intQuery(r, "limit")
	offset := intQuery(r, "offset")

	if r.URL.Query().Get("mine") != "" {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{
				Error:   "unauthorized",
				Message: "sign in to list your snippets",
			})
			return
		}
		snippets, err := h.snippets.ListByOwner(r.Context(), userID, limit, offset)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snippets)
		return
	}

	snippets, err := h.snippets.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippets)
}

// HandleGet returns one snippet.
//
// HTTP: GET /api/snippets/{id}
func (h *SnippetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	snippet, err := h.snippets.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippet)
}

// HandleCreate creates a snippet owned by the session user.
//
// HTTP: POST /api/snippets
// Body: {"title":"...","language":"...","code":"..."}
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var form snippetForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	snippet, err := h.snippets.Create(r.Context(), userID, form.fields())
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("snippet created",
		slog.String("snippetID", snippet.ID),
		slog.String("userID", userID),
	)
	writeJSON(w, http.StatusCreated, snippet)
}

// HandleUpdate edits an owned snippet. A non-owner gets 404, same as a
// missing id.
//
// HTTP: PUT /api/snippets/{id}
func (h *SnippetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var form snippetForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	snippet, err := h.snippets.Update(r.Context(), userID, chi.URLParam(r, "id"), form.fields())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippet)
}

// HandleDelete removes one owned snippet.
//
// HTTP: DELETE /api/snippets/{id}
func (h *SnippetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.snippets.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "snippet deleted"})
}

// HandleDeleteAll removes every snippet the session user owns.
//
// HTTP: DELETE /api/snippets
func (h *SnippetHandler) HandleDeleteAll(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	deleted, err := h.snippets.DeleteAll(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("snippets bulk deleted",
		slog.String("userID", userID),
		slog.Int64("count", deleted),
	)
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

// HandleLike records a like and returns the snippet with fresh counters.
// Anonymous callers are deduplicated by the X-Client-Id header.
//
// HTTP: POST /api/snippets/{id}/like
func (h *SnippetHandler) HandleLike(w http.ResponseWriter, r *http.Request) {
	h.react(w, r, h.snippets.Like)
}

// HandleShare records a share, same contract as HandleLike.
//
// HTTP: POST /api/snippets/{id}/share
func (h *SnippetHandler) HandleShare(w http.ResponseWriter, r *http.Request) {
	h.react(w, r, h.snippets.Share)
}

func (h *SnippetHandler) react(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, snippetID, userID, clientID string) (*model.Snippet, error),
) {
	userID, _ := auth.UserIDFromContext(r.Context())
	clientID := r.Header.Get(ClientIDHeader)

	snippet, err := fn(r.Context(), chi.URLParam(r, "id"), userID, clientID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippet)
}

func intQuery(r *http.Request, name string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 0 {
		return 0
	}
	return v
}
