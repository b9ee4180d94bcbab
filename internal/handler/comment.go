package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/codewaltz/codewaltz/internal/auth"
	"github.com/codewaltz/codewaltz/internal/service"
)

// CommentHandler exposes the flat comment collection under a snippet.
// Thread building happens client-side from the fetched order.
type CommentHandler struct {
	comments *service.CommentService
	logger   *slog.Logger
}

func NewCommentHandler(comments *service.CommentService, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{comments: comments, logger: logger}
}

// HandleList returns a snippet's comments ordered by creation time
// ascending.
//
// HTTP: GET /api/snippets/{id}/comments
func (h *CommentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	comments, err := h.comments.List(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

// HandleCreate adds a comment, optionally as a reply.
//
// HTTP: POST /api/snippets/{id}/comments
// Body: {"content":"...","parent_id":"..."} — parent_id optional.
// The author byline is stamped server-side from the session account.
func (h *CommentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var body struct {
		Content  string `json:"content"`
		ParentID string `json:"parent_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	comment, err := h.comments.Add(r.Context(), userID, chi.URLParam(r, "id"), body.Content, body.ParentID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("comment created",
		slog.String("commentID", comment.ID),
		slog.String("snippetID", comment.SnippetID),
	)
	writeJSON(w, http.StatusCreated, comment)
}

// HandleCount returns the comment count for a snippet.
//
// HTTP: GET /api/snippets/{id}/comments/count
func (h *CommentHandler) HandleCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.comments.Count(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}
