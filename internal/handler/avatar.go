package handler

import (
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/codewaltz/codewaltz/internal/auth"
	"github.com/codewaltz/codewaltz/internal/service"
	"github.com/codewaltz/codewaltz/internal/storage"
)

// AvatarHandler manages profile-picture uploads and lookups. The bytes
// themselves are served statically under /avatars/ by the router.
type AvatarHandler struct {
	avatars *service.AvatarService
	logger  *slog.Logger
}

func NewAvatarHandler(avatars *service.AvatarService, logger *slog.Logger) *AvatarHandler {
	return &AvatarHandler{avatars: avatars, logger: logger}
}

// HandleUpload replaces the session user's avatar.
//
// HTTP: POST /api/me/avatar (RequireAuth)
// Body: multipart form, file field "avatar".
func (h *AvatarHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "sign in required"})
		return
	}

	if err := r.ParseMultipartForm(storage.MaxAvatarBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "invalid multipart form"})
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "missing avatar file"})
		return
	}
	defer file.Close()

	ext := extensionFor(header.Header.Get("Content-Type"))
	url, err := h.avatars.SetAvatar(r.Context(), userID, file, ext)
	if err != nil {
		h.logger.Warn("avatar upload failed",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "avatar upload rejected"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"avatar_url": url})
}

// HandleGet resolves any user's avatar URL, "" when none is set.
//
// HTTP: GET /api/users/{id}/avatar
func (h *AvatarHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	url, err := h.avatars.AvatarURL(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"avatar_url": url})
}

// extensionFor maps an upload's MIME type to a file extension, falling back
// to png so the store's extension check does the final filtering.
func extensionFor(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "png"
	}
	switch mediaType {
	case "image/png":
		return "png"
	case "image/jpeg":
		return "jpg"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	default:
		return "png"
	}
}
