package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/codewaltz/codewaltz/internal/runner"
	"github.com/codewaltz/codewaltz/internal/service"
)

// RunHandler executes a stored snippet in the sandbox. The runner is
// optional server equipment; when absent the endpoints answer 503.
type RunHandler struct {
	snippets *service.SnippetService
	runner   runner.Runner
	logger   *slog.Logger
}

func NewRunHandler(snippets *service.SnippetService, r runner.Runner, logger *slog.Logger) *RunHandler {
	return &RunHandler{snippets: snippets, runner: r, logger: logger}
}

// HandleRun executes the snippet body under its language tag.
//
// HTTP: POST /api/snippets/{id}/run
func (h *RunHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	if h.runner == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:   "unavailable",
			Message: "code execution is not enabled on this server",
		})
		return
	}

	snippet, err := h.snippets.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.runner.Run(r.Context(), runner.Request{
		Language: snippet.Language,
		Code:     snippet.Code,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("snippet executed",
		slog.String("snippetID", snippet.ID),
		slog.String("language", snippet.Language),
		slog.Int("exitCode", result.ExitCode),
		slog.Duration("duration", result.Duration),
	)
	writeJSON(w, http.StatusOK, result)
}

// HandleLanguages lists the runnable language tags.
//
// HTTP: GET /api/run/languages
func (h *RunHandler) HandleLanguages(w http.ResponseWriter, r *http.Request) {
	if h.runner == nil {
		writeJSON(w, http.StatusOK, map[string][]string{"languages": {}})
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"languages": h.runner.Languages()})
}
