package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewaltz/codewaltz/internal/apperror"
	"github.com/codewaltz/codewaltz/internal/model"
	"github.com/codewaltz/codewaltz/internal/view"
)

func newTestClient(t *testing.T, h http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL, ClientID: "client-abc"})
	require.NoError(t, err)
	return c, srv
}

func TestClientSendsClientIDHeader(t *testing.T) {
	var gotHeader string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Client-Id")
		json.NewEncoder(w).Encode([]model.Snippet{})
	}))

	_, err := c.FetchSnippets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "client-abc", gotHeader)
}

func TestClientSessionCookiePersists(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "token", Value: "jwt-value", Path: "/"})
		json.NewEncoder(w).Encode(model.User{ID: "u1", Email: "a@b.c"})
	})
	var gotCookie string
	mux.HandleFunc("GET /api/me", func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie("token"); err == nil {
			gotCookie = cookie.Value
		}
		json.NewEncoder(w).Encode(model.User{ID: "u1"})
	})

	c, _ := newTestClient(t, mux)

	user, err := c.Login(context.Background(), "a@b.c", "password123")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	_, err = c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "jwt-value", gotCookie, "session cookie must ride on later requests")
}

func TestClientDecodesDomainErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/snippets/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "not_found", "message": "snippet not found"})
	})
	mux.HandleFunc("POST /api/snippets", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "validation_error", "message": "title is required", "field": "title",
		})
	})
	mux.HandleFunc("GET /api/me", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized", "message": "sign in required"})
	})

	c, _ := newTestClient(t, mux)
	ctx := context.Background()

	_, err := c.FetchSnippet(ctx, "missing")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	_, err = c.AddSnippet(ctx, view.SnippetForm{})
	require.True(t, errors.Is(err, apperror.ErrValidation))
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "title", appErr.Field)

	_, err = c.Me(ctx)
	assert.True(t, errors.Is(err, apperror.ErrUnauthorized))
}

func TestClientCommentRoundTrip(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/snippets/s1/comments", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body["content"])
		assert.Equal(t, "p1", body["parent_id"])

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(model.Comment{
			ID: "c1", SnippetID: "s1", Content: body["content"], ParentID: body["parent_id"],
		})
	})
	mux.HandleFunc("GET /api/snippets/s1/comments/count", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]int{"count": 7})
	})

	c, _ := newTestClient(t, mux)

	comment, err := c.AddComment(context.Background(), "s1", "hello", "p1")
	require.NoError(t, err)
	assert.Equal(t, "c1", comment.ID)

	count, err := c.FetchCommentCount(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 7, count)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codewaltz", "config.json")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.NotEmpty(t, cfg.ClientID)

	// the minted client id must survive a reload
	again, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.ClientID, again.ClientID)
}
