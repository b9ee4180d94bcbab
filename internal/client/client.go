// Package client is the HTTP repository client: a typed wrapper over the
// CodeWaltz API that the terminal UI is programmed against. Sessions ride
// on the cookie jar; anonymous reaction dedup rides on the X-Client-Id
// header.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/codewaltz/codewaltz/internal/apperror"
	"github.com/codewaltz/codewaltz/internal/model"
	"github.com/codewaltz/codewaltz/internal/view"
)

// Client talks to one CodeWaltz server.
type Client struct {
	baseURL  string
	clientID string
	http     *http.Client
}

// The view layer is the contract this client exists to satisfy.
var (
	_ view.SnippetClient = (*Client)(nil)
	_ view.CommentClient = (*Client)(nil)
)

// New builds a client from persisted config. The cookie jar holds the
// session cookie after Login/Register for the rest of the process.
func New(cfg Config) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("client: creating cookie jar: %w", err)
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		clientID: cfg.ClientID,
		http: &http.Client{
			Jar:     jar,
			Timeout: 15 * time.Second,
			// auth redirects (OAuth, post-login) are not for us to follow
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}, nil
}

// do runs one JSON round trip. A non-nil out is filled from a 2xx body;
// error responses are decoded back into their domain error.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encoding request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("client: building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.clientID != "" {
		req.Header.Set("X-Client-Id", c.clientID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("client: decoding response: %w", err)
		}
	}
	return nil
}

// decodeError turns the API's error shape back into the matching domain
// error so callers can use errors.Is the same way they would server-side.
func decodeError(resp *http.Response) error {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Field   string `json:"field"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err != nil || body.Message == "" {
		return fmt.Errorf("client: server returned status %d", resp.StatusCode)
	}

	switch body.Error {
	case "validation_error":
		return apperror.ValidationFailed(body.Field, body.Message)
	case "unauthorized":
		return apperror.Unauthorized(body.Message)
	case "forbidden":
		return apperror.Forbidden(body.Message)
	case "not_found":
		return &apperror.AppError{Err: apperror.ErrNotFound, Message: body.Message}
	case "conflict":
		return &apperror.AppError{Err: apperror.ErrConflict, Message: body.Message}
	default:
		return fmt.Errorf("client: %s (status %d)", body.Message, resp.StatusCode)
	}
}

// --- sessions ---

// Register creates an account and leaves the session cookie in the jar.
func (c *Client) Register(ctx context.Context, email, password, username string) (*model.User, error) {
	var user model.User
	err := c.do(ctx, http.MethodPost, "/auth/register", map[string]string{
		"email":    email,
		"password": password,
		"username": username,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Login signs in and leaves the session cookie in the jar.
func (c *Client) Login(ctx context.Context, email, password string) (*model.User, error) {
	var user model.User
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout drops the server-side cookie.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// Me returns the signed-in profile, or an unauthorized error.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile patches profile metadata; nil fields stay unchanged.
func (c *Client) UpdateProfile(ctx context.Context, username, email, password *string) (*model.User, error) {
	var user model.User
	err := c.do(ctx, http.MethodPatch, "/api/me", map[string]*string{
		"username": username,
		"email":    email,
		"password": password,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// AvatarURL resolves any user's avatar URL; "" when none is set.
func (c *Client) AvatarURL(ctx context.Context, userID string) (string, error) {
	var body struct {
		AvatarURL string `json:"avatar_url"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/users/"+userID+"/avatar", nil, &body); err != nil {
		return "", err
	}
	return body.AvatarURL, nil
}

// --- snippets ---

// FetchSnippets returns all snippets, newest-updated first.
func (c *Client) FetchSnippets(ctx context.Context) ([]model.Snippet, error) {
	var snippets []model.Snippet
	if err := c.do(ctx, http.MethodGet, "/api/snippets", nil, &snippets); err != nil {
		return nil, err
	}
	return snippets, nil
}

// FetchMySnippets returns the session user's snippets.
func (c *Client) FetchMySnippets(ctx context.Context) ([]model.Snippet, error) {
	var snippets []model.Snippet
	if err := c.do(ctx, http.MethodGet, "/api/snippets?mine=1", nil, &snippets); err != nil {
		return nil, err
	}
	return snippets, nil
}

// FetchSnippet returns one snippet by id.
func (c *Client) FetchSnippet(ctx context.Context, id string) (*model.Snippet, error) {
	var snippet model.Snippet
	if err := c.do(ctx, http.MethodGet, "/api/snippets/"+id, nil, &snippet); err != nil {
		return nil, err
	}
	return &snippet, nil
}

// AddSnippet creates a snippet owned by the session user.
func (c *Client) AddSnippet(ctx context.Context, form view.SnippetForm) (*model.Snippet, error) {
	var snippet model.Snippet
	if err := c.do(ctx, http.MethodPost, "/api/snippets", form, &snippet); err != nil {
		return nil, err
	}
	return &snippet, nil
}

// UpdateSnippet edits an owned snippet.
func (c *Client) UpdateSnippet(ctx context.Context, id string, form view.SnippetForm) (*model.Snippet, error) {
	var snippet model.Snippet
	if err := c.do(ctx, http.MethodPut, "/api/snippets/"+id, form, &snippet); err != nil {
		return nil, err
	}
	return &snippet, nil
}

// DeleteSnippet removes one owned snippet.
func (c *Client) DeleteSnippet(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/snippets/"+id, nil, nil)
}

// DeleteAllSnippets removes every snippet the session user owns.
func (c *Client) DeleteAllSnippets(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/snippets", nil, nil)
}

// Like records a like and returns the snippet with fresh counters.
func (c *Client) Like(ctx context.Context, id string) (*model.Snippet, error) {
	var snippet model.Snippet
	if err := c.do(ctx, http.MethodPost, "/api/snippets/"+id+"/like", nil, &snippet); err != nil {
		return nil, err
	}
	return &snippet, nil
}

// Share records a share and returns the snippet with fresh counters.
func (c *Client) Share(ctx context.Context, id string) (*model.Snippet, error) {
	var snippet model.Snippet
	if err := c.do(ctx, http.MethodPost, "/api/snippets/"+id+"/share", nil, &snippet); err != nil {
		return nil, err
	}
	return &snippet, nil
}

// RunSnippet executes a snippet in the server sandbox.
func (c *Client) RunSnippet(ctx context.Context, id string) (*RunResult, error) {
	var result RunResult
	if err := c.do(ctx, http.MethodPost, "/api/snippets/"+id+"/run", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RunResult mirrors the server's execution result.
type RunResult struct {
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	ExitCode int           `json:"exitCode"`
	Duration time.Duration `json:"duration"`
}

// --- comments ---

// FetchComments returns a snippet's comments, creation time ascending.
func (c *Client) FetchComments(ctx context.Context, snippetID string) ([]model.Comment, error) {
	var comments []model.Comment
	if err := c.do(ctx, http.MethodGet, "/api/snippets/"+snippetID+"/comments", nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// AddComment posts a comment; parentID "" makes it top-level.
func (c *Client) AddComment(ctx context.Context, snippetID, content, parentID string) (*model.Comment, error) {
	var comment model.Comment
	err := c.do(ctx, http.MethodPost, "/api/snippets/"+snippetID+"/comments", map[string]string{
		"content":   content,
		"parent_id": parentID,
	}, &comment)
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// FetchCommentCount returns a snippet's comment count.
func (c *Client) FetchCommentCount(ctx context.Context, snippetID string) (int, error) {
	var body struct {
		Count int `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/snippets/"+snippetID+"/comments/count", nil, &body); err != nil {
		return 0, err
	}
	return body.Count, nil
}
