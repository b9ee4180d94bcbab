// Package service contains the business logic layer of the application.
//
// The layering follows the usual three-layer shape:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces ownership, orchestrates
//	Repository (data layer)  → reads/writes the database
//
// Services accept primitives and model structs, never *http.Request, and
// return domain errors from apperror, never status codes. They are programmed
// against the repository interfaces, so tests swap in in-memory mocks and the
// sqlite package is never imported here.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/codewaltz/codewaltz/internal/apperror"
	"github.com/codewaltz/codewaltz/internal/model"
	"github.com/codewaltz/codewaltz/internal/repository"
)

// Validation bounds. Named constants rather than magic numbers so error
// messages and tests can reference them.
const (
	MaxTitleLength    = 200
	MaxLanguageLength = 40
	MaxCodeLength     = 100000 // ~100KB of code
	DefaultListLimit  = 50
	MaxListLimit      = 200
)

// SnippetFields is the caller-editable subset of a snippet. Everything else
// (id, owner, counters, timestamps) is server-assigned.
type SnippetFields struct {
	Title    string
	Language string
	Code     string
}

// SnippetService handles business logic for code snippets: validation,
// ownership scoping, and the like/share counters.
type SnippetService struct {
	repo      repository.SnippetRepository
	reactions repository.ReactionRepository
	users     repository.UserRepository
	logger    *slog.Logger
}

func NewSnippetService(
	repo repository.SnippetRepository,
	reactions repository.ReactionRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *SnippetService {
	return &SnippetService{
		repo:      repo,
		reactions: reactions,
		users:     users,
		logger:    logger,
	}
}

// Create validates and saves a new snippet for the authenticated user.
//
// The author display name is stamped from the user's profile at creation
// time, and creating is refused while the profile has no display name set —
// the client tells the user to configure one first. (Comments are more
// lenient and fall back to email; snippets are bylined work.)
func (s *SnippetService) Create(ctx context.Context, userID string, fields SnippetFields) (*model.Snippet, error) {
	if userID == "" {
		return nil, apperror.Unauthorized("sign in to create snippets")
	}

	if err := validateFields(&fields); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(user.Username) == "" {
		return nil, apperror.ValidationFailed("author",
			"set a display name in settings before creating snippets")
	}

	snippet := &model.Snippet{
		Title:    fields.Title,
		Language: fields.Language,
		Code:     fields.Code,
		Author:   user.Username,
		UserID:   userID,
	}

	if err := s.repo.Create(ctx, snippet); err != nil {
		s.logger.Error("failed to create snippet",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating snippet: %w", err)
	}

	s.logger.Info("snippet created",
		slog.String("id", snippet.ID),
		slog.String("title", snippet.Title),
		slog.String("userID", userID),
	)

	return snippet, nil
}

// GetByID retrieves a snippet. Reading is public — no session required.
func (s *SnippetService) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet ID is required")
	}
	return s.repo.GetByID(ctx, id)
}

// List retrieves all snippets, newest-updated first.
func (s *SnippetService) List(ctx context.Context, limit, offset int) ([]model.Snippet, error) {
	snippets, err := s.repo.List(ctx, clampedOptions(limit, offset))
	if err != nil {
		s.logger.Error("failed to list snippets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing snippets: %w", err)
	}
	return snippets, nil
}

// ListByOwner retrieves the given user's snippets, newest-updated first.
func (s *SnippetService) ListByOwner(ctx context.Context, userID string, limit, offset int) ([]model.Snippet, error) {
	if userID == "" {
		return nil, apperror.ValidationFailed("user_id", "user ID is required")
	}
	snippets, err := s.repo.ListByOwner(ctx, userID, clampedOptions(limit, offset))
	if err != nil {
		s.logger.Error("failed to list user snippets",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing snippets for %s: %w", userID, err)
	}
	return snippets, nil
}

func clampedOptions(limit, offset int) repository.ListOptions {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return repository.ListOptions{Limit: limit, Offset: offset}
}

// Update modifies an existing snippet, owner-scoped.
//
// Fetch-then-update: confirm the row exists and belongs to the caller, apply
// the new fields, save. The repository's WHERE id AND user_id is the real
// guard; the early ownership check just gives a cleaner error without a
// write attempt.
func (s *SnippetService) Update(ctx context.Context, userID, id string, fields SnippetFields) (*model.Snippet, error) {
	if userID == "" {
		return nil, apperror.Unauthorized("sign in to edit snippets")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet ID is required")
	}
	if err := validateFields(&fields); err != nil {
		return nil, err
	}

	snippet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if snippet.UserID != userID {
		// Indistinguishable from "no such snippet" on the wire, same as the
		// zero-rows UPDATE would report.
		return nil, apperror.NotFound("snippet", id)
	}

	snippet.Title = fields.Title
	snippet.Language = fields.Language
	snippet.Code = fields.Code

	if err := s.repo.Update(ctx, snippet); err != nil {
		s.logger.Error("failed to update snippet",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating snippet: %w", err)
	}

	s.logger.Info("snippet updated", slog.String("id", id), slog.String("userID", userID))
	return snippet, nil
}

// Delete removes one snippet, owner-scoped.
func (s *SnippetService) Delete(ctx context.Context, userID, id string) error {
	if userID == "" {
		return apperror.Unauthorized("sign in to delete snippets")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "snippet ID is required")
	}

	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return err
	}

	s.logger.Info("snippet deleted", slog.String("id", id), slog.String("userID", userID))
	return nil
}

// DeleteAll removes every snippet the user owns. There is no undo; the
// client is responsible for the confirmation gate.
func (s *SnippetService) DeleteAll(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, apperror.Unauthorized("sign in to delete snippets")
	}

	deleted, err := s.repo.DeleteAllByOwner(ctx, userID)
	if err != nil {
		s.logger.Error("failed to delete all snippets",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("deleting all snippets: %w", err)
	}

	s.logger.Info("all snippets deleted",
		slog.String("userID", userID),
		slog.Int64("count", deleted),
	)
	return deleted, nil
}

// Like records a like by a user or an anonymous client and returns the
// snippet with its current counters. Duplicate likes are a quiet no-op.
func (s *SnippetService) Like(ctx context.Context, snippetID, userID, clientID string) (*model.Snippet, error) {
	return s.react(ctx, repository.ReactionLike, snippetID, userID, clientID)
}

// Share records a share. Same dedup rules as Like.
func (s *SnippetService) Share(ctx context.Context, snippetID, userID, clientID string) (*model.Snippet, error) {
	return s.react(ctx, repository.ReactionShare, snippetID, userID, clientID)
}

func (s *SnippetService) react(ctx context.Context, kind repository.ReactionKind, snippetID, userID, clientID string) (*model.Snippet, error) {
	snippetID = strings.TrimSpace(snippetID)
	if snippetID == "" {
		return nil, apperror.ValidationFailed("id", "snippet ID is required")
	}

	snippet, err := s.reactions.AddReaction(ctx, kind, snippetID, userID, clientID)
	if err != nil {
		s.logger.Error("failed to record reaction",
			slog.String("kind", string(kind)),
			slog.String("snippetID", snippetID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	return snippet, nil
}

func validateFields(fields *SnippetFields) error {
	fields.Title = strings.TrimSpace(fields.Title)
	fields.Language = strings.TrimSpace(fields.Language)

	if fields.Title == "" {
		return apperror.ValidationFailed("title", "snippet title is required")
	}
	if len(fields.Title) > MaxTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("snippet title must be %d characters or less", MaxTitleLength))
	}
	if len(fields.Language) > MaxLanguageLength {
		return apperror.ValidationFailed("language",
			fmt.Sprintf("language tag must be %d characters or less", MaxLanguageLength))
	}
	if strings.TrimSpace(fields.Code) == "" {
		return apperror.ValidationFailed("code", "snippet code is required")
	}
	if len(fields.Code) > MaxCodeLength {
		return apperror.ValidationFailed("code",
			fmt.Sprintf("code must be %d characters or less", MaxCodeLength))
	}
	return nil
}
