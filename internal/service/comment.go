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

// MaxCommentLength bounds a single comment body.
const MaxCommentLength = 10000

// CommentService handles the append-only comment stream of a snippet.
// Comments have no edit or delete — the only mutations are Add and the
// counter refresh that follows it.
type CommentService struct {
	comments repository.CommentRepository
	snippets repository.SnippetRepository
	users    repository.UserRepository
	logger   *slog.Logger
}

func NewCommentService(
	comments repository.CommentRepository,
	snippets repository.SnippetRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *CommentService {
	return &CommentService{
		comments: comments,
		snippets: snippets,
		users:    users,
		logger:   logger,
	}
}

// List returns a snippet's comments in creation order (oldest first) — the
// order the thread builder and the display depend on.
func (s *CommentService) List(ctx context.Context, snippetID string) ([]model.Comment, error) {
	snippetID = strings.TrimSpace(snippetID)
	if snippetID == "" {
		return nil, apperror.ValidationFailed("snippet_id", "snippet ID is required")
	}

	comments, err := s.comments.ListComments(ctx, snippetID)
	if err != nil {
		s.logger.Error("failed to list comments",
			slog.String("snippetID", snippetID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	return comments, nil
}

// Add appends a comment, optionally as a reply to parentID.
//
// Rules, in order:
//   - a session is required; anonymous comment attempts never reach storage
//   - content must be non-empty after trimming; what is stored is trimmed
//   - the target snippet must exist
//   - the author name is stamped server-side from session metadata:
//     display name, falling back to email, falling back to "Anonymous"
//
// After the insert, the snippet's denormalised comment counter is refreshed
// as an independent second call. A counter failure is logged and swallowed:
// the comment is already durable, and the next refresh heals the number.
// Nothing here runs in a transaction across the two steps, deliberately.
func (s *CommentService) Add(ctx context.Context, userID, snippetID, content, parentID string) (*model.Comment, error) {
	if userID == "" {
		return nil, apperror.Unauthorized("sign in to comment")
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.ValidationFailed("content", "comment cannot be empty")
	}
	if len(content) > MaxCommentLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("comment must be %d characters or less", MaxCommentLength))
	}

	snippetID = strings.TrimSpace(snippetID)
	if _, err := s.snippets.GetByID(ctx, snippetID); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	comment := &model.Comment{
		SnippetID: snippetID,
		UserID:    userID,
		Author:    user.DisplayName(),
		Content:   content,
		ParentID:  strings.TrimSpace(parentID),
	}

	if err := s.comments.CreateComment(ctx, comment); err != nil {
		s.logger.Error("failed to create comment",
			slog.String("snippetID", snippetID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating comment: %w", err)
	}

	if _, err := s.snippets.RefreshCommentCount(ctx, snippetID); err != nil {
		// Stale counter, durable comment. Logged, not returned.
		s.logger.Warn("comment stored but counter refresh failed",
			slog.String("snippetID", snippetID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("comment added",
		slog.String("id", comment.ID),
		slog.String("snippetID", snippetID),
		slog.Bool("isReply", comment.ParentID != ""),
	)

	return comment, nil
}

// Count returns the live comment count for a snippet.
func (s *CommentService) Count(ctx context.Context, snippetID string) (int, error) {
	snippetID = strings.TrimSpace(snippetID)
	if snippetID == "" {
		return 0, apperror.ValidationFailed("snippet_id", "snippet ID is required")
	}

	count, err := s.comments.CountComments(ctx, snippetID)
	if err != nil {
		s.logger.Error("failed to count comments",
			slog.String("snippetID", snippetID),
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("counting comments: %w", err)
	}
	return count, nil
}
