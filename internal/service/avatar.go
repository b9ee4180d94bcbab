package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/codewaltz/codewaltz/internal/repository"
	"github.com/codewaltz/codewaltz/internal/storage"
)

// AvatarService manages profile pictures: the bytes live in the object
// store, the owner-to-object mapping lives in the avatars table, and the
// resolved public URL is denormalized onto the user row so profile reads
// need no join.
type AvatarService struct {
	store   *storage.AvatarStore
	avatars repository.AvatarRepository
	users   repository.UserRepository
	logger  *slog.Logger
}

func NewAvatarService(
	store *storage.AvatarStore,
	avatars repository.AvatarRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *AvatarService {
	return &AvatarService{store: store, avatars: avatars, users: users, logger: logger}
}

// publicURL resolves a stored object name to the path it is served under.
func publicURL(objectName string) string {
	if objectName == "" {
		return ""
	}
	return "/avatars/" + objectName
}

// SetAvatar stores a new avatar for userID and points their profile at it.
// The previous object, if any, is deleted best-effort after the new mapping
// is committed.
func (s *AvatarService) SetAvatar(ctx context.Context, userID string, r io.Reader, ext string) (string, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}

	previous, err := s.avatars.GetAvatarObject(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("looking up previous avatar: %w", err)
	}

	name, err := s.store.Save(r, ext)
	if err != nil {
		return "", err
	}

	if err := s.avatars.SetAvatarObject(ctx, userID, name); err != nil {
		// mapping failed, don't leak the orphaned object
		if rmErr := s.store.Remove(name); rmErr != nil {
			s.logger.Warn("failed to remove orphaned avatar object",
				slog.String("object", name),
				slog.String("error", rmErr.Error()),
			)
		}
		return "", fmt.Errorf("recording avatar object: %w", err)
	}

	user.AvatarURL = publicURL(name)
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return "", fmt.Errorf("updating profile avatar url: %w", err)
	}

	if previous != "" && previous != name {
		if err := s.store.Remove(previous); err != nil {
			s.logger.Warn("failed to remove replaced avatar object",
				slog.String("object", previous),
				slog.String("error", err.Error()),
			)
		}
	}

	return user.AvatarURL, nil
}

// AvatarURL resolves a user's avatar to its public URL, "" when none is set.
func (s *AvatarService) AvatarURL(ctx context.Context, userID string) (string, error) {
	name, err := s.avatars.GetAvatarObject(ctx, userID)
	if err != nil {
		return "", err
	}
	return publicURL(name), nil
}
