package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/codewaltz/codewaltz/internal/apperror"
	"github.com/codewaltz/codewaltz/internal/auth"
	"github.com/codewaltz/codewaltz/internal/model"
	"github.com/codewaltz/codewaltz/internal/repository"
)

// MinPasswordLength is the shortest password Register and profile updates
// accept.
const MinPasswordLength = 8

// AuthService implements account lifecycle: email/password registration and
// sign-in, GitHub sign-in, and profile metadata updates. Token issuance
// stays in the handler; this layer only decides whether a session may be
// created.
type AuthService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(users repository.UserRepository, passwords *auth.PasswordService, logger *slog.Logger) *AuthService {
	return &AuthService{users: users, passwords: passwords, logger: logger}
}

// ProfileUpdate carries the optional fields of a metadata update. Nil means
// "leave unchanged"; a pointer to the empty string clears the field where
// clearing is allowed.
type ProfileUpdate struct {
	Username *string
	Email    *string
	Password *string
}

// Register creates an email/password account. The email must look like an
// address and not be taken; the password must meet the minimum length.
func (s *AuthService) Register(ctx context.Context, email, password, username string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperror.ValidationFailed("email", "a valid email address is required")
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", "password is not usable")
	}

	user := &model.User{
		Email:        email,
		Username:     strings.TrimSpace(username),
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("registering user: %w", err)
	}

	s.logger.Info("user registered", slog.String("userID", user.ID))
	return user, nil
}

// Login verifies an email/password pair. Unknown email and wrong password
// produce the same error so the response does not leak which emails exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}
	if user.PasswordHash == "" {
		// GitHub-only account; no password to check
		return nil, apperror.Unauthorized("invalid email or password")
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}
	return user, nil
}

// LoginGitHub upserts the account for a completed GitHub OAuth exchange and
// returns it. The GitHub login doubles as the display name on first sign-in.
func (s *AuthService) LoginGitHub(ctx context.Context, gh *auth.GitHubUser) (*model.User, error) {
	user := &model.User{
		GitHubID:  gh.ID,
		Username:  gh.Login,
		Email:     strings.ToLower(gh.Email),
		AvatarURL: gh.AvatarURL,
	}
	if err := s.users.UpsertGitHubUser(ctx, user); err != nil {
		return nil, fmt.Errorf("upserting github user: %w", err)
	}

	s.logger.Info("user authenticated via github",
		slog.String("userID", user.ID),
		slog.Int64("githubID", gh.ID),
	)
	return user, nil
}

// Me returns the account for a validated session.
func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

// UpdateProfile applies a metadata update to the session user's account.
// Display name may be cleared; email and password may only be replaced with
// valid values.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.Username != nil {
		user.Username = strings.TrimSpace(*update.Username)
	}
	if update.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*update.Email))
		if email == "" || !strings.Contains(email, "@") {
			return nil, apperror.ValidationFailed("email", "a valid email address is required")
		}
		user.Email = email
	}
	if update.Password != nil {
		if len(*update.Password) < MinPasswordLength {
			return nil, apperror.ValidationFailed("password",
				fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
		}
		hash, err := s.passwords.Hash(*update.Password)
		if err != nil {
			return nil, apperror.ValidationFailed("password", "password is not usable")
		}
		user.PasswordHash = hash
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	return user, nil
}
