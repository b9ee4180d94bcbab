// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Accounts come from two places: email/password registration and GitHub OAuth.
// We always generate our own internal string ID (xid) so primary keys are not
// tied to either identity provider's numbering scheme.
//
// WHY GitHubID int64?
// GitHub user IDs are integers. Using int64 avoids overflow for large account
// numbers; zero means "no GitHub account linked". The UNIQUE constraint on
// github_id in the DB ensures one GitHub account maps to exactly one app account.
//
// Username is the public display name stamped onto snippets and comments as
// the author. It may be empty for a fresh account — creating a snippet is
// rejected until the user sets one (comments fall back to email, then
// "Anonymous").
type User struct {
	ID           string    `json:"id"        db:"id"`
	Email        string    `json:"email"     db:"email"`
	Username     string    `json:"username"  db:"username"`
	PasswordHash string    `json:"-"         db:"password_hash"` // never serialised
	GitHubID     int64     `json:"githubId,omitempty" db:"github_id"`
	AvatarURL    string    `json:"avatarUrl" db:"avatar_url"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// DisplayName returns the name to stamp as author on new comments:
// username, falling back to email, falling back to "Anonymous".
func (u *User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	if u.Email != "" {
		return u.Email
	}
	return "Anonymous"
}
