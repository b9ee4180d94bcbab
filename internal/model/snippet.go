// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Snippet represents a stored unit of author-submitted code with its metadata.
//
// The `json:"..."` tags control how encoding/json serialises the struct for the
// API; the `db:"..."` tags document the column each field maps to.
//
// UserID is the owning-user identifier. It is set by the server on create and
// never changes afterwards — every update and delete is scoped to it, so a
// caller can only ever mutate their own rows.
//
// Language is a free-form tag ("python", "go", "jsx", ...). It drives syntax
// highlighting in clients and the language filter on list views; the server
// does not validate it against a fixed set.
type Snippet struct {
	ID            string    `json:"id"             db:"id"`
	Title         string    `json:"title"          db:"title"`
	Language      string    `json:"language"       db:"language"`
	Code          string    `json:"code"           db:"code"`
	Author        string    `json:"author"         db:"author"` // display name at creation time
	UserID        string    `json:"user_id"        db:"user_id"`
	LikesCount    int       `json:"likes_count"    db:"likes_count"`
	SharesCount   int       `json:"shares_count"   db:"shares_count"`
	CommentsCount int       `json:"comments_count" db:"comments_count"`
	CreatedAt     time.Time `json:"created_at"     db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"     db:"updated_at"`
}
