// Package storage implements the avatar object store on the local
// filesystem. Object names are opaque and server-assigned; the files are
// served as public assets under /avatars/.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/xid"
)

// MaxAvatarBytes caps an uploaded avatar. Large images belong in an image
// pipeline, not next to the database.
const MaxAvatarBytes = 2 << 20

// AvatarStore writes avatar objects under a single directory.
type AvatarStore struct {
	dir string
}

// NewAvatarStore creates the directory if needed and returns the store.
func NewAvatarStore(dir string) (*AvatarStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: creating avatar dir: %w", err)
	}
	return &AvatarStore{dir: dir}, nil
}

// Dir returns the directory objects are stored in, for static file serving.
func (s *AvatarStore) Dir() string { return s.dir }

// Save streams one upload to a freshly named object and returns the object
// name. Uploads over MaxAvatarBytes are rejected and nothing is kept.
func (s *AvatarStore) Save(r io.Reader, ext string) (string, error) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext != "png" && ext != "jpg" && ext != "jpeg" && ext != "gif" && ext != "webp" {
		return "", fmt.Errorf("storage: unsupported avatar extension %q", ext)
	}

	name := xid.New().String() + "." + ext
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("storage: creating avatar object: %w", err)
	}

	// one byte of headroom to detect oversize without reading it all
	n, err := io.Copy(f, io.LimitReader(r, MaxAvatarBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("storage: writing avatar object: %w", err)
	}
	if n > MaxAvatarBytes {
		os.Remove(path)
		return "", fmt.Errorf("storage: avatar exceeds %d bytes", MaxAvatarBytes)
	}

	return name, nil
}

// Remove deletes one object. A missing object is not an error; replacement
// cleanup races are harmless.
func (s *AvatarStore) Remove(name string) error {
	if !validObjectName(name) {
		return fmt.Errorf("storage: invalid object name %q", name)
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: removing avatar object: %w", err)
	}
	return nil
}

// validObjectName rejects anything that could escape the store directory.
// Names are always store-assigned, so anything else is hostile input.
func validObjectName(name string) bool {
	return name != "" && !strings.ContainsAny(name, `/\`) && !strings.Contains(name, "..")
}
