package sqlite

import (
	"context"
	"testing"
)

func TestAvatarObjectRoundTrip(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice")
	ctx := context.Background()

	if err := db.SetAvatarObject(ctx, user.ID, "abc123.png"); err != nil {
		t.Fatalf("SetAvatarObject() error = %v", err)
	}

	name, err := db.GetAvatarObject(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetAvatarObject() error = %v", err)
	}
	if name != "abc123.png" {
		t.Errorf("object = %q, want abc123.png", name)
	}

	// A second upload replaces the mapping.
	if err := db.SetAvatarObject(ctx, user.ID, "def456.png"); err != nil {
		t.Fatalf("SetAvatarObject() replace error = %v", err)
	}
	name, _ = db.GetAvatarObject(ctx, user.ID)
	if name != "def456.png" {
		t.Errorf("object after replace = %q, want def456.png", name)
	}
}

func TestGetAvatarObject_NoneSet(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice")

	// No avatar is a normal state, not an error.
	name, err := db.GetAvatarObject(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetAvatarObject() error = %v", err)
	}
	if name != "" {
		t.Errorf("object = %q, want empty", name)
	}
}
