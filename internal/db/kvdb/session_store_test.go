// Copyright (C) 2025 the jh maintainers
// See root-dir/LICENSE for more information

package kvdb

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/JosuX/jh/internal/db"
	"github.com/JosuX/jh/internal/model"
)

func TestSessionStore_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	store, err := NewSessionStore(newTestDB(t))
	if err != nil {
		t.Fatalf("NewSessionStore: %v", err)
	}

	guestID := uuid.New()
	session := &model.Session{GuestID: guestID, Token: "token-a"}
	if _, err := store.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if session.ID == uuid.Nil {
		t.Fatal("session ID not assigned")
	}
	if session.CreatedAt == nil {
		t.Fatal("CreatedAt not set")
	}

	byToken, err := store.GetSessionByToken(ctx, "token-a")
	if err != nil {
		t.Fatalf("GetSessionByToken: %v", err)
	}
	if byToken.GuestID != guestID {
		t.Errorf("GuestID = %s, want %s", byToken.GuestID, guestID)
	}

	byGuest, err := store.GetSessionByGuest(ctx, guestID)
	if err != nil {
		t.Fatalf("GetSessionByGuest: %v", err)
	}
	if byGuest.Token != "token-a" {
		t.Errorf("Token = %q, want %q", byGuest.Token, "token-a")
	}
}

func TestSessionStore_NotFound(t *testing.T) {
	ctx := context.Background()
	store, err := NewSessionStore(newTestDB(t))
	if err != nil {
		t.Fatalf("NewSessionStore: %v", err)
	}

	if _, err := store.GetSessionByToken(ctx, "missing"); !errors.Is(err, db.ErrSessionNotFound) {
		t.Fatalf("GetSessionByToken err = %v, want ErrSessionNotFound", err)
	}
	if _, err := store.GetSessionByGuest(ctx, uuid.New()); !errors.Is(err, db.ErrSessionNotFound) {
		t.Fatalf("GetSessionByGuest err = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionStore_Delete(t *testing.T) {
	ctx := context.Background()
	store, err := NewSessionStore(newTestDB(t))
	if err != nil {
		t.Fatalf("NewSessionStore: %v", err)
	}

	guestID := uuid.New()
	if _, err := store.CreateSession(ctx, &model.Session{GuestID: guestID, Token: "token-b"}); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	n, err := store.DeleteSessionsByGuest(ctx, guestID)
	if err != nil {
		t.Fatalf("DeleteSessionsByGuest: %v", err)
	}
	if n != 1 {
		t.Fatalf("deleted = %d, want 1", n)
	}

	if _, err := store.GetSessionByToken(ctx, "token-b"); !errors.Is(err, db.ErrSessionNotFound) {
		t.Fatalf("token still resolves after delete: %v", err)
	}

	// Deleting again reports zero rather than erroring.
	n, err = store.DeleteSessionsByGuest(ctx, guestID)
	if err != nil {
		t.Fatalf("second DeleteSessionsByGuest: %v", err)
	}
	if n != 0 {
		t.Fatalf("second delete = %d, want 0", n)
	}
}

func TestSessionStore_ReplaceDropsStaleToken(t *testing.T) {
	ctx := context.Background()
	store, err := NewSessionStore(newTestDB(t))
	if err != nil {
		t.Fatalf("NewSessionStore: %v", err)
	}

	guestID := uuid.New()
	if _, err := store.CreateSession(ctx, &model.Session{GuestID: guestID, Token: "old"}); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := store.CreateSession(ctx, &model.Session{GuestID: guestID, Token: "new"}); err != nil {
		t.Fatalf("second CreateSession: %v", err)
	}

	if _, err := store.GetSessionByToken(ctx, "old"); !errors.Is(err, db.ErrSessionNotFound) {
		t.Fatalf("stale token still resolves: %v", err)
	}
	got, err := store.GetSessionByToken(ctx, "new")
	if err != nil {
		t.Fatalf("GetSessionByToken(new): %v", err)
	}
	if got.GuestID != guestID {
		t.Errorf("GuestID = %s, want %s", got.GuestID, guestID)
	}
}
