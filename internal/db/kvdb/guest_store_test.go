// Copyright (C) 2025 the jh maintainers
// See root-dir/LICENSE for more information

package kvdb

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/JosuX/jh/internal/db"
	"github.com/JosuX/jh/internal/model"
)

func newTestDB(t *testing.T) *bolt.DB {
	t.Helper()
	bdb, err := bolt.Open(filepath.Join(t.TempDir(), "test.db"), 0o600, nil)
	if err != nil {
		t.Fatalf("open bolt: %v", err)
	}
	t.Cleanup(func() { _ = bdb.Close() })
	return bdb
}

func TestGuestStore_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	store, err := NewGuestStore(newTestDB(t))
	if err != nil {
		t.Fatalf("NewGuestStore: %v", err)
	}

	guest := &model.Guest{Name: "Jane Doe", Code: "ab12cd"}
	id, err := store.CreateGuest(ctx, guest)
	if err != nil {
		t.Fatalf("CreateGuest: %v", err)
	}
	if id == uuid.Nil {
		t.Fatal("CreateGuest returned nil id")
	}
	if guest.CreatedAt == nil {
		t.Fatal("CreatedAt not set on create")
	}

	byID, err := store.GetGuestByID(ctx, id)
	if err != nil {
		t.Fatalf("GetGuestByID: %v", err)
	}
	if byID.Name != "Jane Doe" {
		t.Errorf("Name = %q, want %q", byID.Name, "Jane Doe")
	}
	if byID.Code != "AB12CD" {
		t.Errorf("Code = %q, want normalized %q", byID.Code, "AB12CD")
	}

	// Lookup is case-insensitive via normalization.
	byCode, err := store.GetGuestByCode(ctx, " ab12cd ")
	if err != nil {
		t.Fatalf("GetGuestByCode: %v", err)
	}
	if byCode.ID != id {
		t.Errorf("GetGuestByCode id = %s, want %s", byCode.ID, id)
	}
}

func TestGuestStore_DuplicateCode(t *testing.T) {
	ctx := context.Background()
	store, err := NewGuestStore(newTestDB(t))
	if err != nil {
		t.Fatalf("NewGuestStore: %v", err)
	}

	if _, err := store.CreateGuest(ctx, &model.Guest{Name: "a", Code: "AB12CD"}); err != nil {
		t.Fatalf("CreateGuest: %v", err)
	}
	_, err = store.CreateGuest(ctx, &model.Guest{Name: "b", Code: "ab12cd"})
	if !errors.Is(err, db.ErrDuplicateCode) {
		t.Fatalf("duplicate create err = %v, want ErrDuplicateCode", err)
	}
}

func TestGuestStore_Update(t *testing.T) {
	ctx := context.Background()
	store, err := NewGuestStore(newTestDB(t))
	if err != nil {
		t.Fatalf("NewGuestStore: %v", err)
	}

	guest := &model.Guest{Name: "Jane Doe", Code: "AB12CD"}
	if _, err := store.CreateGuest(ctx, guest); err != nil {
		t.Fatalf("CreateGuest: %v", err)
	}

	guest.RSVPConfirmed = true
	guest.Status = model.StatusInVenue
	if err := store.UpdateGuest(ctx, guest); err != nil {
		t.Fatalf("UpdateGuest: %v", err)
	}
	if guest.UpdatedAt == nil {
		t.Fatal("UpdatedAt not set on update")
	}

	got, err := store.GetGuestByID(ctx, guest.ID)
	if err != nil {
		t.Fatalf("GetGuestByID: %v", err)
	}
	if !got.RSVPConfirmed {
		t.Error("RSVPConfirmed not persisted")
	}
	if got.Status != model.StatusInVenue {
		t.Errorf("Status = %q, want %q", got.Status, model.StatusInVenue)
	}
}

func TestGuestStore_UpdateUnknown(t *testing.T) {
	ctx := context.Background()
	store, err := NewGuestStore(newTestDB(t))
	if err != nil {
		t.Fatalf("NewGuestStore: %v", err)
	}

	err = store.UpdateGuest(ctx, &model.Guest{ID: uuid.New(), Name: "ghost", Code: "ZZ99ZZ"})
	if !errors.Is(err, db.ErrGuestNotFound) {
		t.Fatalf("update unknown err = %v, want ErrGuestNotFound", err)
	}
}

func TestGuestStore_NotFound(t *testing.T) {
	ctx := context.Background()
	store, err := NewGuestStore(newTestDB(t))
	if err != nil {
		t.Fatalf("NewGuestStore: %v", err)
	}

	if _, err := store.GetGuestByID(ctx, uuid.New()); !errors.Is(err, db.ErrGuestNotFound) {
		t.Fatalf("GetGuestByID err = %v, want ErrGuestNotFound", err)
	}
	if _, err := store.GetGuestByCode(ctx, "NOPE99"); !errors.Is(err, db.ErrGuestNotFound) {
		t.Fatalf("GetGuestByCode err = %v, want ErrGuestNotFound", err)
	}
}

func TestGuestStore_List(t *testing.T) {
	ctx := context.Background()
	store, err := NewGuestStore(newTestDB(t))
	if err != nil {
		t.Fatalf("NewGuestStore: %v", err)
	}

	codes := []string{"AAAAAA", "BBBBBB", "CCCCCC"}
	for _, code := range codes {
		if _, err := store.CreateGuest(ctx, &model.Guest{Name: code, Code: code}); err != nil {
			t.Fatalf("CreateGuest(%s): %v", code, err)
		}
	}

	guests, err := store.ListGuests(ctx)
	if err != nil {
		t.Fatalf("ListGuests: %v", err)
	}
	if len(guests) != len(codes) {
		t.Fatalf("ListGuests returned %d guests, want %d", len(guests), len(codes))
	}
}
