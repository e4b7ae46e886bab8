// Copyright (C) 2025 the jh maintainers
// See root-dir/LICENSE for more information

package kvdb

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
	"go.opentelemetry.io/otel/trace"

	"github.com/JosuX/jh/internal/db"
	"github.com/JosuX/jh/internal/model"
)

const (
	bucketGuest     = "guest_store"
	bucketCodeIndex = "guest_code_index"
)

func NewGuestStore(bdb *bolt.DB) (*GuestStore, error) {
	return &GuestStore{db: bdb}, bdb.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketGuest)); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists([]byte(bucketCodeIndex))
		return err
	})
}

type GuestStore struct {
	db *bolt.DB
}

func (g *GuestStore) CreateGuest(ctx context.Context, guest *model.Guest) (uuid.UUID, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "GuestStore.CreateGuest")
	defer span.End()

	if guest.ID == uuid.Nil {
		span.AddEvent("uuid is nil, generate a new id")
		guest.ID = uuid.New()
	}
	guest.Code = model.NormalizeCode(guest.Code)
	if guest.CreatedAt == nil {
		now := time.Now()
		guest.CreatedAt = &now
	}

	j, err := json.Marshal(guest)
	if err != nil {
		return uuid.Nil, err
	}

	span.AddEvent("Update bucket")
	return guest.ID, g.db.Update(func(tx *bolt.Tx) error {
		idx := tx.Bucket([]byte(bucketCodeIndex))
		if idx.Get([]byte(guest.Code)) != nil {
			span.RecordError(db.ErrDuplicateCode)
			return db.ErrDuplicateCode
		}
		if err := tx.Bucket([]byte(bucketGuest)).Put(guest.ID[:], j); err != nil {
			return err
		}
		return idx.Put([]byte(guest.Code), guest.ID[:])
	})
}

func (g *GuestStore) UpdateGuest(ctx context.Context, guest *model.Guest) error {
	var span trace.Span
	_, span = tracer.Start(ctx, "GuestStore.UpdateGuest")
	defer span.End()

	if guest.ID == uuid.Nil {
		err := errors.New("guest ID is required for updating")
		span.RecordError(err)
		return err
	}
	guest.Code = model.NormalizeCode(guest.Code)
	now := time.Now()
	guest.UpdatedAt = &now

	j, err := json.Marshal(guest)
	if err != nil {
		return err
	}

	span.AddEvent("Update bucket")
	return g.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketGuest))
		res := bucket.Get(guest.ID[:])
		if res == nil {
			span.RecordError(db.ErrGuestNotFound)
			return db.ErrGuestNotFound
		}

		prev := &model.Guest{}
		if err := json.Unmarshal(res, prev); err != nil {
			return err
		}
		if prev.Code != guest.Code {
			idx := tx.Bucket([]byte(bucketCodeIndex))
			if idx.Get([]byte(guest.Code)) != nil {
				span.RecordError(db.ErrDuplicateCode)
				return db.ErrDuplicateCode
			}
			if err := idx.Delete([]byte(prev.Code)); err != nil {
				return err
			}
			if err := idx.Put([]byte(guest.Code), guest.ID[:]); err != nil {
				return err
			}
		}
		return bucket.Put(guest.ID[:], j)
	})
}

func (g *GuestStore) ListGuests(ctx context.Context) ([]*model.Guest, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "GuestStore.ListGuests")
	defer span.End()

	span.AddEvent("View bucket")
	var guests []*model.Guest
	return guests, g.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketGuest))
		return bucket.ForEach(func(_, v []byte) error {
			guest := &model.Guest{}
			if err := json.Unmarshal(v, guest); err != nil {
				span.RecordError(err)
				return err
			}
			guests = append(guests, guest)
			return nil
		})
	})
}

func (g *GuestStore) GetGuestByID(ctx context.Context, guestID uuid.UUID) (*model.Guest, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "GuestStore.GetGuestByID")
	defer span.End()

	span.AddEvent("View bucket")
	guest := &model.Guest{}
	return guest, g.db.View(func(tx *bolt.Tx) error {
		res := tx.Bucket([]byte(bucketGuest)).Get(guestID[:])
		if res == nil {
			span.RecordError(db.ErrGuestNotFound)
			return db.ErrGuestNotFound
		}
		return json.Unmarshal(res, guest)
	})
}

func (g *GuestStore) GetGuestByCode(ctx context.Context, code string) (*model.Guest, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "GuestStore.GetGuestByCode")
	defer span.End()

	code = model.NormalizeCode(code)
	span.AddEvent("View bucket")
	guest := &model.Guest{}
	return guest, g.db.View(func(tx *bolt.Tx) error {
		id := tx.Bucket([]byte(bucketCodeIndex)).Get([]byte(code))
		if id == nil {
			span.RecordError(db.ErrGuestNotFound)
			return db.ErrGuestNotFound
		}
		res := tx.Bucket([]byte(bucketGuest)).Get(id)
		if res == nil {
			span.RecordError(db.ErrGuestNotFound)
			return db.ErrGuestNotFound
		}
		return json.Unmarshal(res, guest)
	})
}
