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

// Sessions are keyed by guest ID, so the bucket itself can hold at most one
// record per guest. The token index maps a bearer token back to that key.
const (
	bucketSession    = "session_store"
	bucketTokenIndex = "session_token_index"
)

func NewSessionStore(bdb *bolt.DB) (*SessionStore, error) {
	return &SessionStore{db: bdb}, bdb.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketSession)); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists([]byte(bucketTokenIndex))
		return err
	})
}

type SessionStore struct {
	db *bolt.DB
}

func (s *SessionStore) CreateSession(ctx context.Context, session *model.Session) (uuid.UUID, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "SessionStore.CreateSession")
	defer span.End()

	if session.GuestID == uuid.Nil {
		err := errors.New("guest ID is required for a session")
		span.RecordError(err)
		return uuid.Nil, err
	}
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if session.CreatedAt == nil {
		now := time.Now()
		session.CreatedAt = &now
	}

	j, err := json.Marshal(session)
	if err != nil {
		return uuid.Nil, err
	}

	span.AddEvent("Update bucket")
	return session.ID, s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketSession))
		idx := tx.Bucket([]byte(bucketTokenIndex))

		// Last writer wins on a concurrent double-login; drop the stale
		// token entry so the index never dangles.
		if res := bucket.Get(session.GuestID[:]); res != nil {
			prev := &model.Session{}
			if err := json.Unmarshal(res, prev); err != nil {
				return err
			}
			if err := idx.Delete([]byte(prev.Token)); err != nil {
				return err
			}
		}

		if err := bucket.Put(session.GuestID[:], j); err != nil {
			return err
		}
		return idx.Put([]byte(session.Token), session.GuestID[:])
	})
}

func (s *SessionStore) GetSessionByToken(ctx context.Context, token string) (*model.Session, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "SessionStore.GetSessionByToken")
	defer span.End()

	span.AddEvent("View bucket")
	session := &model.Session{}
	return session, s.db.View(func(tx *bolt.Tx) error {
		guestID := tx.Bucket([]byte(bucketTokenIndex)).Get([]byte(token))
		if guestID == nil {
			span.RecordError(db.ErrSessionNotFound)
			return db.ErrSessionNotFound
		}
		res := tx.Bucket([]byte(bucketSession)).Get(guestID)
		if res == nil {
			span.RecordError(db.ErrSessionNotFound)
			return db.ErrSessionNotFound
		}
		return json.Unmarshal(res, session)
	})
}

func (s *SessionStore) GetSessionByGuest(ctx context.Context, guestID uuid.UUID) (*model.Session, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "SessionStore.GetSessionByGuest")
	defer span.End()

	span.AddEvent("View bucket")
	session := &model.Session{}
	return session, s.db.View(func(tx *bolt.Tx) error {
		res := tx.Bucket([]byte(bucketSession)).Get(guestID[:])
		if res == nil {
			span.RecordError(db.ErrSessionNotFound)
			return db.ErrSessionNotFound
		}
		return json.Unmarshal(res, session)
	})
}

func (s *SessionStore) DeleteSessionsByGuest(ctx context.Context, guestID uuid.UUID) (int, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "SessionStore.DeleteSessionsByGuest")
	defer span.End()

	span.AddEvent("Update bucket")
	deleted := 0
	return deleted, s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketSession))
		res := bucket.Get(guestID[:])
		if res == nil {
			return nil
		}
		session := &model.Session{}
		if err := json.Unmarshal(res, session); err != nil {
			return err
		}
		if err := tx.Bucket([]byte(bucketTokenIndex)).Delete([]byte(session.Token)); err != nil {
			return err
		}
		if err := bucket.Delete(guestID[:]); err != nil {
			return err
		}
		deleted = 1
		return nil
	})
}
