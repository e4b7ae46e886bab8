// Copyright (C) 2025 the jh maintainers
// See root-dir/LICENSE for more information

package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/trace"

	"github.com/JosuX/jh/internal/db"
	"github.com/JosuX/jh/internal/model"
)

const collectionSessions = "sessions"

type sessionDoc struct {
	ID        string    `bson:"_id"`
	GuestID   string    `bson:"guestId"`
	Token     string    `bson:"token"`
	CreatedAt time.Time `bson:"createdAt"`
}

func (d *sessionDoc) toModel() (*model.Session, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}
	guestID, err := uuid.Parse(d.GuestID)
	if err != nil {
		return nil, err
	}
	session := &model.Session{ID: id, GuestID: guestID, Token: d.Token}
	if !d.CreatedAt.IsZero() {
		createdAt := d.CreatedAt
		session.CreatedAt = &createdAt
	}
	return session, nil
}

func NewSessionStore(ctx context.Context, mdb *mongo.Database) (*SessionStore, error) {
	col := mdb.Collection(collectionSessions)
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "guestId", Value: 1}},
		},
	})
	return &SessionStore{col: col}, err
}

type SessionStore struct {
	col *mongo.Collection
}

func (s *SessionStore) CreateSession(ctx context.Context, session *model.Session) (uuid.UUID, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "SessionStore.CreateSession")
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

	doc := &sessionDoc{
		ID:        session.ID.String(),
		GuestID:   session.GuestID.String(),
		Token:     session.Token,
		CreatedAt: *session.CreatedAt,
	}
	if _, err := s.col.InsertOne(ctx, doc); err != nil {
		span.RecordError(err)
		return uuid.Nil, err
	}
	return session.ID, nil
}

func (s *SessionStore) GetSessionByToken(ctx context.Context, token string) (*model.Session, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "SessionStore.GetSessionByToken")
	defer span.End()

	return s.findOne(ctx, span, bson.M{"token": token})
}

func (s *SessionStore) GetSessionByGuest(ctx context.Context, guestID uuid.UUID) (*model.Session, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "SessionStore.GetSessionByGuest")
	defer span.End()

	return s.findOne(ctx, span, bson.M{"guestId": guestID.String()})
}

func (s *SessionStore) DeleteSessionsByGuest(ctx context.Context, guestID uuid.UUID) (int, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "SessionStore.DeleteSessionsByGuest")
	defer span.End()

	res, err := s.col.DeleteMany(ctx, bson.M{"guestId": guestID.String()})
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	return int(res.DeletedCount), nil
}

func (s *SessionStore) findOne(ctx context.Context, span trace.Span, filter bson.M) (*model.Session, error) {
	doc := &sessionDoc{}
	if err := s.col.FindOne(ctx, filter).Decode(doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			span.RecordError(db.ErrSessionNotFound)
			return nil, db.ErrSessionNotFound
		}
		span.RecordError(err)
		return nil, err
	}
	return doc.toModel()
}
