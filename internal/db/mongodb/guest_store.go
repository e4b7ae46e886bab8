// Copyright (C) 2025 the jh maintainers
// See root-dir/LICENSE for more information

// Package mongodb implements the store interfaces against MongoDB, the
// backend the guest list was originally hosted on. Documents keep their own
// bson shapes so the wire model stays independent of the database layout.
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

const collectionGuests = "guests"

type guestDoc struct {
	ID            string    `bson:"_id"`
	Name          string    `bson:"name"`
	Code          string    `bson:"code"`
	Status        *string   `bson:"status"`
	RSVPConfirmed bool      `bson:"rsvpConfirmed"`
	CreatedAt     time.Time `bson:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt"`
}

func guestToDoc(guest *model.Guest) *guestDoc {
	doc := &guestDoc{
		ID:            guest.ID.String(),
		Name:          guest.Name,
		Code:          guest.Code,
		RSVPConfirmed: guest.RSVPConfirmed,
	}
	if guest.Status != "" {
		status := string(guest.Status)
		doc.Status = &status
	}
	if guest.CreatedAt != nil {
		doc.CreatedAt = *guest.CreatedAt
	}
	if guest.UpdatedAt != nil {
		doc.UpdatedAt = *guest.UpdatedAt
	}
	return doc
}

func (d *guestDoc) toModel() (*model.Guest, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}
	guest := &model.Guest{
		ID:            id,
		Name:          d.Name,
		Code:          d.Code,
		RSVPConfirmed: d.RSVPConfirmed,
	}
	if d.Status != nil {
		guest.Status = model.Status(*d.Status)
	}
	if !d.CreatedAt.IsZero() {
		createdAt := d.CreatedAt
		guest.CreatedAt = &createdAt
	}
	if !d.UpdatedAt.IsZero() {
		updatedAt := d.UpdatedAt
		guest.UpdatedAt = &updatedAt
	}
	return guest, nil
}

func NewGuestStore(ctx context.Context, mdb *mongo.Database) (*GuestStore, error) {
	col := mdb.Collection(collectionGuests)
	_, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "code", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return &GuestStore{col: col}, err
}

type GuestStore struct {
	col *mongo.Collection
}

func (g *GuestStore) CreateGuest(ctx context.Context, guest *model.Guest) (uuid.UUID, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "GuestStore.CreateGuest")
	defer span.End()

	if guest.ID == uuid.Nil {
		guest.ID = uuid.New()
	}
	guest.Code = model.NormalizeCode(guest.Code)
	if guest.CreatedAt == nil {
		now := time.Now()
		guest.CreatedAt = &now
	}

	if _, err := g.col.InsertOne(ctx, guestToDoc(guest)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			span.RecordError(db.ErrDuplicateCode)
			return uuid.Nil, db.ErrDuplicateCode
		}
		span.RecordError(err)
		return uuid.Nil, err
	}
	return guest.ID, nil
}

func (g *GuestStore) UpdateGuest(ctx context.Context, guest *model.Guest) error {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "GuestStore.UpdateGuest")
	defer span.End()

	if guest.ID == uuid.Nil {
		err := errors.New("guest ID is required for updating")
		span.RecordError(err)
		return err
	}
	guest.Code = model.NormalizeCode(guest.Code)
	now := time.Now()
	guest.UpdatedAt = &now

	doc := guestToDoc(guest)
	res, err := g.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			span.RecordError(db.ErrDuplicateCode)
			return db.ErrDuplicateCode
		}
		span.RecordError(err)
		return err
	}
	if res.MatchedCount == 0 {
		span.RecordError(db.ErrGuestNotFound)
		return db.ErrGuestNotFound
	}
	return nil
}

func (g *GuestStore) ListGuests(ctx context.Context) ([]*model.Guest, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "GuestStore.ListGuests")
	defer span.End()

	cursor, err := g.col.Find(ctx, bson.M{})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer cursor.Close(ctx)

	var guests []*model.Guest
	for cursor.Next(ctx) {
		doc := &guestDoc{}
		if err := cursor.Decode(doc); err != nil {
			span.RecordError(err)
			return nil, err
		}
		guest, err := doc.toModel()
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		guests = append(guests, guest)
	}
	return guests, cursor.Err()
}

func (g *GuestStore) GetGuestByID(ctx context.Context, guestID uuid.UUID) (*model.Guest, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "GuestStore.GetGuestByID")
	defer span.End()

	return g.findOne(ctx, span, bson.M{"_id": guestID.String()})
}

func (g *GuestStore) GetGuestByCode(ctx context.Context, code string) (*model.Guest, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "GuestStore.GetGuestByCode")
	defer span.End()

	return g.findOne(ctx, span, bson.M{"code": model.NormalizeCode(code)})
}

func (g *GuestStore) findOne(ctx context.Context, span trace.Span, filter bson.M) (*model.Guest, error) {
	doc := &guestDoc{}
	if err := g.col.FindOne(ctx, filter).Decode(doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			span.RecordError(db.ErrGuestNotFound)
			return nil, db.ErrGuestNotFound
		}
		span.RecordError(err)
		return nil, err
	}
	return doc.toModel()
}
