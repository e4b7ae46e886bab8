// Copyright (C) 2025 the jh maintainers
// See root-dir/LICENSE for more information

package db

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/JosuX/jh/internal/model"
)

var (
	ErrGuestNotFound = errors.New("guest not found")
	ErrDuplicateCode = errors.New("guest code already exists")
)

type GuestStore interface {
	CreateGuest(context.Context, *model.Guest) (uuid.UUID, error)
	UpdateGuest(context.Context, *model.Guest) error
	ListGuests(context.Context) ([]*model.Guest, error)
	GetGuestByID(context.Context, uuid.UUID) (*model.Guest, error)
	GetGuestByCode(context.Context, string) (*model.Guest, error)
}
