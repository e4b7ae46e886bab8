// Copyright (C) 2025 the jh maintainers
// See root-dir/LICENSE for more information

package db

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/JosuX/jh/internal/model"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionStore interface {
	CreateSession(context.Context, *model.Session) (uuid.UUID, error)
	GetSessionByToken(context.Context, string) (*model.Session, error)
	GetSessionByGuest(context.Context, uuid.UUID) (*model.Session, error)
	// DeleteSessionsByGuest removes all sessions bound to the guest and
	// reports how many were removed. A guest without sessions is not an
	// error.
	DeleteSessionsByGuest(context.Context, uuid.UUID) (int, error)
}
