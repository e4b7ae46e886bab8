// Copyright (C) 2025 the jh maintainers
// See root-dir/LICENSE for more information

package model

import (
	"time"

	"github.com/google/uuid"
)

// Session binds a guest to a single logged-in device. There is at most one
// live session per guest, it never expires and is only removed by an admin.
type Session struct {
	ID        uuid.UUID  `json:"id"`
	GuestID   uuid.UUID  `json:"guestId"`
	Token     string     `json:"token"`
	CreatedAt *time.Time `json:"createdAt"`
}
