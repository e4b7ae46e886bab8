// Copyright (C) 2025 the jh maintainers
// See root-dir/LICENSE for more information

package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status is the physical check-in state of a guest. The zero value means the
// guest has not arrived and renders as JSON null, mirroring the nullable
// column it is stored in.
type Status string

const StatusInVenue Status = "in_venue"

func (s Status) MarshalJSON() ([]byte, error) {
	if s == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(s))
}

func (s *Status) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = ""
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = Status(v)
	return nil
}

type Guest struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Code          string     `json:"code"`
	Status        Status     `json:"status"`
	RSVPConfirmed bool       `json:"rsvpConfirmed"`
	CreatedAt     *time.Time `json:"createdAt"`
	UpdatedAt     *time.Time `json:"updatedAt"`
}

// GuestStats are derived on read from the guest collection, never stored.
type GuestStats struct {
	Total         int `json:"total"`
	RSVPConfirmed int `json:"rsvpConfirmed"`
	InVenue       int `json:"inVenue"`
	Pending       int `json:"pending"`
}

func ComputeStats(guests []*Guest) GuestStats {
	stats := GuestStats{Total: len(guests)}
	for _, g := range guests {
		if g.RSVPConfirmed {
			stats.RSVPConfirmed++
		}
		if g.Status == StatusInVenue {
			stats.InVenue++
		}
	}
	stats.Pending = stats.Total - stats.RSVPConfirmed
	return stats
}
