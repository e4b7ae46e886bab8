// Copyright (C) 2025 the jh maintainers
// See root-dir/LICENSE for more information

// Package scanguard decides whether a decoded QR text may be submitted to the
// scan endpoint. A live camera feed decodes the same code many times per
// second, so submissions are gated by two independent rules: an exclusive
// in-flight window covering the network round-trip plus a short settle hold,
// and a per-code cooldown that keeps a card sitting in frame from hammering
// the endpoint. A different code is accepted as soon as nothing is in flight.
//
// The browser scanner in internal/server/static/js/scan.js applies the same
// decision table; this package is the reference the tests pin down.
package scanguard

import "time"

const (
	// DefaultCooldown suppresses resubmission of the same decoded text.
	DefaultCooldown = 3 * time.Second
	// DefaultSettleHold keeps the guard closed after a request settles,
	// long enough for the operator to read the result.
	DefaultSettleHold = 1500 * time.Millisecond
)

type Guard struct {
	cooldown time.Duration
	hold     time.Duration

	inFlight  bool
	lastCode  string
	lastAt    time.Time
	holdUntil time.Time
}

func New(cooldown, hold time.Duration) *Guard {
	return &Guard{cooldown: cooldown, hold: hold}
}

func NewDefault() *Guard {
	return New(DefaultCooldown, DefaultSettleHold)
}

// Accept reports whether the decoded code may be submitted now. On accept the
// guard marks itself in flight; the caller must invoke Settle once the
// request completes, success or failure.
func (g *Guard) Accept(code string, now time.Time) bool {
	if g.inFlight {
		return false
	}
	if now.Before(g.holdUntil) {
		return false
	}
	if code == g.lastCode && now.Sub(g.lastAt) < g.cooldown {
		return false
	}
	g.inFlight = true
	g.lastCode = code
	g.lastAt = now
	return true
}

// Settle records that the in-flight request finished and opens the guard
// again after the settle hold.
func (g *Guard) Settle(now time.Time) {
	g.inFlight = false
	g.holdUntil = now.Add(g.hold)
}

// InFlight reports whether a submission is currently outstanding.
func (g *Guard) InFlight() bool {
	return g.inFlight
}
