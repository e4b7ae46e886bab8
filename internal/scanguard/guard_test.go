// Copyright (C) 2025 the jh maintainers
// See root-dir/LICENSE for more information

package scanguard

import (
	"testing"
	"time"
)

var t0 = time.Date(2026, time.March, 6, 16, 0, 0, 0, time.UTC)

func TestGuard_FirstScanAccepted(t *testing.T) {
	g := NewDefault()
	if !g.Accept("AB12CD", t0) {
		t.Fatal("first scan must be accepted")
	}
	if !g.InFlight() {
		t.Fatal("guard must be in flight after accept")
	}
}

func TestGuard_InFlightSuppressesEverything(t *testing.T) {
	g := NewDefault()
	if !g.Accept("AB12CD", t0) {
		t.Fatal("first scan must be accepted")
	}

	// While the round-trip is outstanding nothing passes, not even a
	// different code.
	if g.Accept("AB12CD", t0.Add(100*time.Millisecond)) {
		t.Error("same code accepted while in flight")
	}
	if g.Accept("ZZ99ZZ", t0.Add(200*time.Millisecond)) {
		t.Error("different code accepted while in flight")
	}
}

func TestGuard_SettleHold(t *testing.T) {
	g := NewDefault()
	if !g.Accept("AB12CD", t0) {
		t.Fatal("first scan must be accepted")
	}
	settled := t0.Add(500 * time.Millisecond)
	g.Settle(settled)

	if g.Accept("ZZ99ZZ", settled.Add(DefaultSettleHold-time.Millisecond)) {
		t.Error("accepted during settle hold")
	}
	if !g.Accept("ZZ99ZZ", settled.Add(DefaultSettleHold)) {
		t.Error("different code suppressed after settle hold")
	}
}

func TestGuard_SameCodeCooldown(t *testing.T) {
	g := NewDefault()
	if !g.Accept("AB12CD", t0) {
		t.Fatal("first scan must be accepted")
	}
	g.Settle(t0.Add(100 * time.Millisecond))

	// Past the settle hold but inside the per-code cooldown.
	at := t0.Add(2 * time.Second)
	if g.Accept("AB12CD", at) {
		t.Error("same code accepted inside cooldown window")
	}

	// A different code passes immediately at the same instant.
	if !g.Accept("ZZ99ZZ", at) {
		t.Error("different code suppressed by another code's cooldown")
	}
}

func TestGuard_SameCodeAfterCooldown(t *testing.T) {
	g := NewDefault()
	if !g.Accept("AB12CD", t0) {
		t.Fatal("first scan must be accepted")
	}
	g.Settle(t0.Add(100 * time.Millisecond))

	if !g.Accept("AB12CD", t0.Add(DefaultCooldown)) {
		t.Error("same code suppressed after cooldown expired")
	}
}

func TestGuard_SettleAfterFailureReopens(t *testing.T) {
	g := New(time.Second, 0)
	if !g.Accept("AB12CD", t0) {
		t.Fatal("first scan must be accepted")
	}
	// The request failed; Settle still runs, and with no hold a new code is
	// accepted immediately.
	g.Settle(t0.Add(300 * time.Millisecond))
	if !g.Accept("ZZ99ZZ", t0.Add(300*time.Millisecond)) {
		t.Error("guard stayed closed after settle with zero hold")
	}
}

func TestGuard_DecisionSequence(t *testing.T) {
	type step struct {
		at     time.Duration
		code   string
		settle bool
		want   bool
	}
	tt := []struct {
		name  string
		steps []step
	}{
		{
			name: "card held in frame",
			steps: []step{
				{at: 0, code: "AB12CD", want: true},
				{at: 100 * time.Millisecond, settle: true},
				{at: 200 * time.Millisecond, code: "AB12CD", want: false}, // settle hold
				{at: 2 * time.Second, code: "AB12CD", want: false},        // cooldown
				{at: 3100 * time.Millisecond, code: "AB12CD", want: true}, // cooldown over
			},
		},
		{
			name: "second guest steps up",
			steps: []step{
				{at: 0, code: "AB12CD", want: true},
				{at: 100 * time.Millisecond, settle: true},
				{at: 2 * time.Second, code: "ZZ99ZZ", want: true},
				{at: 2100 * time.Millisecond, settle: true},
				{at: 4 * time.Second, code: "AB12CD", want: true},
			},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			g := NewDefault()
			for i, s := range tc.steps {
				now := t0.Add(s.at)
				if s.settle {
					g.Settle(now)
					continue
				}
				if got := g.Accept(s.code, now); got != s.want {
					t.Fatalf("step %d: Accept(%q) = %v, want %v", i, s.code, got, s.want)
				}
			}
		})
	}
}
