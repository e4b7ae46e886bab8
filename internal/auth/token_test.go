// Copyright (C) 2025 the jh maintainers
// See root-dir/LICENSE for more information

package auth

import "testing"

func TestNewToken(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		token, err := NewToken()
		if err != nil {
			t.Fatalf("NewToken: %v", err)
		}
		if len(token) != tokenBytes*2 {
			t.Fatalf("token length = %d, want %d", len(token), tokenBytes*2)
		}
		if _, dup := seen[token]; dup {
			t.Fatalf("duplicate token %q", token)
		}
		seen[token] = struct{}{}
	}
}

func TestParseBearer(t *testing.T) {
	tt := []struct {
		name      string
		header    string
		wantToken string
		wantOK    bool
	}{
		{name: "valid", header: "Bearer abc123", wantToken: "abc123", wantOK: true},
		{name: "case insensitive scheme", header: "bearer abc123", wantToken: "abc123", wantOK: true},
		{name: "empty header", header: "", wantOK: false},
		{name: "missing token", header: "Bearer ", wantOK: false},
		{name: "wrong scheme", header: "Basic abc123", wantOK: false},
		{name: "bare token", header: "abc123", wantOK: false},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			token, ok := ParseBearer(tc.header)
			if ok != tc.wantOK {
				t.Fatalf("ParseBearer(%q) ok = %v, want %v", tc.header, ok, tc.wantOK)
			}
			if token != tc.wantToken {
				t.Fatalf("ParseBearer(%q) token = %q, want %q", tc.header, token, tc.wantToken)
			}
		})
	}
}
