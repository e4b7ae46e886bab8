// Copyright (C) 2025 the jh maintainers
// See root-dir/LICENSE for more information

// Package auth mints and parses the bearer tokens that bind a guest session
// to one device. A token is an opaque random credential, not a signed claim:
// validity is decided by looking it up in the session store.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

const tokenBytes = 32

// NewToken returns a fresh high-entropy session token.
func NewToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// ParseBearer extracts the token from an Authorization header value. It
// returns false when the header is absent or not a bearer credential.
func ParseBearer(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}
