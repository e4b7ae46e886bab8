// Copyright (C) 2025 the jh maintainers
// See root-dir/LICENSE for more information

package model

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// CodeLength is the fixed length of a guest code.
const CodeLength = 6

// codeAlphabet is uppercase alphanumeric only, so a code survives being read
// aloud, typed on a phone or embedded in a QR payload.
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const maxCodeAttempts = 100

// ErrCodeSpaceExhausted is returned when the collision retry bound is hit
// while issuing a new code.
var ErrCodeSpaceExhausted = errors.New("unable to generate unique code after maximum attempts")

// NormalizeCode maps user or scanner input onto the stored form of a code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode reports whether code is a well-formed guest code in stored form.
func ValidCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(codeAlphabet, rune(code[i])) {
			return false
		}
	}
	return true
}

// GenerateCode draws a code uniformly from the alphabet.
func GenerateCode() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	b := make([]byte, CodeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("draw code character: %w", err)
		}
		b[i] = codeAlphabet[n.Int64()]
	}
	return string(b), nil
}

// IssueCode generates a code that does not collide with any code in taken and
// records it there, so a batch of calls sharing one set stays collision-free
// against both persisted and freshly issued codes.
func IssueCode(taken map[string]struct{}) (string, error) {
	return issueCode(GenerateCode, taken)
}

func issueCode(gen func() (string, error), taken map[string]struct{}) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := gen()
		if err != nil {
			return "", err
		}
		if _, exists := taken[code]; exists {
			continue
		}
		taken[code] = struct{}{}
		return code, nil
	}
	return "", ErrCodeSpaceExhausted
}
