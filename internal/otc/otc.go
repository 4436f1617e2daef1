// Package otc implements one-time codes: short secrets rendered as a
// fixed-length phrase of dictionary words so they can be read over the
// phone and typed on another machine. A code is a hex string; each byte
// maps to exactly one word and back.
package otc

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/trehansiddharth/bitbox-client/internal/bberrors"
)

// Words is the number of words (and bytes) in a code.
const Words = 6

// Generate creates a fresh random code and returns its hex form.
func Generate() (string, error) {
	raw := make([]byte, Words)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate one-time code: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

// Render maps a hex code to its word phrase. The phrase is lowercase
// and space-separated.
func Render(code string) (string, error) {
	raw, err := hex.DecodeString(strings.ToLower(code))
	if err != nil {
		return "", fmt.Errorf("malformed one-time code %q: %w", code, err)
	}
	words := make([]string, len(raw))
	for i, b := range raw {
		words[i] = dictionary[b]
	}
	return strings.Join(words, " "), nil
}

// Parse maps a word phrase back to its hex code. Matching is
// case-insensitive; a single word missing from the dictionary
// invalidates the whole phrase.
func Parse(phrase string) (string, error) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(phrase)))
	if len(fields) == 0 {
		return "", bberrors.ErrInvalidOTC
	}
	raw := make([]byte, len(fields))
	for i, word := range fields {
		b, ok := wordIndex[word]
		if !ok {
			return "", bberrors.ErrInvalidOTC
		}
		raw[i] = b
	}
	return hex.EncodeToString(raw), nil
}
