// Package id generates prefixed identifiers for remote records and stream clients.
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Size is the length of the random part of an identifier.
const Size = 16

// alphabet avoids characters that need escaping in URL paths.
const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Generate returns prefix-<random>, e.g. "list-3fA9xQ0bLm2ZpR7c".
func Generate(prefix string) (string, error) {
	s, err := gonanoid.Generate(alphabet, Size)
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return prefix + "-" + s, nil
}

// Prefix returns the prefix of a generated identifier, or "" if it has none.
func Prefix(id string) string {
	p, _, ok := strings.Cut(id, "-")
	if !ok {
		return ""
	}
	return p
}
