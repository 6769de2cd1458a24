// Package ordering generates sibling sort keys that allow insertion anywhere
// without renumbering existing items.
//
// Keys are base-62 fractional digits compared as plain strings. A key never ends
// in the zero digit, so there is always room for another key between any two.
package ordering

import (
	"errors"
	"fmt"
	"strings"
)

const digits = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// ErrInvalidKeys is returned when the bounds given to Between are out of order or malformed.
var ErrInvalidKeys = errors.New("invalid ordering keys")

// Item is an ordered entry.
type Item struct {
	ID  string
	Key string
}

// Between returns a key strictly between a and b.
// An empty a means "before everything"; an empty b means "after everything".
func Between(a, b string) (string, error) {
	if b != "" && a >= b {
		return "", fmt.Errorf("%w: %q >= %q", ErrInvalidKeys, a, b)
	}
	if strings.HasSuffix(a, "0") || strings.HasSuffix(b, "0") {
		return "", fmt.Errorf("%w: trailing zero in %q or %q", ErrInvalidKeys, a, b)
	}
	return midpoint(a, b), nil
}

// midpoint assumes a < b (or b empty) and neither has a trailing zero digit.
func midpoint(a, b string) string {
	if b != "" {
		// Walk the shared prefix, padding a with zeros.
		n := 0
		for n < len(b) {
			ca := byte('0')
			if n < len(a) {
				ca = a[n]
			}
			if ca != b[n] {
				break
			}
			n++
		}
		if n > 0 {
			rest := ""
			if n < len(a) {
				rest = a[n:]
			}
			return b[:n] + midpoint(rest, b[n:])
		}
	}

	da := 0
	if a != "" {
		da = strings.IndexByte(digits, a[0])
	}
	db := len(digits)
	if b != "" {
		db = strings.IndexByte(digits, b[0])
	}

	if db-da > 1 {
		return string(digits[(da+db)/2])
	}

	// First digits are consecutive.
	if b != "" && len(b) > 1 {
		return b[:1]
	}
	rest := ""
	if len(a) > 1 {
		rest = a[1:]
	}
	return string(digits[da]) + midpoint(rest, "")
}

// Push returns a key that sorts after every item.
func Push(items []Item) (string, error) {
	if len(items) == 0 {
		return Between("", "")
	}
	return Between(items[len(items)-1].Key, "")
}

// InsertBeforeIndex returns a key that sorts immediately before items[index].
// Items must already be sorted by key. An index past the end behaves like Push.
func InsertBeforeIndex(items []Item, index int) (string, error) {
	if index < 0 {
		return "", fmt.Errorf("%w: negative index %d", ErrInvalidKeys, index)
	}
	if index >= len(items) {
		return Push(items)
	}

	next := items[index].Key
	prev := ""
	if index > 0 {
		prev = items[index-1].Key
	}
	if next == "" {
		// Unkeyed siblings sort first; the new item lands after the keyed prefix.
		return Push(items[:index])
	}
	return Between(prev, next)
}

// Compare orders two keys.
func Compare(a, b string) int {
	return strings.Compare(a, b)
}
