package cache

import (
	"cmp"
	"fmt"

	"github.com/spacemark/pagecache/internal/domain"
)

// Sorter orders annotations for display. It follows the slices.SortFunc contract.
type Sorter func(a, b *domain.Annotation) int

// SortByPagePosition orders highlights by where they sit in the document, then by creation time.
// Annotations without an anchor (page notes) come after all highlights.
func SortByPagePosition(a, b *domain.Annotation) int {
	switch {
	case a.Selector != nil && b.Selector != nil:
		if c := cmp.Compare(a.Selector.Position, b.Selector.Position); c != 0 {
			return c
		}
	case a.Selector != nil:
		return -1
	case b.Selector != nil:
		return 1
	}
	return cmp.Compare(a.CreatedWhen, b.CreatedWhen)
}

// SortByCreatedTime orders annotations newest first.
func SortByCreatedTime(a, b *domain.Annotation) int {
	return cmp.Compare(b.CreatedWhen, a.CreatedWhen)
}

// SorterByName returns a built-in sorter: "position" or "created".
func SorterByName(name string) (Sorter, error) {
	switch name {
	case "", "position":
		return SortByPagePosition, nil
	case "created":
		return SortByCreatedTime, nil
	default:
		return nil, fmt.Errorf("unknown annotation sort order %q", name)
	}
}
