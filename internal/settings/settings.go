// Package settings provides the highlight color preferences the cache resolves color IDs against.
package settings

import (
	"context"
	"slices"

	"github.com/spacemark/pagecache/internal/domain"
)

// Source loads the user's highlight color palette.
type Source interface {
	HighlightColors(ctx context.Context) ([]domain.HighlightColor, error)
}

// Static is a fixed palette. Useful in tests and when no settings database is configured.
type Static []domain.HighlightColor

// HighlightColors implements Source.
func (s Static) HighlightColors(ctx context.Context) ([]domain.HighlightColor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slices.Clone(s), nil
}
