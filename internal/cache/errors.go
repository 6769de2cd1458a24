package cache

import "github.com/spacemark/pagecache/internal/errors"

// Sentinel errors. All are coded errors, so errors.Is also matches the matching code sentinel
// (errors.ErrNotFound, errors.ErrNotImplemented).
var (
	ErrAnnotationNotFound = errors.NotFound("no cached annotation found")
	ErrListNotFound       = errors.NotFound("no cached list found")
	ErrNotImplemented     = errors.NotImplemented("list sorting not yet implemented")
)
