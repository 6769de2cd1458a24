package hydrate

import "github.com/spacemark/pagecache/internal/domain"

// Reader is the read side of the cache the query helpers need.
type Reader interface {
	AnnotationsArray() []*domain.Annotation
	List(unifiedID string) *domain.List
}

// UserAnnotations returns the annotations created by userID plus those with no creator,
// which are always the current user's own.
func UserAnnotations(c Reader, userID string) []*domain.Annotation {
	return filter(c.AnnotationsArray(), ownedBy(userID))
}

// HighlightAnnotations returns the annotations carrying highlighted text.
func HighlightAnnotations(c Reader) []*domain.Annotation {
	return filter(c.AnnotationsArray(), (*domain.Annotation).IsHighlight)
}

// UserHighlights returns the highlights owned by userID, see UserAnnotations.
func UserHighlights(c Reader, userID string) []*domain.Annotation {
	own := ownedBy(userID)
	return filter(c.AnnotationsArray(), func(a *domain.Annotation) bool {
		return a.IsHighlight() && own(a)
	})
}

// ListHighlights returns the highlights in the given list.
func ListHighlights(c Reader, listID string) []*domain.Annotation {
	return filter(c.AnnotationsArray(), func(a *domain.Annotation) bool {
		return a.IsHighlight() && a.InList(listID)
	})
}

// LocalListIDsForCacheIDs maps cache list IDs to local IDs, skipping lists that are not
// cached or have no local counterpart.
func LocalListIDsForCacheIDs(c Reader, cacheIDs []string) []int64 {
	out := make([]int64, 0, len(cacheIDs))
	for _, id := range cacheIDs {
		if l := c.List(id); l != nil && l.LocalID != nil {
			out = append(out, *l.LocalID)
		}
	}
	return out
}

func ownedBy(userID string) func(*domain.Annotation) bool {
	return func(a *domain.Annotation) bool {
		if a.Creator == nil {
			return true
		}
		return userID != "" && a.Creator.ID == userID
	}
}

func filter(annotations []*domain.Annotation, keep func(*domain.Annotation) bool) []*domain.Annotation {
	out := make([]*domain.Annotation, 0, len(annotations))
	for _, a := range annotations {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}
