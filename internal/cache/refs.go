package cache

import (
	"slices"

	"github.com/spacemark/pagecache/internal/domain"
)

// relinkAnnotation brings list back references in line with an annotation's membership
// moving from prev to next. Lists that gained the annotation get it at the front.
// Reports whether any list changed.
func (c *Cache) relinkAnnotation(annotationID string, prev, next []string) bool {
	changed := false
	for _, listID := range prev {
		if slices.Contains(next, listID) {
			continue
		}
		if l, ok := c.lists.Get(listID); ok && l.RemoveAnnotation(annotationID) {
			changed = true
		}
	}
	for _, listID := range next {
		if slices.Contains(prev, listID) {
			continue
		}
		if l, ok := c.lists.Get(listID); ok && l.PrependAnnotation(annotationID) {
			changed = true
		}
	}
	return changed
}

// linkList gives every annotation in the list's membership a reference back to the list.
// Reports whether any annotation changed.
func (c *Cache) linkList(l *domain.List) bool {
	changed := false
	for _, annotationID := range l.UnifiedAnnotationIDs {
		a, ok := c.annotations.Get(annotationID)
		if !ok || a.InList(l.UnifiedID) {
			continue
		}
		a.UnifiedListIDs = slices.Insert(a.UnifiedListIDs, 0, l.UnifiedID)
		changed = true
	}
	return changed
}

// unlinkList drops a list from the membership of every annotation it holds.
// Reports whether any annotation changed.
func (c *Cache) unlinkList(l *domain.List) bool {
	changed := false
	for _, annotationID := range l.UnifiedAnnotationIDs {
		a, ok := c.annotations.Get(annotationID)
		if !ok {
			continue
		}
		if i := slices.Index(a.UnifiedListIDs, l.UnifiedID); i >= 0 {
			a.UnifiedListIDs = slices.Delete(a.UnifiedListIDs, i, i+1)
			changed = true
		}
	}
	return changed
}

// membershipChange records an annotation's list membership before a cascade rewrote it.
type membershipChange struct {
	annotationID string
	prev         []string
}

// relinkChanged applies relinkAnnotation for every change. Reports whether any list changed.
func (c *Cache) relinkChanged(changes []membershipChange) bool {
	changed := false
	for _, ch := range changes {
		a, ok := c.annotations.Get(ch.annotationID)
		if !ok {
			continue
		}
		if c.relinkAnnotation(ch.annotationID, ch.prev, a.UnifiedListIDs) {
			changed = true
		}
	}
	return changed
}

// existingLists filters ids to cached lists, dropping duplicates and keeping order.
func (c *Cache) existingLists(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !c.lists.Has(id) {
			c.warn("dropping reference to uncached list", "list_id", id)
			continue
		}
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

// existingAnnotations filters ids to cached annotations, dropping duplicates and keeping order.
func (c *Cache) existingAnnotations(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !c.annotations.Has(id) {
			c.warn("dropping reference to uncached annotation", "annotation_id", id)
			continue
		}
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

// union returns a followed by the members of b not already present. Duplicates in a are dropped.
func union(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	for _, s := range [][]string{a, b} {
		for _, id := range s {
			if !slices.Contains(out, id) {
				out = append(out, id)
			}
		}
	}
	return out
}

// sameMembers reports whether a and b hold the same IDs, ignoring order.
func sameMembers(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for _, id := range a {
		if !slices.Contains(b, id) {
			return false
		}
	}
	return true
}
