package cache

import (
	"slices"

	"github.com/spacemark/pagecache/internal/domain"
	"github.com/spacemark/pagecache/internal/events"
	"github.com/spacemark/pagecache/internal/pageurl"
)

// SetPageData replaces the set of lists associated with a page, then recomputes the inherited
// shared-list membership of every public annotation. Unknown list IDs are ignored.
//
// Emits PageDataUpdated, then AnnotationsState and ListsState when memberships changed.
func (c *Cache) SetPageData(normalizedPageURL string, listIDs []string) {
	c.lock()
	defer c.unlock()

	key := pageurl.Key(normalizedPageURL)
	delete(c.pageLists, key)
	c.ensurePageLists(key, listIDs)

	c.queue(events.PageDataUpdated, &events.PageDataEventData{
		NormalizedPageURL: normalizedPageURL,
		ListIDs:           slices.Clone(c.pageLists[key]),
	})

	if c.relinkChanged(c.cascadeSharedPageLists()) {
		c.queueListsState()
	}
}

// SharedPageListIDs returns the lists associated with a page that are shared.
func (c *Cache) SharedPageListIDs(normalizedPageURL string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sharedPageListIDs(normalizedPageURL)
}

// ensurePageLists adds the cached lists among listIDs to a page's set.
// Reports whether the set grew.
func (c *Cache) ensurePageLists(normalizedPageURL string, listIDs []string) bool {
	key := pageurl.Key(normalizedPageURL)
	set, ok := c.pageLists[key]
	if !ok {
		set = []string{}
	}

	grew := false
	for _, id := range listIDs {
		if !c.lists.Has(id) {
			c.warn("ignoring uncached list for page", "list_id", id, "page", normalizedPageURL)
			continue
		}
		if slices.Contains(set, id) {
			continue
		}
		set = append(set, id)
		grew = true
	}
	c.pageLists[key] = set
	return grew
}

func (c *Cache) sharedPageListIDs(normalizedPageURL string) []string {
	var shared []string
	for _, id := range c.pageLists[pageurl.Key(normalizedPageURL)] {
		if c.isListShared(id) {
			shared = append(shared, id)
		}
	}
	return shared
}

func (c *Cache) isListShared(listID string) bool {
	l, ok := c.lists.Get(listID)
	return ok && l.IsShared()
}

func (c *Cache) sharedOnly(listIDs []string) []string {
	return slices.DeleteFunc(slices.Clone(listIDs), func(id string) bool { return !c.isListShared(id) })
}

func (c *Cache) unsharedOnly(listIDs []string) []string {
	return slices.DeleteFunc(slices.Clone(listIDs), c.isListShared)
}

// cascadeSharedPageLists sets the membership of every annotation at or above the shared level
// to the shared lists of its page plus its own unshared lists. Back references are left to the
// caller (see relinkChanged). Queues AnnotationsState when anything changed.
func (c *Cache) cascadeSharedPageLists() []membershipChange {
	var changes []membershipChange
	for a := range c.annotations.All() {
		if !a.PrivacyLevel.IsShared() {
			continue
		}
		next := union(c.sharedPageListIDs(a.NormalizedPageURL), c.unsharedOnly(a.UnifiedListIDs))
		if sameMembers(a.UnifiedListIDs, next) {
			continue
		}
		changes = append(changes, membershipChange{annotationID: a.UnifiedID, prev: a.UnifiedListIDs})
		a.UnifiedListIDs = next
	}

	if len(changes) > 0 {
		c.queueAnnotationsState()
	}
	return changes
}

// removeFromPages drops a list from every page set.
func (c *Cache) removeFromPages(listID string) {
	for key, set := range c.pageLists {
		if i := slices.Index(set, listID); i >= 0 {
			c.pageLists[key] = slices.Delete(set, i, i+1)
		}
	}
}

// implicitLevel raises a private annotation to protected when it sits in a shared list.
func implicitLevel(level domain.PrivacyLevel, inSharedList bool) domain.PrivacyLevel {
	if inSharedList && level < domain.PrivacyProtected {
		return domain.PrivacyProtected
	}
	return level
}
