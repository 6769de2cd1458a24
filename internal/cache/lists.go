package cache

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spacemark/pagecache/internal/domain"
	"github.com/spacemark/pagecache/internal/errors"
	"github.com/spacemark/pagecache/internal/events"
	"github.com/spacemark/pagecache/internal/normalized"
	"github.com/spacemark/pagecache/internal/ordering"
	"github.com/spacemark/pagecache/internal/pageurl"
	"github.com/spacemark/pagecache/internal/tree"
)

// SetLists replaces every cached list. IDs restart from "0". Parents and paths given as local
// IDs are resolved once every list has an ID, so children may precede their parents.
// Page associations are reset; page-link lists register with their page.
// Returns the assigned IDs in input order.
func (c *Cache) SetLists(records []domain.ListRecord) ([]string, error) {
	for i := range records {
		if err := c.validator.Validate(records[i]); err != nil {
			return nil, fmt.Errorf("set lists: record %d: %w", i, err)
		}
	}

	c.lock()
	defer c.unlock()

	c.ids.resetLists()
	clear(c.pageLists)

	// Old cache IDs are about to be reissued.
	annotationsChanged := false
	for a := range c.annotations.All() {
		if len(a.UnifiedListIDs) > 0 {
			a.UnifiedListIDs = []string{}
			annotationsChanged = true
		}
	}

	prepared := make([]*domain.List, 0, len(records))
	for i := range records {
		prepared = append(prepared, c.prepareList(&records[i]))
	}
	c.lists = normalized.FromSeed(prepared, listID)

	ids := make([]string, 0, len(prepared))
	for _, l := range prepared {
		switch l.Type {
		case domain.ListTypeUser:
			l.ParentUnifiedID = c.userParentID(l.ParentLocalID)
		case domain.ListTypePageLink:
			c.ensurePageLists(l.NormalizedPageURL, []string{l.UnifiedID})
		case domain.ListTypeSpecial:
		}
		if c.linkList(l) {
			annotationsChanged = true
		}
		ids = append(ids, l.UnifiedID)
	}

	// A parent chain that loops back is cut at the first list on the loop.
	for _, l := range prepared {
		if l.Type == domain.ListTypeUser && c.parentChainLoops(l) {
			c.warn("list parent chain loops back on itself, making it a root",
				slog.String("list_id", l.UnifiedID),
				slog.String("parent_id", l.ParentUnifiedID))
			l.ParentUnifiedID = ""
		}
	}

	for _, l := range prepared {
		if l.Type == domain.ListTypeUser && l.IsRoot() {
			c.repathSubtree(l)
		}
	}

	c.queueListsState()
	if annotationsChanged {
		c.queueAnnotationsState()
	}
	return ids, nil
}

// SortLists is not supported and always returns ErrNotImplemented.
func (c *Cache) SortLists(func(a, b *domain.List) int) error {
	return ErrNotImplemented
}

// AddList caches a single list at the front of the display order and returns its cache ID.
//
// A user list is placed under the cached list matching ParentLocalID (or at the top level) and,
// without an explicit Order, becomes the first of its siblings. A page-link list is associated
// with its page.
//
// Emits ListAdded, ListsState, then PageDataUpdated and AnnotationsState when those changed.
func (c *Cache) AddList(record domain.ListRecord) (string, error) {
	if err := c.validator.Validate(record); err != nil {
		return "", fmt.Errorf("add list: %w", err)
	}

	c.lock()
	defer c.unlock()

	parentID := ""
	order := record.Order
	if record.Type == domain.ListTypeUser {
		parentID = c.userParentID(record.ParentLocalID)
		if order == "" {
			key, err := c.firstSiblingKey(parentID)
			if err != nil {
				return "", fmt.Errorf("add list: %w", err)
			}
			order = key
		}
	}

	l := c.prepareList(&record)
	pageGrew := false
	switch l.Type {
	case domain.ListTypeUser:
		l.ParentUnifiedID = parentID
		l.Order = order
		c.reparent(l)
	case domain.ListTypePageLink:
		pageGrew = c.ensurePageLists(l.NormalizedPageURL, []string{l.UnifiedID})
	case domain.ListTypeSpecial:
	}

	c.lists.Prepend(l.UnifiedID, l)
	annotationsChanged := c.linkList(l)

	c.queue(events.ListAdded, &events.ListEventData{List: l.Clone()})
	c.queueListsState()
	if pageGrew {
		c.queue(events.PageDataUpdated, &events.PageDataEventData{
			NormalizedPageURL: l.NormalizedPageURL,
			ListIDs:           c.pageListIDs(l.NormalizedPageURL),
		})
	}
	if annotationsChanged {
		c.queueAnnotationsState()
	}
	return l.UnifiedID, nil
}

// UpdateList merges changes into a cached list.
//
// Moving a list recomputes the parent and path of it and all its descendants. A parent that is
// not cached makes the list a root. Changing the remote ID re-runs the shared-list cascade.
//
// Returns ErrListNotFound when the list is not cached, or a validation error for moves that
// would nest a non-user list or put a list inside its own subtree.
func (c *Cache) UpdateList(update domain.ListUpdate) error {
	c.lock()
	defer c.unlock()

	prev, ok := c.lists.Get(update.UnifiedID)
	if !ok {
		return fmt.Errorf("update list %q: %w", update.UnifiedID, ErrListNotFound)
	}

	next := prev.Clone()
	if update.Name != nil {
		next.Name = *update.Name
	}
	if update.Description != nil {
		next.Description = *update.Description
	}
	if update.Order != nil {
		next.Order = *update.Order
	}
	if update.RemoteID != nil {
		next.RemoteID = *update.RemoteID
	}
	if update.IsPrivate != nil {
		next.IsPrivate = *update.IsPrivate
	}
	if update.HasRemoteAnnotationsToLoad != nil {
		next.HasRemoteAnnotationsToLoad = *update.HasRemoteAnnotationsToLoad
	}
	if update.ParentUnifiedID != nil {
		if err := c.checkMove(prev, *update.ParentUnifiedID); err != nil {
			return fmt.Errorf("update list %q: %w", update.UnifiedID, err)
		}
		next.ParentUnifiedID = *update.ParentUnifiedID
	}

	pageGrew := false
	if next.Type == domain.ListTypePageLink {
		if update.NormalizedPageURL != nil {
			next.NormalizedPageURL = *update.NormalizedPageURL
		}
		if update.SharedListEntryID != nil {
			next.SharedListEntryID = *update.SharedListEntryID
		}
		if next.RemoteID == "" {
			return fmt.Errorf("update list %q: %w", update.UnifiedID,
				errors.Validation("page links must keep a remote ID"))
		}
		if next.NormalizedPageURL != prev.NormalizedPageURL {
			c.removeFromPages(next.UnifiedID)
			pageGrew = c.ensurePageLists(next.NormalizedPageURL, []string{next.UnifiedID})
		}
	}

	remoteChanged := prev.RemoteID != next.RemoteID
	if remoteChanged {
		remap(c.ids.remoteLists, prev.RemoteID, next.RemoteID, next.UnifiedID)
	}

	c.lists.Replace(next.UnifiedID, next)

	if prev.ParentUnifiedID != next.ParentUnifiedID {
		c.repathSubtree(next)
	}

	c.queue(events.ListUpdated, &events.ListEventData{List: next.Clone()})
	c.queueListsState()
	if pageGrew {
		c.queue(events.PageDataUpdated, &events.PageDataEventData{
			NormalizedPageURL: next.NormalizedPageURL,
			ListIDs:           c.pageListIDs(next.NormalizedPageURL),
		})
	}

	// Public annotations pick up (or drop) the list now that its sharing state changed.
	if remoteChanged && c.relinkChanged(c.cascadeSharedPageLists()) {
		c.queueListsState()
	}
	return nil
}

// RemoveList drops a list and its whole subtree, leaves first. Annotations lose their
// references to every removed list, and the lists leave every page association.
//
// Emits ListRemoved per list, ListsState, then AnnotationsState when memberships changed.
// Returns ErrListNotFound when the list is not cached.
func (c *Cache) RemoveList(unifiedID string) error {
	c.lock()
	defer c.unlock()

	target, ok := c.lists.Get(unifiedID)
	if !ok {
		return fmt.Errorf("remove list %q: %w", unifiedID, ErrListNotFound)
	}

	subtree := tree.Map(target, c.children, func(l *domain.List) *domain.List { return l })
	slices.Reverse(subtree)

	annotationsChanged := false
	for _, l := range subtree {
		if l.RemoteID != "" && c.ids.remoteLists[l.RemoteID] == l.UnifiedID {
			delete(c.ids.remoteLists, l.RemoteID)
		}
		if l.LocalID != nil && c.ids.localLists[*l.LocalID] == l.UnifiedID {
			delete(c.ids.localLists, *l.LocalID)
		}
		if c.unlinkList(l) {
			annotationsChanged = true
		}
		c.removeFromPages(l.UnifiedID)
		c.lists.Delete(l.UnifiedID)
		c.queue(events.ListRemoved, &events.ListEventData{List: l.Clone()})
	}

	c.queueListsState()
	if annotationsChanged {
		c.queueAnnotationsState()
	}
	return nil
}

// prepareList assigns a cache ID and registers local and remote IDs. A shared list adopts every
// public annotation by the same creator. Back references are left to the caller (see linkList).
func (c *Cache) prepareList(r *domain.ListRecord) *domain.List {
	id := c.ids.lists.Next()
	if r.LocalID != nil {
		c.ids.localLists[*r.LocalID] = id
	}

	l := (&domain.List{
		UnifiedID:                  id,
		LocalID:                    r.LocalID,
		RemoteID:                   r.RemoteID,
		Type:                       r.Type,
		Name:                       r.Name,
		Description:                r.Description,
		Creator:                    r.Creator,
		HasRemoteAnnotationsToLoad: r.HasRemoteAnnotationsToLoad,
		IsForeignList:              r.IsForeignList,
		IsPrivate:                  r.IsPrivate,
		UnifiedAnnotationIDs:       c.existingAnnotations(r.UnifiedAnnotationIDs),
		ParentLocalID:              r.ParentLocalID,
		PathUnifiedIDs:             []string{},
		PathLocalIDs:               r.PathLocalIDs,
		Order:                      r.Order,
		NormalizedPageURL:          r.NormalizedPageURL,
		PageTitle:                  r.PageTitle,
		SharedListEntryID:          r.SharedListEntryID,
	}).Clone()
	if l.PathLocalIDs == nil {
		l.PathLocalIDs = []int64{}
	}

	if r.RemoteID != "" {
		c.ids.remoteLists[r.RemoteID] = id

		creator := domain.CreatorID(r.Creator)
		for a := range c.annotations.All() {
			if a.PrivacyLevel.IsShared() && domain.CreatorID(a.Creator) == creator {
				l.AppendAnnotation(a.UnifiedID)
			}
		}
	}
	return l
}

// listsByParent returns the user lists directly under parentID in sibling order.
func (c *Cache) listsByParent(parentID string) []*domain.List {
	var children []*domain.List
	for l := range c.lists.All() {
		if l.Type == domain.ListTypeUser && l.ParentUnifiedID == parentID {
			children = append(children, l)
		}
	}
	slices.SortFunc(children, compareSiblings)
	return children
}

func listID(l *domain.List) string {
	return l.UnifiedID
}

func (c *Cache) children(l *domain.List) []*domain.List {
	return c.listsByParent(l.UnifiedID)
}

func compareSiblings(a, b *domain.List) int {
	if c := ordering.Compare(a.Order, b.Order); c != 0 {
		return c
	}
	return compareIDs(a.UnifiedID, b.UnifiedID)
}

// firstSiblingKey returns an order key that sorts before every current child of parentID.
func (c *Cache) firstSiblingKey(parentID string) (string, error) {
	siblings := c.listsByParent(parentID)
	items := make([]ordering.Item, len(siblings))
	for i, s := range siblings {
		items[i] = ordering.Item{ID: s.UnifiedID, Key: s.Order}
	}

	if len(items) > 0 {
		return ordering.InsertBeforeIndex(items, 0)
	}
	return ordering.Push(items)
}

// reparent recomputes a list's parent and path fields from its parent's current state.
// A missing parent makes the list a root.
func (c *Cache) reparent(l *domain.List) {
	parent, ok := c.lists.Get(l.ParentUnifiedID)
	if l.ParentUnifiedID == "" || !ok || parent.Type != domain.ListTypeUser {
		l.ParentUnifiedID = ""
		l.ParentLocalID = nil
		l.PathUnifiedIDs = []string{}
		l.PathLocalIDs = []int64{}
		return
	}

	l.ParentLocalID = nil
	if parent.LocalID != nil {
		l.ParentLocalID = domain.Int64(*parent.LocalID)
	}
	l.PathUnifiedIDs = append(slices.Clone(parent.PathUnifiedIDs), parent.UnifiedID)
	l.PathLocalIDs = slices.Clone(parent.PathLocalIDs)
	if l.PathLocalIDs == nil {
		l.PathLocalIDs = []int64{}
	}
	if parent.LocalID != nil {
		l.PathLocalIDs = append(l.PathLocalIDs, *parent.LocalID)
	}
}

// repathSubtree runs reparent over root and every descendant, parents first.
func (c *Cache) repathSubtree(root *domain.List) {
	tree.ForEach(root, c.children, c.reparent)
}

// userParentID resolves a local parent ID to the cache ID of a user list, or "" for a root.
func (c *Cache) userParentID(parentLocalID *int64) string {
	if parentLocalID == nil {
		return ""
	}
	parent := c.listByLocalID(*parentLocalID)
	if parent == nil || parent.Type != domain.ListTypeUser {
		return ""
	}
	return parent.UnifiedID
}

// parentChainLoops reports whether following parents up from l leads back to l.
func (c *Cache) parentChainLoops(l *domain.List) bool {
	seen := make(map[string]struct{})
	for id := l.ParentUnifiedID; id != ""; {
		if id == l.UnifiedID {
			return true
		}
		if _, ok := seen[id]; ok {
			return false
		}
		seen[id] = struct{}{}

		parent, ok := c.lists.Get(id)
		if !ok {
			return false
		}
		id = parent.ParentUnifiedID
	}
	return false
}

// checkMove validates moving l under parentID.
func (c *Cache) checkMove(l *domain.List, parentID string) error {
	if parentID == "" || parentID == l.ParentUnifiedID {
		return nil
	}
	if l.Type != domain.ListTypeUser {
		return errors.Validationf("only user lists can be nested, list is %s", l.Type)
	}
	for _, id := range tree.Map(l, c.children, listID) {
		if id == parentID {
			return errors.Validationf("cannot move list %q under its own subtree", l.UnifiedID)
		}
	}
	return nil
}

func (c *Cache) pageListIDs(normalizedPageURL string) []string {
	return slices.Clone(c.pageLists[pageurl.Key(normalizedPageURL)])
}
