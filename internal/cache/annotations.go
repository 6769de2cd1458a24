package cache

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spacemark/pagecache/internal/domain"
	"github.com/spacemark/pagecache/internal/events"
	"github.com/spacemark/pagecache/internal/normalized"
)

// UpdateAnnotationOptions tunes UpdateAnnotation.
type UpdateAnnotationOptions struct {
	// UpdateLastEdited stamps LastEdited with the current time.
	UpdateLastEdited bool
	// KeepListsIfUnsharing keeps every list when an annotation is made private,
	// downgrading it to protected instead.
	KeepListsIfUnsharing bool
	// ForceListUpdate takes the given list set as-is, skipping privacy transition rules.
	ForceListUpdate bool
}

// AnnotationRef identifies an annotation by cache ID or local ID. LocalID wins when both are set.
type AnnotationRef struct {
	UnifiedID string
	LocalID   string
}

// SetAnnotations replaces every cached annotation. Records are sorted with the configured
// sorter before cache IDs are assigned, and IDs restart from "0".
// Returns the assigned IDs in display order.
func (c *Cache) SetAnnotations(records []domain.AnnotationRecord) ([]string, error) {
	for i := range records {
		if err := c.validator.Validate(records[i]); err != nil {
			return nil, fmt.Errorf("set annotations: record %d: %w", i, err)
		}
	}

	c.lock()
	defer c.unlock()

	now := c.now()
	order := make([]int, len(records))
	previews := make([]*domain.Annotation, len(records))
	for i := range records {
		order[i] = i
		previews[i] = previewAnnotation(&records[i], now)
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return c.sorter(previews[a], previews[b])
	})

	c.ids.resetAnnotations()

	// Old cache IDs are about to be reissued.
	listsChanged := false
	for l := range c.lists.All() {
		if len(l.UnifiedAnnotationIDs) > 0 {
			l.UnifiedAnnotationIDs = []string{}
			listsChanged = true
		}
	}

	c.annotations = normalized.New[domain.Annotation]()
	ids := make([]string, 0, len(records))
	for _, i := range order {
		a := c.prepareAnnotation(&records[i], now)
		c.annotations.Append(a.UnifiedID, a)
		if c.relinkAnnotation(a.UnifiedID, nil, a.UnifiedListIDs) {
			listsChanged = true
		}
		ids = append(ids, a.UnifiedID)
	}

	c.queueAnnotationsState()
	if listsChanged {
		c.queueListsState()
	}
	return ids, nil
}

// SortAnnotations reorders the cached annotations. A non-nil sorter also replaces the
// configured sorter for later bulk sets.
func (c *Cache) SortAnnotations(sorter Sorter) {
	c.lock()
	defer c.unlock()

	if sorter != nil {
		c.sorter = sorter
	}
	c.annotations.SortFunc(c.sorter)
	c.queueAnnotationsState()
}

// AddAnnotation caches a single annotation at the front of the display order and returns its
// cache ID. Adding a record whose remote ID is already cached returns the existing ID.
//
// Emits AnnotationAdded, AnnotationsState, then ListsState when list membership changed.
func (c *Cache) AddAnnotation(record domain.AnnotationRecord) (string, error) {
	if err := c.validator.Validate(record); err != nil {
		return "", fmt.Errorf("add annotation: %w", err)
	}

	c.lock()
	defer c.unlock()

	if record.RemoteID != "" {
		if existing := c.lookupAnnotation(c.ids.remoteAnnotations, record.RemoteID); existing != nil {
			return existing.UnifiedID, nil
		}
	}

	a := c.prepareAnnotation(&record, c.now())
	if a.PrivacyLevel.IsShared() {
		a.UnifiedListIDs = union(c.sharedPageListIDs(a.NormalizedPageURL), a.UnifiedListIDs)
	}

	c.annotations.Prepend(a.UnifiedID, a)
	listsChanged := c.relinkAnnotation(a.UnifiedID, nil, a.UnifiedListIDs)

	c.queue(events.AnnotationAdded, &events.AnnotationEventData{Annotation: a.Clone()})
	c.queueAnnotationsState()
	if listsChanged {
		c.queueListsState()
	}
	return a.UnifiedID, nil
}

// UpdateAnnotation merges changes into a cached annotation.
//
// List membership follows the privacy transition from the current level to update.PrivacyLevel:
//   - unchanged level: the given lists are taken as-is; at exactly the shared level the shared
//     ones are also associated with the page and cascaded to sibling public annotations
//   - to private: shared lists are dropped, or with KeepListsIfUnsharing all lists are kept
//     and the level becomes protected instead
//   - from private to shared: the page's shared lists are inherited
//   - any other transition keeps the current lists
//
// Returns ErrAnnotationNotFound when the annotation is not cached.
func (c *Cache) UpdateAnnotation(update domain.AnnotationUpdate, opts UpdateAnnotationOptions) error {
	if err := c.validator.Validate(update); err != nil {
		return fmt.Errorf("update annotation %q: %w", update.UnifiedID, err)
	}

	c.lock()
	defer c.unlock()

	prev, ok := c.annotations.Get(update.UnifiedID)
	if !ok {
		return fmt.Errorf("update annotation %q: %w", update.UnifiedID, ErrAnnotationNotFound)
	}

	level := update.PrivacyLevel
	lists := slices.Clone(prev.UnifiedListIDs)
	cascade := false
	pageGrew := false

	switch {
	case opts.ForceListUpdate:
		lists = c.existingLists(update.UnifiedListIDs)
	case prev.PrivacyLevel == level:
		lists = c.existingLists(update.UnifiedListIDs)
		if level == domain.PrivacyShared {
			pageGrew = c.ensurePageLists(prev.NormalizedPageURL, c.sharedOnly(lists))
			cascade = true
		}
	case prev.PrivacyLevel > domain.PrivacyPrivate && level <= domain.PrivacyPrivate:
		if opts.KeepListsIfUnsharing {
			level = domain.PrivacyProtected
		} else {
			lists = c.unsharedOnly(lists)
		}
	case prev.PrivacyLevel <= domain.PrivacyPrivate && level.IsShared():
		lists = union(lists, c.sharedPageListIDs(prev.NormalizedPageURL))
	}

	next := prev.Clone()
	next.PrivacyLevel = level
	next.UnifiedListIDs = lists
	if update.RemoteID != nil {
		remap(c.ids.remoteAnnotations, prev.RemoteID, *update.RemoteID, prev.UnifiedID)
		next.RemoteID = *update.RemoteID
	}
	if update.Comment != nil {
		next.Comment = *update.Comment
	}
	if update.ColorID != nil {
		next.ColorID = *update.ColorID
		next.Color = c.resolveColor(next.ColorID)
	}
	if opts.UpdateLastEdited {
		next.LastEdited = c.now()
	}

	listsChanged := c.relinkAnnotation(next.UnifiedID, prev.UnifiedListIDs, next.UnifiedListIDs)
	c.annotations.Replace(next.UnifiedID, next)

	c.queue(events.AnnotationUpdated, &events.AnnotationEventData{Annotation: next.Clone()})
	c.queueAnnotationsState()

	if pageGrew {
		c.queue(events.PageDataUpdated, &events.PageDataEventData{
			NormalizedPageURL: next.NormalizedPageURL,
			ListIDs:           c.pageListIDs(next.NormalizedPageURL),
		})
	}
	if cascade && c.relinkChanged(c.cascadeSharedPageLists()) {
		listsChanged = true
	}
	if listsChanged {
		c.queueListsState()
	}
	return nil
}

// RemoveAnnotation drops an annotation and its list back references.
// Returns ErrAnnotationNotFound when the annotation is not cached.
func (c *Cache) RemoveAnnotation(ref AnnotationRef) error {
	c.lock()
	defer c.unlock()

	id := ref.UnifiedID
	if ref.LocalID != "" {
		id = c.ids.localAnnotations[ref.LocalID]
	}

	a, ok := c.annotations.Get(id)
	if !ok {
		return fmt.Errorf("remove annotation %q: %w", firstNonEmpty(ref.LocalID, ref.UnifiedID), ErrAnnotationNotFound)
	}

	if a.RemoteID != "" && c.ids.remoteAnnotations[a.RemoteID] == id {
		delete(c.ids.remoteAnnotations, a.RemoteID)
	}
	if a.LocalID != "" && c.ids.localAnnotations[a.LocalID] == id {
		delete(c.ids.localAnnotations, a.LocalID)
	}

	listsChanged := c.relinkAnnotation(id, a.UnifiedListIDs, nil)
	c.annotations.Delete(id)

	c.queue(events.AnnotationRemoved, &events.AnnotationEventData{Annotation: a.Clone()})
	c.queueAnnotationsState()
	if listsChanged {
		c.queueListsState()
	}
	return nil
}

// prepareAnnotation assigns a cache ID, registers local and remote IDs, and resolves list
// membership. Back references are left to the caller.
func (c *Cache) prepareAnnotation(r *domain.AnnotationRecord, now int64) *domain.Annotation {
	id := c.ids.annotations.Next()
	if r.RemoteID != "" {
		c.ids.remoteAnnotations[r.RemoteID] = id
	}
	if r.LocalID != "" {
		c.ids.localAnnotations[r.LocalID] = id
	}

	lists := c.existingLists(r.UnifiedListIDs)
	inSharedList := false
	for _, localListID := range r.LocalListIDs {
		l := c.listByLocalID(localListID)
		if l == nil {
			c.warn("no cached list found for local list ID on annotation; cache lists before annotations",
				slog.Int64("local_list_id", localListID),
				slog.String("annotation_id", id))
			continue
		}
		if l.IsShared() {
			inSharedList = true
		}
		if !slices.Contains(lists, l.UnifiedID) {
			lists = append(lists, l.UnifiedID)
		}
	}

	a := previewAnnotation(r, now).Clone()
	a.UnifiedID = id
	a.UnifiedListIDs = lists
	a.PrivacyLevel = implicitLevel(r.PrivacyLevel, inSharedList)
	a.Color = c.resolveColor(r.ColorID)
	return a
}

// previewAnnotation is the annotation a record will become, minus identity and membership.
// The result shares pointers with the record.
func previewAnnotation(r *domain.AnnotationRecord, now int64) *domain.Annotation {
	created := r.CreatedWhen
	if created == 0 {
		created = now
	}
	lastEdited := r.LastEdited
	if lastEdited == 0 {
		lastEdited = created
	}

	return &domain.Annotation{
		LocalID:           r.LocalID,
		RemoteID:          r.RemoteID,
		NormalizedPageURL: r.NormalizedPageURL,
		Body:              r.Body,
		Comment:           r.Comment,
		Selector:          r.Selector,
		Creator:           r.Creator,
		PrivacyLevel:      r.PrivacyLevel,
		UnifiedListIDs:    []string{},
		CreatedWhen:       created,
		LastEdited:        lastEdited,
		ColorID:           r.ColorID,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
