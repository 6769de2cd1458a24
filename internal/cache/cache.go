// Package cache is the in-memory page annotation cache: the single source of truth for the
// annotations and lists known to a page while it is open.
//
// The cache keeps three identity spaces apart (cache, local and remote IDs), keeps annotation
// and list membership symmetric, cascades shared-list membership onto public annotations, and
// keeps list trees consistent. Every mutation runs to completion under a single lock, then the
// events it produced are delivered in order once the lock is released.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/spacemark/pagecache/internal/domain"
	"github.com/spacemark/pagecache/internal/events"
	"github.com/spacemark/pagecache/internal/normalized"
	"github.com/spacemark/pagecache/internal/settings"
	"github.com/spacemark/pagecache/internal/validation"
)

// Config configures a Cache. All fields are optional.
type Config struct {
	// Sorter defines annotation display order. Defaults to SortByPagePosition.
	Sorter Sorter

	// Events receives change notifications. Defaults to a new events.Bus.
	Events events.EventBus

	// Debug surfaces soft inconsistencies (dropped references) as warnings.
	Debug bool

	// Logger defaults to a discarding logger.
	Logger *slog.Logger

	// Settings resolves highlight color IDs. Without it, colors are never resolved.
	Settings settings.Source

	// Now returns the current time in milliseconds. Defaults to the wall clock.
	Now func() int64
}

// Cache holds the annotations and lists of the open page.
//
// Event handlers run synchronously after the producing mutation has released the cache.
// They may read from the cache but must not call mutating methods on the same goroutine;
// hand such work off to another goroutine instead.
type Cache struct {
	mu sync.Mutex
	// emitMu keeps event batches from concurrent mutations in mutation order.
	emitMu  sync.Mutex
	pending []events.Event

	sorter    Sorter
	bus       events.EventBus
	debug     bool
	logger    *slog.Logger
	now       func() int64
	colors    []domain.HighlightColor
	validator *validation.Validator

	annotations *normalized.State[domain.Annotation]
	lists       *normalized.State[domain.List]
	pageLists   map[string][]string

	ids identities
}

// New creates a cache. When cfg.Settings is set, the highlight color palette is loaded
// before New returns, so color resolution is ready on the first mutation.
func New(ctx context.Context, cfg Config) (*Cache, error) {
	c := &Cache{
		sorter:      cfg.Sorter,
		bus:         cfg.Events,
		debug:       cfg.Debug,
		logger:      cfg.Logger,
		now:         cfg.Now,
		validator:   validation.New(),
		annotations: normalized.New[domain.Annotation](),
		lists:       normalized.New[domain.List](),
		pageLists:   make(map[string][]string),
		ids:         newIdentities(),
	}
	if c.sorter == nil {
		c.sorter = SortByPagePosition
	}
	if c.bus == nil {
		c.bus = events.NewBus()
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.now == nil {
		c.now = func() int64 { return time.Now().UnixMilli() }
	}

	if cfg.Settings != nil {
		colors, err := cfg.Settings.HighlightColors(ctx)
		if err != nil {
			return nil, fmt.Errorf("load highlight colors: %w", err)
		}
		c.colors = colors
	}

	return c, nil
}

// Events returns the subscription side of the cache's event bus.
func (c *Cache) Events() events.Subscriber {
	return c.bus
}

// lock acquires the cache for a mutation.
func (c *Cache) lock() {
	c.mu.Lock()
}

// unlock releases the cache and delivers the events queued while it was held.
// emitMu is taken before mu is released so batches leave in the order mutations finished.
func (c *Cache) unlock() {
	batch := c.pending
	c.pending = nil

	c.emitMu.Lock()
	c.mu.Unlock()
	defer c.emitMu.Unlock()

	for _, e := range batch {
		c.bus.Emit(e)
	}
}

func (c *Cache) queue(t events.Type, data any) {
	c.pending = append(c.pending, events.New(t, data))
}

func (c *Cache) queueAnnotationsState() {
	c.queue(events.AnnotationsState, &events.AnnotationsStateEventData{
		Annotations: c.annotations.Clone((*domain.Annotation).Clone),
	})
}

func (c *Cache) queueListsState() {
	c.queue(events.ListsState, &events.ListsStateEventData{
		Lists: c.lists.Clone((*domain.List).Clone),
	})
}

func (c *Cache) warn(msg string, args ...any) {
	if c.debug {
		c.logger.Warn(msg, args...)
	}
}

func (c *Cache) resolveColor(colorID string) *domain.RGBAColor {
	if colorID == "" || c.colors == nil {
		return nil
	}
	color, ok := domain.FindHighlightColor(c.colors, colorID)
	if !ok {
		c.warn("unknown highlight color", slog.String("color_id", colorID))
		return nil
	}
	return &color
}

// IsEmpty reports whether no annotations are cached.
func (c *Cache) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.annotations.Len() == 0
}

// AnnotationCount returns the number of cached annotations.
func (c *Cache) AnnotationCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.annotations.Len()
}

// ListCount returns the number of cached lists.
func (c *Cache) ListCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lists.Len()
}

// LastAssignedAnnotationID returns the most recently generated annotation cache ID,
// or "-1" when none has been generated since the last bulk set.
func (c *Cache) LastAssignedAnnotationID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ids.annotations.Last()
}

// LastAssignedListID returns the most recently generated list cache ID,
// or "-1" when none has been generated since the last bulk set.
func (c *Cache) LastAssignedListID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ids.lists.Last()
}

// Annotation returns a copy of the annotation with the given cache ID, or nil.
func (c *Cache) Annotation(unifiedID string) *domain.Annotation {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, _ := c.annotations.Get(unifiedID)
	return a.Clone()
}

// List returns a copy of the list with the given cache ID, or nil.
func (c *Cache) List(unifiedID string) *domain.List {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, _ := c.lists.Get(unifiedID)
	return l.Clone()
}

// AnnotationByLocalID returns a copy of the annotation with the given local ID, or nil.
func (c *Cache) AnnotationByLocalID(localID string) *domain.Annotation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookupAnnotation(c.ids.localAnnotations, localID).Clone()
}

// AnnotationByRemoteID returns a copy of the annotation with the given remote ID, or nil.
func (c *Cache) AnnotationByRemoteID(remoteID string) *domain.Annotation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookupAnnotation(c.ids.remoteAnnotations, remoteID).Clone()
}

// ListByLocalID returns a copy of the list with the given local ID, or nil.
func (c *Cache) ListByLocalID(localID int64) *domain.List {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listByLocalID(localID).Clone()
}

// ListByRemoteID returns a copy of the list with the given remote ID, or nil.
func (c *Cache) ListByRemoteID(remoteID string) *domain.List {
	c.mu.Lock()
	defer c.mu.Unlock()
	unifiedID, ok := c.ids.remoteLists[remoteID]
	if !ok {
		return nil
	}
	l, _ := c.lists.Get(unifiedID)
	return l.Clone()
}

// ListsByParentID returns copies of the user lists directly under parentID in sibling order.
// An empty parentID returns the top-level user lists.
func (c *Cache) ListsByParentID(parentID string) []*domain.List {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneAll(c.listsByParent(parentID), (*domain.List).Clone)
}

// AnnotationsArray returns copies of all annotations in display order.
func (c *Cache) AnnotationsArray() []*domain.Annotation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneAll(c.annotations.Array(), (*domain.Annotation).Clone)
}

// ListsArray returns copies of all lists in display order.
func (c *Cache) ListsArray() []*domain.List {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneAll(c.lists.Array(), (*domain.List).Clone)
}

// AnnotationsState returns a copy of the normalized annotations store.
func (c *Cache) AnnotationsState() *normalized.State[domain.Annotation] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.annotations.Clone((*domain.Annotation).Clone)
}

// ListsState returns a copy of the normalized lists store.
func (c *Cache) ListsState() *normalized.State[domain.List] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lists.Clone((*domain.List).Clone)
}

// PageListIDs returns the lists associated with a page.
func (c *Cache) PageListIDs(normalizedPageURL string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pageListIDs(normalizedPageURL)
}

func (c *Cache) lookupAnnotation(index map[string]string, id string) *domain.Annotation {
	unifiedID, ok := index[id]
	if !ok {
		return nil
	}
	a, _ := c.annotations.Get(unifiedID)
	return a
}

func (c *Cache) listByLocalID(localID int64) *domain.List {
	unifiedID, ok := c.ids.localLists[localID]
	if !ok {
		return nil
	}
	l, _ := c.lists.Get(unifiedID)
	return l
}

func cloneAll[T any](items []*T, cloneFn func(*T) *T) []*T {
	out := make([]*T, len(items))
	for i, item := range items {
		out[i] = cloneFn(item)
	}
	return out
}
