package cache

import (
	"context"
	"slices"
	"sync"
	"testing"

	"github.com/spacemark/pagecache/internal/domain"
	"github.com/spacemark/pagecache/internal/events"
	"github.com/stretchr/testify/require"
)

const (
	testPage = "example.com/a"
	testNow  = int64(1_700_000_000_000)
)

func newTestCache(t *testing.T, cfg Config) *Cache {
	t.Helper()

	if cfg.Now == nil {
		cfg.Now = func() int64 { return testNow }
	}
	c, err := New(context.Background(), cfg)
	require.NoError(t, err)
	return c
}

// recorder captures every event the cache emits.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func record(t *testing.T, c *Cache) *recorder {
	t.Helper()

	r := &recorder{}
	unsubscribe := c.Events().SubscribeAll(func(e events.Event) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, e)
	})
	t.Cleanup(unsubscribe)
	return r
}

func (r *recorder) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]events.Type, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func (r *recorder) last(t events.Type) events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Type == t {
			return r.events[i]
		}
	}
	return events.Event{}
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// requireInvariants checks annotation/list symmetry and list path consistency.
func requireInvariants(t *testing.T, c *Cache) {
	t.Helper()

	annotations := c.AnnotationsState()
	lists := c.ListsState()

	require.Len(t, annotations.ByID, len(annotations.AllIDs))
	require.Len(t, lists.ByID, len(lists.AllIDs))

	for id, a := range annotations.ByID {
		require.Len(t, compact(a.UnifiedListIDs), len(a.UnifiedListIDs), "annotation %s has duplicate lists", id)
		for _, listID := range a.UnifiedListIDs {
			l, ok := lists.ByID[listID]
			require.True(t, ok, "annotation %s references missing list %s", id, listID)
			require.Contains(t, l.UnifiedAnnotationIDs, id, "list %s lacks back reference to annotation %s", listID, id)
		}
	}

	for id, l := range lists.ByID {
		require.Len(t, compact(l.UnifiedAnnotationIDs), len(l.UnifiedAnnotationIDs), "list %s has duplicate annotations", id)
		for _, annotationID := range l.UnifiedAnnotationIDs {
			a, ok := annotations.ByID[annotationID]
			require.True(t, ok, "list %s references missing annotation %s", id, annotationID)
			require.Contains(t, a.UnifiedListIDs, id, "annotation %s lacks back reference to list %s", annotationID, id)
		}

		if l.Type != domain.ListTypeUser {
			continue
		}
		if l.ParentUnifiedID == "" {
			require.Empty(t, l.PathUnifiedIDs, "root list %s has a path", id)
			continue
		}
		parent, ok := lists.ByID[l.ParentUnifiedID]
		require.True(t, ok, "list %s has missing parent %s", id, l.ParentUnifiedID)
		want := append(slices.Clone(parent.PathUnifiedIDs), parent.UnifiedID)
		require.Equal(t, want, l.PathUnifiedIDs, "list %s path does not follow its parent", id)
	}
}

func compact(ids []string) []string {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	return slices.Compact(sorted)
}

// setupExamplePage caches a shared list L1 (local 1, remote r1) and a private list L2 (local 2),
// both associated with testPage.
func setupExamplePage(t *testing.T, c *Cache) (l1, l2 string) {
	t.Helper()

	ids, err := c.SetLists([]domain.ListRecord{
		{LocalID: domain.Int64(1), RemoteID: "r1", Type: domain.ListTypeUser, Name: "L1"},
		{LocalID: domain.Int64(2), Type: domain.ListTypeUser, Name: "L2"},
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)

	c.SetPageData(testPage, ids)
	requireInvariants(t, c)
	return ids[0], ids[1]
}

func annotationRecord(level domain.PrivacyLevel, localListIDs ...int64) domain.AnnotationRecord {
	return domain.AnnotationRecord{
		NormalizedPageURL: testPage,
		Body:              "highlighted text",
		PrivacyLevel:      level,
		LocalListIDs:      localListIDs,
	}
}
