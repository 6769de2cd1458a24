package cache

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/spacemark/pagecache/internal/domain"
	"github.com/spacemark/pagecache/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSource struct{ err error }

func (f failingSource) HighlightColors(context.Context) ([]domain.HighlightColor, error) {
	return nil, f.err
}

func TestNew_SettingsFailure(t *testing.T) {
	boom := stderrors.New("settings unavailable")

	c, err := New(context.Background(), Config{Settings: failingSource{err: boom}})

	require.Error(t, err)
	assert.Nil(t, c)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "load highlight colors")
}

func TestNew_Defaults(t *testing.T) {
	c, err := New(context.Background(), Config{})
	require.NoError(t, err)

	assert.True(t, c.IsEmpty())
	assert.Equal(t, "-1", c.LastAssignedAnnotationID())
	assert.Equal(t, "-1", c.LastAssignedListID())
	assert.Empty(t, c.AnnotationsArray())
	assert.Empty(t, c.ListsArray())
}

func TestCounts(t *testing.T) {
	c := newTestCache(t, Config{})
	setupExamplePage(t, c)

	_, err := c.AddAnnotation(annotationRecord(domain.PrivacyPrivate))
	require.NoError(t, err)

	assert.Equal(t, 1, c.AnnotationCount())
	assert.Equal(t, 2, c.ListCount())
}

func TestEvents_SharedBus(t *testing.T) {
	bus := events.NewBus()
	c := newTestCache(t, Config{Events: bus})

	var added []string
	events.On(bus, events.ListAdded, func(data *events.ListEventData) {
		added = append(added, data.List.Name)
	})

	_, err := c.AddList(domain.ListRecord{Type: domain.ListTypeUser, Name: "Reading"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Reading"}, added)
}

func TestEvents_HandlerMayReadCache(t *testing.T) {
	c := newTestCache(t, Config{})

	var seen *domain.List
	c.Events().Subscribe(events.ListAdded, func(e events.Event) {
		data := e.Data.(*events.ListEventData)
		seen = c.List(data.List.UnifiedID)
	})

	id, err := c.AddList(domain.ListRecord{Type: domain.ListTypeUser, Name: "Reading"})
	require.NoError(t, err)

	require.NotNil(t, seen)
	assert.Equal(t, id, seen.UnifiedID)
}

func TestEvents_HandlerMayHandOffMutations(t *testing.T) {
	c := newTestCache(t, Config{})

	var wg sync.WaitGroup
	c.Events().Subscribe(events.ListAdded, func(e events.Event) {
		data := e.Data.(*events.ListEventData)
		if data.List.Name != "parent" {
			return
		}
		wg.Go(func() {
			_, err := c.AddList(domain.ListRecord{Type: domain.ListTypeUser, Name: "follow-up"})
			assert.NoError(t, err)
		})
	})

	_, err := c.AddList(domain.ListRecord{Type: domain.ListTypeUser, Name: "parent"})
	require.NoError(t, err)
	wg.Wait()

	assert.Len(t, c.ListsArray(), 2)
}

func TestEvents_PayloadsAreCopies(t *testing.T) {
	c := newTestCache(t, Config{})
	r := record(t, c)

	id, err := c.AddAnnotation(annotationRecord(domain.PrivacyPrivate))
	require.NoError(t, err)

	added := r.last(events.AnnotationAdded).Data.(*events.AnnotationEventData)
	added.Annotation.Comment = "changed by a subscriber"

	state := r.last(events.AnnotationsState).Data.(*events.AnnotationsStateEventData)
	delete(state.Annotations.ByID, id)

	got := c.Annotation(id)
	require.NotNil(t, got)
	assert.Empty(t, got.Comment)
}

func TestConcurrentMutations_DeliverEventsInOrder(t *testing.T) {
	c := newTestCache(t, Config{})
	r := record(t, c)

	const workers = 8
	const perWorker = 25

	var wg sync.WaitGroup
	for range workers {
		wg.Go(func() {
			for range perWorker {
				_, err := c.AddAnnotation(annotationRecord(domain.PrivacyPrivate))
				assert.NoError(t, err)
			}
		})
	}
	wg.Wait()

	assert.Len(t, c.AnnotationsArray(), workers*perWorker)
	requireInvariants(t, c)

	r.mu.Lock()
	defer r.mu.Unlock()
	require.Len(t, r.events, 2*workers*perWorker)

	for i := 0; i < len(r.events); i += 2 {
		require.Equal(t, events.AnnotationAdded, r.events[i].Type, "event %d", i)
		require.Equal(t, events.AnnotationsState, r.events[i+1].Type, "event %d", i+1)

		// Each snapshot reflects exactly the mutations delivered before it.
		state := r.events[i+1].Data.(*events.AnnotationsStateEventData)
		require.Equal(t, i/2+1, state.Annotations.Len())

		added := r.events[i].Data.(*events.AnnotationEventData)
		assert.True(t, state.Annotations.Has(added.Annotation.UnifiedID))
	}
}

func TestConcurrentReadsAndWrites(t *testing.T) {
	c := newTestCache(t, Config{})
	l1, _ := setupExamplePage(t, c)

	ctx, cancel := context.WithCancel(context.Background())
	var readers sync.WaitGroup
	for range 4 {
		readers.Go(func() {
			for ctx.Err() == nil {
				_ = c.AnnotationsArray()
				_ = c.SharedPageListIDs(testPage)
				_ = c.List(l1)
			}
		})
	}

	for i := range 50 {
		id, err := c.AddAnnotation(annotationRecord(domain.PrivacyShared))
		require.NoError(t, err)
		if i%2 == 0 {
			require.NoError(t, c.RemoveAnnotation(AnnotationRef{UnifiedID: id}))
		}
	}
	cancel()
	readers.Wait()

	assert.Len(t, c.AnnotationsArray(), 25)
	assert.Len(t, c.List(l1).UnifiedAnnotationIDs, 25)
	requireInvariants(t, c)
}
