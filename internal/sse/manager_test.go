package sse

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spacemark/pagecache/internal/domain"
	"github.com/spacemark/pagecache/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(slog.New(slog.DiscardHandler))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Start(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return m
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case e := <-c.EventChan:
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func assertNothing(t *testing.T, c *Client) {
	t.Helper()
	select {
	case e := <-c.EventChan:
		t.Fatalf("unexpected event %s", e.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFromCacheEvent_Page(t *testing.T) {
	tests := []struct {
		name string
		data any
		want string
	}{
		{"page data", &events.PageDataEventData{NormalizedPageURL: "example.com/a"}, "example.com/a"},
		{"annotation", &events.AnnotationEventData{Annotation: &domain.Annotation{NormalizedPageURL: "example.com/b"}}, "example.com/b"},
		{"page link", &events.ListEventData{List: &domain.List{Type: domain.ListTypePageLink, NormalizedPageURL: "example.com/c"}}, "example.com/c"},
		{"user list", &events.ListEventData{List: &domain.List{Type: domain.ListTypeUser}}, ""},
		{"state", &events.ListsStateEventData{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := FromCacheEvent(events.New(events.ListAdded, tt.data))
			assert.Equal(t, tt.want, e.Page)
			assert.Equal(t, EventType(events.ListAdded), e.Type)
		})
	}
}

func TestManager_PageFiltering(t *testing.T) {
	m := newTestManager(t)

	all, err := m.Connect("")
	require.NoError(t, err)
	pageA, err := m.Connect("example.com/a")
	require.NoError(t, err)
	assert.Equal(t, 2, m.ClientCount())
	assert.True(t, strings.HasPrefix(all.ID, "sse-"))

	m.Emit(Event{Type: "page.updated", Page: "example.com/b"})
	assert.Equal(t, EventType("page.updated"), receive(t, all).Type)
	assertNothing(t, pageA)

	m.Emit(Event{Type: "page.updated", Page: "example.com/a"})
	assert.Equal(t, "example.com/a", receive(t, all).Page)
	assert.Equal(t, "example.com/a", receive(t, pageA).Page)

	// Unscoped events reach everyone.
	m.Emit(Event{Type: "lists.state"})
	receive(t, all)
	receive(t, pageA)
}

func TestManager_Attach(t *testing.T) {
	m := newTestManager(t)
	bus := events.NewBus()
	detach := m.Attach(bus)

	c, err := m.Connect("")
	require.NoError(t, err)

	bus.Emit(events.New(events.AnnotationAdded, &events.AnnotationEventData{
		Annotation: &domain.Annotation{UnifiedID: "0", NormalizedPageURL: "example.com/a"},
	}))
	e := receive(t, c)
	assert.Equal(t, EventType(events.AnnotationAdded), e.Type)
	assert.Equal(t, "example.com/a", e.Page)

	detach()
	bus.Emit(events.New(events.ListsState, &events.ListsStateEventData{}))
	assertNothing(t, c)
}

func TestManager_Disconnect(t *testing.T) {
	m := newTestManager(t)
	c, err := m.Connect("")
	require.NoError(t, err)

	m.Disconnect(c.ID)
	m.Disconnect(c.ID)
	assert.Zero(t, m.ClientCount())

	_, open := <-c.Done
	assert.False(t, open)
}

func TestManager_Shutdown(t *testing.T) {
	m := NewManager(slog.New(slog.DiscardHandler))
	c, err := m.Connect("")
	require.NoError(t, err)

	m.Emit(Event{Type: "lists.state"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))
	require.NoError(t, m.Shutdown(ctx))

	// The queued event was drained to the client before it was closed.
	e, ok := <-c.EventChan
	require.True(t, ok)
	assert.Equal(t, EventType("lists.state"), e.Type)
	_, ok = <-c.EventChan
	assert.False(t, ok)

	// Emitting after shutdown is a no-op.
	m.Emit(Event{Type: "lists.state"})
	assert.Zero(t, m.ClientCount())
}

func TestHandler_Stream(t *testing.T) {
	m := newTestManager(t)
	srv := httptest.NewServer(NewHandler(m, slog.New(slog.DiscardHandler)))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"?url=https://www.example.com/a?utm_source=x", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readEvent := func() (string, map[string]any) {
		t.Helper()
		var name string
		var payload map[string]any
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			line = strings.TrimRight(line, "\n")
			switch {
			case strings.HasPrefix(line, "event: "):
				name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &payload))
			case line == "":
				return name, payload
			}
		}
	}

	name, payload := readEvent()
	assert.Equal(t, "connected", name)
	data := payload["data"].(map[string]any)
	assert.Equal(t, "example.com/a", data["page"])

	require.Eventually(t, func() bool { return m.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	m.Emit(Event{Type: "page.updated", Page: "example.com/other", Timestamp: time.Now()})
	m.Emit(Event{Type: "page.updated", Page: "example.com/a", Timestamp: time.Now(), Data: map[string]string{"normalizedPageUrl": "example.com/a"}})

	name, payload = readEvent()
	assert.Equal(t, "page.updated", name)
	assert.Equal(t, "example.com/a", payload["data"].(map[string]any)["normalizedPageUrl"])
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h := NewHandler(NewManager(slog.New(slog.DiscardHandler)), slog.New(slog.DiscardHandler))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/stream", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
