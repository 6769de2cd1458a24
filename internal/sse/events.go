// Package sse streams page annotation cache events to HTTP clients as Server-Sent Events.
package sse

import (
	"time"

	"github.com/spacemark/pagecache/internal/domain"
	"github.com/spacemark/pagecache/internal/events"
)

// EventType represents the type of SSE Event. Cache events keep their events.Type name.
type EventType string

const (
	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
	// EventConnected is sent once when a client attaches.
	EventConnected EventType = "connected"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// Page restricts delivery to clients watching this normalized page URL.
	// Empty means broadcast to all.
	Page string `json:"-"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// ConnectedEventData is the data payload for the connected event.
type ConnectedEventData struct {
	ClientID string `json:"client_id"`
	Page     string `json:"page,omitempty"`
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	now := time.Now()
	return Event{
		Type:      EventHeartbeat,
		Data:      HeartbeatEventData{ServerTime: now},
		Timestamp: now,
	}
}

// FromCacheEvent wraps a cache event. Events that concern a single page are scoped to it;
// full-state snapshots go to every client.
func FromCacheEvent(e events.Event) Event {
	return Event{
		Type:      EventType(e.Type),
		Data:      e.Data,
		Timestamp: e.Timestamp,
		Page:      pageOf(e.Data),
	}
}

func pageOf(data any) string {
	switch d := data.(type) {
	case *events.PageDataEventData:
		return d.NormalizedPageURL
	case *events.AnnotationEventData:
		if d.Annotation != nil {
			return d.Annotation.NormalizedPageURL
		}
	case *events.ListEventData:
		if d.List != nil && d.List.Type == domain.ListTypePageLink {
			return d.List.NormalizedPageURL
		}
	}
	return ""
}
