// Package events defines the change notifications published by the page annotation cache
// and a synchronous in-process bus to deliver them.
package events

import (
	"time"

	"github.com/spacemark/pagecache/internal/domain"
	"github.com/spacemark/pagecache/internal/normalized"
)

// Type represents the type of cache event.
type Type string

const (
	// PageDataUpdated fires when the set of lists associated with a page changes.
	PageDataUpdated Type = "page.updated"

	// AnnotationsState carries the full annotations store after a change.
	AnnotationsState Type = "annotations.state"
	// ListsState carries the full lists store after a change.
	ListsState Type = "lists.state"

	// AnnotationAdded represents a single annotation being cached.
	AnnotationAdded Type = "annotation.added"
	// AnnotationUpdated represents a single annotation changing.
	AnnotationUpdated Type = "annotation.updated"
	// AnnotationRemoved represents a single annotation leaving the cache.
	AnnotationRemoved Type = "annotation.removed"

	// ListAdded represents a single list being cached.
	ListAdded Type = "list.added"
	// ListUpdated represents a single list changing.
	ListUpdated Type = "list.updated"
	// ListRemoved represents a single list leaving the cache.
	ListRemoved Type = "list.removed"
)

// AllTypes lists every event type the cache publishes.
var AllTypes = []Type{
	PageDataUpdated,
	AnnotationsState,
	ListsState,
	AnnotationAdded,
	AnnotationUpdated,
	AnnotationRemoved,
	ListAdded,
	ListUpdated,
	ListRemoved,
}

// Event is a single notification. Data holds one of the *EventData payloads below.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      Type      `json:"type"`
}

// PageDataEventData is the payload for PageDataUpdated.
type PageDataEventData struct {
	NormalizedPageURL string   `json:"normalizedPageUrl"`
	ListIDs           []string `json:"listIds"`
}

// AnnotationsStateEventData is the payload for AnnotationsState.
type AnnotationsStateEventData struct {
	Annotations *normalized.State[domain.Annotation] `json:"annotations"`
}

// ListsStateEventData is the payload for ListsState.
type ListsStateEventData struct {
	Lists *normalized.State[domain.List] `json:"lists"`
}

// AnnotationEventData is the payload for the single-annotation events.
type AnnotationEventData struct {
	Annotation *domain.Annotation `json:"annotation"`
}

// ListEventData is the payload for the single-list events.
type ListEventData struct {
	List *domain.List `json:"list"`
}

// New stamps an event with the current time.
func New(t Type, data any) Event {
	return Event{
		Timestamp: time.Now(),
		Type:      t,
		Data:      data,
	}
}
