// Package domain holds the annotation and list entities of the page cache.
package domain

import (
	"encoding/json"
	"slices"
)

// UserReference points at a user in the remote collaboration backend.
type UserReference struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// NewUserReference returns a reference of the standard "user-reference" type.
func NewUserReference(id string) *UserReference {
	return &UserReference{Type: "user-reference", ID: id}
}

// CreatorID returns the referenced user ID, or "" for a nil reference.
func CreatorID(ref *UserReference) string {
	if ref == nil {
		return ""
	}
	return ref.ID
}

// Anchor locates a highlight on a page or PDF.
// Position is the highlight's offset within the document and drives page-order sorting.
// Descriptor is opaque to the cache and passed through untouched.
type Anchor struct {
	Quote      string          `json:"quote"`
	Position   int64           `json:"position"`
	Descriptor json.RawMessage `json:"descriptor,omitempty"`
}

// RGBAColor is a resolved highlight color.
type RGBAColor struct {
	R uint8   `json:"r"`
	G uint8   `json:"g"`
	B uint8   `json:"b"`
	A float64 `json:"a"`
}

// Annotation is a cached highlight or comment anchored to a page.
// UnifiedID is assigned by the cache and never changes for the lifetime of the entry.
type Annotation struct {
	UnifiedID         string         `json:"unifiedId"`
	LocalID           string         `json:"localId,omitempty"`
	RemoteID          string         `json:"remoteId,omitempty"`
	NormalizedPageURL string         `json:"normalizedPageUrl"`
	Body              string         `json:"body,omitempty"`
	Comment           string         `json:"comment,omitempty"`
	Selector          *Anchor        `json:"selector,omitempty"`
	Creator           *UserReference `json:"creator,omitempty"`
	PrivacyLevel      PrivacyLevel   `json:"privacyLevel"`
	UnifiedListIDs    []string       `json:"unifiedListIds"`
	CreatedWhen       int64          `json:"createdWhen"`
	LastEdited        int64          `json:"lastEdited"`
	ColorID           string         `json:"colorId,omitempty"`
	Color             *RGBAColor     `json:"color,omitempty"`
}

// Clone returns a deep copy safe to hand to callers outside the cache.
func (a *Annotation) Clone() *Annotation {
	if a == nil {
		return nil
	}
	c := *a
	c.UnifiedListIDs = slices.Clone(a.UnifiedListIDs)
	if a.Selector != nil {
		sel := *a.Selector
		sel.Descriptor = slices.Clone(a.Selector.Descriptor)
		c.Selector = &sel
	}
	if a.Creator != nil {
		creator := *a.Creator
		c.Creator = &creator
	}
	if a.Color != nil {
		color := *a.Color
		c.Color = &color
	}
	return &c
}

// InList checks if a list ID is in this annotation's membership set.
func (a *Annotation) InList(listID string) bool {
	return slices.Contains(a.UnifiedListIDs, listID)
}

// IsHighlight reports whether the annotation carries highlighted page text.
func (a *Annotation) IsHighlight() bool {
	return a.Body != ""
}

// AnnotationRecord is an annotation reshaped for caching, before it has a cache ID.
// LocalListIDs are resolved to cache IDs when the record is cached; lists must be cached first.
// Zero CreatedWhen means "now"; zero LastEdited falls back to CreatedWhen.
type AnnotationRecord struct {
	LocalID           string         `json:"localId,omitempty"`
	RemoteID          string         `json:"remoteId,omitempty"`
	NormalizedPageURL string         `json:"normalizedPageUrl" validate:"required"`
	Body              string         `json:"body,omitempty"`
	Comment           string         `json:"comment,omitempty"`
	Selector          *Anchor        `json:"selector,omitempty"`
	Creator           *UserReference `json:"creator,omitempty"`
	PrivacyLevel      PrivacyLevel   `json:"privacyLevel" validate:"oneof=0 100 200 300"`
	UnifiedListIDs    []string       `json:"unifiedListIds,omitempty"`
	LocalListIDs      []int64        `json:"localListIds,omitempty"`
	CreatedWhen       int64          `json:"createdWhen,omitempty" validate:"gte=0"`
	LastEdited        int64          `json:"lastEdited,omitempty" validate:"gte=0"`
	ColorID           string         `json:"colorId,omitempty"`
}

// AnnotationUpdate carries the fields an annotation update may change.
// PrivacyLevel and UnifiedListIDs are always applied through the privacy transition rules;
// nil pointers leave the existing value alone.
type AnnotationUpdate struct {
	UnifiedID      string
	RemoteID       *string
	Comment        *string
	ColorID        *string
	PrivacyLevel   PrivacyLevel `validate:"oneof=0 100 200 300"`
	UnifiedListIDs []string
}
