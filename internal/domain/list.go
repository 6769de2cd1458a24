package domain

import "slices"

// ListType discriminates the list variants held in the cache.
type ListType string

const (
	// ListTypeUser is a user-owned list that can nest under other user lists.
	ListTypeUser ListType = "user-list"
	// ListTypeSpecial is a system list (inbox, mobile, feed). Never nested.
	ListTypeSpecial ListType = "special-list"
	// ListTypePageLink is a single page shared via an invite link.
	ListTypePageLink ListType = "page-link"
)

// List is a cached space.
//
// Tree fields (ParentUnifiedID, ParentLocalID, PathUnifiedIDs, PathLocalIDs, Order) are only
// meaningful for ListTypeUser. An empty ParentUnifiedID marks a root list. Paths run root to parent.
//
// Page-link fields (NormalizedPageURL, PageTitle, SharedListEntryID) are only meaningful for
// ListTypePageLink, which also always carries a RemoteID.
type List struct {
	UnifiedID                  string         `json:"unifiedId"`
	LocalID                    *int64         `json:"localId,omitempty"`
	RemoteID                   string         `json:"remoteId,omitempty"`
	Type                       ListType       `json:"type"`
	Name                       string         `json:"name"`
	Description                string         `json:"description,omitempty"`
	Creator                    *UserReference `json:"creator,omitempty"`
	HasRemoteAnnotationsToLoad bool           `json:"hasRemoteAnnotationsToLoad"`
	IsForeignList              bool           `json:"isForeignList,omitempty"`
	IsPrivate                  bool           `json:"isPrivate,omitempty"`
	UnifiedAnnotationIDs       []string       `json:"unifiedAnnotationIds"`

	ParentUnifiedID string   `json:"parentUnifiedId,omitempty"`
	ParentLocalID   *int64   `json:"parentLocalId,omitempty"`
	PathUnifiedIDs  []string `json:"pathUnifiedIds,omitempty"`
	PathLocalIDs    []int64  `json:"pathLocalIds,omitempty"`
	Order           string   `json:"order,omitempty"`

	NormalizedPageURL string `json:"normalizedPageUrl,omitempty"`
	PageTitle         string `json:"pageTitle,omitempty"`
	SharedListEntryID string `json:"sharedListEntryId,omitempty"`
}

// Clone returns a deep copy safe to hand to callers outside the cache.
func (l *List) Clone() *List {
	if l == nil {
		return nil
	}
	c := *l
	c.LocalID = cloneInt64(l.LocalID)
	c.ParentLocalID = cloneInt64(l.ParentLocalID)
	c.UnifiedAnnotationIDs = slices.Clone(l.UnifiedAnnotationIDs)
	c.PathUnifiedIDs = slices.Clone(l.PathUnifiedIDs)
	c.PathLocalIDs = slices.Clone(l.PathLocalIDs)
	if l.Creator != nil {
		creator := *l.Creator
		c.Creator = &creator
	}
	return &c
}

// IsShared reports whether the list exists in the remote backend.
func (l *List) IsShared() bool {
	return l.RemoteID != ""
}

// IsRoot reports whether the list sits at the top of the tree.
func (l *List) IsRoot() bool {
	return l.ParentUnifiedID == ""
}

// ContainsAnnotation checks if an annotation ID is in this list's membership set.
func (l *List) ContainsAnnotation(annotationID string) bool {
	return slices.Contains(l.UnifiedAnnotationIDs, annotationID)
}

// PrependAnnotation inserts an annotation at the front of the membership set if not already present.
func (l *List) PrependAnnotation(annotationID string) bool {
	if l.ContainsAnnotation(annotationID) {
		return false
	}
	l.UnifiedAnnotationIDs = slices.Insert(l.UnifiedAnnotationIDs, 0, annotationID)
	return true
}

// AppendAnnotation adds an annotation to the end of the membership set if not already present.
func (l *List) AppendAnnotation(annotationID string) bool {
	if l.ContainsAnnotation(annotationID) {
		return false
	}
	l.UnifiedAnnotationIDs = append(l.UnifiedAnnotationIDs, annotationID)
	return true
}

// RemoveAnnotation removes an annotation from the membership set.
func (l *List) RemoveAnnotation(annotationID string) bool {
	i := slices.Index(l.UnifiedAnnotationIDs, annotationID)
	if i < 0 {
		return false
	}
	l.UnifiedAnnotationIDs = slices.Delete(l.UnifiedAnnotationIDs, i, i+1)
	return true
}

// ListRecord is a list reshaped for caching, before it has a cache ID.
// Parent and path are given in local IDs; the cache resolves them to cache IDs.
type ListRecord struct {
	LocalID                    *int64         `json:"localId,omitempty"`
	RemoteID                   string         `json:"remoteId,omitempty" validate:"required_if=Type page-link"`
	Type                       ListType       `json:"type" validate:"required,oneof=user-list special-list page-link"`
	Name                       string         `json:"name"`
	Description                string         `json:"description,omitempty"`
	Creator                    *UserReference `json:"creator,omitempty"`
	HasRemoteAnnotationsToLoad bool           `json:"hasRemoteAnnotationsToLoad"`
	IsForeignList              bool           `json:"isForeignList,omitempty"`
	IsPrivate                  bool           `json:"isPrivate,omitempty"`
	UnifiedAnnotationIDs       []string       `json:"unifiedAnnotationIds,omitempty"`

	ParentLocalID *int64  `json:"parentLocalId,omitempty"`
	PathLocalIDs  []int64 `json:"pathLocalIds,omitempty"`
	Order         string  `json:"order,omitempty"`

	NormalizedPageURL string `json:"normalizedPageUrl,omitempty" validate:"required_if=Type page-link"`
	PageTitle         string `json:"pageTitle,omitempty"`
	SharedListEntryID string `json:"sharedListEntryId,omitempty" validate:"required_if=Type page-link"`
}

// ListUpdate carries the fields a list update may change. Nil pointers leave values alone.
// ParentUnifiedID pointing at "" moves the list to the top level.
type ListUpdate struct {
	UnifiedID                  string
	Name                       *string
	Description                *string
	Order                      *string
	RemoteID                   *string
	IsPrivate                  *bool
	ParentUnifiedID            *string
	NormalizedPageURL          *string
	SharedListEntryID          *string
	HasRemoteAnnotationsToLoad *bool
}

// Int64 returns a pointer to v. Handy for optional local IDs.
func Int64(v int64) *int64 {
	return &v
}

// String returns a pointer to v.
func String(v string) *string {
	return &v
}

// Bool returns a pointer to v.
func Bool(v bool) *bool {
	return &v
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
