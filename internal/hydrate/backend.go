// Package hydrate fills the page annotation cache from the background stores: local lists and
// annotations, list sharing metadata, and followed lists from the activity feed.
package hydrate

import (
	"context"

	"github.com/spacemark/pagecache/internal/domain"
)

// Special list IDs used by the local store for system lists.
const (
	MobileListID int64 = 20201014
	InboxListID  int64 = 20201015
	FeedListID   int64 = 20201016
)

// LocalListTypePageLink marks a local list that holds a single shared page.
const LocalListTypePageLink = "page-link"

// IsSpecialListID reports whether id is one of the system list IDs.
func IsSpecialListID(id int64) bool {
	return id == MobileListID || id == InboxListID || id == FeedListID
}

// LocalAnnotation is an annotation as kept by the local store. URL is its local ID.
type LocalAnnotation struct {
	URL                  string         `json:"url"`
	PageURL              string         `json:"pageUrl"`
	Body                 string         `json:"body,omitempty"`
	Comment              string         `json:"comment,omitempty"`
	Selector             *domain.Anchor `json:"selector,omitempty"`
	IsShared             bool           `json:"isShared,omitempty"`
	IsBulkShareProtected bool           `json:"isBulkShareProtected,omitempty"`
	Lists                []int64        `json:"lists,omitempty"`
	CreatedWhen          int64          `json:"createdWhen"`
	LastEdited           int64          `json:"lastEdited,omitempty"`
	ColorID              string         `json:"color,omitempty"`
}

// SharedAnnotation is an annotation fetched from the collaboration backend.
type SharedAnnotation struct {
	ID                string                `json:"id"`
	Creator           *domain.UserReference `json:"creator,omitempty"`
	NormalizedPageURL string                `json:"normalizedPageUrl"`
	Body              string                `json:"body,omitempty"`
	Comment           string                `json:"comment,omitempty"`
	Selector          *domain.Anchor        `json:"selector,omitempty"`
	CreatedWhen       int64                 `json:"createdWhen"`
	UpdatedWhen       int64                 `json:"updatedWhen"`
	ColorID           string                `json:"color,omitempty"`
}

// LocalList is a list as kept by the local store.
type LocalList struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description,omitempty"`
	RemoteID     string  `json:"remoteId,omitempty"`
	Type         string  `json:"type,omitempty"`
	ParentListID *int64  `json:"parentListId,omitempty"`
	PathListIDs  []int64 `json:"pathListIds,omitempty"`
	Order        string  `json:"order,omitempty"`
}

// ShareMetadata describes how a local list is shared. Private is nil for lists shared before
// list privacy existed.
type ShareMetadata struct {
	LocalID  int64  `json:"localId"`
	RemoteID string `json:"remoteId,omitempty"`
	Private  *bool  `json:"private,omitempty"`
}

// FollowedList is a shared list the user follows, keyed by its remote ID.
type FollowedList struct {
	SharedList               string `json:"sharedList"`
	Creator                  string `json:"creator"`
	Name                     string `json:"name"`
	Type                     string `json:"type,omitempty"`
	HasAnnotationsFromOthers bool   `json:"hasAnnotationsFromOthers,omitempty"`
}

// FollowedListEntry is a page inside a followed list.
type FollowedListEntry struct {
	FollowedList      string `json:"followedList"`
	SharedListEntry   string `json:"sharedListEntry"`
	NormalizedPageURL string `json:"normalizedPageUrl"`
	EntryTitle        string `json:"entryTitle,omitempty"`
	CreatedWhen       int64  `json:"createdWhen"`
}

// FetchListsOptions narrows FetchAllLists.
type FetchListsOptions struct {
	IncludeDescriptions bool
	SkipSpecialLists    bool
}

// ListsBackend reads the user's local lists.
type ListsBackend interface {
	FetchAllLists(ctx context.Context, opts FetchListsOptions) ([]LocalList, error)
	// FetchPageLists returns the local IDs of the lists a page belongs to.
	FetchPageLists(ctx context.Context, fullPageURL string) ([]int64, error)
}

// AnnotationsBackend reads the user's local annotations.
type AnnotationsBackend interface {
	ListAnnotationsByPage(ctx context.Context, fullPageURL string) ([]LocalAnnotation, error)
}

// SharingBackend reads and updates the sharing state of lists and annotations.
type SharingBackend interface {
	ListShareMetadata(ctx context.Context, localListIDs []int64) (map[int64]ShareMetadata, error)
	// ScheduleListShare shares a local list and returns the remote ID it was given.
	ScheduleListShare(ctx context.Context, localListID int64, isPrivate bool) (string, error)
	UpdateListPrivacy(ctx context.Context, localListID int64, isPrivate bool) error
	AnnotationPrivacyLevels(ctx context.Context, annotationURLs []string) (map[string]domain.PrivacyLevel, error)
	RemoteAnnotationIDs(ctx context.Context, annotationURLs []string) (map[string]string, error)
}

// ActivityBackend reads followed lists and their entries.
type ActivityBackend interface {
	// PageFollowedLists returns followed lists containing the page, minus those in exclude.
	PageFollowedLists(ctx context.Context, fullPageURL string, exclude []string) (map[string]FollowedList, error)
	AllFollowedLists(ctx context.Context) (map[string]FollowedList, error)
	// EntriesForFollowedLists returns each list's entries, oldest first.
	EntriesForFollowedLists(ctx context.Context, remoteListIDs []string) (map[string][]FollowedListEntry, error)
}

// Backend bundles every store hydration reads from.
type Backend interface {
	ListsBackend
	AnnotationsBackend
	SharingBackend
	ActivityBackend
}
