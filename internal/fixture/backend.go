// Package fixture serves the hydration backends from a JSON snapshot of the background stores.
// It stands in for the browser extension's storage when running the cache as a standalone service.
package fixture

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/spacemark/pagecache/internal/domain"
	"github.com/spacemark/pagecache/internal/hydrate"
	"github.com/spacemark/pagecache/internal/id"
	"github.com/spacemark/pagecache/internal/pageurl"
)

// Data is the on-disk snapshot. Page keyed maps use normalized page URLs.
type Data struct {
	User                *domain.UserReference          `json:"user,omitempty"`
	Lists               []hydrate.LocalList            `json:"lists"`
	PageLists           map[string][]int64             `json:"pageLists"`
	Annotations         []hydrate.LocalAnnotation      `json:"annotations"`
	ShareMetadata       []hydrate.ShareMetadata        `json:"shareMetadata"`
	AnnotationPrivacy   map[string]domain.PrivacyLevel `json:"annotationPrivacy"`
	RemoteAnnotationIDs map[string]string              `json:"remoteAnnotationIds"`
	FollowedLists       []hydrate.FollowedList         `json:"followedLists"`
	FollowedListEntries []hydrate.FollowedListEntry    `json:"followedListEntries"`
}

// Backend implements hydrate.Backend over a Data snapshot.
type Backend struct {
	mu   sync.RWMutex
	path string
	data *Data
}

var _ hydrate.Backend = (*Backend)(nil)

// New wraps an in-memory snapshot.
func New(data *Data) *Backend {
	if data == nil {
		data = &Data{}
	}
	return &Backend{data: data}
}

// Load reads a snapshot from a JSON file.
func Load(path string) (*Backend, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return &Backend{path: path, data: data}, nil
}

// Path returns the file the snapshot was loaded from, if any.
func (b *Backend) Path() string {
	return b.path
}

// Reload re-reads the snapshot file. The previous snapshot is kept when the file is invalid.
func (b *Backend) Reload() error {
	if b.path == "" {
		return nil
	}
	data, err := readFile(b.path)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = data
	return nil
}

// User returns the user the snapshot belongs to.
func (b *Backend) User() *domain.UserReference {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.data.User == nil {
		return nil
	}
	u := *b.data.User
	return &u
}

func readFile(path string) (*Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode fixture %s: %w", path, err)
	}
	return &data, nil
}

// FetchAllLists implements hydrate.ListsBackend.
func (b *Backend) FetchAllLists(ctx context.Context, opts hydrate.FetchListsOptions) ([]hydrate.LocalList, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]hydrate.LocalList, 0, len(b.data.Lists))
	for _, l := range b.data.Lists {
		if opts.SkipSpecialLists && hydrate.IsSpecialListID(l.ID) {
			continue
		}
		if !opts.IncludeDescriptions {
			l.Description = ""
		}
		l.PathListIDs = slices.Clone(l.PathListIDs)
		out = append(out, l)
	}
	return out, nil
}

// FetchPageLists implements hydrate.ListsBackend.
func (b *Backend) FetchPageLists(ctx context.Context, fullPageURL string) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	page := pageurl.Normalize(fullPageURL)
	for key, ids := range b.data.PageLists {
		if pageurl.Equal(key, page) {
			return slices.Clone(ids), nil
		}
	}
	return []int64{}, nil
}

// ListAnnotationsByPage implements hydrate.AnnotationsBackend.
func (b *Backend) ListAnnotationsByPage(ctx context.Context, fullPageURL string) ([]hydrate.LocalAnnotation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	page := pageurl.Normalize(fullPageURL)
	var out []hydrate.LocalAnnotation
	for _, a := range b.data.Annotations {
		if pageurl.Equal(a.PageURL, page) {
			a.Lists = slices.Clone(a.Lists)
			out = append(out, a)
		}
	}
	return out, nil
}

// ListShareMetadata implements hydrate.SharingBackend.
func (b *Backend) ListShareMetadata(ctx context.Context, localListIDs []int64) (map[int64]hydrate.ShareMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[int64]hydrate.ShareMetadata)
	for _, m := range b.data.ShareMetadata {
		if slices.Contains(localListIDs, m.LocalID) {
			out[m.LocalID] = m
		}
	}
	return out, nil
}

// ScheduleListShare implements hydrate.SharingBackend by minting a remote ID.
func (b *Backend) ScheduleListShare(ctx context.Context, localListID int64, isPrivate bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	remoteID, err := id.Generate("list")
	if err != nil {
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.data.ShareMetadata = append(b.data.ShareMetadata, hydrate.ShareMetadata{
		LocalID:  localListID,
		RemoteID: remoteID,
		Private:  domain.Bool(isPrivate),
	})
	return remoteID, nil
}

// UpdateListPrivacy implements hydrate.SharingBackend.
func (b *Backend) UpdateListPrivacy(ctx context.Context, localListID int64, isPrivate bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.data.ShareMetadata {
		if b.data.ShareMetadata[i].LocalID == localListID {
			b.data.ShareMetadata[i].Private = domain.Bool(isPrivate)
			return nil
		}
	}
	return fmt.Errorf("list %d is not shared", localListID)
}

// AnnotationPrivacyLevels implements hydrate.SharingBackend.
func (b *Backend) AnnotationPrivacyLevels(ctx context.Context, annotationURLs []string) (map[string]domain.PrivacyLevel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return subset(b.data.AnnotationPrivacy, annotationURLs), nil
}

// RemoteAnnotationIDs implements hydrate.SharingBackend.
func (b *Backend) RemoteAnnotationIDs(ctx context.Context, annotationURLs []string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return subset(b.data.RemoteAnnotationIDs, annotationURLs), nil
}

// PageFollowedLists implements hydrate.ActivityBackend. A followed list contains a page when
// one of its entries points at it.
func (b *Backend) PageFollowedLists(ctx context.Context, fullPageURL string, exclude []string) (map[string]hydrate.FollowedList, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	page := pageurl.Normalize(fullPageURL)
	onPage := make(map[string]bool)
	for _, e := range b.data.FollowedListEntries {
		if pageurl.Equal(e.NormalizedPageURL, page) {
			onPage[e.FollowedList] = true
		}
	}

	out := make(map[string]hydrate.FollowedList)
	for _, f := range b.data.FollowedLists {
		if onPage[f.SharedList] && !slices.Contains(exclude, f.SharedList) {
			out[f.SharedList] = f
		}
	}
	return out, nil
}

// AllFollowedLists implements hydrate.ActivityBackend.
func (b *Backend) AllFollowedLists(ctx context.Context) (map[string]hydrate.FollowedList, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[string]hydrate.FollowedList, len(b.data.FollowedLists))
	for _, f := range b.data.FollowedLists {
		out[f.SharedList] = f
	}
	return out, nil
}

// EntriesForFollowedLists implements hydrate.ActivityBackend.
func (b *Backend) EntriesForFollowedLists(ctx context.Context, remoteListIDs []string) (map[string][]hydrate.FollowedListEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[string][]hydrate.FollowedListEntry)
	for _, e := range b.data.FollowedListEntries {
		if slices.Contains(remoteListIDs, e.FollowedList) {
			out[e.FollowedList] = append(out[e.FollowedList], e)
		}
	}
	for _, entries := range out {
		slices.SortStableFunc(entries, func(a, b hydrate.FollowedListEntry) int {
			return cmp.Compare(a.CreatedWhen, b.CreatedWhen)
		})
	}
	return out, nil
}

func subset[V any](m map[string]V, keys []string) map[string]V {
	out := make(map[string]V, len(keys))
	for _, k := range keys {
		if v, ok := m[k]; ok {
			out[k] = v
		}
	}
	return out
}
