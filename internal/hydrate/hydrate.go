package hydrate

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/spacemark/pagecache/internal/domain"
	"github.com/spacemark/pagecache/internal/pageurl"
)

// Target is the write side of the cache hydration fills.
type Target interface {
	SetLists(records []domain.ListRecord) ([]string, error)
	SetAnnotations(records []domain.AnnotationRecord) ([]string, error)
	SetPageData(normalizedPageURL string, listIDs []string)
	ListByLocalID(localID int64) *domain.List
}

// PageOptions tunes HydrateForPage.
type PageOptions struct {
	// SkipListHydration leaves cached lists untouched and only loads annotations.
	SkipListHydration bool
	// ShareUnsharedLists privately shares every local list that has no remote counterpart yet,
	// so each cached list can take part in sharing.
	ShareUnsharedLists bool
}

// Hydrator loads cache state from the background stores on behalf of a user.
type Hydrator struct {
	backend Backend
	user    *domain.UserReference
	logger  *slog.Logger
}

// NewHydrator creates a hydrator. user may be nil when nobody is signed in.
func NewHydrator(backend Backend, user *domain.UserReference, logger *slog.Logger) *Hydrator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hydrator{
		backend: backend,
		user:    user,
		logger:  logger,
	}
}

// HydrateForPage replaces the cache contents with the lists and annotations relevant to a page:
// local lists with their share metadata, followed lists containing the page, then the page's
// annotations. Public annotations inherit the page's shared lists. Finally the page's list
// associations are set.
func (h *Hydrator) HydrateForPage(ctx context.Context, c Target, fullPageURL string, opts PageOptions) error {
	if !opts.SkipListHydration {
		if err := h.hydratePageLists(ctx, c, fullPageURL, opts); err != nil {
			return err
		}
	}

	local, err := h.backend.ListAnnotationsByPage(ctx, fullPageURL)
	if err != nil {
		return fmt.Errorf("list annotations by page: %w", err)
	}

	urls := make([]string, len(local))
	for i, a := range local {
		urls[i] = a.URL
	}
	levels, err := h.backend.AnnotationPrivacyLevels(ctx, urls)
	if err != nil {
		return fmt.Errorf("find annotation privacy levels: %w", err)
	}
	remoteIDs, err := h.backend.RemoteAnnotationIDs(ctx, urls)
	if err != nil {
		return fmt.Errorf("get remote annotation IDs: %w", err)
	}
	pageLocalListIDs, err := h.backend.FetchPageLists(ctx, fullPageURL)
	if err != nil {
		return fmt.Errorf("fetch page lists: %w", err)
	}

	var sharedPageLists []string
	for _, localID := range pageLocalListIDs {
		if l := c.ListByLocalID(localID); l != nil && l.IsShared() {
			sharedPageLists = append(sharedPageLists, l.UnifiedID)
		}
	}

	records := make([]domain.AnnotationRecord, 0, len(local))
	for _, a := range local {
		r, err := ReshapeLocalAnnotation(a, h.user)
		if err != nil {
			h.logger.Warn("skipping annotation", slog.String("local_id", a.URL), slog.Any("error", err))
			continue
		}
		r.RemoteID = remoteIDs[a.URL]
		if level, ok := levels[a.URL]; ok {
			r.PrivacyLevel = level
		}
		if r.PrivacyLevel.IsShared() {
			r.UnifiedListIDs = slices.Clone(sharedPageLists)
		}
		records = append(records, r)
	}

	if _, err := c.SetAnnotations(records); err != nil {
		return fmt.Errorf("set annotations: %w", err)
	}

	pageListIDs := make([]string, 0, len(pageLocalListIDs))
	for _, localID := range pageLocalListIDs {
		if l := c.ListByLocalID(localID); l != nil {
			pageListIDs = append(pageListIDs, l.UnifiedID)
		}
	}
	c.SetPageData(pageurl.Normalize(fullPageURL), pageListIDs)

	h.logger.Debug("hydrated cache for page",
		slog.String("page", fullPageURL),
		slog.Int("annotations", len(records)),
		slog.Int("page_lists", len(pageListIDs)),
	)
	return nil
}

// HydrateForListUsage replaces the cached lists with every non-special local list and every
// followed list, for list pickers and dashboards.
func (h *Hydrator) HydrateForListUsage(ctx context.Context, c Target) error {
	local, err := h.backend.FetchAllLists(ctx, FetchListsOptions{IncludeDescriptions: true, SkipSpecialLists: true})
	if err != nil {
		return fmt.Errorf("fetch all lists: %w", err)
	}
	followed, err := h.backend.AllFollowedLists(ctx)
	if err != nil {
		return fmt.Errorf("get all followed lists: %w", err)
	}
	metadata, err := h.backend.ListShareMetadata(ctx, localIDs(local))
	if err != nil {
		return fmt.Errorf("get list share metadata: %w", err)
	}

	return h.hydrateLists(ctx, c, local, metadata, followed)
}

func (h *Hydrator) hydratePageLists(ctx context.Context, c Target, fullPageURL string, opts PageOptions) error {
	local, err := h.backend.FetchAllLists(ctx, FetchListsOptions{})
	if err != nil {
		return fmt.Errorf("fetch all lists: %w", err)
	}
	metadata, err := h.backend.ListShareMetadata(ctx, localIDs(local))
	if err != nil {
		return fmt.Errorf("get list share metadata: %w", err)
	}

	if metadata == nil {
		metadata = make(map[int64]ShareMetadata)
	}

	if opts.ShareUnsharedLists {
		for _, l := range local {
			if _, ok := metadata[l.ID]; ok {
				continue
			}
			remoteID, err := h.backend.ScheduleListShare(ctx, l.ID, true)
			if err != nil {
				return fmt.Errorf("share list %d: %w", l.ID, err)
			}
			metadata[l.ID] = ShareMetadata{LocalID: l.ID, RemoteID: remoteID, Private: domain.Bool(true)}
		}
	}

	remoteIDs := make([]string, 0, len(metadata))
	for _, m := range metadata {
		if m.RemoteID != "" {
			remoteIDs = append(remoteIDs, m.RemoteID)
		}
	}
	slices.Sort(remoteIDs)

	followed, err := h.backend.PageFollowedLists(ctx, fullPageURL, remoteIDs)
	if err != nil {
		return fmt.Errorf("get page followed lists: %w", err)
	}

	return h.hydrateLists(ctx, c, local, metadata, followed)
}

type entryData struct {
	id                string
	normalizedPageURL string
	title             string
}

func (h *Hydrator) hydrateLists(
	ctx context.Context,
	c Target,
	local []LocalList,
	metadata map[int64]ShareMetadata,
	followed map[string]FollowedList,
) error {
	if metadata == nil {
		metadata = make(map[int64]ShareMetadata)
	}

	entries, err := h.pageLinkEntries(ctx, local, metadata, followed)
	if err != nil {
		return err
	}

	records := make([]domain.ListRecord, 0, len(local)+len(followed))
	seen := make(map[string]bool)

	for _, l := range local {
		m, hasMetadata := metadata[l.ID]

		// Lists shared before privacy existed are public.
		if hasMetadata && m.RemoteID != "" && m.Private == nil {
			if err := h.backend.UpdateListPrivacy(ctx, l.ID, false); err != nil {
				return fmt.Errorf("update privacy of list %d: %w", l.ID, err)
			}
			m.Private = domain.Bool(false)
			metadata[l.ID] = m
		}

		if m.RemoteID != "" {
			l.RemoteID = m.RemoteID
		}

		creator := h.user
		hasRemoteAnnotations := false
		if f, ok := followed[l.RemoteID]; ok && l.RemoteID != "" {
			seen[f.SharedList] = true
			hasRemoteAnnotations = f.HasAnnotationsFromOthers
			creator = domain.NewUserReference(f.Creator)
		}
		r := ReshapeLocalList(l, hasRemoteAnnotations)
		r.Creator = creator
		r.IsPrivate = m.Private == nil || *m.Private

		if r.Type == domain.ListTypePageLink && !h.applyEntry(&r, entries) {
			continue
		}
		records = append(records, r)
	}

	followedIDs := make([]string, 0, len(followed))
	for remoteID := range followed {
		followedIDs = append(followedIDs, remoteID)
	}
	slices.Sort(followedIDs)

	for _, remoteID := range followedIDs {
		f := followed[remoteID]
		if seen[f.SharedList] {
			continue
		}
		r := ReshapeFollowedList(f, f.HasAnnotationsFromOthers)
		if r.Type == domain.ListTypePageLink && !h.applyEntry(&r, entries) {
			continue
		}
		records = append(records, r)
	}

	if _, err := c.SetLists(records); err != nil {
		return fmt.Errorf("set lists: %w", err)
	}
	h.logger.Debug("hydrated cache lists", slog.Int("lists", len(records)))
	return nil
}

// pageLinkEntries looks up the first entry of every page-link list, keyed by remote list ID.
func (h *Hydrator) pageLinkEntries(
	ctx context.Context,
	local []LocalList,
	metadata map[int64]ShareMetadata,
	followed map[string]FollowedList,
) (map[string]entryData, error) {
	var remoteIDs []string
	for _, f := range followed {
		if f.Type == LocalListTypePageLink {
			remoteIDs = append(remoteIDs, f.SharedList)
		}
	}
	for _, l := range local {
		if m, ok := metadata[l.ID]; ok && m.RemoteID != "" && l.Type == LocalListTypePageLink {
			remoteIDs = append(remoteIDs, m.RemoteID)
		}
	}
	if len(remoteIDs) == 0 {
		return map[string]entryData{}, nil
	}
	slices.Sort(remoteIDs)
	remoteIDs = slices.Compact(remoteIDs)

	byList, err := h.backend.EntriesForFollowedLists(ctx, remoteIDs)
	if err != nil {
		return nil, fmt.Errorf("get entries for followed lists: %w", err)
	}

	out := make(map[string]entryData, len(byList))
	for _, entries := range byList {
		if len(entries) == 0 {
			continue
		}
		first := entries[0]
		out[first.FollowedList] = entryData{
			id:                first.SharedListEntry,
			normalizedPageURL: first.NormalizedPageURL,
			title:             first.EntryTitle,
		}
	}
	return out, nil
}

// applyEntry fills a page-link record from its entry. Page links without an entry cannot be
// cached and are reported as skipped.
func (h *Hydrator) applyEntry(r *domain.ListRecord, entries map[string]entryData) bool {
	e, ok := entries[r.RemoteID]
	if !ok || r.RemoteID == "" {
		h.logger.Warn("skipping page link without an entry",
			slog.String("remote_id", r.RemoteID),
			slog.String("name", r.Name),
		)
		return false
	}
	r.NormalizedPageURL = e.normalizedPageURL
	r.SharedListEntryID = e.id
	r.PageTitle = e.title
	return true
}

func localIDs(lists []LocalList) []int64 {
	ids := make([]int64, len(lists))
	for i, l := range lists {
		ids[i] = l.ID
	}
	return ids
}
