package fixture

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spacemark/pagecache/internal/domain"
	"github.com/spacemark/pagecache/internal/hydrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, path string, data *Data) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o600))
}

func testData() *Data {
	return &Data{
		User: domain.NewUserReference("u1"),
		Lists: []hydrate.LocalList{
			{ID: 1, Name: "Reading", Description: "long reads"},
			{ID: hydrate.InboxListID, Name: "Inbox"},
		},
		PageLists: map[string][]int64{"example.com/a": {1}},
		Annotations: []hydrate.LocalAnnotation{
			{URL: "a1", PageURL: "example.com/a", CreatedWhen: 1},
			{URL: "a2", PageURL: "example.com/b", CreatedWhen: 2},
		},
		ShareMetadata:       []hydrate.ShareMetadata{{LocalID: 1, RemoteID: "r1"}},
		AnnotationPrivacy:   map[string]domain.PrivacyLevel{"a1": domain.PrivacyShared},
		RemoteAnnotationIDs: map[string]string{"a1": "ra1", "a2": "ra2"},
		FollowedLists: []hydrate.FollowedList{
			{SharedList: "f1", Creator: "u2", Name: "Followed"},
			{SharedList: "f2", Creator: "u3", Name: "Elsewhere"},
		},
		FollowedListEntries: []hydrate.FollowedListEntry{
			{FollowedList: "f1", SharedListEntry: "late", NormalizedPageURL: "example.com/a", CreatedWhen: 20},
			{FollowedList: "f1", SharedListEntry: "early", NormalizedPageURL: "example.com/c", CreatedWhen: 10},
			{FollowedList: "f2", SharedListEntry: "x", NormalizedPageURL: "example.com/z", CreatedWhen: 1},
		},
	}
}

func TestLoadAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.json")
	writeFixture(t, path, testData())

	b, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, b.Path())
	assert.Equal(t, "u1", b.User().ID)

	updated := testData()
	updated.User = domain.NewUserReference("u9")
	writeFixture(t, path, updated)
	require.NoError(t, b.Reload())
	assert.Equal(t, "u9", b.User().ID)

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	err = b.Reload()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode fixture")
	assert.Equal(t, "u9", b.User().ID)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBackend_Lists(t *testing.T) {
	ctx := context.Background()
	b := New(testData())

	lists, err := b.FetchAllLists(ctx, hydrate.FetchListsOptions{})
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Empty(t, lists[0].Description)

	lists, err = b.FetchAllLists(ctx, hydrate.FetchListsOptions{IncludeDescriptions: true, SkipSpecialLists: true})
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, "long reads", lists[0].Description)

	pageLists, err := b.FetchPageLists(ctx, "https://www.example.com/a#section")
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, pageLists)

	pageLists, err = b.FetchPageLists(ctx, "https://example.com/unknown")
	require.NoError(t, err)
	assert.Empty(t, pageLists)
}

func TestBackend_Annotations(t *testing.T) {
	ctx := context.Background()
	b := New(testData())

	annotations, err := b.ListAnnotationsByPage(ctx, "http://example.com/a/")
	require.NoError(t, err)
	require.Len(t, annotations, 1)
	assert.Equal(t, "a1", annotations[0].URL)

	levels, err := b.AnnotationPrivacyLevels(ctx, []string{"a1", "a2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.PrivacyLevel{"a1": domain.PrivacyShared}, levels)

	remoteIDs, err := b.RemoteAnnotationIDs(ctx, []string{"a2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a2": "ra2"}, remoteIDs)
}

func TestBackend_Sharing(t *testing.T) {
	ctx := context.Background()
	b := New(testData())

	metadata, err := b.ListShareMetadata(ctx, []int64{1, 2})
	require.NoError(t, err)
	require.Contains(t, metadata, int64(1))
	assert.Nil(t, metadata[1].Private)

	require.NoError(t, b.UpdateListPrivacy(ctx, 1, true))
	metadata, err = b.ListShareMetadata(ctx, []int64{1})
	require.NoError(t, err)
	assert.True(t, *metadata[1].Private)

	assert.Error(t, b.UpdateListPrivacy(ctx, 2, false))

	remoteID, err := b.ScheduleListShare(ctx, 2, true)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(remoteID, "list-"), remoteID)

	metadata, err = b.ListShareMetadata(ctx, []int64{2})
	require.NoError(t, err)
	assert.Equal(t, remoteID, metadata[2].RemoteID)
}

func TestBackend_FollowedLists(t *testing.T) {
	ctx := context.Background()
	b := New(testData())

	all, err := b.AllFollowedLists(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onPage, err := b.PageFollowedLists(ctx, "https://example.com/a", nil)
	require.NoError(t, err)
	assert.Contains(t, onPage, "f1")
	assert.NotContains(t, onPage, "f2")

	onPage, err = b.PageFollowedLists(ctx, "https://example.com/a", []string{"f1"})
	require.NoError(t, err)
	assert.Empty(t, onPage)

	entries, err := b.EntriesForFollowedLists(ctx, []string{"f1"})
	require.NoError(t, err)
	require.Len(t, entries["f1"], 2)
	assert.Equal(t, "early", entries["f1"][0].SharedListEntry)
	assert.NotContains(t, entries, "f2")
}

func TestBackend_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(nil).FetchAllLists(ctx, hydrate.FetchListsOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}
