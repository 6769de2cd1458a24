package hydrate_test

import (
	"testing"

	"github.com/spacemark/pagecache/internal/domain"
	"github.com/spacemark/pagecache/internal/hydrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueries(t *testing.T) {
	c := newCache(t)
	ids, err := c.SetLists([]domain.ListRecord{
		{LocalID: domain.Int64(1), Type: domain.ListTypeUser, Name: "A"},
		{Type: domain.ListTypeUser, Name: "no local id", RemoteID: "r"},
	})
	require.NoError(t, err)
	listA, remoteOnly := ids[0], ids[1]

	add := func(body string, creator *domain.UserReference, lists ...int64) string {
		t.Helper()
		id, err := c.AddAnnotation(domain.AnnotationRecord{
			NormalizedPageURL: "example.com",
			Body:              body,
			Creator:           creator,
			LocalListIDs:      lists,
		})
		require.NoError(t, err)
		return id
	}

	mineNoCreator := add("highlight", nil, 1)
	mine := add("", domain.NewUserReference("u1"))
	theirs := add("their highlight", domain.NewUserReference("u2"), 1)

	unifiedIDs := func(annotations []*domain.Annotation) []string {
		out := make([]string, len(annotations))
		for i, a := range annotations {
			out[i] = a.UnifiedID
		}
		return out
	}

	t.Run("user annotations", func(t *testing.T) {
		assert.ElementsMatch(t, []string{mineNoCreator, mine}, unifiedIDs(hydrate.UserAnnotations(c, "u1")))
		assert.ElementsMatch(t, []string{mineNoCreator}, unifiedIDs(hydrate.UserAnnotations(c, "")))
	})

	t.Run("highlights", func(t *testing.T) {
		assert.ElementsMatch(t, []string{mineNoCreator, theirs}, unifiedIDs(hydrate.HighlightAnnotations(c)))
		assert.ElementsMatch(t, []string{mineNoCreator}, unifiedIDs(hydrate.UserHighlights(c, "u1")))
		assert.ElementsMatch(t, []string{mineNoCreator, theirs}, unifiedIDs(hydrate.UserHighlights(c, "u2")))
	})

	t.Run("list highlights", func(t *testing.T) {
		assert.ElementsMatch(t, []string{mineNoCreator, theirs}, unifiedIDs(hydrate.ListHighlights(c, listA)))
		assert.Empty(t, hydrate.ListHighlights(c, remoteOnly))
	})

	t.Run("local list IDs", func(t *testing.T) {
		assert.Equal(t, []int64{1}, hydrate.LocalListIDsForCacheIDs(c, []string{listA, remoteOnly, "404"}))
	})
}

func TestDeriveListOwnership(t *testing.T) {
	user := domain.NewUserReference("u1")

	tests := []struct {
		name string
		list domain.List
		want hydrate.Ownership
	}{
		{"local only", domain.List{LocalID: domain.Int64(1)}, hydrate.OwnershipCreator},
		{"shared by me", domain.List{LocalID: domain.Int64(1), RemoteID: "r", Creator: user}, hydrate.OwnershipCreator},
		{"followed", domain.List{RemoteID: "r", Creator: domain.NewUserReference("u2")}, hydrate.OwnershipFollower},
		{"joined", domain.List{LocalID: domain.Int64(1), RemoteID: "r", Creator: domain.NewUserReference("u2")}, hydrate.OwnershipContributor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hydrate.DeriveListOwnership(&tt.list, user))
		})
	}
}

func TestSiftListsIntoCategories(t *testing.T) {
	user := domain.NewUserReference("u1")
	other := domain.NewUserReference("u2")

	lists := []*domain.List{
		{UnifiedID: "0", Type: domain.ListTypeUser, LocalID: domain.Int64(1)},
		{UnifiedID: "1", Type: domain.ListTypeSpecial, LocalID: domain.Int64(hydrate.InboxListID)},
		{UnifiedID: "2", Type: domain.ListTypeUser, RemoteID: "r2", Creator: other},
		{UnifiedID: "3", Type: domain.ListTypeUser, RemoteID: "r3", Creator: other, IsForeignList: true},
		{UnifiedID: "4", Type: domain.ListTypeUser, LocalID: domain.Int64(4), RemoteID: "r4", Creator: other},
		{UnifiedID: "5", Type: domain.ListTypePageLink, RemoteID: "r5", Creator: user},
	}

	cats := hydrate.SiftListsIntoCategories(lists, user)

	ids := func(lists []*domain.List) []string {
		out := []string{}
		for _, l := range lists {
			out = append(out, l.UnifiedID)
		}
		return out
	}
	assert.Equal(t, []string{"0", "1"}, ids(cats.MyLists))
	assert.Equal(t, []string{"2"}, ids(cats.FollowedLists))
	assert.Equal(t, []string{"4"}, ids(cats.JoinedLists))
	assert.Equal(t, []string{"5"}, ids(cats.PageLinkLists))
}
