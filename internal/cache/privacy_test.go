package cache

import (
	"testing"

	"github.com/spacemark/pagecache/internal/domain"
	"github.com/spacemark/pagecache/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetPageData_SwapsInheritedSharedLists(t *testing.T) {
	c := newTestCache(t, Config{})
	ids, err := c.SetLists([]domain.ListRecord{
		{LocalID: domain.Int64(1), RemoteID: "s1", Type: domain.ListTypeUser, Name: "S1"},
		{LocalID: domain.Int64(2), RemoteID: "s2", Type: domain.ListTypeUser, Name: "S2"},
		{LocalID: domain.Int64(3), Type: domain.ListTypeUser, Name: "P"},
	})
	require.NoError(t, err)
	s1, s2, p := ids[0], ids[1], ids[2]
	c.SetPageData(testPage, []string{s1, p})

	public, err := c.AddAnnotation(annotationRecord(domain.PrivacyShared, 3))
	require.NoError(t, err)
	require.ElementsMatch(t, []string{s1, p}, c.Annotation(public).UnifiedListIDs)

	protected, err := c.AddAnnotation(annotationRecord(domain.PrivacyPrivate, 1))
	require.NoError(t, err)
	require.Equal(t, domain.PrivacyProtected, c.Annotation(protected).PrivacyLevel)

	elsewhere := annotationRecord(domain.PrivacyShared)
	elsewhere.NormalizedPageURL = "example.com/other"
	otherID, err := c.AddAnnotation(elsewhere)
	require.NoError(t, err)

	r := record(t, c)
	c.SetPageData(testPage, []string{s2, p})

	assert.ElementsMatch(t, []string{s2, p}, c.Annotation(public).UnifiedListIDs)
	assert.Equal(t, []string{s1}, c.Annotation(protected).UnifiedListIDs)
	assert.Empty(t, c.Annotation(otherID).UnifiedListIDs)
	assert.Equal(t, []string{protected}, c.List(s1).UnifiedAnnotationIDs)
	assert.Equal(t, []string{public}, c.List(s2).UnifiedAnnotationIDs)

	assert.Equal(t, []events.Type{
		events.PageDataUpdated,
		events.AnnotationsState,
		events.ListsState,
	}, r.types())
	page := r.last(events.PageDataUpdated).Data.(*events.PageDataEventData)
	assert.Equal(t, testPage, page.NormalizedPageURL)
	assert.Equal(t, []string{s2, p}, page.ListIDs)
	requireInvariants(t, c)
}

func TestSetPageData_NoMembershipChange(t *testing.T) {
	c := newTestCache(t, Config{})
	l1, l2 := setupExamplePage(t, c)

	r := record(t, c)
	c.SetPageData(testPage, []string{l2, l1, "404"})

	assert.Equal(t, []events.Type{events.PageDataUpdated}, r.types())
	assert.Equal(t, []string{l2, l1}, c.PageListIDs(testPage))
}

func TestSharedPageListIDs(t *testing.T) {
	c := newTestCache(t, Config{})
	l1, _ := setupExamplePage(t, c)

	assert.Equal(t, []string{l1}, c.SharedPageListIDs(testPage))
	assert.Empty(t, c.SharedPageListIDs("example.com/unknown"))
}

func TestImplicitLevel(t *testing.T) {
	tests := []struct {
		name   string
		level  domain.PrivacyLevel
		shared bool
		want   domain.PrivacyLevel
	}{
		{"private outside shared lists", domain.PrivacyPrivate, false, domain.PrivacyPrivate},
		{"private in shared list", domain.PrivacyPrivate, true, domain.PrivacyProtected},
		{"protected in shared list", domain.PrivacyProtected, true, domain.PrivacyProtected},
		{"shared in shared list", domain.PrivacyShared, true, domain.PrivacyShared},
		{"shared protected in shared list", domain.PrivacySharedProtected, true, domain.PrivacySharedProtected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, implicitLevel(tt.level, tt.shared))
		})
	}
}
