package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList_AnnotationMembership(t *testing.T) {
	l := &List{UnifiedID: "0", Type: ListTypeUser}

	assert.True(t, l.PrependAnnotation("a"))
	assert.True(t, l.PrependAnnotation("b"))
	assert.False(t, l.PrependAnnotation("a"), "duplicates are rejected")
	assert.True(t, l.AppendAnnotation("c"))
	assert.Equal(t, []string{"b", "a", "c"}, l.UnifiedAnnotationIDs)

	assert.True(t, l.RemoveAnnotation("a"))
	assert.False(t, l.RemoveAnnotation("a"))
	assert.Equal(t, []string{"b", "c"}, l.UnifiedAnnotationIDs)
	assert.True(t, l.ContainsAnnotation("c"))
}

func TestList_CloneIsDeep(t *testing.T) {
	l := &List{
		UnifiedID:            "1",
		LocalID:              Int64(10),
		ParentLocalID:        Int64(5),
		UnifiedAnnotationIDs: []string{"a"},
		PathUnifiedIDs:       []string{"0"},
		PathLocalIDs:         []int64{5},
		Creator:              NewUserReference("u1"),
	}

	c := l.Clone()
	*c.LocalID = 99
	c.UnifiedAnnotationIDs[0] = "z"
	c.PathLocalIDs[0] = 42
	c.Creator.ID = "u2"

	assert.Equal(t, int64(10), *l.LocalID)
	assert.Equal(t, []string{"a"}, l.UnifiedAnnotationIDs)
	assert.Equal(t, []int64{5}, l.PathLocalIDs)
	assert.Equal(t, "u1", l.Creator.ID)
}

func TestAnnotation_CloneIsDeep(t *testing.T) {
	a := &Annotation{
		UnifiedID:      "0",
		UnifiedListIDs: []string{"1"},
		Selector:       &Anchor{Quote: "q", Descriptor: []byte(`{"x":1}`)},
		Color:          &RGBAColor{R: 1},
	}

	c := a.Clone()
	c.UnifiedListIDs[0] = "2"
	c.Selector.Quote = "other"
	c.Color.R = 9

	require.NotNil(t, a.Selector)
	assert.Equal(t, []string{"1"}, a.UnifiedListIDs)
	assert.Equal(t, "q", a.Selector.Quote)
	assert.Equal(t, uint8(1), a.Color.R)
}

func TestPrivacyLevel_Ordering(t *testing.T) {
	assert.Less(t, int(PrivacyPrivate), int(PrivacyProtected))
	assert.Less(t, int(PrivacyProtected), int(PrivacyShared))
	assert.Less(t, int(PrivacyShared), int(PrivacySharedProtected))

	assert.False(t, PrivacyProtected.IsShared())
	assert.True(t, PrivacyShared.IsShared())
	assert.True(t, PrivacySharedProtected.IsShared())
}

func TestPrivacyLevelFromShareOpts(t *testing.T) {
	tests := []struct {
		name      string
		share     bool
		protected bool
		want      PrivacyLevel
	}{
		{"private", false, false, PrivacyPrivate},
		{"protected", false, true, PrivacyProtected},
		{"shared", true, false, PrivacyShared},
		{"shared protected", true, true, PrivacySharedProtected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PrivacyLevelFromShareOpts(tt.share, tt.protected))
		})
	}
}
