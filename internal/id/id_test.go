package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for range 500 {
		v, err := Generate("list")
		require.NoError(t, err)
		assert.False(t, seen[v], "duplicate id %s", v)
		seen[v] = true
	}
}

func TestGenerate_Format(t *testing.T) {
	for _, prefix := range []string{"list", "sse"} {
		t.Run(prefix, func(t *testing.T) {
			v, err := Generate(prefix)
			require.NoError(t, err)

			require.True(t, strings.HasPrefix(v, prefix+"-"))
			rest := strings.TrimPrefix(v, prefix+"-")
			assert.Len(t, rest, Size)
			for _, r := range rest {
				assert.Contains(t, alphabet, string(r))
			}
			assert.Equal(t, prefix, Prefix(v))
		})
	}
}

func TestPrefix_None(t *testing.T) {
	assert.Empty(t, Prefix("plain"))
}
