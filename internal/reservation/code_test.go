package reservation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCodeShape(t *testing.T) {
	code := NewCode()
	require.True(t, strings.HasPrefix(code, "R-"))
	body := strings.TrimPrefix(code, "R-")
	assert.Len(t, body, 10)
	for _, r := range body {
		assert.Contains(t, "23456789ABCDEFGHJKLMNPQRSTUVWXYZ", string(r))
	}
}

func TestNewCodeNoEarlyCollisions(t *testing.T) {
	seen := make(map[string]bool, 10000)
	for i := 0; i < 10000; i++ {
		c := NewCode()
		require.False(t, seen[c], "collision at %d: %s", i, c)
		seen[c] = true
	}
}
