package customer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTemporaryPasswordPolicy(t *testing.T) {
	for i := 0; i < 50; i++ {
		pw, err := GenerateTemporaryPassword()
		require.NoError(t, err)

		assert.GreaterOrEqual(t, len(pw), 16)
		assert.True(t, strings.ContainsAny(pw, upperChars), "missing upper: %s", pw)
		assert.True(t, strings.ContainsAny(pw, lowerChars), "missing lower: %s", pw)
		assert.True(t, strings.ContainsAny(pw, digitChars), "missing digit: %s", pw)
		assert.True(t, strings.ContainsAny(pw, symbolChars), "missing symbol: %s", pw)
	}
}

func TestGenerateTemporaryPasswordVaries(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		pw, err := GenerateTemporaryPassword()
		require.NoError(t, err)
		assert.False(t, seen[pw], "duplicate password generated")
		seen[pw] = true
	}
}
