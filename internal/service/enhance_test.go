package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentenceEnhancer(t *testing.T) {
	enhancer, err := NewSentenceEnhancer()
	require.NoError(t, err)

	got := enhancer.Enhance("The dog runs.\n  It is   happy.\nThe sun is out.")
	assert.Equal(t, "The dog runs. It is happy. The sun is out.", got)

	clean := "A calm scene."
	assert.Equal(t, clean, enhancer.Enhance(clean))
	assert.Empty(t, enhancer.Enhance("   "))
}
