package frontier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVisitedSetAddAndContains(t *testing.T) {
	v := NewVisitedSet()

	assert.False(t, v.Contains("https://example.com/"))
	v.Add("https://example.com/")
	assert.True(t, v.Contains("https://example.com/"))
	assert.Equal(t, 1, v.Size())
}

func TestVisitedSetAddIsIdempotent(t *testing.T) {
	v := NewVisitedSet()

	v.Add("https://example.com/")
	v.Add("https://example.com/")

	assert.Equal(t, 1, v.Size())
}
