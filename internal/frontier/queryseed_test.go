package frontier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeedURLsForQueryEscapesAndTemplatesQuery(t *testing.T) {
	seeds := SeedURLsForQuery("go concurrency patterns")

	assert.Len(t, seeds, len(searchSeedTemplates))
	for _, s := range seeds {
		assert.Contains(t, s, "go+concurrency+patterns")
	}
}

func TestSeedURLsForQueryCachesByQuery(t *testing.T) {
	first := SeedURLsForQuery("cache me")
	second := SeedURLsForQuery("cache me")

	assert.Equal(t, first, second)
}
