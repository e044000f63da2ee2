package frontier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crawlstack/distsearch/internal/htmlparse"
)

func strPtr(s string) *string { return &s }

func TestScoreThinPageScoresLow(t *testing.T) {
	content := "just a few words here"
	page := &htmlparse.ParsedPage{Domain: "example.com", Content: &content}

	score := Score(page, 0, nil)

	assert.Less(t, score, 10)
}

func TestScoreSaturatesAtMaxWordCount(t *testing.T) {
	content := strings.Repeat("word ", wordCountSaturation*2)
	page := &htmlparse.ParsedPage{Domain: "example.com", Content: &content}

	score := Score(page, 0, nil)

	assert.Equal(t, maxWordCountPoints, score)
}

func TestScoreAwardsFieldPresencePoints(t *testing.T) {
	content := ""
	page := &htmlparse.ParsedPage{
		Domain:          "example.com",
		Content:         &content,
		Title:           strPtr("A title"),
		MetaDescription: strPtr("A description"),
		MetaKeywords:    strPtr("go, search"),
		Metadata:        &htmlparse.Metadata{Language: "en"},
	}

	score := Score(page, 0, nil)

	assert.Equal(t, 4*fieldPresentPoints, score)
}

func TestScoreAwardsPriorityDomainBonus(t *testing.T) {
	content := ""
	page := &htmlparse.ParsedPage{Domain: "trusted.example.com", Content: &content}

	score := Score(page, 0, []string{"trusted.example.com"})

	assert.Equal(t, priorityDomainBonus, score)
}

func TestScoreNeverExceeds100(t *testing.T) {
	content := strings.Repeat("word ", wordCountSaturation*2)
	page := &htmlparse.ParsedPage{
		Domain:          "trusted.example.com",
		Content:         &content,
		Title:           strPtr("A title"),
		MetaDescription: strPtr("A description"),
		MetaKeywords:    strPtr("go, search"),
		Metadata:        &htmlparse.Metadata{Language: "en"},
	}

	score := Score(page, linkCountSaturation*2, []string{"trusted.example.com"})

	assert.Equal(t, 100, score)
}
