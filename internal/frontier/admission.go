package frontier

import (
	"strings"

	"github.com/crawlstack/distsearch/internal/htmlparse"
)

const (
	wordCountSaturation = 1000
	maxWordCountPoints  = 30
	fieldPresentPoints  = 5
	linkCountSaturation = 50
	maxLinkCountPoints  = 20
	priorityDomainBonus = 30
)

// Score computes the crawl-time admission score in [0, 100] for a parsed
// page: word count, presence of title/meta/keywords/structured metadata,
// outbound link count, and a bonus for priority domains. outboundLinks is
// the count of distinct links extracted from the page.
func Score(page *htmlparse.ParsedPage, outboundLinks int, priorityDomains []string) int {
	score := 0

	score += linearPoints(wordCount(page.Content), wordCountSaturation, maxWordCountPoints)

	if page.Title != nil && *page.Title != "" {
		score += fieldPresentPoints
	}
	if page.MetaDescription != nil && *page.MetaDescription != "" {
		score += fieldPresentPoints
	}
	if page.MetaKeywords != nil && *page.MetaKeywords != "" {
		score += fieldPresentPoints
	}
	if page.Metadata != nil && !page.Metadata.Empty() {
		score += fieldPresentPoints
	}

	score += linearPoints(outboundLinks, linkCountSaturation, maxLinkCountPoints)

	if isPriorityDomain(page.Domain, priorityDomains) {
		score += priorityDomainBonus
	}

	if score > 100 {
		score = 100
	}
	return score
}

func linearPoints(count, saturation, maxPoints int) int {
	if saturation <= 0 {
		return 0
	}
	if count >= saturation {
		return maxPoints
	}
	return count * maxPoints / saturation
}

func wordCount(content *string) int {
	if content == nil {
		return 0
	}
	return len(strings.Fields(*content))
}

func isPriorityDomain(domain string, priorityDomains []string) bool {
	for _, d := range priorityDomains {
		if strings.EqualFold(domain, d) {
			return true
		}
	}
	return false
}
