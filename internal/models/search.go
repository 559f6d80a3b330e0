// internal/models/search.go
package models

// Sentinel texts embedded in the prompt in place of unusable sources.
const (
	SentinelNotAvailable = "not available"
	SentinelNothingFound = "Nothing found"
)

// SearchResult is one organic search hit, in relevance order.
type SearchResult struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type ContentStatus string

const (
	ContentOK       ContentStatus = "ok"
	ContentDegraded ContentStatus = "degraded"
)

// Content is either extracted text or the reason none is available.
type Content struct {
	Status ContentStatus `json:"status"`
	Text   string        `json:"text,omitempty"`
	Reason string        `json:"reason,omitempty"`
}

func OKContent(text string) Content {
	return Content{Status: ContentOK, Text: text}
}

func DegradedContent(reason string) Content {
	return Content{Status: ContentDegraded, Reason: reason}
}

func (c Content) IsDegraded() bool {
	return c.Status == ContentDegraded
}

// PromptText is the text embedded for this source in the system prompt.
func (c Content) PromptText() string {
	if c.IsDegraded() {
		return c.Reason
	}
	return c.Text
}

// EnrichedSource pairs a search result with its extracted content.
type EnrichedSource struct {
	SearchResult
	Content Content `json:"content"`
}

// FullContent returns the normalized text or its sentinel.
func (s EnrichedSource) FullContent() string {
	return s.Content.PromptText()
}
