// internal/pipeline/extract-content/models.go
package extractcontent

import "explainer/internal/models"

type Input struct {
	Results []models.SearchResult `json:"results"`
}

type Output struct {
	Sources []models.EnrichedSource `json:"sources"`
}

// Outcome labels for the source_extractions_total counter.
const (
	outcomeOK           = "ok"
	outcomeNothingFound = "nothing_found"
	outcomeTimeout      = "timeout"
	outcomeNetwork      = "network_error"
	outcomeHTTPStatus   = "http_error"
	outcomeParse        = "parse_error"
)
