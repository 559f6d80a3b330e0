// internal/pipeline/build-prompt/models.go
package buildprompt

import "explainer/internal/models"

type Input struct {
	Sources     []models.EnrichedSource `json:"sources"`
	Level       string                  `json:"level"`
	Interaction string                  `json:"interaction"`
}

type Output struct {
	SystemPrompt    string `json:"systemPrompt"`
	EmbeddedSources int    `json:"embeddedSources"`
	Level           string `json:"level"`
	Interaction     string `json:"interaction"`
}
