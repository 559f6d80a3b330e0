// internal/pipeline/search-chat/config.go
package searchchat

import (
	"explainer/internal/common/config"
	buildprompt "explainer/internal/pipeline/build-prompt"
	completionstream "explainer/internal/pipeline/completion-stream"
	extractcontent "explainer/internal/pipeline/extract-content"
	websearch "explainer/internal/pipeline/web-search"
)

// Config gathers the configuration of every stage the orchestrator drives.
type Config struct {
	Search     *websearch.Config
	Extract    *extractcontent.Config
	Prompt     *buildprompt.Config
	Completion *completionstream.Config
	IDStrategy string
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Search:     websearch.LoadConfig(cfg),
		Extract:    extractcontent.LoadConfig(cfg),
		Prompt:     buildprompt.LoadConfig(cfg),
		Completion: completionstream.LoadConfig(cfg),
		IDStrategy: cfg.Session.IDStrategy,
	}
}
