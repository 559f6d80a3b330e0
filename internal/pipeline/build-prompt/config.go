// internal/pipeline/build-prompt/config.go
package buildprompt

import "explainer/internal/common/config"

// DefaultMaxSources is how many sources are embedded when unconfigured.
const DefaultMaxSources = 7

type Config struct {
	MaxSources int
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{MaxSources: cfg.Prompt.MaxSources}
}
