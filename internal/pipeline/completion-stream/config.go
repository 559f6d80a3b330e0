// internal/pipeline/completion-stream/config.go
package completionstream

import "explainer/internal/common/config"

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
}

func LoadConfig(cfg *config.Config) *Config {
	c := cfg.APIs.Completion
	return &Config{
		BaseURL: c.BaseURL,
		APIKey:  c.APIKey,
		Model:   c.Model,
	}
}
