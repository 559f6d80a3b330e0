// internal/pipeline/web-search/config.go
package websearch

import (
	"time"

	"explainer/internal/common/config"
)

type Config struct {
	BaseURL         string
	APIKey          string
	DefaultLocation string
	DefaultLanguage string
	Timeout         time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	ws := cfg.APIs.WebSearch
	return &Config{
		BaseURL:         ws.BaseURL,
		APIKey:          ws.APIKey,
		DefaultLocation: ws.DefaultLocation,
		DefaultLanguage: ws.DefaultLanguage,
		Timeout:         config.GetDuration(ws.Timeout),
	}
}
