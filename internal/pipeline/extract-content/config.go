// internal/pipeline/extract-content/config.go
package extractcontent

import (
	"time"

	"explainer/internal/common/config"
)

type Config struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	Concurrency  int
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Timeout:      config.GetDuration(cfg.Fetcher.Timeout),
		UserAgent:    cfg.Fetcher.UserAgent,
		MaxBodyBytes: cfg.Fetcher.MaxBodyBytes,
		Concurrency:  cfg.Extraction.Concurrency,
	}
}
