// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	APIs       APIsConfig       `mapstructure:"apis"`
	Fetcher    FetcherConfig    `mapstructure:"fetcher"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
	Prompt     PromptConfig     `mapstructure:"prompt"`
	Session    SessionConfig    `mapstructure:"session"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds, 0 disables
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
	Mode            string `mapstructure:"mode"`             // gin mode: debug, release, test
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// APIsConfig holds settings for the external providers.
type APIsConfig struct {
	WebSearch struct {
		BaseURL         string `mapstructure:"base_url"`
		APIKey          string `mapstructure:"api_key"`
		DefaultLocation string `mapstructure:"default_location"`
		DefaultLanguage string `mapstructure:"default_language"`
		Timeout         int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"web_search"`

	Completion struct {
		BaseURL string `mapstructure:"base_url"`
		APIKey  string `mapstructure:"api_key"`
		Model   string `mapstructure:"model"`
	} `mapstructure:"completion"`
}

// FetcherConfig holds settings for fetching source pages.
type FetcherConfig struct {
	Timeout      int    `mapstructure:"timeout"` // milliseconds
	UserAgent    string `mapstructure:"user_agent"`
	MaxBodyBytes int64  `mapstructure:"max_body_bytes"`
}

type ExtractionConfig struct {
	Concurrency int `mapstructure:"concurrency"` // 0 means one goroutine per source
}

type PromptConfig struct {
	MaxSources int `mapstructure:"max_sources"`
}

// SessionConfig selects the session backend and id strategy.
type SessionConfig struct {
	Backend    string `mapstructure:"backend"` // memory, file, redis
	Directory  string `mapstructure:"directory"`
	KeyPrefix  string `mapstructure:"key_prefix"`
	TTL        int    `mapstructure:"ttl"` // milliseconds, redis only
	BestEffort *bool  `mapstructure:"best_effort"`
	IDStrategy string `mapstructure:"id_strategy"` // timestamp, uuid, nanoid, counter
}

// IsBestEffort reports whether storage failures are swallowed. Defaults to true.
func (s SessionConfig) IsBestEffort() bool {
	return s.BestEffort == nil || *s.BestEffort
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type MetricsConfig struct {
	Enabled *bool  `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// IsEnabled defaults to true when unset.
func (m MetricsConfig) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}
