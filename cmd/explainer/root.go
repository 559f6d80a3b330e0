// cmd/explainer/root.go
package main

import (
	"fmt"
	"io"

	"explainer/internal/common/config"
	"explainer/internal/common/logger"
	"explainer/internal/common/observability"
	searchchat "explainer/internal/pipeline/search-chat"
	"explainer/internal/session"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "explainer",
	Short: "Explainer - an audience-aware tutor grounded in live web search",
	Long: `Explainer answers questions for a chosen audience level. Each first question
runs a web search, reads the top pages, and asks a chat model to teach from them.
Follow-up questions continue the same conversation by its response id.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a config file (defaults to configs/config.yaml lookup)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(askCmd)
}

// app holds everything a command needs, built from one config.
type app struct {
	cfg     *config.Config
	zapLog  *zap.Logger
	log     logger.Logger
	obs     *observability.Observability
	chat    *searchchat.Handler
	closers []io.Closer
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

func bootstrap(obs *observability.Observability) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}

	zapLog := logger.NewWithOptions(logger.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"app":         cfg.App.Name,
		"environment": cfg.App.Environment,
	})
	obs.LogSpans(log)

	store, closer, err := session.NewStore(cfg.Session, cfg.Database.Redis, log)
	if err != nil {
		zapLog.Sync()
		return nil, fmt.Errorf("session store failed: %w", err)
	}

	chat, err := searchchat.NewHandlerFromConfig(searchchat.LoadConfig(cfg), store, obs, log)
	if err != nil {
		closer.Close()
		zapLog.Sync()
		return nil, err
	}

	return &app{
		cfg:     cfg,
		zapLog:  zapLog,
		log:     log,
		obs:     obs,
		chat:    chat,
		closers: []io.Closer{closer},
	}, nil
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.log.Warn("close failed", map[string]interface{}{"error": err.Error()})
		}
	}
	a.obs.Shutdown()
	a.zapLog.Sync()
}
