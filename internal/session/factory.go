// internal/session/factory.go
package session

import (
	"context"
	"fmt"
	"io"
	"time"

	"explainer/internal/common/config"
	"explainer/internal/common/database"
	"explainer/internal/common/logger"
)

// Backends accepted by NewStore.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

const pingTimeout = 3 * time.Second

// NewStore builds the configured backend, instrumented and, unless disabled,
// wrapped as best effort. The returned closer releases backend connections.
func NewStore(cfg config.SessionConfig, redisCfg config.RedisConfig, log logger.Logger) (Store, io.Closer, error) {
	var (
		store  Store
		closer io.Closer = nopCloser{}
	)

	switch cfg.Backend {
	case BackendMemory:
		store = NewMemoryStore()
	case "", BackendFile:
		store = NewFileStore(cfg.Directory)
	case BackendRedis:
		client, err := database.NewRedis(redisCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("session redis: %w", err)
		}
		if err := pingRedis(client); err != nil {
			if !cfg.IsBestEffort() {
				client.Close()
				return nil, nil, fmt.Errorf("session redis: %w", err)
			}
			log.Warn("session redis unreachable, sessions will not persist until it recovers", map[string]interface{}{
				"address": redisCfg.Address,
				"error":   err.Error(),
			})
		}
		store = NewRedisStore(client, cfg.KeyPrefix, config.GetDuration(cfg.TTL))
		closer = client
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}

	store = Instrument(store)
	if cfg.IsBestEffort() {
		store = BestEffort(store, log)
	}

	log.Info("session store ready", map[string]interface{}{
		"backend":    store.Name(),
		"bestEffort": cfg.IsBestEffort(),
	})
	return store, closer, nil
}

func pingRedis(client *database.RedisClient) error {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return client.Ping(ctx)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
