// internal/session/besteffort.go
package session

import (
	"context"
	"errors"
	"time"

	"explainer/internal/common/logger"
	"explainer/internal/common/metrics"
)

type bestEffort struct {
	store  Store
	logger logger.Logger
}

// BestEffort wraps store so that no failure reaches the caller: Put logs and
// returns nil, Get reports anything unreadable as ErrNotFound.
func BestEffort(store Store, log logger.Logger) Store {
	return &bestEffort{
		store:  store,
		logger: log.WithFields(map[string]interface{}{"backend": store.Name()}),
	}
}

func (b *bestEffort) Name() string { return b.store.Name() }

func (b *bestEffort) Get(ctx context.Context, id, key string) (string, error) {
	v, err := b.store.Get(ctx, id, key)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, ErrNotFound) {
		b.logger.Warn("session read failed, treating as missing", map[string]interface{}{
			"sessionId": id,
			"key":       key,
			"error":     err.Error(),
		})
	}
	return "", ErrNotFound
}

func (b *bestEffort) Put(ctx context.Context, id, key, value string) error {
	if err := b.store.Put(ctx, id, key, value); err != nil {
		b.logger.Warn("session write failed, continuing without it", map[string]interface{}{
			"sessionId": id,
			"key":       key,
			"error":     err.Error(),
		})
	}
	return nil
}

type instrumented struct {
	store Store
}

// Instrument counts every operation in session_store_operations_total.
func Instrument(store Store) Store {
	return &instrumented{store: store}
}

func (i *instrumented) Name() string { return i.store.Name() }

func (i *instrumented) Get(ctx context.Context, id, key string) (string, error) {
	v, err := i.store.Get(ctx, id, key)
	i.observe("get", err)
	return v, err
}

func (i *instrumented) Put(ctx context.Context, id, key, value string) error {
	err := i.store.Put(ctx, id, key, value)
	i.observe("put", err)
	return err
}

func (i *instrumented) observe(op string, err error) {
	outcome := "ok"
	switch {
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
	}
	metrics.SessionStoreOperations.WithLabelValues(i.store.Name(), op, outcome).Inc()
}

// putTimeout bounds a single write made on behalf of a request.
const putTimeout = 5 * time.Second
