// Package session persists conversation state per session id on a pluggable key-value store.
package session

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// Logical keys stored per session.
const (
	KeyConversation = "conversation"
	KeyAnswer       = "response"
)

var (
	ErrNotFound  = errors.New("SESSION_KEY_NOT_FOUND")
	ErrInvalidID = errors.New("INVALID_SESSION_ID")
)

var validID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// Store is a best-effort key-value store scoped by session id. Concurrent
// writers to the same id are not serialized; the last write wins.
type Store interface {
	Get(ctx context.Context, id, key string) (string, error)
	Put(ctx context.Context, id, key, value string) error
	Name() string
}

// ValidateID rejects ids that could escape the store's key space.
func ValidateID(id string) error {
	if !validID.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}
