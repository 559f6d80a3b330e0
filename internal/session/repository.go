// internal/session/repository.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"explainer/internal/common/logger"
	"explainer/internal/models"
)

// Repository stores the typed session values on top of a Store.
type Repository struct {
	store  Store
	logger logger.Logger
}

func NewRepository(store Store, log logger.Logger) *Repository {
	return &Repository{
		store:  store,
		logger: log.WithFields(map[string]interface{}{"component": "session"}),
	}
}

// LoadConversation returns the stored turns. Missing or corrupt values read as an empty conversation.
func (r *Repository) LoadConversation(ctx context.Context, id string) (models.Conversation, error) {
	raw, err := r.store.Get(ctx, id, KeyConversation)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidID) {
			return nil, nil
		}
		return nil, err
	}

	var conversation models.Conversation
	if err := json.Unmarshal([]byte(raw), &conversation); err != nil {
		r.logger.Warn("stored conversation is corrupt", map[string]interface{}{"sessionId": id, "error": err.Error()})
		return nil, nil
	}
	return conversation, nil
}

func (r *Repository) SaveConversation(ctx context.Context, id string, conversation models.Conversation) error {
	data, err := json.MarshalIndent(conversation, "", "  ")
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, putTimeout)
	defer cancel()
	return r.store.Put(ctx, id, KeyConversation, string(data))
}

// LoadAnswer returns the accumulated answer text, or "" when none is stored.
func (r *Repository) LoadAnswer(ctx context.Context, id string) (string, error) {
	raw, err := r.store.Get(ctx, id, KeyAnswer)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidID) {
			return "", nil
		}
		return "", err
	}

	var answer string
	if err := json.Unmarshal([]byte(raw), &answer); err != nil {
		r.logger.Warn("stored answer is corrupt", map[string]interface{}{"sessionId": id, "error": err.Error()})
		return "", nil
	}
	return answer, nil
}

func (r *Repository) SaveAnswer(ctx context.Context, id, answer string) error {
	data, err := json.Marshal(answer)
	if err != nil {
		return fmt.Errorf("encode answer: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, putTimeout)
	defer cancel()
	return r.store.Put(ctx, id, KeyAnswer, string(data))
}

// Load reads both keys of a session.
func (r *Repository) Load(ctx context.Context, id string) (models.Session, error) {
	conversation, err := r.LoadConversation(ctx, id)
	if err != nil {
		return models.Session{}, err
	}
	answer, err := r.LoadAnswer(ctx, id)
	if err != nil {
		return models.Session{}, err
	}
	return models.Session{ID: id, Conversation: conversation, LastAnswer: answer}, nil
}
