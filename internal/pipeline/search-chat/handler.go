// internal/pipeline/search-chat/handler.go
package searchchat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "explainer/internal/common/errors"
	"explainer/internal/common/logger"
	"explainer/internal/common/metrics"
	"explainer/internal/common/observability"
	"explainer/internal/models"
	buildprompt "explainer/internal/pipeline/build-prompt"
	completionstream "explainer/internal/pipeline/completion-stream"
	extractcontent "explainer/internal/pipeline/extract-content"
	websearch "explainer/internal/pipeline/web-search"
	"explainer/internal/session"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const TaskType = "search-chat"

type Searcher interface {
	Execute(ctx context.Context, input *websearch.Input) (*websearch.Output, error)
}

type Extractor interface {
	Execute(ctx context.Context, input *extractcontent.Input) (*extractcontent.Output, error)
}

type PromptBuilder interface {
	Execute(ctx context.Context, input *buildprompt.Input) (*buildprompt.Output, error)
}

type Completer interface {
	Stream(ctx context.Context, conversation models.Conversation) (io.ReadCloser, error)
}

// Stages are the collaborators of one search-chat request.
type Stages struct {
	Search     Searcher
	Extract    Extractor
	Prompt     PromptBuilder
	Completion Completer
}

type Handler struct {
	stages       Stages
	sessions     *session.Repository
	ids          session.IDGenerator
	obs          *observability.Observability
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(stages Stages, sessions *session.Repository, ids session.IDGenerator, obs *observability.Observability, log logger.Logger) *Handler {
	if obs == nil {
		obs = observability.NewNoop()
	}
	scoped := log.WithFields(map[string]interface{}{"stage": TaskType})
	return &Handler{
		stages:       stages,
		sessions:     sessions,
		ids:          ids,
		obs:          obs,
		errorHandler: apperrors.NewErrorHandler(scoped),
		logger:       scoped,
	}
}

// NewHandlerFromConfig wires every stage from config on top of store.
func NewHandlerFromConfig(cfg *Config, store session.Store, obs *observability.Observability, log logger.Logger) (*Handler, error) {
	ids, err := session.NewIDGenerator(cfg.IDStrategy)
	if err != nil {
		return nil, apperrors.NewConfigurationError(err.Error())
	}
	stages := Stages{
		Search:     websearch.NewHandler(cfg.Search, nil, log),
		Extract:    extractcontent.NewHandler(cfg.Extract, nil, log),
		Prompt:     buildprompt.NewHandler(cfg.Prompt, log),
		Completion: completionstream.NewHandler(cfg.Completion, nil, log),
	}
	return NewHandler(stages, session.NewRepository(store, log), ids, obs, log), nil
}

// Execute runs one turn. Every outcome except a fatal configuration error is
// reported through the envelope; a fatal error is returned with a nil Output.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	requestID := uuid.NewString()
	state := stateNew
	if input.ResponseID != "" {
		state = stateContinuing
	}

	metrics.ActiveRequests.Inc()
	defer metrics.ActiveRequests.Dec()
	start := time.Now()

	ctx, span := h.obs.StartSpan(ctx, TaskType,
		attribute.String("request.id", requestID),
		attribute.String("session.state", state),
	)
	defer span.End()

	log := h.logger.WithFields(map[string]interface{}{"requestId": requestID, "state": state})
	log.Info("search-chat started", map[string]interface{}{
		"level":       input.Level,
		"interaction": input.Interaction,
		"responseId":  input.ResponseID,
	})

	var (
		out *Output
		err error
	)
	if state == stateNew {
		out, err = h.newSession(ctx, input)
	} else {
		out, err = h.continueSession(ctx, input)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if apperrors.IsFatal(err) {
			metrics.SearchChatRequests.WithLabelValues(state, "fatal").Inc()
			log.Error("search-chat aborted", map[string]interface{}{"error": err.Error()})
			return nil, err
		}
		out = failure(h.errorHandler.HandleRequestError(requestID, err))
	}

	metrics.SearchChatRequests.WithLabelValues(state, strconv.Itoa(out.Status)).Inc()
	metrics.SearchChatDuration.WithLabelValues(state).Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("envelope.status", out.Status))

	log.Info("search-chat finished", map[string]interface{}{
		"status":     out.Status,
		"responseId": out.ResponseID,
		"duration":   time.Since(start).String(),
	})
	return out, nil
}

func (h *Handler) newSession(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, apperrors.NewValidationError("query and responseId are both empty")
	}

	done := h.obs.TimeStage(ctx, websearch.TaskType)
	searched, err := h.stages.Search.Execute(ctx, &websearch.Input{
		Query:      input.Query,
		SafeSearch: bool(input.SafeSearch),
		Location:   input.Location,
		Language:   input.Language,
	})
	if err != nil {
		done("error")
		if apperrors.IsFatal(err) {
			return nil, err
		}
		return nil, apperrors.NewSearchFailedError(err)
	}
	done("ok")

	done = h.obs.TimeStage(ctx, extractcontent.TaskType)
	extracted, err := h.stages.Extract.Execute(ctx, &extractcontent.Input{Results: searched.Results})
	if err != nil {
		done("error")
		return nil, apperrors.NewInternalError(err)
	}
	done("ok")

	done = h.obs.TimeStage(ctx, buildprompt.TaskType)
	prompt, err := h.stages.Prompt.Execute(ctx, &buildprompt.Input{
		Sources:     extracted.Sources,
		Level:       input.Level,
		Interaction: input.Interaction,
	})
	if err != nil {
		done("error")
		return nil, apperrors.NewInternalError(err)
	}
	done("ok")

	id := h.ids.NewID()
	conversation := models.Conversation{
		{Role: models.RoleSystem, Content: prompt.SystemPrompt},
		{Role: models.RoleUser, Content: input.Query},
	}
	if err := h.sessions.SaveConversation(ctx, id, conversation); err != nil {
		return nil, apperrors.NewPersistenceError("save conversation", err)
	}

	answer, err := h.complete(ctx, conversation)
	if err != nil {
		return nil, err
	}

	if err := h.sessions.SaveAnswer(ctx, id, answer); err != nil {
		return nil, apperrors.NewPersistenceError("save answer", err)
	}
	return success(id, answer), nil
}

func (h *Handler) continueSession(ctx context.Context, input *Input) (*Output, error) {
	id := input.ResponseID

	stored, err := h.sessions.Load(ctx, id)
	if err != nil {
		return nil, apperrors.NewPersistenceError("load session", err)
	}
	if len(stored.Conversation) == 0 {
		return nil, apperrors.NewInvalidSessionError(id)
	}

	previous := stored.LastAnswer
	conversation := stored.Conversation.Append(
		models.Turn{Role: models.RoleAssistant, Content: previous},
		models.Turn{Role: models.RoleUser, Content: input.Query},
	)
	if previous != "" {
		if err := h.sessions.SaveConversation(ctx, id, conversation); err != nil {
			return nil, apperrors.NewPersistenceError("save conversation", err)
		}
	}

	answer, err := h.complete(ctx, conversation)
	if err != nil {
		return nil, err
	}

	if answer != "" {
		if err := h.sessions.SaveAnswer(ctx, id, joinAnswers(previous, answer)); err != nil {
			return nil, apperrors.NewPersistenceError("save answer", err)
		}
	}
	return success(id, answer), nil
}

// complete streams a completion for conversation and drains it into the answer text.
func (h *Handler) complete(ctx context.Context, conversation models.Conversation) (string, error) {
	done := h.obs.TimeStage(ctx, completionstream.TaskType)

	stream, err := h.stages.Completion.Stream(ctx, conversation)
	if err != nil {
		done("error")
		return "", apperrors.NewUpstreamUnavailableError(err)
	}
	defer stream.Close()

	answer, err := completionstream.Drain(stream)
	if err != nil {
		done("error")
		return "", apperrors.NewUpstreamUnavailableError(err)
	}
	if answer.Empty() {
		done("empty")
		return "", apperrors.NewUpstreamUnavailableError(errors.New("completion stream carried no events"))
	}
	done("ok")

	h.logger.Debug("answer drained", map[string]interface{}{
		"events": answer.Events,
		"length": len(answer.Text),
		"turns":  len(conversation),
	})
	return answer.Text, nil
}

// joinAnswers appends next to the running answer log.
func joinAnswers(previous, next string) string {
	if previous == "" {
		return next
	}
	return fmt.Sprintf("%s\n\n%s", previous, next)
}

func success(id, answer string) *Output {
	return &Output{ResponseID: id, Response: answer, Message: "", Status: http.StatusOK}
}

func failure(err *apperrors.StandardError) *Output {
	return &Output{Message: err.Message, Status: apperrors.HTTPStatus(err.Code)}
}
