// internal/pipeline/completion-stream/handler.go
package completionstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	apphttp "explainer/internal/common/http"
	"explainer/internal/common/logger"
	"explainer/internal/common/metrics"
	"explainer/internal/models"

	"github.com/gin-contrib/sse"
	jsoniter "github.com/json-iterator/go"
)

const (
	TaskType = "completion-stream"

	doneSentinel = "[DONE]"

	// leading deltas containing a newline are dropped until this many events went out
	leadingEventsChecked = 2
)

var (
	ErrUpstreamUnavailable = errors.New("UPSTREAM_UNAVAILABLE")
	ErrMalformedEvent      = errors.New("MALFORMED_EVENT")
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Handler struct {
	config *Config
	client *apphttp.Client
	logger logger.Logger
}

func NewHandler(config *Config, client *apphttp.Client, log logger.Logger) *Handler {
	if client == nil {
		client = apphttp.NewClient(0)
	}
	return &Handler{
		config: config,
		client: client,
		logger: log.WithFields(map[string]interface{}{"stage": TaskType}),
	}
}

// Stream opens a streaming completion for conversation and returns the
// re-framed event stream. A non-200 upstream yields a stream with no events.
// The call has no deadline of its own; ctx is the only way to abandon it.
func (h *Handler) Stream(ctx context.Context, conversation models.Conversation) (io.ReadCloser, error) {
	payload, err := json.Marshal(completionRequest{
		Model:    h.config.Model,
		Messages: conversation,
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrUpstreamUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.config.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+h.config.APIKey)

	resp, err := h.client.DoWithContext(ctx, req)
	if err != nil {
		h.logger.Error("completion request failed", map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		h.logger.Warn("completion provider returned non-200", map[string]interface{}{
			"status": resp.StatusCode,
			"turns":  len(conversation),
		})
		resp.Body.Close()
		return io.NopCloser(strings.NewReader("")), nil
	}

	h.logger.Debug("completion stream opened", map[string]interface{}{
		"model": h.config.Model,
		"turns": len(conversation),
	})
	return Reframe(resp.Body), nil
}

// Reframe converts an upstream completion event stream into a stream of
// {"text": delta} events. It stops at [DONE] and closes with ErrMalformedEvent
// on an undecodable event.
func Reframe(upstream io.ReadCloser) io.ReadCloser {
	pr, pw := io.Pipe()
	go func() {
		defer upstream.Close()
		pw.CloseWithError(reframe(upstream, pw))
	}()
	return &eventStream{PipeReader: pr, upstream: upstream}
}

func reframe(src io.Reader, w io.Writer) error {
	scanner := newEventScanner(src)
	emitted := 0

	for scanner.Next() {
		data := scanner.Event().Data
		if strings.TrimSpace(data) == doneSentinel {
			metrics.CompletionStreamEvents.WithLabelValues("done").Inc()
			return nil
		}

		var chunk completionChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			metrics.CompletionStreamEvents.WithLabelValues("malformed").Inc()
			return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}

		delta := chunk.delta()
		if emitted < leadingEventsChecked && strings.Contains(delta, "\n") {
			metrics.CompletionStreamEvents.WithLabelValues("suppressed").Inc()
			continue
		}

		if err := sse.Encode(w, sse.Event{Data: textEvent{Text: delta}}); err != nil {
			return err
		}
		emitted++
		metrics.CompletionStreamEvents.WithLabelValues("emitted").Inc()
	}
	return scanner.Err()
}

// eventStream closes the upstream body too, so an early Close unblocks the copier.
type eventStream struct {
	*io.PipeReader
	upstream io.Closer
}

func (s *eventStream) Close() error {
	s.PipeReader.Close()
	return s.upstream.Close()
}

// Drain consumes a re-framed stream to its end, folding the text of every
// event in arrival order.
func Drain(r io.Reader) (Answer, error) {
	scanner := newEventScanner(r)
	answer := Answer{}

	for scanner.Next() {
		var ev textEvent
		if err := json.Unmarshal([]byte(scanner.Event().Data), &ev); err != nil {
			continue
		}
		answer = answer.add(ev.Text)
	}
	return answer, scanner.Err()
}
