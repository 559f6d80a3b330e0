// internal/pipeline/search-chat/handler_test.go
package searchchat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	apperrors "explainer/internal/common/errors"
	"explainer/internal/common/logger"
	"explainer/internal/common/observability"
	"explainer/internal/models"
	buildprompt "explainer/internal/pipeline/build-prompt"
	completionstream "explainer/internal/pipeline/completion-stream"
	extractcontent "explainer/internal/pipeline/extract-content"
	websearch "explainer/internal/pipeline/web-search"
	"explainer/internal/session"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeSearch struct {
	calls  []websearch.Input
	err    error
	result []models.SearchResult
}

func (f *fakeSearch) Execute(_ context.Context, input *websearch.Input) (*websearch.Output, error) {
	f.calls = append(f.calls, *input)
	if f.err != nil {
		return nil, f.err
	}
	return &websearch.Output{Results: f.result}, nil
}

type fakeExtract struct{}

func (fakeExtract) Execute(_ context.Context, input *extractcontent.Input) (*extractcontent.Output, error) {
	sources := make([]models.EnrichedSource, len(input.Results))
	for i, r := range input.Results {
		sources[i] = models.EnrichedSource{SearchResult: r, Content: models.OKContent("text about " + r.Name)}
	}
	return &extractcontent.Output{Sources: sources}, nil
}

// fakeCompletion answers each call with the next scripted list of deltas.
type fakeCompletion struct {
	mu      sync.Mutex
	scripts [][]string
	seen    []models.Conversation
	err     error
}

func (f *fakeCompletion) Stream(_ context.Context, conversation models.Conversation) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, conversation)
	if f.err != nil {
		return nil, f.err
	}

	var deltas []string
	if len(f.scripts) > 0 {
		deltas, f.scripts = f.scripts[0], f.scripts[1:]
	}

	var body strings.Builder
	for _, d := range deltas {
		chunk, _ := json.Marshal(map[string]interface{}{
			"choices": []interface{}{map[string]interface{}{"delta": map[string]string{"content": d}}},
		})
		fmt.Fprintf(&body, "data: %s\n\n", chunk)
	}
	body.WriteString("data: [DONE]\n\n")
	return completionstream.Reframe(io.NopCloser(strings.NewReader(body.String()))), nil
}

type brokenStore struct{}

func (brokenStore) Name() string { return "broken" }
func (brokenStore) Get(context.Context, string, string) (string, error) {
	return "", errors.New("read-only file system")
}
func (brokenStore) Put(context.Context, string, string, string) error {
	return errors.New("read-only file system")
}

type fixedIDs struct{ id string }

func (f fixedIDs) NewID() string { return f.id }

func searchResults(n int) []models.SearchResult {
	out := make([]models.SearchResult, n)
	for i := range out {
		out[i] = models.SearchResult{Name: fmt.Sprintf("page-%d", i), URL: fmt.Sprintf("https://example.com/%d", i)}
	}
	return out
}

func newTestHandler(t *testing.T, search *fakeSearch, completion *fakeCompletion, store session.Store) *Handler {
	t.Helper()
	return newObservedHandler(t, search, completion, store, nil)
}

func newObservedHandler(t *testing.T, search *fakeSearch, completion *fakeCompletion, store session.Store, obs *observability.Observability) *Handler {
	t.Helper()
	log := logger.NewTestLogger(t)
	stages := Stages{
		Search:     search,
		Extract:    fakeExtract{},
		Prompt:     buildprompt.NewHandler(&buildprompt.Config{}, log),
		Completion: completion,
	}
	return NewHandler(stages, session.NewRepository(store, log), fixedIDs{id: "20240101120000042"}, obs, log)
}

// ==========================
// Orchestrator Tests
// ==========================

func TestExecute_RequiresQueryOrSession(t *testing.T) {
	search := &fakeSearch{}
	completion := &fakeCompletion{}
	handler := newTestHandler(t, search, completion, session.NewMemoryStore())

	for _, query := range []string{"", "   "} {
		out, err := handler.Execute(context.Background(), &Input{Query: query})
		require.NoError(t, err)
		assert.Equal(t, 400, out.Status)
		assert.Equal(t, "A search query is required to process your request.", out.Message)
		assert.Empty(t, out.ResponseID)
		assert.Empty(t, out.Response)
	}
	assert.Empty(t, search.calls)
	assert.Empty(t, completion.seen)
}

func TestExecute_RoundTrip(t *testing.T) {
	store := session.NewMemoryStore()
	search := &fakeSearch{result: searchResults(9)}
	completion := &fakeCompletion{scripts: [][]string{
		{"\n", "Plants ", "use light."},
		{"They ", "need water too."},
	}}
	handler := newTestHandler(t, search, completion, store)

	first, err := handler.Execute(context.Background(), &Input{
		Query:      "What is photosynthesis?",
		Level:      "preschool",
		SafeSearch: true,
		Location:   "de",
	})
	require.NoError(t, err)
	assert.Equal(t, 200, first.Status)
	assert.Equal(t, "", first.Message)
	assert.Equal(t, "20240101120000042", first.ResponseID)
	assert.Equal(t, "Plants use light.", first.Response)

	require.Len(t, search.calls, 1)
	assert.True(t, search.calls[0].SafeSearch)
	assert.Equal(t, "de", search.calls[0].Location)

	require.Len(t, completion.seen, 1)
	opening := completion.seen[0]
	require.Len(t, opening, 2)
	assert.Equal(t, models.RoleSystem, opening[0].Role)
	assert.Contains(t, opening[0].Content, "preschool student")
	assert.Equal(t, 7, strings.Count(opening[0].Content, "## Webpage #"))
	assert.Equal(t, models.Turn{Role: models.RoleUser, Content: "What is photosynthesis?"}, opening[1])

	second, err := handler.Execute(context.Background(), &Input{
		Query:      "Do they need water?",
		ResponseID: first.ResponseID,
	})
	require.NoError(t, err)
	assert.Equal(t, 200, second.Status)
	assert.Equal(t, first.ResponseID, second.ResponseID)
	assert.Equal(t, "They need water too.", second.Response)
	assert.Len(t, search.calls, 1, "follow-ups never search")

	require.Len(t, completion.seen, 2)
	followUp := completion.seen[1]
	require.Len(t, followUp, 4)
	assert.Equal(t, models.Turn{Role: models.RoleAssistant, Content: "Plants use light."}, followUp[2])
	assert.Equal(t, models.Turn{Role: models.RoleUser, Content: "Do they need water?"}, followUp[3])

	repo := session.NewRepository(store, logger.NewNoOpLogger())
	stored, err := repo.Load(context.Background(), first.ResponseID)
	require.NoError(t, err)
	assert.Len(t, stored.Conversation, 4)
	assert.Equal(t, "Plants use light.\n\nThey need water too.", stored.LastAnswer)
}

func TestExecute_UnknownSession(t *testing.T) {
	completion := &fakeCompletion{scripts: [][]string{{"never"}}}
	handler := newTestHandler(t, &fakeSearch{}, completion, session.NewMemoryStore())

	for _, id := range []string{"20991231235959999", "../../etc/passwd"} {
		out, err := handler.Execute(context.Background(), &Input{Query: "more", ResponseID: id})
		require.NoError(t, err)
		assert.Equal(t, 400, out.Status)
		assert.Equal(t, "Invalid conversation reference. Please provide a valid response ID.", out.Message)
		assert.Empty(t, out.ResponseID)
		assert.Empty(t, out.Response)
	}
	assert.Empty(t, completion.seen)
}

func TestExecute_EmptyStreamIsProviderError(t *testing.T) {
	handler := newTestHandler(t, &fakeSearch{result: searchResults(2)}, &fakeCompletion{}, session.NewMemoryStore())

	out, err := handler.Execute(context.Background(), &Input{Query: "What is photosynthesis?"})
	require.NoError(t, err)
	assert.Equal(t, 500, out.Status)
	assert.Equal(t, "Unable to retrieve AI response data. Please try again later.", out.Message)
	assert.Empty(t, out.ResponseID)
}

func TestExecute_CompletionTransportFailure(t *testing.T) {
	completion := &fakeCompletion{err: completionstream.ErrUpstreamUnavailable}
	handler := newTestHandler(t, &fakeSearch{result: searchResults(1)}, completion, session.NewMemoryStore())

	out, err := handler.Execute(context.Background(), &Input{Query: "q"})
	require.NoError(t, err)
	assert.Equal(t, 500, out.Status)
	assert.Equal(t, apperrors.UserMessage(apperrors.ErrCodeUpstreamUnavailable), out.Message)
}

func TestExecute_SearchFailure(t *testing.T) {
	search := &fakeSearch{err: websearch.ErrSearchFailed}
	completion := &fakeCompletion{}
	handler := newTestHandler(t, search, completion, session.NewMemoryStore())

	out, err := handler.Execute(context.Background(), &Input{Query: "q"})
	require.NoError(t, err)
	assert.Equal(t, 500, out.Status)
	assert.Equal(t, apperrors.UserMessage(apperrors.ErrCodeSearchFailed), out.Message)
	assert.Empty(t, completion.seen)
}

func TestExecute_MissingSearchKeyIsFatal(t *testing.T) {
	search := &fakeSearch{err: apperrors.NewConfigurationError("SERPER_API_KEY is required")}
	handler := newTestHandler(t, search, &fakeCompletion{}, session.NewMemoryStore())

	out, err := handler.Execute(context.Background(), &Input{Query: "q"})
	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, apperrors.IsFatal(err))
}

func TestExecute_StorageFailures(t *testing.T) {
	t.Run("best effort keeps answering", func(t *testing.T) {
		store := session.BestEffort(brokenStore{}, logger.NewNoOpLogger())
		completion := &fakeCompletion{scripts: [][]string{{"answer"}}}
		handler := newTestHandler(t, &fakeSearch{result: searchResults(1)}, completion, store)

		out, err := handler.Execute(context.Background(), &Input{Query: "q"})
		require.NoError(t, err)
		assert.Equal(t, 200, out.Status)
		assert.Equal(t, "answer", out.Response)

		// nothing was remembered, so the session cannot be resumed
		out, err = handler.Execute(context.Background(), &Input{Query: "more", ResponseID: out.ResponseID})
		require.NoError(t, err)
		assert.Equal(t, 400, out.Status)
	})

	t.Run("strict store surfaces the failure", func(t *testing.T) {
		completion := &fakeCompletion{scripts: [][]string{{"answer"}}}
		handler := newTestHandler(t, &fakeSearch{result: searchResults(1)}, completion, brokenStore{})

		out, err := handler.Execute(context.Background(), &Input{Query: "q"})
		require.NoError(t, err)
		assert.Equal(t, 500, out.Status)
		assert.Equal(t, apperrors.UserMessage(apperrors.ErrCodePersistence), out.Message)
		assert.Empty(t, completion.seen)

		out, err = handler.Execute(context.Background(), &Input{Query: "more", ResponseID: "abc"})
		require.NoError(t, err)
		assert.Equal(t, 500, out.Status)
		assert.Equal(t, apperrors.UserMessage(apperrors.ErrCodePersistence), out.Message)
	})
}

func TestExecute_FollowUpWithoutStoredAnswer(t *testing.T) {
	store := session.NewMemoryStore()
	repo := session.NewRepository(store, logger.NewNoOpLogger())
	opening := models.Conversation{
		{Role: models.RoleSystem, Content: "prompt"},
		{Role: models.RoleUser, Content: "first"},
	}
	require.NoError(t, repo.SaveConversation(context.Background(), "abc", opening))

	completion := &fakeCompletion{scripts: [][]string{{"second answer"}}}
	handler := newTestHandler(t, &fakeSearch{}, completion, store)

	out, err := handler.Execute(context.Background(), &Input{Query: "again", ResponseID: "abc"})
	require.NoError(t, err)
	assert.Equal(t, 200, out.Status)

	stored, err := repo.Load(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, opening, stored.Conversation, "conversation is only rewritten once an answer exists")
	assert.Equal(t, "second answer", stored.LastAnswer)
}

func TestExecute_RecordsRequestSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	obs := observability.NewWithRegisterer("explainer-test", prometheus.NewRegistry(), observability.WithSpanProcessor(recorder))
	defer obs.Shutdown()

	search := &fakeSearch{result: searchResults(1)}
	completion := &fakeCompletion{scripts: [][]string{{"answer"}}}
	handler := newObservedHandler(t, search, completion, session.NewMemoryStore(), obs)

	out, err := handler.Execute(context.Background(), &Input{Query: "q"})
	require.NoError(t, err)
	require.Equal(t, 200, out.Status)

	search.err = websearch.ErrSearchFailed
	out, err = handler.Execute(context.Background(), &Input{Query: "q"})
	require.NoError(t, err)
	require.Equal(t, 500, out.Status)

	ended := recorder.Ended()
	require.Len(t, ended, 2)

	ok := ended[0]
	assert.Equal(t, TaskType, ok.Name())
	assert.Contains(t, ok.Attributes(), attribute.Int("envelope.status", 200))
	assert.Contains(t, ok.Attributes(), attribute.String("session.state", stateNew))
	assert.Equal(t, codes.Unset, ok.Status().Code)

	failed := ended[1]
	assert.Contains(t, failed.Attributes(), attribute.Int("envelope.status", 500))
	assert.Equal(t, codes.Error, failed.Status().Code)
	require.NotEmpty(t, failed.Events())
	assert.Equal(t, "exception", failed.Events()[0].Name)
	assert.NotEqual(t, ok.SpanContext().TraceID(), failed.SpanContext().TraceID())
}

// ==========================
// Input Decoding Tests
// ==========================

func TestTruthy(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{`true`, true},
		{`false`, false},
		{`null`, false},
		{`""`, false},
		{`"false"`, true},
		{`"off"`, true},
		{`0`, false},
		{`0.0`, false},
		{`-1`, true},
		{`1`, true},
		{`[]`, true},
		{`{}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var in Input
			require.NoError(t, json.Unmarshal([]byte(`{"query":"q","safesearch":`+tt.raw+`}`), &in))
			assert.Equal(t, tt.want, bool(in.SafeSearch))
		})
	}

	var in Input
	require.NoError(t, json.Unmarshal([]byte(`{"query":"q"}`), &in))
	assert.False(t, bool(in.SafeSearch))
}
