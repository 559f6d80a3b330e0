// internal/server/server_test.go
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"explainer/internal/common/config"
	apperrors "explainer/internal/common/errors"
	"explainer/internal/common/logger"
	searchchat "explainer/internal/pipeline/search-chat"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeChat struct {
	got   *searchchat.Input
	out   *searchchat.Output
	err   error
	panic bool
}

func (f *fakeChat) Execute(_ context.Context, input *searchchat.Input) (*searchchat.Output, error) {
	if f.panic {
		panic("boom")
	}
	f.got = input
	return f.out, f.err
}

func createTestConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Address: "127.0.0.1:0", Mode: "test", ShutdownTimeout: 1000},
	}
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

// ==========================
// Route Tests
// ==========================

func TestSearchChat_PassesEnvelopeThrough(t *testing.T) {
	chat := &fakeChat{out: &searchchat.Output{ResponseID: "20240101120000042", Response: "Plants use light.", Status: 200}}
	s := New(createTestConfig(), chat, logger.NewTestLogger(t))

	rec := do(t, s, http.MethodPost, "/search-chat",
		`{"query":"What is photosynthesis?","level":"preschool","safesearch":"active","location":"in","language":"en-IN"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "20240101120000042", out["responseId"])
	assert.Equal(t, "Plants use light.", out["response"])
	assert.Equal(t, "", out["message"])
	assert.Equal(t, float64(200), out["status"])

	require.NotNil(t, chat.got)
	assert.Equal(t, "What is photosynthesis?", chat.got.Query)
	assert.Equal(t, "preschool", chat.got.Level)
	assert.True(t, bool(chat.got.SafeSearch))
	assert.Equal(t, "in", chat.got.Location)
}

func TestSearchChat_ErrorEnvelopeIsHTTP200(t *testing.T) {
	chat := &fakeChat{out: &searchchat.Output{
		Message: apperrors.UserMessage(apperrors.ErrCodeInvalidSession),
		Status:  400,
	}}
	s := New(createTestConfig(), chat, logger.NewTestLogger(t))

	rec := do(t, s, http.MethodPost, "/search-chat", `{"query":"more","responseId":"missing"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"responseId":"","response":"","message":"Invalid conversation reference. Please provide a valid response ID.","status":400}`,
		rec.Body.String())
}

func TestSearchChat_MalformedBody(t *testing.T) {
	chat := &fakeChat{}
	s := New(createTestConfig(), chat, logger.NewTestLogger(t))

	rec := do(t, s, http.MethodPost, "/search-chat", `{"query":`)
	assert.Equal(t, http.StatusOK, rec.Code)

	var out searchchat.Output
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 400, out.Status)
	assert.Nil(t, chat.got)
}

func TestSearchChat_FatalAbortsWithoutEnvelope(t *testing.T) {
	chat := &fakeChat{err: apperrors.NewConfigurationError("SERPER_API_KEY is required")}
	s := New(createTestConfig(), chat, logger.NewTestLogger(t))

	rec := do(t, s, http.MethodPost, "/search-chat", `{"query":"q"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestSearchChat_PanicRecovered(t *testing.T) {
	s := New(createTestConfig(), &fakeChat{panic: true}, logger.NewTestLogger(t))

	rec := do(t, s, http.MethodPost, "/search-chat", `{"query":"q"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestIndexAndHealth(t *testing.T) {
	s := New(createTestConfig(), &fakeChat{}, logger.NewTestLogger(t))

	rec := do(t, s, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `fetch("/search-chat"`)
	assert.Contains(t, rec.Body.String(), `value="elementary-school"`)
	for _, topic := range []string{"Basketball", "Machine Learning", "Personal Finance", "U.S History"} {
		assert.Contains(t, rec.Body.String(), `data-topic="`+topic+`"`)
	}
	assert.Contains(t, rec.Body.String(), `rel="noopener noreferrer"`)
	assert.Contains(t, rec.Body.String(), `class="tok-kw"`)

	rec = do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}

func TestMetricsRoute(t *testing.T) {
	s := New(createTestConfig(), &fakeChat{}, logger.NewTestLogger(t))
	rec := do(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")

	disabled := false
	cfg := createTestConfig()
	cfg.Metrics.Enabled = &disabled
	s = New(cfg, &fakeChat{}, logger.NewTestLogger(t))
	rec = do(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ==========================
// Lifecycle Tests
// ==========================

func TestRun_StopsOnCancel(t *testing.T) {
	s := New(createTestConfig(), &fakeChat{}, logger.NewTestLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRun_ListenFailure(t *testing.T) {
	cfg := createTestConfig()
	cfg.Server.Address = "256.0.0.1:bad"
	s := New(cfg, &fakeChat{}, logger.NewTestLogger(t))

	err := s.Run(context.Background())
	assert.Error(t, err)
}
