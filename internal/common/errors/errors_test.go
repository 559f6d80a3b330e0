// internal/common/errors/errors_test.go
package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	msg    string
	fields map[string]interface{}
}

func (r *recordingLogger) Error(msg string, fields map[string]interface{}) {
	r.msg = msg
	r.fields = fields
}

func TestEnvelopeMapping(t *testing.T) {
	tests := []struct {
		err     *StandardError
		status  int
		message string
	}{
		{NewValidationError("empty"), 400, "A search query is required to process your request."},
		{NewInvalidSessionError("abc"), 400, "Invalid conversation reference. Please provide a valid response ID."},
		{NewUpstreamUnavailableError(stderrors.New("eof")), 500, "Unable to retrieve AI response data. Please try again later."},
		{NewSearchFailedError(stderrors.New("502")), 500, "Unable to search the web right now. Please try again later."},
		{NewPersistenceError("save answer", stderrors.New("read-only")), 500, "Unable to save the conversation. Please try again later."},
		{NewInternalError(stderrors.New("boom")), 500, "The assistant encountered an error. Please try again later."},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatus(tt.err.Code))
			assert.Equal(t, tt.message, tt.err.Message)
		})
	}

	assert.Equal(t, UserMessage(ErrCodeInternal), UserMessage("SOMETHING_ELSE"))
}

func TestStandardError_Unwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := fmt.Errorf("stage: %w", NewUpstreamUnavailableError(cause))

	assert.True(t, stderrors.Is(err, cause))
	stdErr, ok := AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeUpstreamUnavailable, stdErr.Code)
	assert.True(t, stdErr.Retryable)
	assert.Equal(t, "connection refused", stdErr.Details)

	_, ok = AsStandard(cause)
	assert.False(t, ok)
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(NewConfigurationError("SERPER_API_KEY is required")))
	assert.True(t, IsFatal(fmt.Errorf("wrapped: %w", NewConfigurationError("x"))))
	assert.False(t, IsFatal(NewValidationError("x")))
	assert.False(t, IsFatal(stderrors.New("plain")))
	assert.False(t, IsFatal(nil))
}

func TestCategoriesAndRetry(t *testing.T) {
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidSession))
	assert.Equal(t, "SEARCH", GetErrorCategory(ErrCodeSearchFailed))
	assert.Equal(t, "SOURCE", GetErrorCategory(ErrCodeFetchTimeout))
	assert.Equal(t, "AI", GetErrorCategory(ErrCodeUpstreamUnavailable))

	assert.True(t, IsRetryableErrorCode(ErrCodeNetwork))
	assert.False(t, IsRetryableErrorCode(ErrCodeValidation))
	assert.False(t, IsRetryableErrorCode(ErrCodeConfiguration))
}

func TestErrorHandler_HandleRequestError(t *testing.T) {
	log := &recordingLogger{}
	h := NewErrorHandler(log)

	stdErr := h.HandleRequestError("req-1", stderrors.New("unexpected"))
	assert.Equal(t, ErrCodeInternal, stdErr.Code)
	assert.Equal(t, "Request failed", log.msg)
	assert.Equal(t, "req-1", log.fields["requestId"])
	assert.Equal(t, 500, log.fields["status"])

	stdErr = h.HandleRequestError("req-2", NewInvalidSessionError("abc").WithMetadata("sessionId", "abc"))
	assert.Equal(t, ErrCodeInvalidSession, stdErr.Code)
	assert.Equal(t, 400, log.fields["status"])
	assert.Equal(t, "abc", log.fields["sessionId"])

	assert.NotPanics(t, func() {
		NewErrorHandler(nil).HandleRequestError("req-3", stderrors.New("x"))
	})
}
