// internal/pipeline/web-search/handler.go
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	apperrors "explainer/internal/common/errors"
	apphttp "explainer/internal/common/http"
	"explainer/internal/common/logger"
	"explainer/internal/common/validation"
	"explainer/internal/models"
)

const (
	TaskType = "web-search"

	// every search asks the provider for exactly this many results
	ResultCount = 9

	safeSearchOn    = "active"
	safeSearchOff   = "off"
	defaultLocation = "us"
	defaultLanguage = "en-US"
)

var (
	ErrSearchFailed  = errors.New("SEARCH_FAILED")
	ErrSearchTimeout = errors.New("SEARCH_TIMEOUT")
)

type Handler struct {
	config *Config
	client *apphttp.Client
	schema *validation.Schema
	logger logger.Logger
}

func NewHandler(config *Config, client *apphttp.Client, log logger.Logger) *Handler {
	if config.DefaultLocation == "" {
		config.DefaultLocation = defaultLocation
	}
	if config.DefaultLanguage == "" {
		config.DefaultLanguage = defaultLanguage
	}
	if client == nil {
		client = apphttp.NewClient(config.Timeout)
	}
	return &Handler{
		config: config,
		client: client,
		schema: validation.MustSchema(responseSchema),
		logger: log.WithFields(map[string]interface{}{"stage": TaskType}),
	}
}

// Execute runs one search and returns the organic results in relevance order.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if h.config.APIKey == "" {
		return nil, apperrors.NewConfigurationError("SERPER_API_KEY is required")
	}

	body, err := json.Marshal(h.buildRequest(input))
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrSearchFailed, err)
	}

	opts := []apphttp.FetchOption{
		apphttp.WithMethod(http.MethodPost),
		apphttp.WithBody(bytes.NewReader(body)),
		apphttp.WithHeader("X-API-KEY", h.config.APIKey),
		apphttp.WithHeader("Content-Type", "application/json"),
	}
	if h.config.Timeout > 0 {
		opts = append(opts, apphttp.WithTimeout(h.config.Timeout))
	}

	resp, err := h.client.Fetch(ctx, h.config.BaseURL, opts...)
	if err != nil {
		if apphttp.IsTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrSearchTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: search API returned %d", ErrSearchFailed, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if apphttp.IsTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrSearchTimeout, err)
		}
		return nil, fmt.Errorf("%w: read response: %v", ErrSearchFailed, err)
	}

	if err := h.schema.ValidateBytes(raw).Err(); err != nil {
		h.logger.Warn("search response rejected", map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	var decoded searchResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", validation.ErrSchemaValidation, err)
	}

	results := make([]models.SearchResult, 0, len(decoded.Organic))
	for _, item := range decoded.Organic {
		results = append(results, models.SearchResult{Name: item.Title, URL: item.Link})
	}

	h.logger.Info("search completed", map[string]interface{}{
		"requested": ResultCount,
		"results":   len(results),
	})

	return &Output{Results: results}, nil
}

func (h *Handler) buildRequest(input *Input) searchRequest {
	req := searchRequest{
		Q:    input.Query,
		Num:  ResultCount,
		Safe: safeSearchOff,
		GL:   input.Location,
		HL:   input.Language,
	}
	if input.SafeSearch {
		req.Safe = safeSearchOn
	}
	if req.GL == "" {
		req.GL = h.config.DefaultLocation
	}
	if req.HL == "" {
		req.HL = h.config.DefaultLanguage
	}
	return req
}
