// internal/pipeline/extract-content/handler.go
package extractcontent

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "explainer/internal/common/errors"
	apphttp "explainer/internal/common/http"
	"explainer/internal/common/logger"
	"explainer/internal/common/metrics"
	"explainer/internal/common/textclean"
	"explainer/internal/models"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
	"golang.org/x/sync/errgroup"
)

const (
	TaskType = "extract-content"

	defaultMaxBodyBytes = 5 << 20
)

// Fetcher retrieves a page under a deadline.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts ...apphttp.FetchOption) (*http.Response, error)
}

type Handler struct {
	config  *Config
	fetcher Fetcher
	logger  logger.Logger
}

func NewHandler(config *Config, fetcher Fetcher, log logger.Logger) *Handler {
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = defaultMaxBodyBytes
	}
	if fetcher == nil {
		opts := []apphttp.Option{apphttp.WithTransport(newTransport(config.Concurrency))}
		if config.UserAgent != "" {
			opts = append(opts, apphttp.WithUserAgent(config.UserAgent))
		}
		fetcher = apphttp.NewClient(config.Timeout, opts...)
	}
	return &Handler{
		config:  config,
		fetcher: fetcher,
		logger:  log.WithFields(map[string]interface{}{"stage": TaskType}),
	}
}

// Execute fetches and extracts every result concurrently. Failures are
// degraded per source; the output keeps the input order.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	sources := make([]models.EnrichedSource, len(input.Results))

	g, gCtx := errgroup.WithContext(ctx)
	if h.config.Concurrency > 0 {
		g.SetLimit(h.config.Concurrency)
	}

	for idx, result := range input.Results {
		g.Go(func() error {
			sources[idx] = h.enrich(gCtx, result)
			return nil // one broken page never fails the batch
		})
	}
	_ = g.Wait()

	degraded := 0
	for _, s := range sources {
		if s.Content.IsDegraded() {
			degraded++
		}
	}
	h.logger.Info("sources extracted", map[string]interface{}{
		"total":    len(sources),
		"degraded": degraded,
	})

	return &Output{Sources: sources}, nil
}

func (h *Handler) enrich(ctx context.Context, result models.SearchResult) (source models.EnrichedSource) {
	source.SearchResult = result
	start := time.Now()
	outcome := outcomeOK

	defer func() {
		if r := recover(); r != nil {
			outcome = outcomeParse
			source.Content = models.DegradedContent(models.SentinelNotAvailable)
			h.logger.Warn("extraction panicked", map[string]interface{}{"url": result.URL, "panic": fmt.Sprint(r)})
		}
		metrics.SourceExtractions.WithLabelValues(outcome).Inc()
		h.logger.Debug("source processed", map[string]interface{}{
			"url":      result.URL,
			"outcome":  outcome,
			"duration": time.Since(start).String(),
		})
	}()

	resp, err := h.fetcher.Fetch(ctx, result.URL)
	if err != nil {
		outcome = h.fetchFailed(result.URL, "fetch", err)
		source.Content = models.DegradedContent(models.SentinelNotAvailable)
		return source
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = outcomeHTTPStatus
		source.Content = models.DegradedContent(models.SentinelNotAvailable)
		return source
	}

	body, err := readBody(resp, h.config.MaxBodyBytes)
	if err != nil {
		outcome = h.fetchFailed(result.URL, "read body", err)
		source.Content = models.DegradedContent(models.SentinelNotAvailable)
		return source
	}

	source.Content = Extract(body)
	if source.Content.IsDegraded() {
		outcome = outcomeNothingFound
		if source.Content.Reason == models.SentinelNotAvailable {
			outcome = outcomeParse
		}
	}
	return source
}

// fetchFailed logs a failed fetch as a source error and returns its outcome label.
func (h *Handler) fetchFailed(url, phase string, err error) string {
	outcome := outcomeNetwork
	failure := apperrors.NewNetworkError(url, err)
	if apphttp.IsTimeout(err) {
		outcome = outcomeTimeout
		failure = apperrors.NewFetchTimeoutError(url, err)
	}
	h.logger.Warn("source fetch failed", map[string]interface{}{
		"url":       url,
		"phase":     phase,
		"code":      string(failure.Code),
		"category":  apperrors.GetErrorCategory(failure.Code),
		"retryable": failure.Retryable,
		"error":     failure.Error(),
	})
	return outcome
}

// newTransport keeps enough idle connections for one batch of fetches.
func newTransport(concurrency int) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	if concurrency > t.MaxIdleConnsPerHost {
		t.MaxIdleConnsPerHost = concurrency
	}
	return t
}

func readBody(resp *http.Response, limit int64) (string, error) {
	reader, err := charset.NewReader(io.LimitReader(resp.Body, limit), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", err
	}
	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Extract parses an HTML document without running any of its scripts and
// returns its normalized main text.
func Extract(document string) models.Content {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return models.DegradedContent(models.SentinelNotAvailable)
	}

	text := mainText(doc)
	if text == "" {
		return models.DegradedContent(models.SentinelNothingFound)
	}

	normalized := textclean.Normalize(text)
	if normalized == "" {
		return models.DegradedContent(models.SentinelNothingFound)
	}
	return models.OKContent(normalized)
}
