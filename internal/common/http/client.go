// internal/common/http/client.go
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// DefaultTimeout bounds a fetch when the caller does not configure one.
const DefaultTimeout = 3000 * time.Millisecond

var (
	ErrTimeout = errors.New("FETCH_TIMEOUT")
	ErrNetwork = errors.New("NETWORK_ERROR")
)

// Client performs HTTP requests under a hard per-call deadline.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
}

type Option func(*Client)

// WithUserAgent sets the User-Agent sent with every fetch.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithTransport replaces the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.httpClient.Transport = rt }
}

func NewClient(timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		httpClient: &http.Client{},
		timeout:    timeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Timeout returns the default deadline applied to each fetch.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

type fetchOptions struct {
	method  string
	body    io.Reader
	headers map[string]string
	timeout time.Duration
}

type FetchOption func(*fetchOptions)

func WithMethod(method string) FetchOption {
	return func(o *fetchOptions) { o.method = method }
}

func WithBody(body io.Reader) FetchOption {
	return func(o *fetchOptions) { o.body = body }
}

func WithHeader(key, value string) FetchOption {
	return func(o *fetchOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string)
		}
		o.headers[key] = value
	}
}

// WithTimeout overrides the client deadline for one call.
func WithTimeout(d time.Duration) FetchOption {
	return func(o *fetchOptions) { o.timeout = d }
}

// Fetch issues the request and returns the raw response. The deadline covers
// reading the body too; closing the body releases it. Failures wrap exactly
// one of ErrTimeout or ErrNetwork.
func (c *Client) Fetch(ctx context.Context, url string, opts ...FetchOption) (*http.Response, error) {
	o := fetchOptions{method: http.MethodGet, timeout: c.timeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.timeout <= 0 {
		o.timeout = c.timeout
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)

	req, err := http.NewRequestWithContext(ctx, o.method, url, o.body)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for k, v := range o.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, classify(ctx, err)
	}

	resp.Body = &cancelOnClose{ReadCloser: resp.Body, ctx: ctx, cancel: cancel}
	return resp, nil
}

func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	return c.httpClient.Do(req)
}

// IsTimeout reports whether err was caused by a deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}

type cancelOnClose struct {
	io.ReadCloser
	ctx    context.Context
	cancel context.CancelFunc
}

func (b *cancelOnClose) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if err != nil && err != io.EOF {
		return n, classify(b.ctx, err)
	}
	return n, err
}

func (b *cancelOnClose) Close() error {
	defer b.cancel()
	return b.ReadCloser.Close()
}
