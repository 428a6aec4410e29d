package common

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HttpClient is an interface for HTTP operations with optional retry logic.
// This allows mocking or custom transport layers in testing.
type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
	Get(url string) (*http.Response, error)
	Post(url, contentType string, body io.Reader) (*http.Response, error)
	PostForm(url string, data url.Values) (*http.Response, error)
	CloseIdleConnections()

	// GetWithRetry issues a GET and retries throttled or failing upstream
	// responses until it gets a definitive answer or the context ends.
	GetWithRetry(ctx context.Context, url string) ([]byte, error)
	SetSleepForTest(sleep func(d time.Duration))
}

// HTTPError is a custom error that captures unexpected status codes and response bodies.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status code: %d, body: %s", e.StatusCode, string(e.Body))
}

// userAgentRoundTripper is a custom RoundTripper that adds a User-Agent header.
type userAgentRoundTripper struct {
	Wrapped   http.RoundTripper
	UserAgent string
}

func (rt *userAgentRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone request to avoid mutating the original
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", rt.UserAgent)
	return rt.Wrapped.RoundTrip(clone)
}

// Implementation of HttpClient that wraps a standard *http.Client with retry logic.
type httpClient struct {
	client    *http.Client
	backoff   time.Duration
	sleepFunc func(d time.Duration)
}

// DefaultThrottleBackoff is how long to wait before retrying a throttled
// or erroring upstream request.
const DefaultThrottleBackoff = 10 * time.Second

// NewDotaHttpClient returns a new HttpClient with a custom User-Agent and a
// fixed backoff for throttled requests. A backoff of zero selects the default.
func NewDotaHttpClient(userAgent string, base *http.Client, backoff time.Duration) HttpClient {
	if base.Transport == nil {
		base.Transport = http.DefaultTransport
	}
	base.Transport = &userAgentRoundTripper{
		Wrapped:   base.Transport,
		UserAgent: userAgent,
	}
	if backoff <= 0 {
		backoff = DefaultThrottleBackoff
	}

	return &httpClient{
		client:    base,
		backoff:   backoff,
		sleepFunc: time.Sleep,
	}
}

// Implementation of the interface:

func (h *httpClient) Do(req *http.Request) (*http.Response, error) {
	return h.client.Do(req)
}

func (h *httpClient) Get(url string) (*http.Response, error) {
	return h.client.Get(url)
}

func (h *httpClient) Post(url, contentType string, body io.Reader) (*http.Response, error) {
	return h.client.Post(url, contentType, body)
}

func (h *httpClient) PostForm(url string, data url.Values) (*http.Response, error) {
	return h.client.PostForm(url, data)
}

func (h *httpClient) CloseIdleConnections() {
	h.client.CloseIdleConnections()
}

// isThrottled reports whether a status code warrants waiting and retrying.
// OpenDota answers 429 when rate-limited and 500 when a match is still
// being processed; both resolve themselves given time.
func isThrottled(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusInternalServerError
}

// GetWithRetry performs a GET against url, sleeping a fixed backoff and
// retrying for as long as the upstream answers 429 or 500. There is no
// attempt cap: the loop only ends with a definitive response or a canceled
// context. Any other non-2xx status is returned as an *HTTPError.
func (h *httpClient) GetWithRetry(ctx context.Context, url string) ([]byte, error) {
	for {
		data, status, err := h.getOnce(ctx, url)
		if err != nil {
			return nil, err
		}
		if isThrottled(status) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			h.sleepFunc(h.backoff)
			continue
		}
		if status < 200 || status >= 300 {
			return nil, &HTTPError{StatusCode: status, Body: data}
		}
		return data, nil
	}
}

func (h *httpClient) getOnce(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	data, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %v", readErr)
	}
	return data, resp.StatusCode, nil
}

func (h *httpClient) SetSleepForTest(sleep func(d time.Duration)) {
	h.sleepFunc = sleep
}
