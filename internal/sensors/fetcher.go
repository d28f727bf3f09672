package sensors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"
)

// DefaultRequestTimeout bounds a single signal fetch.
const DefaultRequestTimeout = 10 * time.Second

const maxResponseBytes = 64 * 1024

var (
	// ErrInvalidBody reports a response body that is not valid UTF-8 text.
	ErrInvalidBody = errors.New("response body is not valid utf-8")
	// ErrBodyTooLarge reports a response body over the size cap. It is never
	// truncated into a reading.
	ErrBodyTooLarge = errors.New("response body too large")
)

// Fetcher retrieves the raw text value served at url.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// ClientConfig holds configuration for HTTPFetcher.
type ClientConfig struct {
	RequestTimeout time.Duration
}

// HTTPFetcher implements Fetcher with net/http.
type HTTPFetcher struct {
	http *http.Client
}

// NewHTTPFetcher constructs an HTTPFetcher. A non-positive RequestTimeout
// selects DefaultRequestTimeout.
func NewHTTPFetcher(cfg ClientConfig) *HTTPFetcher {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	return &HTTPFetcher{
		http: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		},
	}
}

// Fetch performs a GET and returns the body unmodified. Non-2xx responses,
// bodies over the size cap and bodies that are not UTF-8 are errors.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxResponseBytes {
		return "", fmt.Errorf("%w: exceeds %d KiB limit", ErrBodyTooLarge, maxResponseBytes/1024)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 80))
	}
	if !utf8.Valid(body) {
		return "", ErrInvalidBody
	}
	return string(body), nil
}

// SignalURL builds the endpoint for one signal of a sensor.
func SignalURL(address, signal string) string {
	return "http://" + address + "/" + signal
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
