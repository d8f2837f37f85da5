package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// HTTPTransport sends requests straight to an http(s) backend. Request URLs are
// rewritten onto the configured server so callers can build them against a
// placeholder host.
type HTTPTransport struct {
	base    *url.URL
	client  *http.Client
	limiter *rate.Limiter
	closed  atomic.Bool
}

// ParseBaseURL validates an http(s) server URL. A path component is kept as a prefix.
func ParseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("server URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse server URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server URL scheme %q: expected http or https", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return nil, fmt.Errorf("server URL %q must include host", raw)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return nil, fmt.Errorf("server URL %q must not include query or fragment", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	return u, nil
}

// NewHTTPTransport builds a transport for an http(s) server URL.
func NewHTTPTransport(serverURL string, opts Options) (*HTTPTransport, error) {
	base, err := ParseBaseURL(serverURL)
	if err != nil {
		return nil, err
	}
	return newHTTPTransport(base, http.DefaultTransport.(*http.Transport).Clone(), opts), nil
}

func newHTTPTransport(base *url.URL, rt http.RoundTripper, opts Options) *HTTPTransport {
	opts = opts.withDefaults()
	limit := rate.Limit(opts.RateLimit)
	if opts.RateLimit < 0 {
		limit = rate.Inf
	}
	return &HTTPTransport{
		base: base,
		client: &http.Client{
			Transport: rt,
			Timeout:   opts.Timeout,
		},
		limiter: rate.NewLimiter(limit, opts.Burst),
	}
}

// BaseURL reports the server the transport targets.
func (t *HTTPTransport) BaseURL() string {
	return t.base.String()
}

func (t *HTTPTransport) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	if req.URL == nil {
		return nil, fmt.Errorf("request URL is required")
	}
	if t.closed.Load() {
		return nil, ErrClosed
	}
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: waiting for rate limiter: %v", ErrTimeout, err)
	}

	outReq := req.Clone(ctx)
	urlCopy := *outReq.URL
	urlCopy.Scheme = t.base.Scheme
	urlCopy.Host = t.base.Host
	urlCopy.User = t.base.User
	if t.base.Path != "" {
		urlCopy.Path = t.base.Path + "/" + strings.TrimLeft(urlCopy.Path, "/")
		urlCopy.RawPath = ""
	}
	outReq.URL = &urlCopy
	outReq.RequestURI = ""
	outReq.Host = urlCopy.Host

	resp, err := t.client.Do(outReq)
	if err != nil {
		return nil, classifyHTTPError(err)
	}
	return resp, nil
}

func (t *HTTPTransport) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	t.client.CloseIdleConnections()
	return nil
}

func classifyHTTPError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}
