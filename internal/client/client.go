package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/ayatskii/panel-sub002/internal/logging"
	"github.com/ayatskii/panel-sub002/internal/transport"
)

// defaultBaseURL is a placeholder host; transports rewrite it onto the real server.
const defaultBaseURL = "http://panel"

type APIClient struct {
	transport transport.Transport
	baseURL   string
	actor     string
	tokens    oauth2.TokenSource
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*APIClient)

// WithTokenSource attaches a bearer token to every request.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *APIClient) { c.tokens = ts }
}

func WithActor(actor string) Option {
	return func(c *APIClient) {
		if actor = strings.TrimSpace(actor); actor != "" {
			c.actor = actor
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *APIClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func New(tr transport.Transport, opts ...Option) *APIClient {
	actor := strings.TrimSpace(os.Getenv("USER"))
	if actor == "" {
		actor = "panelctl"
	}
	c := &APIClient{
		transport: tr,
		baseURL:   defaultBaseURL,
		actor:     actor,
		logger:    logging.Discard(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewWithAuth builds a client that sends a static bearer token and the given actor name.
func NewWithAuth(tr transport.Transport, actor, token string) *APIClient {
	opts := []Option{WithActor(actor)}
	if token = strings.TrimSpace(token); token != "" {
		opts = append(opts, WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})))
	}
	return New(tr, opts...)
}

func (c *APIClient) Get(ctx context.Context, path string, query url.Values, out any) error {
	if encoded := query.Encode(); encoded != "" {
		path = path + "?" + encoded
	}
	return c.send(ctx, http.MethodGet, path, nil, out)
}

func (c *APIClient) Post(ctx context.Context, path string, body, out any) error {
	return c.send(ctx, http.MethodPost, path, body, out)
}

func (c *APIClient) Put(ctx context.Context, path string, body, out any) error {
	return c.send(ctx, http.MethodPut, path, body, out)
}

func (c *APIClient) Patch(ctx context.Context, path string, body, out any) error {
	return c.send(ctx, http.MethodPatch, path, body, out)
}

func (c *APIClient) Delete(ctx context.Context, path string, out any) error {
	return c.send(ctx, http.MethodDelete, path, nil, out)
}

// getURL follows an absolute link returned by the server (pagination "next").
// Only the path and query are kept; the transport decides where the request goes.
func (c *APIClient) getURL(ctx context.Context, link string, out any) error {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return &APIError{Status: StatusParsingError, Err: fmt.Errorf("parse pagination link %q: %w", link, err)}
	}
	path := u.EscapedPath()
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return c.send(ctx, http.MethodGet, path, nil, out)
}

func (c *APIClient) send(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s %s payload: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := c.newRequest(ctx, method, path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *APIClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Actor", c.actor)

	requestID := RequestIDFromContext(ctx)
	if requestID == "" {
		requestID, err = NewRequestID(c.now())
		if err != nil {
			return nil, err
		}
	}
	req.Header.Set("X-Request-ID", requestID)
	if method != http.MethodGet && method != http.MethodHead {
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}
	return req, nil
}

func (c *APIClient) do(req *http.Request, out any) error {
	requestID := req.Header.Get("X-Request-ID")
	if c.tokens != nil {
		tok, err := c.tokens.Token()
		if err != nil {
			return &APIError{Status: StatusFetchError, RequestID: requestID, Err: fmt.Errorf("obtain access token: %w", err)}
		}
		tok.SetAuthHeader(req)
	}

	started := c.now()
	resp, err := c.transport.Do(req.Context(), req)
	if err != nil {
		c.logger.Debug("api request failed", "method", req.Method, "path", req.URL.Path, "request_id", requestID, "error", err.Error())
		return mapTransportError(err, requestID)
	}
	defer resp.Body.Close()
	c.logger.Debug("api request",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", c.now().Sub(started).Milliseconds(),
		"request_id", requestID,
	)

	if resp.StatusCode >= http.StatusBadRequest {
		return mapAPIError(resp, requestID)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return &APIError{Status: StatusFetchError, RequestID: requestID, Err: fmt.Errorf("read api response: %w", err)}
		}
		*raw = data
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return &APIError{Status: StatusParsingError, RequestID: requestID, Err: fmt.Errorf("decode api response: %w", err)}
	}
	return nil
}
