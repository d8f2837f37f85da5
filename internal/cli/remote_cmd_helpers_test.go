package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ayatskii/panel-sub002/internal/config"
	"github.com/ayatskii/panel-sub002/internal/transport"
)

type recordedRequest struct {
	Method  string
	Path    string
	Query   string
	Headers http.Header
	Body    []byte
}

type scriptedTransport struct {
	handle func(call int, req recordedRequest) (*http.Response, error)

	mu       sync.Mutex
	requests []recordedRequest
	closed   bool
}

func (s *scriptedTransport) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
	}
	rec := recordedRequest{
		Method:  req.Method,
		Path:    req.URL.Path,
		Query:   req.URL.RawQuery,
		Headers: req.Header.Clone(),
		Body:    body,
	}
	s.mu.Lock()
	call := len(s.requests)
	s.requests = append(s.requests, rec)
	s.mu.Unlock()
	if s.handle == nil {
		return nil, errors.New("unexpected transport call")
	}
	return s.handle(call, rec)
}

func (s *scriptedTransport) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *scriptedTransport) recorded() []recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recordedRequest(nil), s.requests...)
}

// routeTransport answers "METHOD /path" keys and fails the test on anything else.
func routeTransport(t *testing.T, routes map[string]func(req recordedRequest) *http.Response) *scriptedTransport {
	t.Helper()
	return &scriptedTransport{
		handle: func(call int, req recordedRequest) (*http.Response, error) {
			h, ok := routes[req.Method+" "+req.Path]
			if !ok {
				t.Errorf("unexpected request %d: %s %s", call, req.Method, req.Path)
				return jsonHTTPResponse(404, `{"detail":"not found"}`), nil
			}
			return h(req), nil
		},
	}
}

func respond(status int, body string) func(recordedRequest) *http.Response {
	return func(recordedRequest) *http.Response { return jsonHTTPResponse(status, body) }
}

func runCommandWithTransport(t *testing.T, args []string, tr *scriptedTransport) (string, string, error) {
	t.Helper()
	return runCommandWithInput(t, args, "", tr)
}

func runCommandWithInput(t *testing.T, args []string, stdin string, tr *scriptedTransport) (string, string, error) {
	t.Helper()

	configPath := writeTestConfigFile(t, "staging")
	t.Setenv(config.EnvConfigPath, configPath)
	return executeRoot(t, args, stdin, tr)
}

// executeRoot runs the root command against whatever config PANELCTL_CONFIG
// already points at.
func executeRoot(t *testing.T, args []string, stdin string, tr *scriptedTransport) (string, string, error) {
	t.Helper()

	t.Setenv(config.EnvContext, "")
	t.Setenv(config.EnvServer, "")
	t.Setenv(config.EnvToken, "")

	prevFactory := buildTransportForContext
	buildTransportForContext = func(ctx context.Context, info config.ContextInfo, cfg transport.SSHConfig) (transport.Transport, error) {
		if tr == nil {
			return nil, errors.New("no transport in this test")
		}
		return tr, nil
	}
	t.Cleanup(func() {
		buildTransportForContext = prevFactory
	})

	cmd := NewRootCmd("test")
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func jsonHTTPResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

func noContentResponse() *http.Response {
	return &http.Response{
		StatusCode: http.StatusNoContent,
		Header:     http.Header{},
		Body:       io.NopCloser(bytes.NewReader(nil)),
	}
}

func writeTestConfigFile(t *testing.T, currentContext string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `apiVersion: panelctl/v1
current-context: ` + currentContext + `
contexts:
  - name: staging
    server: http://panel.staging.example.com
    token: staging-token
    username: ops
  - name: prod
    server: https://panel.example.com
    token: prod-token
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func writePageFixture(t *testing.T, dir, name, body string) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const aboutPageYAML = `title: About us
slug: about
metaDescription: Who we are
isPublished: true
order: 1
blocks:
  - type: hero
    content:
      title: Hello
      subtitle: We build sites
  - type: cta
    content:
      title: Ready?
      buttonText: Start
      buttonLink: /start
`

// aboutPageJSON is the server form of aboutPageYAML.
const aboutPageJSON = `{"id":12,"site":3,"title":"About us","slug":"about","meta_description":"Who we are","is_published":true,"order":1,"blocks":[
  {"id":100,"block_type":"hero","order":0,"content":{"title":"Hello","subtitle":"We build sites"}},
  {"id":101,"block_type":"cta","order":1,"content":{"title":"Ready?","button_text":"Start","button_link":"/start"}}
]}`
