package cli

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
)

const redirectsYAML = `rules:
  - sourcePath: /old-about
    targetUrl: /about
    statusCode: 301
  - sourcePath: /old-contact
    targetUrl: /contact
    statusCode: 302
  - sourcePath: /blog
    targetUrl: https://blog.example.com
    statusCode: 308
`

func TestRedirectsApplyContinuesAfterFailure(t *testing.T) {
	path := writePageFixture(t, t.TempDir(), "redirects.yaml", redirectsYAML)
	tr := &scriptedTransport{
		handle: func(call int, req recordedRequest) (*http.Response, error) {
			if req.Method != http.MethodPost || req.Path != "/api/sites/3/redirects/" {
				t.Errorf("unexpected request %s %s", req.Method, req.Path)
			}
			var rule map[string]any
			_ = json.Unmarshal(req.Body, &rule)
			if rule["source_path"] == "/old-contact" {
				return jsonHTTPResponse(400, `{"detail":"source path already redirected"}`), nil
			}
			return jsonHTTPResponse(201, `{"id":`+itoa(call+1)+`,"site":3,"source_path":"`+rule["source_path"].(string)+`","target_url":"x","status_code":301}`), nil
		},
	}

	out, _, err := runCommandWithTransport(t, []string{"redirects", "apply", "-f", path, "--site", "3"}, tr)
	if err == nil {
		t.Fatalf("expected partial failure error")
	}
	if code := ExitCode(err); code != 1 {
		t.Fatalf("ExitCode() = %d, want 1", code)
	}
	if !strings.Contains(err.Error(), "redirect /old-contact") || !strings.Contains(err.Error(), "source path already redirected") {
		t.Fatalf("expected failing rule in error, got %v", err)
	}
	if got := len(tr.recorded()); got != 3 {
		t.Fatalf("expected all 3 rules to be sent, got %d", got)
	}
	if !strings.Contains(out, "2 of 3 redirects created.") {
		t.Fatalf("expected summary, got %q", out)
	}
	if !strings.Contains(out, "failed: invalid request: source path already redirected") {
		t.Fatalf("expected per-rule failure, got %q", out)
	}
}

func TestRedirectsApplyFromSiteDirectory(t *testing.T) {
	dir := t.TempDir()
	writePageFixture(t, dir, "redirects.yaml", `rules:
  - sourcePath: /old
    targetUrl: /new
    statusCode: 301
`)
	tr := routeTransport(t, map[string]func(recordedRequest) *http.Response{
		"POST /api/sites/3/redirects/": respond(201, `{"id":1,"site":3,"source_path":"/old","target_url":"/new","status_code":301}`),
	})

	out, _, err := runCommandWithTransport(t, []string{"redirects", "apply", "-f", dir, "--site", "3", "-o", "json"}, tr)
	if err != nil {
		t.Fatalf("redirects apply error = %v", err)
	}
	var outcomes []map[string]any
	if err := json.Unmarshal([]byte(out), &outcomes); err != nil {
		t.Fatalf("unmarshal outcomes: %v\n%s", err, out)
	}
	if len(outcomes) != 1 || outcomes[0]["id"] != float64(1) || outcomes[0]["error"] != nil {
		t.Fatalf("unexpected outcomes %#v", outcomes)
	}
}

func TestRedirectsApplyRejectsDuplicates(t *testing.T) {
	path := writePageFixture(t, t.TempDir(), "redirects.yaml", `rules:
  - sourcePath: /old
    targetUrl: /new
    statusCode: 301
  - sourcePath: /old
    targetUrl: /other
    statusCode: 301
`)
	tr := &scriptedTransport{}

	_, errOut, err := runCommandWithTransport(t, []string{"redirects", "apply", "-f", path, "--site", "3"}, tr)
	if code := ExitCode(err); code != exitValidation {
		t.Fatalf("ExitCode() = %d, want %d (err=%v)", code, exitValidation, err)
	}
	if !strings.Contains(errOut, "duplicate source_path") {
		t.Fatalf("expected duplicate error, got %q", errOut)
	}
	if len(tr.recorded()) != 0 {
		t.Fatalf("expected no requests, got %d", len(tr.recorded()))
	}
}

func TestRedirectsApplyEmptyFile(t *testing.T) {
	path := writePageFixture(t, t.TempDir(), "redirects.yaml", "rules: []\n")
	tr := &scriptedTransport{}

	out, _, err := runCommandWithTransport(t, []string{"redirects", "apply", "-f", path, "--site", "3"}, tr)
	if err != nil {
		t.Fatalf("redirects apply error = %v", err)
	}
	if !strings.Contains(out, "No redirects found.") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRedirectsAddAndList(t *testing.T) {
	tr := routeTransport(t, map[string]func(recordedRequest) *http.Response{
		"POST /api/sites/3/redirects/": respond(201, `{"id":4,"site":3,"source_path":"/a","target_url":"/b","status_code":307}`),
		"GET /api/sites/3/redirects/":  respond(200, `[{"id":4,"site":3,"source_path":"/a","target_url":"/b","status_code":307}]`),
	})

	out, _, err := runCommandWithTransport(t, []string{"redirects", "add", "--site", "3", "--from", "/a", "--to", "/b", "--status", "307"}, tr)
	if err != nil {
		t.Fatalf("redirects add error = %v", err)
	}
	if !strings.Contains(out, "Redirect 4 added: /a -> /b (307)") {
		t.Fatalf("unexpected output %q", out)
	}

	out, _, err = runCommandWithTransport(t, []string{"redirects", "list", "--site", "3"}, tr)
	if err != nil {
		t.Fatalf("redirects list error = %v", err)
	}
	for _, want := range []string{"FROM", "/a", "/b", "307"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got %q", want, out)
		}
	}
}

func TestRedirectsAddRejectsBadStatus(t *testing.T) {
	tr := &scriptedTransport{}

	_, _, err := runCommandWithTransport(t, []string{"redirects", "add", "--site", "3", "--from", "/a", "--to", "/b", "--status", "200"}, tr)
	if code := ExitCode(err); code != exitValidation {
		t.Fatalf("ExitCode() = %d, want %d (err=%v)", code, exitValidation, err)
	}
	if len(tr.recorded()) != 0 {
		t.Fatalf("expected no requests, got %d", len(tr.recorded()))
	}
}

func TestRedirectsRequireSite(t *testing.T) {
	_, _, err := runCommandWithTransport(t, []string{"redirects", "list"}, &scriptedTransport{})
	if err == nil || !strings.Contains(err.Error(), `"site" not set`) {
		t.Fatalf("expected required flag error, got %v", err)
	}
}
