package cli

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
)

func TestTokensCreatePrintsSecretOnce(t *testing.T) {
	tr := routeTransport(t, map[string]func(recordedRequest) *http.Response{
		"POST /api/integrations/api-tokens/": respond(201, `{"id":2,"name":"ci","token_prefix":"pk_ab","token":"pk_abcdef123456","created_at":"2026-01-02T10:00:00Z"}`),
	})

	out, errOut, err := runCommandWithTransport(t, []string{"integrations", "tokens", "create", "--name", "ci", "--expires-in-days", "30"}, tr)
	if err != nil {
		t.Fatalf("tokens create error = %v", err)
	}
	if !strings.Contains(out, "API token 2 created: ci") || !strings.Contains(out, "pk_abcdef123456") {
		t.Fatalf("unexpected output %q", out)
	}
	if !strings.Contains(errOut, "not shown again") {
		t.Fatalf("expected warning on stderr, got %q", errOut)
	}
	var body map[string]any
	if err := json.Unmarshal(tr.recorded()[0].Body, &body); err != nil {
		t.Fatalf("unmarshal request: %v", err)
	}
	if body["name"] != "ci" || body["expires_in_days"] != float64(30) {
		t.Fatalf("unexpected body %#v", body)
	}
}

func TestCloudflareAddFromStdinMasksToken(t *testing.T) {
	tr := routeTransport(t, map[string]func(recordedRequest) *http.Response{
		"POST /api/integrations/cloudflare-tokens/": respond(201, `{"id":6,"name":"main","account_id":"acc","masked_token":"cf_t****","is_active":true}`),
	})

	out, _, err := runCommandWithInput(t, []string{"integrations", "cloudflare", "add", "--name", "main", "--account-id", "acc", "--token-stdin"}, "cf_token_0123456789\n", tr)
	if err != nil {
		t.Fatalf("cloudflare add error = %v", err)
	}
	if strings.Contains(out, "cf_token_0123456789") {
		t.Fatalf("expected token to be masked, got %q", out)
	}
	if !strings.Contains(out, "Cloudflare token 6 added: main (cf_t********)") {
		t.Fatalf("unexpected output %q", out)
	}
	var body map[string]string
	if err := json.Unmarshal(tr.recorded()[0].Body, &body); err != nil {
		t.Fatalf("unmarshal request: %v", err)
	}
	if body["api_token"] != "cf_token_0123456789" {
		t.Fatalf("expected trimmed token in body, got %#v", body)
	}
}

func TestCloudflareVerifyInvalidExitsOne(t *testing.T) {
	tr := routeTransport(t, map[string]func(recordedRequest) *http.Response{
		"POST /api/integrations/cloudflare-tokens/6/verify/": respond(200, `{"valid":false,"message":"token revoked"}`),
	})

	out, _, err := runCommandWithTransport(t, []string{"integrations", "cloudflare", "verify", "6"}, tr)
	if code := ExitCode(err); code != 1 {
		t.Fatalf("ExitCode() = %d, want 1 (err=%v)", code, err)
	}
	if !strings.Contains(out, "Cloudflare token 6 is invalid: token revoked") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestPromptsCreateValidation(t *testing.T) {
	tr := &scriptedTransport{}

	_, _, err := runCommandWithTransport(t, []string{"integrations", "prompts", "create", "--name", "", "--type", "page", "--content", "x"}, tr)
	if code := ExitCode(err); code != exitValidation {
		t.Fatalf("ExitCode() = %d, want %d (err=%v)", code, exitValidation, err)
	}
	if len(tr.recorded()) != 0 {
		t.Fatalf("expected no requests, got %d", len(tr.recorded()))
	}
}

func TestAnalyticsSitePeriod(t *testing.T) {
	tr := routeTransport(t, map[string]func(recordedRequest) *http.Response{
		"GET /api/analytics/sites/3/": respond(200, `{"site":3,"period":"7d","page_views":12345,"unique_visitors":678,"top_pages":[{"path":"/","views":9000}]}`),
	})

	out, _, err := runCommandWithTransport(t, []string{"analytics", "site", "3", "--period", "7d"}, tr)
	if err != nil {
		t.Fatalf("analytics site error = %v", err)
	}
	if got := tr.recorded()[0].Query; got != "period=7d" {
		t.Fatalf("query = %q, want period=7d", got)
	}
	if !strings.Contains(out, "Site 3, last 7d: 12,345 page views, 678 unique visitors") {
		t.Fatalf("unexpected output %q", out)
	}
	if !strings.Contains(out, "9,000") {
		t.Fatalf("expected top pages table, got %q", out)
	}
}

func TestAnalyticsRejectsUnknownPeriod(t *testing.T) {
	tr := &scriptedTransport{}

	_, _, err := runCommandWithTransport(t, []string{"analytics", "site", "3", "--period", "1y"}, tr)
	if code := ExitCode(err); code != exitValidation {
		t.Fatalf("ExitCode() = %d, want %d (err=%v)", code, exitValidation, err)
	}
	if len(tr.recorded()) != 0 {
		t.Fatalf("expected no requests, got %d", len(tr.recorded()))
	}
}

func TestTemplatesList(t *testing.T) {
	tr := routeTransport(t, map[string]func(recordedRequest) *http.Response{
		"GET /api/templates/": respond(200, `[{"id":1,"name":"Landing","supports_color_customization":true,"supports_page_speed":false}]`),
	})

	out, _, err := runCommandWithTransport(t, []string{"templates", "list"}, tr)
	if err != nil {
		t.Fatalf("templates list error = %v", err)
	}
	if !strings.Contains(out, "Landing") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestPromptsUpdateSendsWholeRecord(t *testing.T) {
	tr := routeTransport(t, map[string]func(recordedRequest) *http.Response{
		"GET /api/integrations/prompts/":   respond(200, `[{"id":4,"name":"Hero copy","prompt_type":"content","content":"Write a hero","is_active":true}]`),
		"PUT /api/integrations/prompts/4/": respond(200, `{"id":4,"name":"Hero copy","prompt_type":"content","content":"Write a shorter hero","is_active":false}`),
	})

	out, _, err := runCommandWithTransport(t, []string{"integrations", "prompts", "update", "4", "--content", "Write a shorter hero", "--active=false"}, tr)
	if err != nil {
		t.Fatalf("prompts update error = %v", err)
	}
	if !strings.Contains(out, "Prompt 4 updated: Hero copy") {
		t.Fatalf("unexpected output %q", out)
	}
	reqs := tr.recorded()
	var body map[string]any
	if err := json.Unmarshal(reqs[len(reqs)-1].Body, &body); err != nil {
		t.Fatalf("unmarshal request: %v", err)
	}
	if body["name"] != "Hero copy" || body["prompt_type"] != "content" || body["content"] != "Write a shorter hero" || body["is_active"] != false {
		t.Fatalf("expected every field in the PUT body, got %#v", body)
	}
}

func TestPromptsUpdateUnknownID(t *testing.T) {
	tr := routeTransport(t, map[string]func(recordedRequest) *http.Response{
		"GET /api/integrations/prompts/": respond(200, `[]`),
	})

	_, _, err := runCommandWithTransport(t, []string{"integrations", "prompts", "update", "9", "--name", "x"}, tr)
	if err == nil || !strings.Contains(err.Error(), "prompt 9 not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
}
