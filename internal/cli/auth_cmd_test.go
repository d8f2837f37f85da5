package cli

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ayatskii/panel-sub002/internal/auth"
	"github.com/ayatskii/panel-sub002/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

func testAccessToken(t *testing.T, username string, exp time.Time) string {
	t.Helper()

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": username,
		"exp":      exp.Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

// writeSessionConfig points PANELCTL_CONFIG at a config whose only context has
// no static token.
func writeSessionConfig(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `current-context: dev
contexts:
  - name: dev
    server: http://panel.dev.example.com
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv(config.EnvConfigPath, path)
	return path
}

func TestLoginWhoamiLogout(t *testing.T) {
	configPath := writeSessionConfig(t)
	access := testAccessToken(t, "alice", time.Now().Add(time.Hour))
	tr := routeTransport(t, map[string]func(recordedRequest) *http.Response{
		"POST /api/auth/login/": func(req recordedRequest) *http.Response {
			var creds map[string]string
			if err := json.Unmarshal(req.Body, &creds); err != nil {
				t.Errorf("unmarshal credentials: %v", err)
			}
			if creds["username"] != "alice" || creds["password"] != "s3cret" {
				t.Errorf("unexpected credentials %#v", creds)
			}
			return jsonHTTPResponse(200, `{"access":"`+access+`","refresh":"refresh-1"}`)
		},
		"POST /api/auth/token/refresh/": respond(200, `{"access":"`+access+`"}`),
	})

	out, _, err := executeRoot(t, []string{"login", "-u", "alice", "--password-stdin"}, "s3cret\n", tr)
	if err != nil {
		t.Fatalf("login error = %v", err)
	}
	if !strings.Contains(out, "Logged in as alice (context dev).") {
		t.Fatalf("unexpected login output %q", out)
	}
	if strings.Contains(out, "Password:") {
		t.Fatalf("expected no prompt with --password-stdin, got %q", out)
	}
	cfg, err := config.LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if ctx, _ := cfg.Find("dev"); ctx.Username != "alice" {
		t.Fatalf("expected username saved on context, got %q", ctx.Username)
	}

	out, _, err = executeRoot(t, []string{"whoami"}, "", tr)
	if err != nil {
		t.Fatalf("whoami error = %v", err)
	}
	for _, want := range []string{"alice", "session", "dev"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in whoami output, got %q", want, out)
		}
	}

	out, _, err = executeRoot(t, []string{"logout"}, "", tr)
	if err != nil {
		t.Fatalf("logout error = %v", err)
	}
	if !strings.Contains(out, "Logged out (context dev).") {
		t.Fatalf("unexpected logout output %q", out)
	}

	_, _, err = executeRoot(t, []string{"whoami"}, "", tr)
	if !errors.Is(err, auth.ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn after logout, got %v", err)
	}
}

func TestLoginPromptsForPassword(t *testing.T) {
	writeSessionConfig(t)
	access := testAccessToken(t, "bob", time.Now().Add(time.Hour))
	tr := routeTransport(t, map[string]func(recordedRequest) *http.Response{
		"POST /api/auth/login/": respond(200, `{"access":"`+access+`","refresh":"refresh-1"}`),
	})

	out, _, err := executeRoot(t, []string{"login"}, "bob\nhunter2\n", tr)
	if err != nil {
		t.Fatalf("login error = %v", err)
	}
	if !strings.Contains(out, "Username: ") || !strings.Contains(out, "Password: ") {
		t.Fatalf("expected prompts, got %q", out)
	}
	if !strings.Contains(out, "Logged in as bob") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestLoginRejectedCredentials(t *testing.T) {
	writeSessionConfig(t)
	tr := routeTransport(t, map[string]func(recordedRequest) *http.Response{
		"POST /api/auth/login/": respond(401, `{"detail":"No active account found with the given credentials"}`),
	})

	_, _, err := executeRoot(t, []string{"login", "-u", "alice", "--password-stdin"}, "wrong\n", tr)
	if err == nil || !strings.Contains(err.Error(), "login failed") {
		t.Fatalf("expected login failure, got %v", err)
	}
}

func TestLoginRequiresPassword(t *testing.T) {
	writeSessionConfig(t)
	tr := &scriptedTransport{}

	_, _, err := executeRoot(t, []string{"login", "-u", "alice", "--password-stdin"}, "", tr)
	if code := ExitCode(err); code != exitValidation {
		t.Fatalf("ExitCode() = %d, want %d (err=%v)", code, exitValidation, err)
	}
	if len(tr.recorded()) != 0 {
		t.Fatalf("expected no requests, got %d", len(tr.recorded()))
	}
}

func TestWhoamiWithStaticToken(t *testing.T) {
	tr := &scriptedTransport{}

	out, _, err := runCommandWithTransport(t, []string{"whoami", "-o", "json"}, tr)
	if err != nil {
		t.Fatalf("whoami error = %v", err)
	}
	var res map[string]string
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("unmarshal whoami: %v\n%s", err, out)
	}
	if res["auth"] != "token" || res["context"] != "staging" || res["username"] != "ops" {
		t.Fatalf("unexpected whoami %#v", res)
	}
	if len(tr.recorded()) != 0 {
		t.Fatalf("expected no requests, got %d", len(tr.recorded()))
	}
}
