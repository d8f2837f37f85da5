package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/ayatskii/panel-sub002/internal/config"
)

func TestVersionCommandPrintsVersion(t *testing.T) {
	cmd := NewRootCmd("1.2.3")
	out := &strings.Builder{}
	cmd.SetOut(out)
	cmd.SetErr(&strings.Builder{})
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if got := strings.TrimSpace(out.String()); got != "1.2.3" {
		t.Fatalf("version output = %q, want %q", got, "1.2.3")
	}
}

func TestVersionIgnoresBrokenConfig(t *testing.T) {
	path := writePageFixture(t, t.TempDir(), "config.yaml", "contexts: [oops")
	t.Setenv(config.EnvConfigPath, path)

	out, _, err := executeRoot(t, []string{"version"}, "", nil)
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if strings.TrimSpace(out) != "test" {
		t.Fatalf("unexpected version output %q", out)
	}
}

func TestVersionStructuredOutput(t *testing.T) {
	out, _, err := executeRoot(t, []string{"version", "-o", "json"}, "", nil)
	if err != nil {
		t.Fatalf("version -o json error = %v", err)
	}
	var info struct {
		Version   string `json:"version"`
		GoVersion string `json:"goVersion"`
		Platform  string `json:"platform"`
	}
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("unmarshal version: %v\n%s", err, out)
	}
	if info.Version != "test" || !strings.HasPrefix(info.GoVersion, "go") || !strings.Contains(info.Platform, "/") {
		t.Fatalf("unexpected build info %#v", info)
	}
}
