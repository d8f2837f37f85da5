package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"": FormatTable, "table": FormatTable, "JSON": FormatJSON, "yaml": FormatYAML, "yml": FormatYAML}
	for in, want := range cases {
		if got, err := ParseFormat(in); err != nil || got != want {
			t.Fatalf("ParseFormat(%q) got=%q err=%v", in, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatalf("expected invalid format error")
	}
}

func TestWriteStructuredKeepsHTML(t *testing.T) {
	payload := map[string]any{"block_type": "text_image", "content": "<p>Hi & welcome</p>"}

	jsonOut := &bytes.Buffer{}
	if err := WriteStructured(jsonOut, FormatJSON, payload); err != nil {
		t.Fatalf("WriteStructured(JSON) error = %v", err)
	}
	if !strings.Contains(jsonOut.String(), `"content": "<p>Hi & welcome</p>"`) {
		t.Fatalf("unexpected json output: %s", jsonOut.String())
	}

	yamlOut := &bytes.Buffer{}
	if err := WriteStructured(yamlOut, FormatYAML, payload); err != nil {
		t.Fatalf("WriteStructured(YAML) error = %v", err)
	}
	if !strings.Contains(yamlOut.String(), "block_type: text_image") {
		t.Fatalf("unexpected yaml output: %s", yamlOut.String())
	}

	if err := WriteStructured(&bytes.Buffer{}, FormatTable, payload); err == nil {
		t.Fatalf("expected error for table format")
	}
}

func TestWriteListEmpty(t *testing.T) {
	out := &bytes.Buffer{}
	if err := WriteList(out, FormatTable, "sites", []string{}, []string{"ID"}, nil); err != nil {
		t.Fatalf("WriteList() error = %v", err)
	}
	if out.String() != "No sites found.\n" {
		t.Fatalf("WriteList(empty) = %q", out.String())
	}

	out.Reset()
	if err := WriteList(out, FormatJSON, "sites", []string{}, []string{"ID"}, nil); err != nil {
		t.Fatalf("WriteList(json) error = %v", err)
	}
	if strings.TrimSpace(out.String()) != "[]" {
		t.Fatalf("WriteList(json, empty) = %q", out.String())
	}
}

func TestWriteTable(t *testing.T) {
	out := &bytes.Buffer{}
	err := WriteTable(out, []string{"SLUG", "TITLE"}, [][]string{{"about", "About\tus\nteam"}})
	if err != nil {
		t.Fatalf("WriteTable() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 || !strings.Contains(lines[1], "About us team") {
		t.Fatalf("unexpected table output: %q", out.String())
	}
	if err := WriteTable(out, []string{"A", "B"}, [][]string{{"only"}}); err == nil {
		t.Fatalf("expected column count error")
	}
}

type failingWriter struct{ writes int }

func (f *failingWriter) Write([]byte) (int, error) {
	f.writes++
	return 0, errors.New("disk full")
}

func TestWriteTableStopsAtFirstWriteError(t *testing.T) {
	w := &failingWriter{}
	// Single-cell lines make the tabwriter flush on every row.
	err := WriteTable(w, nil, [][]string{{"one"}, {"two"}, {"three"}})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("WriteTable() error = %v, want disk full", err)
	}
	if w.writes != 1 {
		t.Fatalf("expected WriteTable to stop after the failed write, got %d writes", w.writes)
	}
}

func TestTruncateRunes(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{in: "Über uns", max: 20, want: "Über uns"},
		{in: "Über uns und mehr", max: 8, want: "Über ..."},
		{in: "Ünïcode", max: 2, want: "Ün"},
		{in: "x", max: 0, want: ""},
	}
	for _, tc := range cases {
		if got := Truncate(tc.in, tc.max); got != tc.want {
			t.Fatalf("Truncate(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
}

func TestFormatLogs(t *testing.T) {
	if got := FormatLogs(nil); got != "No logs available" {
		t.Fatalf("FormatLogs(nil) = %q", got)
	}
	if got := FormatLogs([]string{}); got != NoLogs {
		t.Fatalf("FormatLogs(empty) = %q", got)
	}
	if got := FormatLogs([]string{"Building...", "Uploaded 12 files"}); got != "Building...\nUploaded 12 files" {
		t.Fatalf("FormatLogs(lines) = %q", got)
	}
}

func TestMaskSecret(t *testing.T) {
	cases := map[string]string{
		"":                    "<none>",
		"short":               "*****",
		"cf_abcdefghijklmnop": "cf_a********",
	}
	for in, want := range cases {
		if got := MaskSecret(in); got != want {
			t.Fatalf("MaskSecret(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHumanValues(t *testing.T) {
	if got := Bytes(2048); got != "2.0 kB" {
		t.Fatalf("Bytes(2048) = %q", got)
	}
	if got := Count(1234567); got != "1,234,567" {
		t.Fatalf("Count() = %q", got)
	}
	if got := Timestamp(time.Time{}); got != "<none>" {
		t.Fatalf("Timestamp(zero) = %q", got)
	}
	if got := Timestamp(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)); got != "2026-03-01T12:00:00Z" {
		t.Fatalf("Timestamp() = %q", got)
	}
}
