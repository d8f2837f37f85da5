package cli

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestPNG(t *testing.T, dir string, w, h int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	path := filepath.Join(dir, "logo.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write png: %v", err)
	}
	return path
}

func TestMediaUploadSendsMultipartWithDimensions(t *testing.T) {
	path := writeTestPNG(t, t.TempDir(), 4, 3)
	tr := routeTransport(t, map[string]func(recordedRequest) *http.Response{
		"POST /api/media/": respond(201, `{"id":5,"filename":"logo.png","url":"https://cdn.example.com/logo.png","file_size":2048,"mime_type":"image/png"}`),
	})

	out, _, err := runCommandWithTransport(t, []string{"media", "upload", path, "--folder", "brand", "--alt", "Logo", "--tag", "a", "--tag", "b"}, tr)
	if err != nil {
		t.Fatalf("media upload error = %v", err)
	}
	if !strings.Contains(out, "Uploaded logo.png as media 5 (2.0 kB)") || !strings.Contains(out, "https://cdn.example.com/logo.png") {
		t.Fatalf("unexpected output %q", out)
	}

	req := tr.recorded()[0]
	mediaType, params, err := mime.ParseMediaType(req.Headers.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		t.Fatalf("unexpected content type %q (err=%v)", req.Headers.Get("Content-Type"), err)
	}
	form, err := multipart.NewReader(bytes.NewReader(req.Body), params["boundary"]).ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("read multipart form: %v", err)
	}
	want := map[string]string{"folder": "brand", "alt_text": "Logo", "tags": "a,b", "width": "4", "height": "3"}
	for k, v := range want {
		if got := form.Value[k]; len(got) != 1 || got[0] != v {
			t.Fatalf("form field %s = %v, want %q", k, got, v)
		}
	}
	files := form.File["file"]
	if len(files) != 1 || files[0].Filename != "logo.png" || files[0].Header.Get("Content-Type") != "image/png" {
		t.Fatalf("unexpected file part %#v", files)
	}
}

func TestMediaUploadMissingFile(t *testing.T) {
	tr := &scriptedTransport{}

	_, _, err := runCommandWithTransport(t, []string{"media", "upload", filepath.Join(t.TempDir(), "nope.png")}, tr)
	if err == nil || !strings.Contains(err.Error(), "nope.png") {
		t.Fatalf("expected stat error, got %v", err)
	}
	if len(tr.recorded()) != 0 {
		t.Fatalf("expected no requests, got %d", len(tr.recorded()))
	}
}

func TestMediaUploadRejectsBadFolder(t *testing.T) {
	path := writeTestPNG(t, t.TempDir(), 1, 1)
	tr := &scriptedTransport{}

	_, _, err := runCommandWithTransport(t, []string{"media", "upload", path, "--folder", "../secrets"}, tr)
	if code := ExitCode(err); code != exitValidation {
		t.Fatalf("ExitCode() = %d, want %d (err=%v)", code, exitValidation, err)
	}
	if len(tr.recorded()) != 0 {
		t.Fatalf("expected no requests, got %d", len(tr.recorded()))
	}
}

func TestMediaListFilters(t *testing.T) {
	tr := routeTransport(t, map[string]func(recordedRequest) *http.Response{
		"GET /api/media/": respond(200, `[{"id":5,"filename":"logo.png","file_size":2048,"mime_type":"image/png","width":4,"height":3,"folder":"brand"}]`),
	})

	out, _, err := runCommandWithTransport(t, []string{"media", "list", "--folder", "brand", "--tag", "a"}, tr)
	if err != nil {
		t.Fatalf("media list error = %v", err)
	}
	if got := tr.recorded()[0].Query; got != "folder=brand&tag=a" {
		t.Fatalf("query = %q, want folder and tag", got)
	}
	for _, want := range []string{"logo.png", "image/png", "4x3", "brand"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got %q", want, out)
		}
	}
}
