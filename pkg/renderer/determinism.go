package renderer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// previewHashLength is how much of the content hash goes into a preview name.
const previewHashLength = 12

var newlineReplacer = strings.NewReplacer("\r\n", "\n", "\r", "\n")

func normalizeNewlines(s string) string {
	return newlineReplacer.Replace(s)
}

// previewName names the preview of a page revision: the slug with "/" turned
// into "-", then a content hash, so two revisions never overwrite each other.
func previewName(slug string, content []byte) string {
	name := strings.Trim(strings.ReplaceAll(strings.TrimSpace(slug), "/", "-"), "-")
	if name == "" {
		name = "index"
	}
	sum := sha256.Sum256(content)
	return fmt.Sprintf("%s-%s.html", name, hex.EncodeToString(sum[:])[:previewHashLength])
}

// writeFileAtomic replaces path through a temp file in the same directory, so
// a browser reloading the preview never sees a half-written page.
func writeFileAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".preview-*")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("move preview into place: %w", err)
	}
	return nil
}
