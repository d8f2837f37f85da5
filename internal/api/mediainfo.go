package api

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageInfo is what the client can learn about an upload before sending it.
type ImageInfo struct {
	Format   string
	MimeType string
	Width    int
	Height   int
}

// IsImage reports whether dimensions were detected.
func (i ImageInfo) IsImage() bool { return i.Width > 0 && i.Height > 0 }

var imageMimeTypes = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
}

// InspectUpload sniffs the content type and, for raster images, the dimensions.
// SVG and other non-raster files report no dimensions.
func InspectUpload(filename string, data []byte) ImageInfo {
	info := ImageInfo{MimeType: sniffMimeType(filename, data)}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return info
	}
	info.Format = format
	info.Width = cfg.Width
	info.Height = cfg.Height
	if mt, ok := imageMimeTypes[format]; ok {
		info.MimeType = mt
	}
	return info
}

func sniffMimeType(filename string, data []byte) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".svg":
		return "image/svg+xml"
	case ".webp":
		return "image/webp"
	}
	mt := http.DetectContentType(data)
	if i := strings.IndexByte(mt, ';'); i >= 0 && !strings.HasPrefix(mt, "text/") {
		mt = mt[:i]
	}
	return mt
}
