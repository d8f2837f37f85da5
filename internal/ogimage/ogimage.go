// Package ogimage draws the social preview card (og:image) written next to a
// page preview.
package ogimage

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	Width  = 1200
	Height = 630

	// cardVersion is part of every cache key; bump it when the drawing changes.
	cardVersion         = "card-v1:"
	titleMaxLines       = 3
	descriptionMaxLines = 3
	margin              = 78

	defaultAccent = "#1f4fd1"
)

var (
	background = color.RGBA{R: 17, G: 24, B: 39, A: 255}
	footer     = color.RGBA{R: 31, G: 41, B: 55, A: 255}
	titleInk   = color.RGBA{R: 243, G: 244, B: 246, A: 255}
	bodyInk    = color.RGBA{R: 156, G: 163, B: 175, A: 255}
)

// Card is the text and branding of one page. Accent is a #rgb or #rrggbb
// colour, normally the site's primary colour.
type Card struct {
	Title       string
	Description string
	SiteName    string
	Accent      string
}

var (
	fontsOnce sync.Once
	fontsErr  error

	boldFont    *opentype.Font
	regularFont *opentype.Font
)

func loadFonts() error {
	fontsOnce.Do(func() {
		boldFont, fontsErr = opentype.Parse(gobold.TTF)
		if fontsErr != nil {
			fontsErr = fmt.Errorf("parse bold font: %w", fontsErr)
			return
		}
		regularFont, fontsErr = opentype.Parse(goregular.TTF)
		if fontsErr != nil {
			fontsErr = fmt.Errorf("parse regular font: %w", fontsErr)
		}
	})
	return fontsErr
}

// Generate draws c as a PNG. Equal cards produce identical bytes.
func Generate(c Card) ([]byte, error) {
	if err := loadFonts(); err != nil {
		return nil, err
	}
	card := normalize(c)
	accent, ok := ParseHexColor(card.Accent)
	if !ok {
		accent, _ = ParseHexColor(defaultAccent)
	}

	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	fill(img, img.Bounds(), background)
	fill(img, image.Rect(0, 0, 24, Height), accent)
	fill(img, image.Rect(0, Height-70, Width, Height), footer)

	siteFace, err := newFace(regularFont, 32)
	if err != nil {
		return nil, fmt.Errorf("site name face: %w", err)
	}
	defer closeFace(siteFace)
	titleFace, err := newFace(boldFont, 64)
	if err != nil {
		return nil, fmt.Errorf("title face: %w", err)
	}
	defer closeFace(titleFace)
	bodyFace, err := newFace(regularFont, 34)
	if err != nil {
		return nil, fmt.Errorf("description face: %w", err)
	}
	defer closeFace(bodyFace)

	textWidth := Width - 2*margin
	drawLines(img, siteFace, wrap(siteFace, card.SiteName, textWidth, 1), margin, 94, 40, accent)
	y := drawLines(img, titleFace, wrap(titleFace, card.Title, textWidth, titleMaxLines), margin, 188, 78, titleInk)
	drawLines(img, bodyFace, wrap(bodyFace, card.Description, textWidth, descriptionMaxLines), margin, y+32, 46, bodyInk)

	var out bytes.Buffer
	if err := png.Encode(&out, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return out.Bytes(), nil
}

// CacheKey identifies the rendered card without drawing it.
func CacheKey(c Card) string {
	card := normalize(c)
	sum := sha256.Sum256([]byte(cardVersion + card.Title + "\x00" + card.Description + "\x00" + card.SiteName + "\x00" + card.Accent))
	return hex.EncodeToString(sum[:])
}

// Write draws c into dir as <name>-og-<key>.png and returns the file path. An
// existing file with the same key is reused.
func Write(dir, name string, c Card) (string, error) {
	name = strings.Trim(strings.ReplaceAll(strings.TrimSpace(name), "/", "-"), "-")
	if name == "" {
		name = "index"
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-og-%s.png", name, CacheKey(c)[:12]))
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	data, err := Generate(c)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write social card: %w", err)
	}
	return path, nil
}

func newFace(f *opentype.Font, size float64) (font.Face, error) {
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}

func closeFace(face font.Face) {
	if closer, ok := face.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
}

func normalize(c Card) Card {
	return Card{
		Title:       collapseSpace(c.Title),
		Description: collapseSpace(c.Description),
		SiteName:    collapseSpace(c.SiteName),
		Accent:      strings.ToLower(strings.TrimSpace(c.Accent)),
	}
}

func collapseSpace(v string) string {
	return strings.Join(strings.Fields(v), " ")
}

func fill(img draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, &image.Uniform{C: c}, image.Point{}, draw.Src)
}

// drawLines draws lines from baseline y and returns the baseline after the last one.
func drawLines(img draw.Image, face font.Face, lines []string, x, y, lineHeight int, c color.Color) int {
	d := &font.Drawer{Dst: img, Src: image.NewUniform(c), Face: face}
	for _, line := range lines {
		d.Dot = fixed.P(x, y)
		d.DrawString(line)
		y += lineHeight
	}
	return y
}

// wrap breaks text into at most maxLines lines of maxWidth pixels. Text that
// does not fit ends with "...".
func wrap(face font.Face, text string, maxWidth, maxLines int) []string {
	text = collapseSpace(text)
	if text == "" || maxLines <= 0 {
		return nil
	}
	words := strings.Split(text, " ")
	lines := make([]string, 0, maxLines)
	i := 0
	for i < len(words) && len(lines) < maxLines {
		line := words[i]
		i++
		if measure(face, line) > maxWidth {
			lines = append(lines, ellipsize(face, line, maxWidth))
			continue
		}
		for i < len(words) && measure(face, line+" "+words[i]) <= maxWidth {
			line += " " + words[i]
			i++
		}
		lines = append(lines, line)
	}
	if i < len(words) {
		last := len(lines) - 1
		lines[last] = ellipsize(face, lines[last]+" ...", maxWidth)
	}
	return lines
}

func ellipsize(face font.Face, text string, maxWidth int) string {
	const dots = "..."
	if measure(face, text) <= maxWidth {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := strings.TrimRight(string(runes), " ") + dots
		if measure(face, candidate) <= maxWidth {
			return candidate
		}
	}
	return dots
}

func measure(face font.Face, text string) int {
	return font.MeasureString(face, text).Ceil()
}

// ParseHexColor reads a #rgb or #rrggbb colour. The # is optional.
func ParseHexColor(s string) (color.RGBA, bool) {
	s = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "#"))
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.RGBA{}, false
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: b[0], G: b[1], B: b[2], A: 255}, true
}
