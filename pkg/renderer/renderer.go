// Package renderer turns a page and its blocks into a standalone HTML preview.
package renderer

import (
	"fmt"
	"html/template"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ayatskii/panel-sub002/pkg/model"
)

var defaultColors = themeColors{Primary: "#1f4fd1", Secondary: "#f5f5f7", Accent: "#e8590c"}

type Options struct {
	SiteName string
	Colors   *model.CustomColors
	// SocialImage is the og:image URL, usually a file name next to the preview.
	SocialImage string
}

// RenderPage renders page blocks in order. The output only depends on its input.
func RenderPage(page model.Page, opts Options) ([]byte, error) {
	blocks := SortedBlocks(page.Blocks)
	rendered := make([]template.HTML, 0, len(blocks))
	for i, b := range blocks {
		if b.Content == nil {
			return nil, fmt.Errorf("block %d has no content", i)
		}
		html, err := renderBlockTemplate(string(b.Content.BlockType()), b.Content)
		if err != nil {
			return nil, fmt.Errorf("render block %d: %w", i, err)
		}
		rendered = append(rendered, html)
	}

	return renderPageTemplate(pageTemplateData{
		Title:       page.Title,
		Description: PlainText(page.MetaDescription),
		SiteName:    opts.SiteName,
		SocialImage: opts.SocialImage,
		Colors:      mergeColors(opts.Colors),
		Blocks:      rendered,
	})
}

// WritePreview renders page into dir under a content-addressed file name and
// returns the written path.
func WritePreview(dir string, page model.Page, opts Options) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", fmt.Errorf("output directory is required")
	}
	out, err := RenderPage(page, opts)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, previewName(page.Slug, out))
	if err := writeFileAtomic(path, out); err != nil {
		return "", err
	}
	return path, nil
}

// SortedBlocks orders blocks by Order, keeping input order for ties.
func SortedBlocks(blocks []model.Block) []model.Block {
	out := append([]model.Block(nil), blocks...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Order < out[j].Order
	})
	return out
}

func mergeColors(c *model.CustomColors) themeColors {
	colors := defaultColors
	if c == nil {
		return colors
	}
	if c.Primary != "" {
		colors.Primary = c.Primary
	}
	if c.Secondary != "" {
		colors.Secondary = c.Secondary
	}
	if c.Accent != "" {
		colors.Accent = c.Accent
	}
	return colors
}
