// Package loader reads site, page and redirect specs from a local directory:
//
//	site.yaml
//	redirects.yaml
//	pages/*.page.yaml
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ayatskii/panel-sub002/pkg/model"
	"gopkg.in/yaml.v3"
)

// SiteSpec is everything found in a spec directory.
type SiteSpec struct {
	RootDir   string
	Site      *model.SiteInput
	Pages     []PageSpec
	Redirects []model.RedirectRule
}

// PageSpec is one page file.
type PageSpec struct {
	Path string
	Page model.Page
}

type redirectsFile struct {
	Rules []model.RedirectRule `yaml:"rules"`
}

// LoadDir parses a spec directory. Only pages/ is required.
func LoadDir(dirPath string) (*SiteSpec, error) {
	root, err := filepath.Abs(dirPath)
	if err != nil {
		return nil, fmt.Errorf("resolve spec path: %w", err)
	}

	site, err := loadOptionalSite(filepath.Join(root, "site.yaml"))
	if err != nil {
		return nil, err
	}

	pages, err := loadPages(root)
	if err != nil {
		return nil, err
	}

	redirects, err := loadOptionalRedirects(filepath.Join(root, "redirects.yaml"))
	if err != nil {
		return nil, err
	}

	spec := &SiteSpec{
		RootDir:   root,
		Site:      site,
		Pages:     pages,
		Redirects: redirects,
	}
	if err := ValidateSpec(spec); err != nil {
		return nil, err
	}
	return spec, nil
}

// LoadPage parses a single page file.
func LoadPage(path string) (PageSpec, error) {
	if err := mustFile(path); err != nil {
		return PageSpec{}, err
	}
	var page model.Page
	if err := decodeYAMLFile(path, &page); err != nil {
		return PageSpec{}, err
	}
	if strings.TrimSpace(page.Slug) == "" {
		page.Slug = strings.TrimSuffix(filepath.Base(path), ".page.yaml")
	}
	normalizeBlockOrder(&page)
	return PageSpec{Path: path, Page: page}, nil
}

// LoadSite parses a site form file.
func LoadSite(path string) (model.SiteInput, error) {
	var in model.SiteInput
	if err := mustFile(path); err != nil {
		return in, err
	}
	if err := decodeYAMLFile(path, &in); err != nil {
		return in, err
	}
	return in, nil
}

// LoadRedirects parses a redirects file with a top-level rules list.
func LoadRedirects(path string) ([]model.RedirectRule, error) {
	if err := mustFile(path); err != nil {
		return nil, err
	}
	var f redirectsFile
	if err := decodeYAMLFile(path, &f); err != nil {
		return nil, err
	}
	if f.Rules == nil {
		f.Rules = []model.RedirectRule{}
	}
	return f.Rules, nil
}

func loadOptionalSite(path string) (*model.SiteInput, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	in, err := LoadSite(path)
	if err != nil {
		return nil, err
	}
	return &in, nil
}

func loadOptionalRedirects(path string) ([]model.RedirectRule, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return []model.RedirectRule{}, nil
	}
	return LoadRedirects(path)
}

func loadPages(root string) ([]PageSpec, error) {
	pattern := filepath.Join(root, "pages", "*.page.yaml")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob page files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("missing page files in %s", filepath.Join(root, "pages"))
	}

	sort.Strings(files)

	pages := make([]PageSpec, 0, len(files))
	for _, path := range files {
		spec, err := LoadPage(path)
		if err != nil {
			return nil, err
		}
		pages = append(pages, spec)
	}
	sort.SliceStable(pages, func(i, j int) bool {
		return pages[i].Page.Order < pages[j].Page.Order
	})
	return pages, nil
}

// normalizeBlockOrder numbers blocks by their position when the file leaves order unset.
func normalizeBlockOrder(page *model.Page) {
	for _, b := range page.Blocks {
		if b.Order != 0 {
			return
		}
	}
	for i := range page.Blocks {
		page.Blocks[i].Order = i
	}
}

func decodeYAMLFile(path string, out any) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read yaml file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(content, out); err != nil {
		return fmt.Errorf("parse yaml file %s: %w", path, err)
	}

	return nil
}

func mustFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("required file missing: %s", path)
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("required file is a directory: %s", path)
	}
	return nil
}
