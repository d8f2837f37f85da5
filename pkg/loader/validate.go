package loader

import (
	"fmt"
	"strings"
)

// ValidateSpec checks cross-file relationships. Field-level checks belong to
// pkg/validator and run before anything is sent.
func ValidateSpec(spec *SiteSpec) error {
	if spec == nil {
		return fmt.Errorf("spec is nil")
	}
	if len(spec.Pages) == 0 {
		return fmt.Errorf("at least one page is required")
	}

	slugs := make(map[string]string, len(spec.Pages))
	for i, p := range spec.Pages {
		slug := NormalizeSlug(p.Page.Slug)
		if slug == "" {
			return fmt.Errorf("page %s has an empty slug", p.Path)
		}
		if existing, exists := slugs[slug]; exists {
			return fmt.Errorf("duplicate slug %q in %s and %s", slug, existing, p.Path)
		}
		slugs[slug] = p.Path
		spec.Pages[i].Page.Slug = slug
	}

	sources := make(map[string]struct{}, len(spec.Redirects))
	for _, r := range spec.Redirects {
		src := strings.TrimSpace(r.SourcePath)
		if _, exists := sources[src]; exists {
			return fmt.Errorf("duplicate redirect source %q", src)
		}
		sources[src] = struct{}{}
	}
	return nil
}

// NormalizeSlug trims surrounding slashes and whitespace.
func NormalizeSlug(slug string) string {
	return strings.Trim(strings.TrimSpace(slug), "/")
}
