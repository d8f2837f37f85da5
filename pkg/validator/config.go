package validator

// Config controls field limits. Zero values fall back to DefaultConfig.
type Config struct {
	MaxBrandNameLength       int
	MaxTitleLength           int
	MaxSlugLength            int
	MaxMetaDescriptionLength int
	MaxNameLength            int
	RedirectStatusCodes      []int
}

// DefaultConfig mirrors the backend model constraints.
func DefaultConfig() Config {
	return Config{
		MaxBrandNameLength:       255,
		MaxTitleLength:           255,
		MaxSlugLength:            255,
		MaxMetaDescriptionLength: 160,
		MaxNameLength:            128,
		RedirectStatusCodes:      []int{301, 302, 307, 308},
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxBrandNameLength <= 0 {
		c.MaxBrandNameLength = d.MaxBrandNameLength
	}
	if c.MaxTitleLength <= 0 {
		c.MaxTitleLength = d.MaxTitleLength
	}
	if c.MaxSlugLength <= 0 {
		c.MaxSlugLength = d.MaxSlugLength
	}
	if c.MaxMetaDescriptionLength <= 0 {
		c.MaxMetaDescriptionLength = d.MaxMetaDescriptionLength
	}
	if c.MaxNameLength <= 0 {
		c.MaxNameLength = d.MaxNameLength
	}
	if len(c.RedirectStatusCodes) == 0 {
		c.RedirectStatusCodes = d.RedirectStatusCodes
	}
	return c
}
