// Package validator checks form input before it is sent to the panel API.
// A non-empty result means the request must not be made.
package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ayatskii/panel-sub002/pkg/model"
)

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9 _.-]*$`)

type ValidationError struct {
	Field   string
	Rule    string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s (%s): %s", e.Field, e.Rule, e.Message)
}

// Validator applies one Config to every form.
type Validator struct {
	cfg Config
}

func New(cfg Config) *Validator {
	return &Validator{cfg: cfg.withDefaults()}
}

var std = New(DefaultConfig())

// Site validates a site form. On create, brand name, domain and template are required;
// on update only the fields that are set are checked.
func (v *Validator) Site(in model.SiteInput, create bool) []ValidationError {
	c := &checker{}
	if create || in.BrandName != "" {
		if c.required("brand_name", in.BrandName) {
			c.maxLength("brand_name", in.BrandName, v.cfg.MaxBrandNameLength)
		}
	}
	if create || in.Domain != "" {
		c.domain("domain", in.Domain)
	}
	if create && in.Template <= 0 {
		c.add("template", "required", "template is required")
	} else if in.Template < 0 {
		c.add("template", "positive", "template must be a positive id")
	}
	if in.CustomColors != nil {
		c.hexColor("custom_colors.primary", in.CustomColors.Primary)
		c.hexColor("custom_colors.secondary", in.CustomColors.Secondary)
		c.hexColor("custom_colors.accent", in.CustomColors.Accent)
	}
	return c.errs
}

// Page validates page metadata and every block.
func (v *Validator) Page(p model.Page) []ValidationError {
	c := &checker{}
	if c.required("title", p.Title) {
		c.maxLength("title", p.Title, v.cfg.MaxTitleLength)
	}
	c.slug("slug", p.Slug, v.cfg.MaxSlugLength)
	c.maxLength("meta_description", p.MetaDescription, v.cfg.MaxMetaDescriptionLength)
	if p.Order < 0 {
		c.add("order", "non-negative", "order must not be negative")
	}
	for i, b := range p.Blocks {
		c.errs = append(c.errs, v.Block(fmt.Sprintf("blocks[%d]", i), b)...)
	}
	return c.errs
}

// Block checks the required fields of each block type and the HTML safety of
// rich-text fields.
func (v *Validator) Block(prefix string, b model.Block) []ValidationError {
	c := &checker{}
	field := func(name string) string { return prefix + "." + name }
	if b.Content == nil {
		c.add(field("content"), "required", "block content is required")
		return c.errs
	}
	if b.Type != "" && b.Type != b.Content.BlockType() {
		c.add(field("block_type"), "type-mismatch", "block_type %q does not match content %q", b.Type, b.Content.BlockType())
	}
	switch content := b.Content.(type) {
	case model.HeroContent:
		c.required(field("title"), content.Title)
		c.safeHTML(field("subtitle"), content.Subtitle)
		c.link(field("background_image"), content.BackgroundImage)
		if content.CTAText != "" || content.CTALink != "" {
			c.required(field("cta_text"), content.CTAText)
			if c.required(field("cta_link"), content.CTALink) {
				c.link(field("cta_link"), content.CTALink)
			}
		}
	case model.FAQContent:
		if len(content.Items) == 0 {
			c.add(field("items"), "required", "faq needs at least one item")
		}
		for i, item := range content.Items {
			c.required(field(fmt.Sprintf("items[%d].question", i)), item.Question)
			if c.required(field(fmt.Sprintf("items[%d].answer", i)), item.Answer) {
				c.safeHTML(field(fmt.Sprintf("items[%d].answer", i)), item.Answer)
			}
		}
	case model.TextImageContent:
		if c.required(field("text"), content.Text) {
			c.safeHTML(field("text"), content.Text)
		}
		c.link(field("image_url"), content.ImageURL)
		switch content.ImagePosition {
		case "", "left", "right":
		default:
			c.add(field("image_position"), "enum", "image_position must be left or right")
		}
	case model.CTAContent:
		c.required(field("title"), content.Title)
		c.safeHTML(field("text"), content.Text)
		c.required(field("button_text"), content.ButtonText)
		if c.required(field("button_link"), content.ButtonLink) {
			c.link(field("button_link"), content.ButtonLink)
		}
	case model.SwiperContent:
		if len(content.Slides) == 0 {
			c.add(field("slides"), "required", "swiper needs at least one slide")
		}
		for i, s := range content.Slides {
			f := field(fmt.Sprintf("slides[%d].image_url", i))
			if c.required(f, s.ImageURL) {
				c.link(f, s.ImageURL)
			}
			c.link(field(fmt.Sprintf("slides[%d].link", i)), s.Link)
		}
	default:
		c.add(field("block_type"), "unknown", "unsupported block content %T", b.Content)
	}
	return c.errs
}

func (v *Validator) Redirect(prefix string, r model.RedirectRule) []ValidationError {
	c := &checker{}
	field := func(name string) string {
		if prefix == "" {
			return name
		}
		return prefix + "." + name
	}
	if c.required(field("source_path"), r.SourcePath) && !strings.HasPrefix(r.SourcePath, "/") {
		c.add(field("source_path"), "path", "source_path must start with /")
	}
	if c.required(field("target_url"), r.TargetURL) {
		c.link(field("target_url"), r.TargetURL)
	}
	if r.SourcePath != "" && r.SourcePath == r.TargetURL {
		c.add(field("target_url"), "loop", "target_url must differ from source_path")
	}
	allowed := false
	for _, code := range v.cfg.RedirectStatusCodes {
		if r.StatusCode == code {
			allowed = true
			break
		}
	}
	if !allowed {
		c.add(field("status_code"), "enum", "status_code must be one of %s", joinInts(v.cfg.RedirectStatusCodes))
	}
	return c.errs
}

// Redirects validates a batch and also rejects duplicate source paths.
func (v *Validator) Redirects(rules []model.RedirectRule) []ValidationError {
	var errs []ValidationError
	seen := map[string]int{}
	for i, r := range rules {
		prefix := fmt.Sprintf("rules[%d]", i)
		errs = append(errs, v.Redirect(prefix, r)...)
		if first, dup := seen[r.SourcePath]; dup && r.SourcePath != "" {
			errs = append(errs, ValidationError{Field: prefix + ".source_path", Rule: "unique", Message: fmt.Sprintf("duplicate source_path, already used by rules[%d]", first)})
			continue
		}
		seen[r.SourcePath] = i
	}
	return errs
}

func (v *Validator) APIToken(in model.APITokenInput) []ValidationError {
	c := &checker{}
	v.name(c, "name", in.Name)
	if in.ExpiresInDays < 0 {
		c.add("expires_in_days", "non-negative", "expires_in_days must not be negative")
	}
	return c.errs
}

func (v *Validator) CloudflareToken(in model.CloudflareTokenInput) []ValidationError {
	c := &checker{}
	v.name(c, "name", in.Name)
	c.required("account_id", in.AccountID)
	c.required("api_token", in.Token)
	return c.errs
}

func (v *Validator) Prompt(p model.Prompt) []ValidationError {
	c := &checker{}
	v.name(c, "name", p.Name)
	c.required("prompt_type", p.PromptType)
	c.required("content", p.Content)
	return c.errs
}

func (v *Validator) name(c *checker, field, value string) {
	if !c.required(field, value) {
		return
	}
	c.maxLength(field, value, v.cfg.MaxNameLength)
	if !namePattern.MatchString(value) {
		c.add(field, "name", "%s must start with a letter or digit and use only letters, digits, spaces, '.', '_' or '-'", field)
	}
}

func ValidateSite(in model.SiteInput, create bool) []ValidationError {
	return std.Site(in, create)
}

func ValidatePage(p model.Page) []ValidationError {
	return std.Page(p)
}

func ValidateRedirects(rules []model.RedirectRule) []ValidationError {
	return std.Redirects(rules)
}

func ValidateAPIToken(in model.APITokenInput) []ValidationError {
	return std.APIToken(in)
}

func ValidateCloudflareToken(in model.CloudflareTokenInput) []ValidationError {
	return std.CloudflareToken(in)
}

func ValidatePrompt(p model.Prompt) []ValidationError {
	return std.Prompt(p)
}

// FormatErrors renders one error per line.
func FormatErrors(errs []ValidationError) string {
	if len(errs) == 0 {
		return ""
	}
	lines := make([]string, 0, len(errs))
	for _, err := range errs {
		lines = append(lines, err.Error())
	}
	return strings.Join(lines, "\n")
}

func joinInts(values []int) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, fmt.Sprint(v))
	}
	return strings.Join(parts, ", ")
}
