package validator

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	inlineEventAttrPattern = regexp.MustCompile(`(?i)^on\w+$`)
	slugPattern            = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	labelPattern           = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)
	hexColorPattern        = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
)

type checker struct {
	errs []ValidationError
}

func (c *checker) add(field, rule, format string, args ...any) {
	c.errs = append(c.errs, ValidationError{Field: field, Rule: rule, Message: fmt.Sprintf(format, args...)})
}

func (c *checker) required(field, value string) bool {
	if strings.TrimSpace(value) == "" {
		c.add(field, "required", "%s is required", field)
		return false
	}
	return true
}

func (c *checker) maxLength(field, value string, max int) {
	if n := utf8.RuneCountInString(value); n > max {
		c.add(field, "max-length", "%s must be at most %d characters (got %d)", field, max, n)
	}
}

func (c *checker) slug(field, value string, max int) {
	if !c.required(field, value) {
		return
	}
	c.maxLength(field, value, max)
	if !slugPattern.MatchString(value) {
		c.add(field, "slug", "%s must be lowercase letters, digits and single hyphens", field)
	}
}

func (c *checker) domain(field, value string) {
	if !c.required(field, value) {
		return
	}
	if err := checkHostname(value); err != nil {
		c.add(field, "domain", "%s: %v", field, err)
	}
}

func (c *checker) hexColor(field, value string) {
	if value == "" {
		return
	}
	if !hexColorPattern.MatchString(value) {
		c.add(field, "hex-color", "%s must be a hex colour like #1a2b3c", field)
	}
}

// link accepts absolute http(s) URLs, root-relative paths and in-page anchors.
func (c *checker) link(field, value string) {
	if value == "" {
		return
	}
	if strings.HasPrefix(value, "/") || strings.HasPrefix(value, "#") {
		return
	}
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		c.add(field, "url", "%s must be an http(s) URL or a path starting with /", field)
	}
}

func (c *checker) safeHTML(field, fragment string) {
	if strings.TrimSpace(fragment) == "" {
		return
	}
	nodes, err := parseFragment(fragment)
	if err != nil {
		c.add(field, "parse-fragment", "parse HTML fragment failed: %v", err)
		return
	}
	for _, n := range nodes {
		c.errs = append(c.errs, collectUnsafeHTMLViolations(field, n)...)
	}
}

// checkHostname accepts a lowercase DNS name with at least two labels.
func checkHostname(value string) error {
	domain := strings.TrimSpace(value)
	if domain != strings.ToLower(domain) {
		return fmt.Errorf("domain must be lowercase")
	}
	if strings.HasSuffix(domain, ".") {
		return fmt.Errorf("domain must not have a trailing dot")
	}
	if len(domain) > 253 {
		return fmt.Errorf("domain exceeds maximum length of 253 characters")
	}
	if ip := net.ParseIP(domain); ip != nil {
		return fmt.Errorf("domain must be a hostname, not an IP address")
	}
	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return fmt.Errorf("domain must include at least one dot")
	}
	for _, label := range labels {
		if label == "" {
			return fmt.Errorf("domain contains an empty label")
		}
		if !labelPattern.MatchString(label) {
			return fmt.Errorf("invalid domain label %q", label)
		}
	}
	return nil
}

func parseFragment(fragment string) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"}
	return html.ParseFragment(strings.NewReader(fragment), ctx)
}

func collectUnsafeHTMLViolations(field string, root *html.Node) []ValidationError {
	var errs []ValidationError

	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node == nil {
			return
		}
		if node.Type == html.ElementNode {
			switch node.DataAtom {
			case atom.Script:
				errs = append(errs, ValidationError{Field: field, Rule: "script-disallow", Message: "<script> tags are not allowed in block content"})
			case atom.Iframe, atom.Object, atom.Embed:
				errs = append(errs, ValidationError{Field: field, Rule: "embed-disallow", Message: fmt.Sprintf("<%s> is not allowed in block content", node.Data)})
			}
			for _, attr := range node.Attr {
				if inlineEventAttrPattern.MatchString(attr.Key) {
					errs = append(errs, ValidationError{Field: field, Rule: "event-handler-disallow", Message: fmt.Sprintf("inline event handler attribute %q is not allowed", attr.Key)})
				}
				if (attr.Key == "href" || attr.Key == "src") && strings.HasPrefix(strings.ToLower(strings.TrimSpace(attr.Val)), "javascript:") {
					errs = append(errs, ValidationError{Field: field, Rule: "javascript-url-disallow", Message: fmt.Sprintf("javascript: URLs are not allowed in %s", attr.Key)})
				}
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}

	walk(root)
	return errs
}
