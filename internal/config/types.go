package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ayatskii/panel-sub002/internal/names"
)

const (
	EnvConfigPath     = "PANELCTL_CONFIG"
	EnvContext        = "PANELCTL_CONTEXT"
	EnvServer         = "PANELCTL_SERVER"
	EnvToken          = "PANELCTL_TOKEN"
	DefaultAPIVersion = "panelctl/v1"
)

// Config is the panelctl configuration file structure.
type Config struct {
	APIVersion     string    `yaml:"apiVersion,omitempty"`
	CurrentContext string    `yaml:"current-context"`
	Contexts       []Context `yaml:"contexts"`

	// ExposedTokens is set on load when the file holds tokens but is readable
	// by other users.
	ExposedTokens bool `yaml:"-"`
}

// Context defines one named panel backend.
type Context struct {
	Name     string `yaml:"name"`
	Server   string `yaml:"server"`
	Port     int    `yaml:"port,omitempty"`
	Token    string `yaml:"token,omitempty"`
	Username string `yaml:"username,omitempty"`
	// RateLimit is requests per second; negative disables limiting.
	RateLimit float64 `yaml:"rate-limit,omitempty"`
}

// ContextInfo is the resolved context used by command and transport layers.
type ContextInfo struct {
	Name       string
	Server     string
	RemotePort int
	Token      string
	Username   string
	RateLimit  float64
}

func (c Config) hasTokens() bool {
	for _, ctx := range c.Contexts {
		if strings.TrimSpace(ctx.Token) != "" {
			return true
		}
	}
	return false
}

func (c *Config) normalize() {
	if strings.TrimSpace(c.APIVersion) == "" {
		c.APIVersion = DefaultAPIVersion
	}
}

// Validate checks config invariants that must hold for the file to be usable.
func (c Config) Validate() error {
	seen := make(map[string]struct{}, len(c.Contexts))
	for i, ctx := range c.Contexts {
		name := strings.TrimSpace(ctx.Name)
		if name == "" {
			return fmt.Errorf("contexts[%d].name is required", i)
		}
		if err := names.ValidateContextName(name); err != nil {
			return fmt.Errorf("contexts[%d]: %w", i, err)
		}
		if _, exists := seen[name]; exists {
			return fmt.Errorf("duplicate context name %q", name)
		}
		seen[name] = struct{}{}

		if err := validateServer(ctx.Server); err != nil {
			return fmt.Errorf("context %q: %w", name, err)
		}
		if ctx.Port < 0 || ctx.Port > 65535 {
			return fmt.Errorf("context %q: port must be in range 1..65535 (or 0 to use default)", name)
		}
	}

	return nil
}

func validateServer(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("server is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("server %q is not a valid URL: %w", raw, err)
	}
	switch u.Scheme {
	case "http", "https", "ssh":
	default:
		return fmt.Errorf("server %q must use http, https or ssh", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("server %q has no host", raw)
	}
	return nil
}

// Upsert replaces the context with the same name or appends a new one.
func (c *Config) Upsert(ctx Context) {
	ctx.Name = strings.TrimSpace(ctx.Name)
	for i := range c.Contexts {
		if strings.TrimSpace(c.Contexts[i].Name) == ctx.Name {
			c.Contexts[i] = ctx
			return
		}
	}
	c.Contexts = append(c.Contexts, ctx)
}

// Find returns the context with the given name.
func (c Config) Find(name string) (Context, bool) {
	name = strings.TrimSpace(name)
	for _, ctx := range c.Contexts {
		if strings.TrimSpace(ctx.Name) == name {
			return ctx, true
		}
	}
	return Context{}, false
}

// Remove drops the named context and reports whether it existed. Removing the
// current context clears current-context.
func (c *Config) Remove(name string) bool {
	name = strings.TrimSpace(name)
	for i := range c.Contexts {
		if strings.TrimSpace(c.Contexts[i].Name) != name {
			continue
		}
		c.Contexts = append(c.Contexts[:i], c.Contexts[i+1:]...)
		if strings.TrimSpace(c.CurrentContext) == name {
			c.CurrentContext = ""
		}
		return true
	}
	return false
}
