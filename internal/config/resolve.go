package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
)

// ResolveContext picks the context to talk to. The name comes from the first
// non-empty of explicitName, $PANELCTL_CONTEXT and current-context; afterwards
// $PANELCTL_SERVER and $PANELCTL_TOKEN override the server and token.
func ResolveContext(cfg Config, explicitName string) (ContextInfo, error) {
	name := firstNonBlank(explicitName, os.Getenv(EnvContext), cfg.CurrentContext)
	if name == "" {
		return ContextInfo{}, fmt.Errorf("no context selected: set current-context or pass --context")
	}
	ctx, ok := cfg.Find(name)
	if !ok {
		return ContextInfo{}, missingContext(cfg, name)
	}

	info := ctx.info()
	if v := strings.TrimSpace(os.Getenv(EnvServer)); v != "" {
		if err := validateServer(v); err != nil {
			return ContextInfo{}, fmt.Errorf("%s: %w", EnvServer, err)
		}
		info.Server = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvToken)); v != "" {
		info.Token = v
	}
	return info, nil
}

func (c Context) info() ContextInfo {
	return ContextInfo{
		Name:       strings.TrimSpace(c.Name),
		Server:     strings.TrimSpace(c.Server),
		RemotePort: c.Port,
		Token:      strings.TrimSpace(c.Token),
		Username:   strings.TrimSpace(c.Username),
		RateLimit:  c.RateLimit,
	}
}

func missingContext(cfg Config, name string) error {
	var known []string
	for _, ctx := range cfg.Contexts {
		if n := strings.TrimSpace(ctx.Name); n != "" {
			known = append(known, n)
		}
	}
	if len(known) == 0 {
		return fmt.Errorf("context %q not found: config has no contexts", name)
	}
	slices.Sort(known)
	return fmt.Errorf("context %q not found; available contexts: %s", name, strings.Join(known, ", "))
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
