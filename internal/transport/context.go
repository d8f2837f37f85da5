package transport

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/ayatskii/panel-sub002/internal/config"
)

// NewFromContext builds the transport for a resolved context: a direct HTTP
// client for http(s) servers, an SSH tunnel for ssh:// servers. Settings the
// caller left zero are filled in from the context.
func NewFromContext(ctx context.Context, info config.ContextInfo, cfg SSHConfig) (Transport, error) {
	server := strings.TrimSpace(info.Server)
	u, err := url.Parse(server)
	if err != nil {
		return nil, fmt.Errorf("parse server URL %q: %w", server, err)
	}
	if cfg.Options.RateLimit == 0 {
		cfg.Options.RateLimit = info.RateLimit
	}

	switch u.Scheme {
	case "http", "https":
		return NewHTTPTransport(server, cfg.Options)
	case "ssh":
		if cfg.ServerURL == "" {
			cfg.ServerURL = server
		}
		if cfg.RemoteAddr == "" && info.RemotePort != 0 {
			cfg.RemoteAddr = net.JoinHostPort("127.0.0.1", strconv.Itoa(info.RemotePort))
		}
		return NewSSHTransport(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported server URL scheme %q (expected http, https or ssh)", u.Scheme)
	}
}
