package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const (
	DefaultSSHPort = 22
	// DefaultRemoteAddr is where a panel backend bound to loopback listens.
	DefaultRemoteAddr  = "127.0.0.1:8000"
	DefaultDialTimeout = 10 * time.Second
)

// SSHConfig configures the tunnel used for ssh:// contexts.
type SSHConfig struct {
	ServerURL      string
	RemoteAddr     string
	Timeout        time.Duration
	KnownHostsPath string
	PrivateKeyPath string
	AuthMethods    []ssh.AuthMethod
	// HostKeyCB replaces known_hosts verification when set.
	HostKeyCB ssh.HostKeyCallback
	Options   Options
}

// ServerEndpoint is the user@host:port of an ssh:// server URL.
type ServerEndpoint struct {
	User string
	Host string
	Port int
}

func (e ServerEndpoint) Address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// ParseServerURL reads ssh://user@host[:port]. The port defaults to 22.
func ParseServerURL(raw string) (ServerEndpoint, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	switch {
	case err != nil:
		return ServerEndpoint{}, fmt.Errorf("ssh server %q: %w", raw, err)
	case u.Scheme != "ssh":
		return ServerEndpoint{}, fmt.Errorf("ssh server %q: scheme must be ssh", raw)
	case u.User == nil || strings.TrimSpace(u.User.Username()) == "":
		return ServerEndpoint{}, fmt.Errorf("ssh server %q: missing user, use ssh://user@host", raw)
	case strings.TrimSpace(u.Hostname()) == "":
		return ServerEndpoint{}, fmt.Errorf("ssh server %q: missing host", raw)
	case u.Path != "" && u.Path != "/":
		return ServerEndpoint{}, fmt.Errorf("ssh server %q: unexpected path %q", raw, u.Path)
	}

	ep := ServerEndpoint{User: u.User.Username(), Host: u.Hostname(), Port: DefaultSSHPort}
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > 65535 {
			return ServerEndpoint{}, fmt.Errorf("ssh server %q: port %q out of range", raw, p)
		}
		ep.Port = n
	}
	return ep, nil
}

// SSHTransport reaches a panel backend that only listens on the remote host's
// loopback. HTTP requests ride channels of a single SSH connection.
type SSHTransport struct {
	endpoint ServerEndpoint
	client   *ssh.Client
	http     *HTTPTransport

	closers []io.Closer
	once    sync.Once
	err     error
}

// NewSSHTransport connects and authenticates; the connection lives until Close.
func NewSSHTransport(ctx context.Context, cfg SSHConfig) (*SSHTransport, error) {
	endpoint, err := ParseServerURL(cfg.ServerURL)
	if err != nil {
		return nil, err
	}
	remote, err := tunnelTarget(cfg.RemoteAddr)
	if err != nil {
		return nil, err
	}

	verify := cfg.HostKeyCB
	if verify == nil {
		if verify, err = knownHostsCallback(resolveKnownHostsPath(cfg.KnownHostsPath)); err != nil {
			return nil, err
		}
	}
	auth, closers, err := sshAuth(cfg)
	if err != nil {
		return nil, err
	}

	if _, ok := ctx.Deadline(); !ok {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultDialTimeout
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	client, err := dialSSH(ctx, endpoint, &ssh.ClientConfig{
		User:            endpoint.User,
		Auth:            auth,
		HostKeyCallback: verify,
	})
	if err != nil {
		for _, c := range closers {
			_ = c.Close()
		}
		return nil, err
	}

	rt := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			conn, err := client.DialContext(ctx, "tcp", remote)
			if err != nil {
				return nil, fmt.Errorf("%w: forward to %s: %v", ErrSSHTunnel, remote, err)
			}
			return conn, nil
		},
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
	}
	return &SSHTransport{
		endpoint: endpoint,
		client:   client,
		http:     newHTTPTransport(&url.URL{Scheme: "http", Host: remote}, rt, cfg.Options),
		closers:  closers,
	}, nil
}

// tunnelTarget checks the host:port the backend listens on behind the tunnel.
func tunnelTarget(raw string) (string, error) {
	addr := strings.TrimSpace(raw)
	if addr == "" {
		return DefaultRemoteAddr, nil
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", fmt.Errorf("%w: backend address %q: %v", ErrSSHTunnel, addr, err)
	}
	if n, err := strconv.Atoi(port); strings.TrimSpace(host) == "" || err != nil || n < 1 || n > 65535 {
		return "", fmt.Errorf("%w: backend address %q must be host:port with a port in 1..65535", ErrSSHTunnel, addr)
	}
	return addr, nil
}

func (t *SSHTransport) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := t.http.Do(ctx, req)
	if err == nil || errors.Is(err, ErrClosed) || errors.Is(err, ErrSSHTunnel) {
		return resp, err
	}
	return nil, fmt.Errorf("%w: %v", ErrSSHTunnel, err)
}

func (t *SSHTransport) Close() error {
	t.once.Do(func() {
		errs := []error{t.http.Close()}
		if t.client != nil {
			errs = append(errs, t.client.Close())
		}
		for _, c := range t.closers {
			errs = append(errs, c.Close())
		}
		t.err = errors.Join(errs...)
	})
	return t.err
}

func dialSSH(ctx context.Context, endpoint ServerEndpoint, cfg *ssh.ClientConfig) (*ssh.Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", endpoint.Address())
	if err != nil {
		return nil, classifySSHError(err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, endpoint.Address(), cfg)
	if err != nil {
		_ = conn.Close()
		return nil, classifySSHError(err)
	}
	_ = conn.SetDeadline(time.Time{})
	return ssh.NewClient(c, chans, reqs), nil
}

var sshFailureHints = []struct {
	fragment string
	kind     error
}{
	{"unable to authenticate", ErrSSHAuth},
	{"no supported methods remain", ErrSSHAuth},
	{"permission denied", ErrSSHAuth},
	{"knownhosts", ErrSSHHostKey},
	{"host key", ErrSSHHostKey},
}

// classifySSHError tags err with the sentinel callers branch on.
func classifySSHError(err error) error {
	var keyErr *knownhosts.KeyError
	if errors.As(err, &keyErr) {
		return fmt.Errorf("%w: %v", ErrSSHHostKey, err)
	}
	msg := strings.ToLower(err.Error())
	for _, h := range sshFailureHints {
		if strings.Contains(msg, h.fragment) {
			return fmt.Errorf("%w: %v", h.kind, err)
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrSSHUnreachable, err)
	}
	return fmt.Errorf("%w: %v", ErrSSHTunnel, err)
}
