package transport

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// sshAuth picks how to authenticate the tunnel: explicit methods, then the
// running ssh-agent, then a private key file. Closers must outlive the client.
func sshAuth(cfg SSHConfig) ([]ssh.AuthMethod, []io.Closer, error) {
	if len(cfg.AuthMethods) > 0 {
		return cfg.AuthMethods, nil, nil
	}

	method, conn, agentErr := agentAuth(os.Getenv("SSH_AUTH_SOCK"))
	if agentErr == nil {
		return []ssh.AuthMethod{method}, []io.Closer{conn}, nil
	}

	keyPath, err := resolvePrivateKeyPath(cfg.PrivateKeyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%v; no private key to fall back to: %w", agentErr, err)
	}
	method, err = authMethodFromPrivateKey(keyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w; private key: %v", agentErr, err)
	}
	return []ssh.AuthMethod{method}, nil, nil
}

// agentAuth signs with the keys held by the agent listening on sock.
func agentAuth(sock string) (ssh.AuthMethod, net.Conn, error) {
	sock = strings.TrimSpace(sock)
	if sock == "" {
		return nil, nil, fmt.Errorf("%w: SSH_AUTH_SOCK is not set", ErrSSHAgentUnavailable)
	}
	if err := validateAgentSocket(sock); err != nil {
		return nil, nil, err
	}
	conn, err := net.Dial("unix", sock)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrSSHAgentUnavailable, redactPathError(err))
	}

	keyring := agent.NewClient(conn)
	keys, err := keyring.List()
	if err == nil && len(keys) == 0 {
		err = errors.New("no identities loaded (run ssh-add)")
	}
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("%w: %v", ErrSSHAgentUnavailable, err)
	}
	return ssh.PublicKeysCallback(keyring.Signers), conn, nil
}

// knownHostsCallback verifies the panel host against path, or ~/.ssh/known_hosts
// when path is empty. Resolved paths never appear in errors.
func knownHostsCallback(path string) (ssh.HostKeyCallback, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("%w: locate home directory: %v", ErrSSHHostKey, err)
		}
		path = filepath.Join(home, ".ssh", "known_hosts")
	}

	cb, err := knownhosts.New(filepath.Clean(path))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: no known_hosts file; add the panel host with ssh-keyscan <host> >> ~/.ssh/known_hosts", ErrSSHHostKey)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSSHHostKey, redactPathError(err))
	}
	return cb, nil
}
