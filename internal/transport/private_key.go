package transport

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
)

const (
	envSSHKeyPath     = "PANELCTL_SSH_KEY_PATH"
	envKnownHostsPath = "PANELCTL_SSH_KNOWN_HOSTS_PATH"
)

// resolvePrivateKeyPath picks the explicit path, then the env override, then the
// first default key that exists. Keys must live under the user's home directory.
func resolvePrivateKeyPath(explicit string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return "", fmt.Errorf("%w: resolve user home directory", ErrSSHKeyPath)
	}
	home = filepath.Clean(home)

	candidate := strings.TrimSpace(explicit)
	if candidate == "" {
		candidate = strings.TrimSpace(os.Getenv(envSSHKeyPath))
	}
	if candidate == "" {
		for _, name := range []string{"id_ed25519", "id_rsa", "id_ecdsa"} {
			path := filepath.Join(home, ".ssh", name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
		return "", fmt.Errorf("%w: no default private key found in %s", ErrSSHKeyPath, filepath.Join("~", ".ssh"))
	}

	candidate = filepath.Clean(candidate)
	if !filepath.IsAbs(candidate) {
		abs, err := filepath.Abs(candidate)
		if err != nil {
			return "", fmt.Errorf("%w: resolve key path: %v", ErrSSHKeyPath, err)
		}
		candidate = abs
	}
	rel, err := filepath.Rel(home, candidate)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: key must be within user home directory", ErrSSHKeyPath)
	}
	return candidate, nil
}

func resolveKnownHostsPath(explicit string) string {
	if v := strings.TrimSpace(explicit); v != "" {
		return v
	}
	if v := strings.TrimSpace(os.Getenv(envKnownHostsPath)); v != "" {
		return v
	}
	return ""
}

func authMethodFromPrivateKey(path string) (ssh.AuthMethod, error) {
	keyPath := strings.TrimSpace(path)
	if keyPath == "" {
		return nil, fmt.Errorf("private key path is empty")
	}

	raw, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", redactPathError(err))
	}

	signer, err := ssh.ParsePrivateKey(raw)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) {
			return nil, fmt.Errorf("private key is passphrase protected; load it into ssh-agent instead")
		}
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	return ssh.PublicKeys(signer), nil
}

// redactPathError strips file paths from *os.PathError so they do not leak into output.
func redactPathError(err error) error {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return fmt.Errorf("%s: %w", pathErr.Op, pathErr.Err)
	}
	return err
}
