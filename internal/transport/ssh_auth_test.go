package transport

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"golang.org/x/crypto/ssh"
)

func TestAgentAuthWithoutSocket(t *testing.T) {
	_, _, err := agentAuth("")
	if !errors.Is(err, ErrSSHAgentUnavailable) {
		t.Fatalf("agentAuth(\"\") error = %v, want ErrSSHAgentUnavailable", err)
	}
}

func TestAgentAuthRejectsRegularFile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("agent sockets are named pipes on windows")
	}
	path := filepath.Join(t.TempDir(), "agent.sock")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	_, _, err := agentAuth(path)
	if !errors.Is(err, ErrSSHAgentUnavailable) || !strings.Contains(err.Error(), "socket") {
		t.Fatalf("agentAuth(regular file) error = %v", err)
	}
}

func TestAgentAuthRejectsEmptyAgent(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix sockets only")
	}
	sock := filepath.Join(t.TempDir(), "a.sock")
	ln, err := net.Listen("unix", sock)
	if err != nil {
		t.Skipf("unix sockets unavailable: %v", err)
	}
	defer ln.Close()
	// An agent that closes immediately fails the key listing.
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			_ = c.Close()
		}
	}()

	_, _, err = agentAuth(sock)
	if !errors.Is(err, ErrSSHAgentUnavailable) {
		t.Fatalf("agentAuth(closing agent) error = %v, want ErrSSHAgentUnavailable", err)
	}
}

func TestSSHAuthPrefersExplicitMethods(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")
	methods, closers, err := sshAuth(SSHConfig{AuthMethods: []ssh.AuthMethod{ssh.Password("x")}})
	if err != nil {
		t.Fatalf("sshAuth() error = %v", err)
	}
	if len(methods) != 1 || len(closers) != 0 {
		t.Fatalf("sshAuth() = %d methods, %d closers", len(methods), len(closers))
	}
}

func TestSSHAuthWithoutAgentOrKey(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")
	t.Setenv("HOME", t.TempDir())
	t.Setenv(envSSHKeyPath, "")

	_, _, err := sshAuth(SSHConfig{})
	if !errors.Is(err, ErrSSHKeyPath) {
		t.Fatalf("sshAuth() error = %v, want ErrSSHKeyPath", err)
	}
}

func TestKnownHostsCallbackMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-known-hosts")
	_, err := knownHostsCallback(path)
	if !errors.Is(err, ErrSSHHostKey) {
		t.Fatalf("knownHostsCallback() error = %v, want ErrSSHHostKey", err)
	}
	if !strings.Contains(err.Error(), "ssh-keyscan") {
		t.Fatalf("expected setup hint in error, got %v", err)
	}
	if strings.Contains(err.Error(), path) {
		t.Fatalf("expected known_hosts path to be omitted from error, got %v", err)
	}
}

func TestKnownHostsCallbackLoadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "known_hosts")
	line := "panel.example.com ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIOMqqnkVzrm0SdG6UOoqKLsabgH5C9okWi0dh2l9GKJl\n"
	if err := os.WriteFile(path, []byte(line), 0o600); err != nil {
		t.Fatalf("write known_hosts: %v", err)
	}
	cb, err := knownHostsCallback(path)
	if err != nil || cb == nil {
		t.Fatalf("knownHostsCallback() = %v, %v", cb, err)
	}
}
