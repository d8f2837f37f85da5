package transport

import "errors"

// Failures shared by every transport.
var (
	ErrUnreachable = errors.New("backend unreachable")
	ErrTimeout     = errors.New("request timed out")
	ErrClosed      = errors.New("transport closed")
)

// SSH tunnel failures. classifySSHError maps dial and handshake errors onto these.
var (
	ErrSSHAuth             = errors.New("ssh authentication failed")
	ErrSSHTunnel           = errors.New("ssh tunnel failed")
	ErrSSHHostKey          = errors.New("ssh host key verification failed")
	ErrSSHUnreachable      = errors.New("ssh host unreachable")
	ErrSSHAgentUnavailable = errors.New("ssh agent unavailable")
	// ErrSSHKeyPath covers private key paths that cannot be resolved or read.
	ErrSSHKeyPath = errors.New("ssh private key path invalid")
)
