//go:build !windows

package transport

import (
	"fmt"
	"os"
	"syscall"
)

func validateAgentSocket(path string) error {
	return checkAgentSocket(path, os.Geteuid())
}

// checkAgentSocket refuses anything but a unix socket owned by uid, so a
// planted SSH_AUTH_SOCK cannot sign for the user. uid 0 accepts any owner:
// CI containers run as root with an agent mounted from the host.
func checkAgentSocket(path string, uid int) error {
	fi, err := os.Lstat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSSHAgentUnavailable, redactPathError(err))
	}
	if fi.Mode().Type() != os.ModeSocket {
		return fmt.Errorf("%w: SSH_AUTH_SOCK does not point at a socket", ErrSSHAgentUnavailable)
	}
	if uid == 0 {
		return nil
	}
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok || int(st.Uid) != uid {
		return fmt.Errorf("%w: SSH_AUTH_SOCK belongs to another user", ErrSSHAgentUnavailable)
	}
	return nil
}
