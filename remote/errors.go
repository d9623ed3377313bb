package remote

import (
	"errors"
	"fmt"
)

// ErrFileTransferUnavailable is returned when the SFTP subsystem cannot be
// opened on the remote host.
var ErrFileTransferUnavailable = errors.New("sftp subsystem unavailable")

// ConnectionError reports a failed dial, handshake or authentication.
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string { return fmt.Sprintf("connect %s: %v", e.Addr, e.Err) }

func (e *ConnectionError) Unwrap() error { return e.Err }

// TransportError reports a session-level failure while running a command.
// A command that ran and exited non-zero is not a TransportError.
type TransportError struct {
	Command string
	Err     error
}

func (e *TransportError) Error() string { return fmt.Sprintf("run %q: %v", e.Command, e.Err) }

func (e *TransportError) Unwrap() error { return e.Err }

// TransferError reports the first failed write of an upload. Files written
// before the failure stay on the remote host.
type TransferError struct {
	Local  string
	Remote string
	Err    error
}

func (e *TransferError) Error() string {
	switch {
	case e.Local == "":
		return fmt.Sprintf("upload to %s: %v", e.Remote, e.Err)
	case e.Remote == "":
		return fmt.Sprintf("upload %s: %v", e.Local, e.Err)
	}
	return fmt.Sprintf("upload %s -> %s: %v", e.Local, e.Remote, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }
