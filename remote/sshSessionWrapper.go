package remote

import (
	"io"

	"golang.org/x/crypto/ssh"
)

// sshSessionWrapper adapts *ssh.Session to execSession.
type sshSessionWrapper struct {
	s *ssh.Session
}

// Run executes cmd with stdout and stderr captured separately. A non-zero
// exit surfaces as *ssh.ExitError.
func (w sshSessionWrapper) Run(cmd string, stdout, stderr io.Writer) error {
	w.s.Stdout = stdout
	w.s.Stderr = stderr
	return w.s.Run(cmd)
}

// Close closes the underlying ssh.Session.
func (w sshSessionWrapper) Close() error {
	return w.s.Close()
}
