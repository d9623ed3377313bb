package remote

import (
	"fmt"

	"golang.org/x/crypto/ssh"
)

// sshClientWrapper adapts *ssh.Client to sessionClient
type sshClientWrapper struct {
	c *ssh.Client
}

// NewSession opens a new exec channel on the underlying *ssh.Client.
func (w sshClientWrapper) NewSession() (execSession, error) {
	if w.c == nil {
		return nil, fmt.Errorf("nil ssh client")
	}
	s, err := w.c.NewSession()
	if err != nil {
		return nil, err
	}
	return sshSessionWrapper{s}, nil
}
