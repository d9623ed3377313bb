package remote

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// dialFunc is swapped by tests to avoid the network.
var dialFunc = dialSSH

// dialSSH establishes an SSH client connection with options
func dialSSH(opts Options) (*ssh.Client, error) {
	var auths []ssh.AuthMethod

	if opts.KeyPath != "" {
		signer, err := loadSigner(opts.KeyPath, opts.Passphrase)
		if err != nil {
			return nil, fmt.Errorf("load key: %w", err)
		}
		auths = append(auths, ssh.PublicKeys(signer))
	}

	if opts.Password != "" {
		auths = append(auths, ssh.Password(opts.Password))
		// Many root logins only offer keyboard-interactive.
		auths = append(auths, ssh.KeyboardInteractive(passwordChallenge(opts.Password)))
	}

	// Try SSH agent if available
	if a := os.Getenv("SSH_AUTH_SOCK"); a != "" {
		if conn, err := net.Dial("unix", a); err == nil {
			ag := agent.NewClient(conn)
			auths = append(auths, ssh.PublicKeysCallback(ag.Signers))
		}
	}

	var hostKeyCB ssh.HostKeyCallback
	if opts.StrictHostKey {
		// Try known_hosts file if present; else fail closed
		if _, err := os.Stat(opts.KnownHostsPath); err == nil {
			cb, err := knownhosts.New(opts.KnownHostsPath)
			if err != nil {
				return nil, fmt.Errorf("known_hosts: %w", err)
			}
			hostKeyCB = cb
		} else {
			return nil, fmt.Errorf("known_hosts file not found at %s and strict-host-key is enabled", opts.KnownHostsPath)
		}
	} else {
		hostKeyCB = ssh.InsecureIgnoreHostKey()
	}

	cfg := &ssh.ClientConfig{
		User:            opts.User,
		Auth:            auths,
		HostKeyCallback: hostKeyCB,
		Timeout:         opts.Timeout,
	}

	target := opts.Address()
	d := net.Dialer{Timeout: opts.Timeout}
	conn, err := d.Dial("tcp", target)
	if err != nil {
		return nil, err
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, target, cfg)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return ssh.NewClient(c, chans, reqs), nil
}

// passwordChallenge answers every keyboard-interactive question with the
// password.
func passwordChallenge(password string) ssh.KeyboardInteractiveChallenge {
	return func(_, _ string, questions []string, _ []bool) ([]string, error) {
		answers := make([]string, len(questions))
		for i := range answers {
			answers[i] = password
		}
		return answers, nil
	}
}
