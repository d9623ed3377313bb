package sshserv

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"io"
	"net"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// ExecFunc answers one exec request with its stdout, stderr and exit status.
type ExecFunc func(command string) (stdout, stderr string, exitCode int)

// Options configures the test server.
type Options struct {
	// Exec handles exec requests; nil answers every command with "ok\n" and
	// status 0.
	Exec ExecFunc
	// SFTP serves the "sftp" subsystem; nil uses one in-memory tree shared by
	// all connections for the lifetime of the server.
	SFTP *sftp.Handlers
	// DisableSFTP rejects subsystem requests.
	DisableSFTP bool
}

// Start launches a test SSH server listening on listenAddr (e.g.,
// 127.0.0.1:0). It accepts any user without authentication. It returns the
// bound address and a stop function that closes the listener and waits for
// the accept loop to exit.
func Start(listenAddr string, opts Options) (string, func(), error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", nil, err
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		return "", nil, err
	}
	cfg := &ssh.ServerConfig{NoClientAuth: true}
	cfg.AddHostKey(signer)

	if opts.Exec == nil {
		opts.Exec = func(string) (string, string, int) { return "ok\n", "", 0 }
	}
	handlers := sftp.InMemHandler()
	if opts.SFTP != nil {
		handlers = *opts.SFTP
	}

	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return "", nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			conn, err := ln.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				continue
			}
			go handleConn(conn, cfg, opts, handlers)
		}
	}()

	stop := func() {
		_ = ln.Close()
		<-done
	}
	return ln.Addr().String(), stop, nil
}

func handleConn(raw net.Conn, cfg *ssh.ServerConfig, opts Options, handlers sftp.Handlers) {
	sc, chans, reqs, err := ssh.NewServerConn(raw, cfg)
	if err != nil {
		_ = raw.Close()
		return
	}
	defer func() { _ = sc.Close() }()
	go ssh.DiscardRequests(reqs)
	for ch := range chans {
		if ch.ChannelType() != "session" {
			_ = ch.Reject(ssh.UnknownChannelType, "")
			continue
		}
		c, reqs, err := ch.Accept()
		if err != nil {
			continue
		}
		go handleSession(c, reqs, opts, handlers)
	}
}

func handleSession(ch ssh.Channel, in <-chan *ssh.Request, opts Options, handlers sftp.Handlers) {
	defer func() {
		_ = ch.Close()
		go ssh.DiscardRequests(in)
	}()
	for req := range in {
		switch req.Type {
		case "pty-req", "env":
			_ = req.Reply(true, nil)
		case "exec":
			var p struct{ Command string }
			if err := ssh.Unmarshal(req.Payload, &p); err != nil {
				_ = req.Reply(false, nil)
				continue
			}
			_ = req.Reply(true, nil)
			stdout, stderr, code := opts.Exec(p.Command)
			_, _ = io.WriteString(ch, stdout)
			_, _ = io.WriteString(ch.Stderr(), stderr)
			_, _ = ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{uint32(code)}))
			return
		case "subsystem":
			var p struct{ Name string }
			if err := ssh.Unmarshal(req.Payload, &p); err != nil || p.Name != "sftp" || opts.DisableSFTP {
				_ = req.Reply(false, nil)
				continue
			}
			_ = req.Reply(true, nil)
			srv := sftp.NewRequestServer(ch, handlers)
			_ = srv.Serve()
			_ = srv.Close()
			return
		default:
			_ = req.Reply(false, nil)
		}
	}
}
