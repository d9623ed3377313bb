package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/pkg/sftp"
	"github.com/rs/zerolog"
)

// Session is one open, authenticated channel to the remote host. It is not
// safe for concurrent use; callers issue one operation at a time.
type Session struct {
	addr       string
	client     sessionClient
	conn       io.Closer
	cmdTimeout time.Duration
	log        zerolog.Logger

	openFiles func() (fileSystem, error)
	files     fileSystem
	closed    bool
}

// Connect dials the host described by opts. It does not retry; any dial,
// handshake or authentication failure is returned as *ConnectionError.
func Connect(opts Options) (*Session, error) {
	addr := opts.Address()
	client, err := dialFunc(opts)
	if err != nil {
		return nil, &ConnectionError{Addr: addr, Err: err}
	}
	s := &Session{
		addr:       addr,
		client:     sshClientWrapper{client},
		conn:       client,
		cmdTimeout: opts.CommandTimeout,
		log:        opts.logger().With().Str("remote", addr).Logger(),
	}
	s.openFiles = func() (fileSystem, error) {
		c, err := sftp.NewClient(client)
		if err != nil {
			return nil, err
		}
		return sftpFileSystem{c}, nil
	}
	return s, nil
}

// Addr returns the host:port the session is connected to.
func (s *Session) Addr() string { return s.addr }

// Run executes one shell command synchronously. A non-zero exit status is
// reported in the Result, never as an error.
func (s *Session) Run(ctx context.Context, cmd string) (Result, error) {
	if s.closed {
		return Result{ExitCode: -1}, &TransportError{Command: cmd, Err: errors.New("session closed")}
	}
	if s.cmdTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cmdTimeout)
		defer cancel()
	}
	s.log.Debug().Str("cmd", cmd).Msg("run")
	return runRemoteCommand(ctx, s.client, cmd)
}

// EnsureFileTransfer opens the SFTP subsystem if it is not open yet.
func (s *Session) EnsureFileTransfer() error {
	if s.files != nil {
		return nil
	}
	if s.closed || s.openFiles == nil {
		return ErrFileTransferUnavailable
	}
	files, err := s.openFiles()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFileTransferUnavailable, err)
	}
	s.files = files
	return nil
}

// UploadTree mirrors local onto remoteDir, creating missing directories and
// overwriting existing files in place. The first failed write aborts the
// upload with a *TransferError; nothing is rolled back.
func (s *Session) UploadTree(ctx context.Context, local billy.Filesystem, remoteDir string) (UploadStats, error) {
	if err := s.EnsureFileTransfer(); err != nil {
		return UploadStats{}, &TransferError{Remote: remoteDir, Err: err}
	}
	return uploadTree(ctx, s.files, local, remoteDir, s.log)
}

// Close releases the SFTP client and the SSH connection. Calling it again is
// a no-op.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	var errs []error
	if s.files != nil {
		errs = append(errs, s.files.Close())
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil && !errors.Is(err, io.EOF) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
