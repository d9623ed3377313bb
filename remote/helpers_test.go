package remote

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeSession is a minimal execSession for exercising runRemoteCommand.
type fakeSession struct {
	stdout string
	stderr string
	err    error
	delay  time.Duration
	closed bool
}

func (s *fakeSession) Run(_ string, stdout, stderr io.Writer) error {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	_, _ = io.WriteString(stdout, s.stdout)
	_, _ = io.WriteString(stderr, s.stderr)
	return s.err
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeClient struct {
	sess   *fakeSession
	newErr error
}

func (c *fakeClient) NewSession() (execSession, error) {
	if c.newErr != nil {
		return nil, c.newErr
	}
	return c.sess, nil
}

// failingFS rejects every Create after the first n.
type failingFS struct {
	allowed int
	created []string
}

func (f *failingFS) MkdirAll(string) error { return nil }

func (f *failingFS) Create(name string) (io.WriteCloser, error) {
	if len(f.created) >= f.allowed {
		return nil, errors.New("permission denied")
	}
	f.created = append(f.created, name)
	return nopWriteCloser{io.Discard}, nil
}

func (f *failingFS) Close() error { return nil }

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}
