package webroot

import (
	"context"
	"errors"

	"webroot-sync/remote"
	"webroot-sync/tools/sshserv"
)

// hostRunner runs commands against an in-memory fake host without SSH.
type hostRunner struct {
	host *sshserv.FakeHost
	err  error
}

func (r hostRunner) Run(_ context.Context, cmd string) (remote.Result, error) {
	if r.err != nil {
		return remote.Result{ExitCode: -1}, &remote.TransportError{Command: cmd, Err: r.err}
	}
	out, stderr, code := r.host.Exec(cmd)
	return remote.Result{ExitCode: code, Stdout: out, Stderr: stderr}, nil
}

var errBrokenPipe = errors.New("broken pipe")
