package remote

import (
	"bytes"
	"context"
	"errors"

	"golang.org/x/crypto/ssh"
)

// Result is the outcome of one remote command.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// OK reports whether the command exited with status 0.
func (r Result) OK() bool { return r.ExitCode == 0 }

// Output returns stdout, or stderr when stdout is empty.
func (r Result) Output() string {
	if r.Stdout != "" {
		return r.Stdout
	}
	return r.Stderr
}

// runRemoteCommand executes a single command and returns its result. Only
// session-level failures are errors; the exit code is -1 in that case.
func runRemoteCommand(ctx context.Context, client sessionClient, cmd string) (Result, error) {
	sess, err := client.NewSession()
	if err != nil {
		return Result{ExitCode: -1}, &TransportError{Command: cmd, Err: err}
	}

	var stdout, stderr bytes.Buffer
	done := make(chan error, 1)
	go func() { done <- sess.Run(cmd, &stdout, &stderr) }()

	select {
	case runErr := <-done:
		_ = sess.Close()
		res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
		if runErr == nil {
			return res, nil
		}
		var ee *ssh.ExitError
		if errors.As(runErr, &ee) {
			res.ExitCode = ee.ExitStatus()
			return res, nil
		}
		res.ExitCode = -1
		return res, &TransportError{Command: cmd, Err: runErr}
	case <-ctx.Done():
		// Closing the channel unblocks the goroutine; its buffers are dropped.
		_ = sess.Close()
		return Result{ExitCode: -1}, &TransportError{Command: cmd, Err: ctx.Err()}
	}
}
