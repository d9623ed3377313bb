package remote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunRemoteCommand_Success(t *testing.T) {
	s := &fakeSession{stdout: "OK\n", stderr: "warn\n"}
	res, err := runRemoteCommand(context.Background(), &fakeClient{sess: s}, "echo OK")
	require.NoError(t, err)
	require.True(t, res.OK())
	require.Equal(t, "OK\n", res.Stdout)
	require.Equal(t, "warn\n", res.Stderr)
	require.True(t, s.closed)
}

func TestRunRemoteCommand_Timeout(t *testing.T) {
	s := &fakeSession{stdout: "SLOW\n", delay: 200 * time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	res, err := runRemoteCommand(ctx, &fakeClient{sess: s}, "sleep 1")
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	require.Equal(t, "sleep 1", te.Command)
	require.Equal(t, -1, res.ExitCode)
	require.Empty(t, res.Stdout)
}

func TestRunRemoteCommand_NewSessionError(t *testing.T) {
	res, err := runRemoteCommand(context.Background(), &fakeClient{newErr: errors.New("no session")}, "cmd")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no session")
	require.Equal(t, -1, res.ExitCode)
}

func TestRunRemoteCommand_TransportFailureKeepsOutput(t *testing.T) {
	s := &fakeSession{stdout: "oops\n", err: errors.New("boom")}
	res, err := runRemoteCommand(context.Background(), &fakeClient{sess: s}, "cmd")
	var te *TransportError
	require.ErrorAs(t, err, &te)
	require.Equal(t, -1, res.ExitCode)
	require.Equal(t, "oops\n", res.Stdout)
}

func TestResultOutput(t *testing.T) {
	require.Equal(t, "out", Result{Stdout: "out", Stderr: "err"}.Output())
	require.Equal(t, "err", Result{Stderr: "err"}.Output())
	require.False(t, Result{ExitCode: 1}.OK())
}
