package cmd

import (
	"errors"
	"fmt"
	"os"

	"webroot-sync/remote"
	"webroot-sync/webroot"
)

// Exit codes.
const (
	exitOK               = 0
	exitFailure          = 1
	exitInvalidInput     = 2
	exitRootNotFound     = 3
	exitTransferUnusable = 4
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		exitFunc(exitCodeFor(err))
	}
}

func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errInvalidInput):
		return exitInvalidInput
	case errors.Is(err, webroot.ErrRootNotFound):
		return exitRootNotFound
	case errors.Is(err, remote.ErrFileTransferUnavailable):
		return exitTransferUnusable
	}
	return exitFailure
}
