package cmd

import "os"

// exitFunc is replaced by tests to capture the exit code instead of
// terminating the process.
var exitFunc = os.Exit
