package cmd

import (
	"errors"
	"time"
)

// Version is the CLI version string injected at build time via -ldflags.
var Version = "0.1.0"

// defaultVHost is served when neither --vhost nor the profile names one.
const defaultVHost = "xg.kudafn.com"

// errInvalidInput marks missing or invalid operator input: host, credential,
// build directory or profile.
var errInvalidInput = errors.New("invalid input")

var (
	// Global configuration populated by flags and/or environment variables.
	// These are declared here so they are visible across subcommands.
	cfgHost        string
	cfgPort        int
	cfgUser        string
	cfgPassword    string
	cfgKeyPath     string
	cfgPassphrase  string
	cfgKnownHosts  string
	cfgStrictHost  bool
	cfgConnTimeout time.Duration
	cfgCmdTimeout  time.Duration
	cfgVHost       string
	cfgDist        string
	cfgProfile     string
	cfgOutPath     string
	cfgEnvFile     string
	cfgLogLevel    string
	cfgNoop        bool

	// cfgEnvErr holds environment values that could not be parsed.
	cfgEnvErr error
)

// Allow tests to stub the remote host.
var connectFunc = connectRemote
