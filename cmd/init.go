package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// envPrefix prefixes every environment variable the CLI reads.
const envPrefix = "REMOTE"

// boundFlags are the persistent flags that can also be set from the
// environment as REMOTE_<NAME>, with dashes turned into underscores.
var boundFlags = []string{
	"host", "port", "user", "password", "key", "passphrase", "known-hosts",
	"strict-host-key", "conn-timeout", "cmd-timeout", "vhost", "dist",
	"profile", "out", "log-level", "noop",
}

// init configures the root command's persistent flags, binds them to
// environment variables via Viper, and registers the subcommands.
func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgHost, "host", "", "Remote host name or IP (or set REMOTE_HOST)")
	pf.IntVar(&cfgPort, "port", 22, "Remote SSH port")
	pf.StringVarP(&cfgUser, "user", "u", "root", "SSH username")
	pf.StringVar(&cfgPassword, "password", "", "SSH password (or set REMOTE_PWD)")
	pf.StringVar(&cfgKeyPath, "key", "", "Path to SSH private key (PEM, OpenSSH)")
	pf.StringVar(&cfgPassphrase, "passphrase", "", "Private key passphrase (or set REMOTE_PASSPHRASE)")
	pf.StringVar(&cfgKnownHosts, "known-hosts", filepath.Join(os.Getenv("HOME"), ".ssh", "known_hosts"), "Path to known_hosts file")
	pf.BoolVar(&cfgStrictHost, "strict-host-key", true, "Require host key verification (disable to accept any host key)")
	pf.DurationVar(&cfgConnTimeout, "conn-timeout", 15*time.Second, "Connection timeout")
	pf.DurationVar(&cfgCmdTimeout, "cmd-timeout", 0, "Per-command timeout (e.g., 30s). 0 disables")
	pf.StringVar(&cfgVHost, "vhost", "", "Virtual host whose web root is synced (default from profile, else "+defaultVHost+")")
	pf.StringVar(&cfgDist, "dist", "dist", "Local build directory to upload")
	pf.StringVarP(&cfgProfile, "profile", "p", "", "Path to YAML remediation profile")
	pf.StringVarP(&cfgOutPath, "out", "o", "", "Write a YAML run report to this path")
	pf.StringVar(&cfgEnvFile, "env-file", ".env", "Load environment variables from this file if it exists")
	pf.StringVar(&cfgLogLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	pf.BoolVar(&cfgNoop, "noop", false, "Resolve and read only; record mutating commands without running them")

	bindEnv()
	cobra.OnInitialize(loadEnvironment)

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(verifyCmd)
}

// bindEnv wires the persistent flags into Viper.
func bindEnv() {
	for _, name := range boundFlags {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	// The password historically lives in REMOTE_PWD.
	_ = viper.BindEnv("password", "REMOTE_PWD", "REMOTE_PASSWORD")
}

// loadEnvironment reads the .env file, then pulls environment overrides into
// the flag-backed globals. Flags set on the command line win. Values that do
// not parse are kept in cfgEnvErr and reported when the run config is built.
func loadEnvironment() {
	cfgEnvErr = nil
	if cfgEnvFile != "" {
		// godotenv never overrides variables that are already set.
		if err := godotenv.Load(cfgEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			_, _ = fmt.Fprintf(os.Stderr, "warning: cannot load %s: %v\n", cfgEnvFile, err)
		}
	}

	if v := viper.GetString("host"); v != "" {
		cfgHost = v
	}
	if v := viper.GetString("port"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			cfgEnvErr = errors.Join(cfgEnvErr, fmt.Errorf("%w: port %q is not a number", errInvalidInput, v))
		} else {
			cfgPort = n
		}
	}
	if v := viper.GetString("user"); v != "" {
		cfgUser = v
	}
	if v := viper.GetString("password"); v != "" {
		cfgPassword = v
	}
	if v := viper.GetString("key"); v != "" {
		cfgKeyPath = v
	}
	if v := viper.GetString("passphrase"); v != "" {
		cfgPassphrase = v
	}
	if v := viper.GetString("known-hosts"); v != "" {
		cfgKnownHosts = v
	}
	if v := viper.GetString("conn-timeout"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			cfgEnvErr = errors.Join(cfgEnvErr, fmt.Errorf("%w: conn-timeout %q: %w", errInvalidInput, v, err))
		} else {
			cfgConnTimeout = d
		}
	}
	if v := viper.GetString("cmd-timeout"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			cfgEnvErr = errors.Join(cfgEnvErr, fmt.Errorf("%w: cmd-timeout %q: %w", errInvalidInput, v, err))
		} else {
			cfgCmdTimeout = d
		}
	}
	if v := viper.GetString("vhost"); v != "" {
		cfgVHost = v
	}
	if v := viper.GetString("dist"); v != "" {
		cfgDist = v
	}
	if v := viper.GetString("profile"); v != "" {
		cfgProfile = v
	}
	if v := viper.GetString("out"); v != "" {
		cfgOutPath = v
	}
	if v := viper.GetString("log-level"); v != "" {
		cfgLogLevel = v
	}
	// Booleans
	if viper.IsSet("strict-host-key") {
		cfgStrictHost = viper.GetBool("strict-host-key")
	}
	if viper.IsSet("noop") {
		cfgNoop = viper.GetBool("noop")
	}
}
