// Package cmd implements the webroot-sync command-line interface.
//
// The root command performs the whole remediation against one host: connect,
// resolve the Nginx web root, back up, delete the legacy directories, upload
// the local build, test and reload Nginx, and read back the result. The
// resolve subcommand stops after resolution; verify checks the profile and
// the build directory without touching the network.
//
// Start with init.go for how flags, environment variables and the optional
// .env file are bound, runConfig.go for how they become one configuration
// value, and runSync.go for the main flow. Execute.go maps errors to exit
// codes.
package cmd
