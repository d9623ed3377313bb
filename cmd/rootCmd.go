package cmd

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:   "webroot-sync",
	Short: "Replace the static site Nginx serves for a virtual host",
	Long: "Connects to a host over SSH, finds the Nginx web root serving a virtual host, backs up the " +
		"current entry points, deletes the legacy directories, uploads a local build over SFTP, then " +
		"tests and reloads Nginx and reads back the result.",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE:          runSync,
}
