package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"webroot-sync/webroot"
)

// resolveCmd connects and reports which directory would be synced. It
// changes nothing on the host.
var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Print the web root that serves the virtual host",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger(cfgLogLevel, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		rc, err := buildRunConfig()
		if err != nil {
			return err
		}
		gw, err := connect(rc, log)
		if err != nil {
			return err
		}
		defer func() { _ = gw.Close() }()

		res, err := webroot.NewResolver(gw, rc.Resolver, log).Resolve(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "Web root: %s\n", res.Root)
		_, _ = fmt.Fprintf(out, "Tier: %s\n", res.Tier)
		if res.ConfigFile != "" {
			_, _ = fmt.Fprintf(out, "Config: %s\n", res.ConfigFile)
		}
		return nil
	},
}
