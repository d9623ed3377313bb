package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"webroot-sync/deploy"
)

// verifyCmd checks the profile and the local build without connecting.
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Validate the remediation profile and the local build directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger(cfgLogLevel, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		rc, err := buildTargetConfig()
		if err != nil {
			return err
		}
		if _, err := openBuildDir(rc.BuildDir, rc.Deploy.IndexFile, log); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "Virtual host: %s\n", rc.Resolver.Host)
		_, _ = fmt.Fprintf(out, "Legacy dirs: %s\n", strings.Join(rc.Deploy.LegacyDirs, ", "))
		_, _ = fmt.Fprintf(out, "Steps: %s\n", strings.Join(deploy.StepNames(), ", "))
		_, _ = fmt.Fprintln(out, "Profile OK")
		return nil
	},
}
