package cmd

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"webroot-sync/deploy"
	"webroot-sync/webroot"
)

// runSync is the root command: one full remediation run.
func runSync(cmd *cobra.Command, _ []string) error {
	log, err := newLogger(cfgLogLevel, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	rc, err := buildRunConfig()
	if err != nil {
		return err
	}
	local, err := openBuildDir(rc.BuildDir, rc.Deploy.IndexFile, log)
	if err != nil {
		return err
	}

	gw, err := connect(rc, log)
	if err != nil {
		return err
	}
	defer func() { _ = gw.Close() }()

	if !rc.Deploy.DryRun {
		// Fail before anything on the host changes.
		if err := gw.EnsureFileTransfer(); err != nil {
			return err
		}
	}

	resolver := webroot.NewResolver(gw, rc.Resolver, log)
	proc := deploy.NewProcedure(gw, resolver, local, rc.Deploy, log)
	rep, runErr := proc.Run(cmd.Context())

	if rc.OutPath != "" {
		if err := writeReportFile(rc.OutPath, rep); err != nil {
			runErr = errors.Join(runErr, err)
		} else {
			log.Info().Str("path", rc.OutPath).Msg("report written")
		}
	}
	if runErr != nil {
		return runErr
	}

	if rep.DryRun {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Dry run complete. Web root: %s (%s)\n", rep.Root, rep.Tier)
		return nil
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Done. %s now serves %s from %s (%s)\n", rep.Host, rc.BuildDir, rep.Root, rep.Tier)
	return nil
}

// connect opens the remote session described by rc.
func connect(rc runConfig, log zerolog.Logger) (gateway, error) {
	rc.Remote.Logger = &log
	gw, err := connectFunc(rc.Remote)
	if err != nil {
		return nil, fmt.Errorf("ssh connection failed: %w", err)
	}
	log.Info().Str("remote", rc.Remote.Address()).Str("user", rc.Remote.User).Msg("connected")
	return gw, nil
}
