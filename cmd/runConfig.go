package cmd

import (
	"fmt"
	"os"
	"strings"

	"webroot-sync/deploy"
	"webroot-sync/remote"
	"webroot-sync/webroot"
)

// runConfig is everything one run needs, built once from flags, environment
// and the optional profile.
type runConfig struct {
	Remote   remote.Options
	BuildDir string
	Resolver webroot.Options
	Deploy   deploy.Options
	OutPath  string
}

// buildTargetConfig resolves the virtual host and the resolver and deploy
// options. It needs no remote host or credential.
func buildTargetConfig() (runConfig, error) {
	if cfgEnvErr != nil {
		return runConfig{}, cfgEnvErr
	}
	var pf *profile
	if cfgProfile != "" {
		p, err := loadProfile(cfgProfile)
		if err != nil {
			return runConfig{}, fmt.Errorf("%w: profile %s: %w", errInvalidInput, cfgProfile, err)
		}
		pf = p
	}

	vhost := strings.TrimSpace(cfgVHost)
	if vhost == "" && pf != nil {
		vhost = pf.VHost
	}
	if vhost == "" {
		vhost = defaultVHost
	}

	rc := runConfig{
		BuildDir: cfgDist,
		Resolver: webroot.DefaultOptions(vhost),
		Deploy:   deploy.DefaultOptions(vhost),
		OutPath:  cfgOutPath,
	}
	if pf != nil {
		if err := pf.apply(&rc.Resolver, &rc.Deploy); err != nil {
			return runConfig{}, fmt.Errorf("%w: profile %s: %w", errInvalidInput, cfgProfile, err)
		}
	}
	rc.Deploy.DryRun = cfgNoop

	if err := rc.Resolver.Validate(); err != nil {
		return runConfig{}, fmt.Errorf("%w: resolver: %w", errInvalidInput, err)
	}
	if err := rc.Deploy.Validate(); err != nil {
		return runConfig{}, fmt.Errorf("%w: deploy: %w", errInvalidInput, err)
	}
	return rc, nil
}

// buildRunConfig is buildTargetConfig plus the connection settings.
func buildRunConfig() (runConfig, error) {
	if cfgEnvErr != nil {
		return runConfig{}, cfgEnvErr
	}
	host := strings.TrimSpace(cfgHost)
	if host == "" {
		return runConfig{}, fmt.Errorf("%w: --host or REMOTE_HOST is required", errInvalidInput)
	}
	if strings.TrimSpace(cfgUser) == "" {
		return runConfig{}, fmt.Errorf("%w: --user is required for SSH authentication", errInvalidInput)
	}
	if cfgPassword == "" && cfgKeyPath == "" && os.Getenv("SSH_AUTH_SOCK") == "" {
		return runConfig{}, fmt.Errorf("%w: a credential is required: --password (REMOTE_PWD), --key, or an SSH agent", errInvalidInput)
	}
	if cfgPort <= 0 || cfgPort > 65535 {
		return runConfig{}, fmt.Errorf("%w: port %d out of range", errInvalidInput, cfgPort)
	}

	rc, err := buildTargetConfig()
	if err != nil {
		return runConfig{}, err
	}
	rc.Remote = remote.Options{
		Host:           host,
		Port:           cfgPort,
		User:           strings.TrimSpace(cfgUser),
		Password:       cfgPassword,
		KeyPath:        cfgKeyPath,
		Passphrase:     cfgPassphrase,
		KnownHostsPath: cfgKnownHosts,
		StrictHostKey:  cfgStrictHost,
		Timeout:        cfgConnTimeout,
		CommandTimeout: cfgCmdTimeout,
	}
	return rc, nil
}
