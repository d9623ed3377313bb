package cmd

import (
	"fmt"
	"os"
	"strings"

	"webroot-sync/deploy"
	"webroot-sync/webroot"
)

// loadProfile reads a remediation profile from path.
func loadProfile(path string) (*profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pf := &profile{}
	if err := yamlUnmarshal(b, pf); err != nil {
		return nil, err
	}
	pf.VHost = strings.TrimSpace(pf.VHost)
	return pf, nil
}

// apply overlays the profile sections onto the defaults.
func (pf *profile) apply(res *webroot.Options, dep *deploy.Options) error {
	if err := decodeOnto(&pf.Resolver, res); err != nil {
		return fmt.Errorf("resolver: %w", err)
	}
	if err := decodeOnto(&pf.Deploy, dep); err != nil {
		return fmt.Errorf("deploy: %w", err)
	}
	return nil
}
