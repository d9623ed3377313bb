package deploy

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Options holds everything the procedure does on the host once the web root
// is known. Paths in BackupEntries and LegacyDirs are relative to that root.
type Options struct {
	Host              string   `yaml:"-"`
	IndexFile         string   `yaml:"index_file"`
	BackupEntries     []string `yaml:"backup_entries"`
	LegacyDirs        []string `yaml:"legacy_dirs"`
	ConfigTestCommand string   `yaml:"config_test_command"`
	// ReloadCommands are tried in order until one exits 0.
	ReloadCommands []string `yaml:"reload_commands"`
	InspectLines   int      `yaml:"inspect_lines"`
	ProbeBaseURL   string   `yaml:"probe_base_url"`
	ProbePaths     []string `yaml:"probe_paths"`
	ProbeLines     int      `yaml:"probe_lines"`
	// DryRun records mutating commands instead of running them.
	DryRun bool `yaml:"-"`
}

// DefaultOptions returns the stock remediation for host.
func DefaultOptions(host string) Options {
	return Options{
		Host:              host,
		IndexFile:         "index.html",
		BackupEntries:     []string{"index.html", "assets"},
		LegacyDirs:        []string{"me", "me/institution"},
		ConfigTestCommand: "nginx -t",
		ReloadCommands:    []string{"nginx -s reload", "systemctl reload nginx"},
		InspectLines:      40,
		ProbeBaseURL:      "http://" + host,
		ProbePaths:        []string{"/me", "/me/institution"},
		ProbeLines:        20,
	}
}

// Validate reports the first invalid field.
func (o Options) Validate() error {
	if o.Host == "" {
		return errors.New("host is required")
	}
	if o.IndexFile == "" || strings.Contains(o.IndexFile, "/") {
		return fmt.Errorf("index file %q must be a plain file name", o.IndexFile)
	}
	for _, e := range append(append([]string{}, o.BackupEntries...), o.LegacyDirs...) {
		if err := checkRelative(e); err != nil {
			return err
		}
	}
	if strings.TrimSpace(o.ConfigTestCommand) == "" {
		return errors.New("config test command is required")
	}
	if len(o.ReloadCommands) == 0 {
		return errors.New("at least one reload command is required")
	}
	if o.InspectLines <= 0 || o.ProbeLines <= 0 {
		return errors.New("inspect and probe line counts must be positive")
	}
	u, err := url.Parse(o.ProbeBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("probe base url %q must be an absolute http(s) url", o.ProbeBaseURL)
	}
	for _, p := range o.ProbePaths {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("probe path %q must start with /", p)
		}
	}
	return nil
}

// checkRelative rejects paths that could escape or equal the web root.
func checkRelative(p string) error {
	c := path.Clean(p)
	if p == "" || path.IsAbs(p) || c == "." || c == ".." || strings.HasPrefix(c, "../") {
		return fmt.Errorf("path %q must be relative to the web root", p)
	}
	return nil
}
