package deploy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultOptions(t *testing.T) {
	o := DefaultOptions("xg.kudafn.com")
	require.NoError(t, o.Validate())
	require.Equal(t, "http://xg.kudafn.com", o.ProbeBaseURL)
	require.Equal(t, []string{"me", "me/institution"}, o.LegacyDirs)
}

func TestOptionsValidate(t *testing.T) {
	cases := map[string]func(*Options){
		"no host":          func(o *Options) { o.Host = "" },
		"absolute legacy":  func(o *Options) { o.LegacyDirs = []string{"/me"} },
		"escaping legacy":  func(o *Options) { o.LegacyDirs = []string{"../etc"} },
		"root itself":      func(o *Options) { o.LegacyDirs = []string{"."} },
		"empty backup":     func(o *Options) { o.BackupEntries = []string{""} },
		"no config test":   func(o *Options) { o.ConfigTestCommand = " " },
		"no reload":        func(o *Options) { o.ReloadCommands = nil },
		"zero lines":       func(o *Options) { o.InspectLines = 0 },
		"bad probe url":    func(o *Options) { o.ProbeBaseURL = "ftp://x" },
		"relative probe":   func(o *Options) { o.ProbePaths = []string{"me"} },
		"index with slash": func(o *Options) { o.IndexFile = "a/b" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			o := DefaultOptions("xg.kudafn.com")
			mutate(&o)
			require.Error(t, o.Validate())
		})
	}
}

func TestStepNames(t *testing.T) {
	require.Equal(t, []string{
		"resolve-root", "backup", "remove-legacy", "upload",
		"config-test", "reload", "inspect-index", "probe-legacy",
	}, StepNames())
}
