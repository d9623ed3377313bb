package deploy

import (
	"bufio"
	"bytes"
	"io"

	"gopkg.in/yaml.v3"

	"webroot-sync/remote"
	"webroot-sync/webroot"
)

// Policy says what a step's failure means for the run.
type Policy string

const (
	// Fatal failures end the run.
	Fatal Policy = "fatal"
	// Tolerated failures are logged and recorded; the run continues.
	Tolerated Policy = "tolerated"
)

// State is the terminal state of a run.
type State string

const (
	StateSuccess             State = "success"
	StateAbortedNoRoot       State = "aborted-no-root"
	StateAbortedUploadFailed State = "aborted-upload-failed"
)

// Status is the outcome of one step.
type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusPlanned Status = "planned"
	StatusSkipped Status = "skipped"
)

// Report describes one run.
type Report struct {
	Host       string              `yaml:"host"`
	Root       string              `yaml:"root,omitempty"`
	Tier       webroot.Tier        `yaml:"tier,omitempty"`
	ConfigFile string              `yaml:"config_file,omitempty"`
	DryRun     bool                `yaml:"dry_run"`
	Started    string              `yaml:"started"`
	Finished   string              `yaml:"finished"`
	State      State               `yaml:"state"`
	Upload     *remote.UploadStats `yaml:"upload,omitempty"`
	Steps      []StepResult        `yaml:"steps"`
}

// StepResult records one step and the commands it issued.
type StepResult struct {
	Name     string          `yaml:"name"`
	Policy   Policy          `yaml:"policy"`
	Status   Status          `yaml:"status"`
	Error    string          `yaml:"error,omitempty"`
	Detail   string          `yaml:"detail,omitempty"`
	Files    []string        `yaml:"files,omitempty"`
	Commands []CommandRecord `yaml:"commands,omitempty"`
}

// CommandRecord is one remote command. Planned commands were not run.
type CommandRecord struct {
	Command  string `yaml:"command"`
	Planned  bool   `yaml:"planned,omitempty"`
	ExitCode int    `yaml:"exit_code"`
	Stdout   string `yaml:"stdout,omitempty"`
	Stderr   string `yaml:"stderr,omitempty"`
	Error    string `yaml:"error,omitempty"`
}

// Step returns the named step, or nil.
func (r *Report) Step(name string) *StepResult {
	for i := range r.Steps {
		if r.Steps[i].Name == name {
			return &r.Steps[i]
		}
	}
	return nil
}

// WriteReport serializes the report to YAML with two-space indentation.
func WriteReport(w io.Writer, r *Report) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		_ = enc.Close()
		return err
	}
	_ = enc.Close()
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(buf.Bytes()); err != nil {
		return err
	}
	return bw.Flush()
}
