package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"webroot-sync/deploy"
)

// writeReportFile writes the YAML run report, creating parent directories.
func writeReportFile(path string, rep *deploy.Report) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close report file: %w", cerr)
		}
	}()
	if err := deploy.WriteReport(f, rep); err != nil {
		return fmt.Errorf("failed to write YAML report: %w", err)
	}
	return nil
}
