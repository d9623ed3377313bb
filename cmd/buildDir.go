package cmd

import (
	"fmt"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/rs/zerolog"
)

// openBuildDir opens the local build directory read-only as a filesystem
// rooted at dir, after checking it holds indexFile.
func openBuildDir(dir, indexFile string, log zerolog.Logger) (billy.Filesystem, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: build directory: %w", errInvalidInput, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: build directory %s is not a directory", errInvalidInput, dir)
	}
	fs := osfs.New(dir)
	if err := checkBuildDir(fs, indexFile, log); err != nil {
		return nil, fmt.Errorf("%w: build directory %s: %w", errInvalidInput, dir, err)
	}
	return fs, nil
}

// checkBuildDir requires indexFile to be a regular file and warns when its
// content does not look like HTML.
func checkBuildDir(fs billy.Filesystem, indexFile string, log zerolog.Logger) error {
	info, err := fs.Stat(indexFile)
	if err != nil {
		return fmt.Errorf("missing %s: %w", indexFile, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", indexFile)
	}
	f, err := fs.Open(indexFile)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", indexFile, err)
	}
	if !mt.Is("text/html") {
		log.Warn().Str("file", indexFile).Str("mime", mt.String()).Msg("index file does not look like HTML")
	}
	return nil
}
