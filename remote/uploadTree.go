package remote

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/rs/zerolog"
)

// UploadStats summarizes a completed upload.
type UploadStats struct {
	Dirs  int   `yaml:"dirs"`
	Files int   `yaml:"files"`
	Bytes int64 `yaml:"bytes"`
}

// uploadTree walks local from its root and mirrors every directory and
// regular file under remoteDir. Other entries (symlinks, devices) are skipped.
func uploadTree(ctx context.Context, dst fileSystem, local billy.Filesystem, remoteDir string, log zerolog.Logger) (UploadStats, error) {
	var stats UploadStats
	remoteDir = path.Clean(remoteDir)
	if err := dst.MkdirAll(remoteDir); err != nil {
		return stats, &TransferError{Remote: remoteDir, Err: err}
	}

	err := util.Walk(local, "/", func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return &TransferError{Local: p, Err: err}
		}
		if err := ctx.Err(); err != nil {
			return &TransferError{Local: p, Err: err}
		}
		rel := RelativePath(p)
		target := remoteDir
		if rel != "" {
			target = path.Join(remoteDir, rel)
		}
		switch {
		case info.IsDir():
			if rel == "" {
				return nil
			}
			if err := dst.MkdirAll(target); err != nil {
				return &TransferError{Local: rel, Remote: target, Err: err}
			}
			stats.Dirs++
		case info.Mode().IsRegular():
			n, err := copyFile(local, p, dst, target)
			if err != nil {
				return &TransferError{Local: rel, Remote: target, Err: err}
			}
			stats.Files++
			stats.Bytes += n
			log.Debug().Str("file", rel).Int64("bytes", n).Msg("uploaded")
		default:
			log.Debug().Str("file", rel).Str("mode", info.Mode().String()).Msg("skipping non-regular entry")
		}
		return nil
	})
	return stats, err
}

// RelativePath converts a path reported by a walk over a billy filesystem
// rooted at "/" into a slash-separated path relative to that root.
func RelativePath(p string) string {
	return strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(p)), "/")
}

func copyFile(local billy.Filesystem, src string, dst fileSystem, target string) (n int64, err error) {
	in, err := local.Open(src)
	if err != nil {
		return 0, err
	}
	defer func() { _ = in.Close() }()

	out, err := dst.Create(target)
	if err != nil {
		return 0, err
	}
	n, err = io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return n, err
}
