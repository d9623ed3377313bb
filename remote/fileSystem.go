package remote

import (
	"io"

	"github.com/pkg/sftp"
)

// fileSystem is the part of an SFTP client an upload needs.
type fileSystem interface {
	MkdirAll(dir string) error
	Create(name string) (io.WriteCloser, error)
	Close() error
}

// sftpFileSystem adapts *sftp.Client to fileSystem.
type sftpFileSystem struct {
	c *sftp.Client
}

func (f sftpFileSystem) MkdirAll(dir string) error { return f.c.MkdirAll(dir) }

// Create opens name for writing, truncating an existing file.
func (f sftpFileSystem) Create(name string) (io.WriteCloser, error) {
	file, err := f.c.Create(name)
	if err != nil {
		return nil, err
	}
	return file, nil
}

func (f sftpFileSystem) Close() error { return f.c.Close() }
