package sshserv

import (
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/pkg/sftp"
)

// Handlers returns SFTP handlers that read and write the host's own files,
// so an upload is visible to later exec commands such as test and head.
func (h *FakeHost) Handlers() sftp.Handlers {
	hf := &hostFS{h: h}
	return sftp.Handlers{FileGet: hf, FilePut: hf, FileCmd: hf, FileList: hf}
}

type hostFS struct {
	h *FakeHost
}

func (hf *hostFS) Fileread(r *sftp.Request) (io.ReaderAt, error) {
	hf.h.mu.Lock()
	defer hf.h.mu.Unlock()
	c, ok := hf.h.files[path.Clean(r.Filepath)]
	if !ok {
		return nil, os.ErrNotExist
	}
	return strings.NewReader(c), nil
}

func (hf *hostFS) Filewrite(r *sftp.Request) (io.WriterAt, error) {
	hf.h.mu.Lock()
	defer hf.h.mu.Unlock()
	p := path.Clean(r.Filepath)
	if !hf.h.isDir(path.Dir(p)) {
		return nil, os.ErrNotExist
	}
	if _, ok := hf.h.files[p]; !ok && hf.h.isDir(p) {
		return nil, os.ErrExist
	}
	if _, ok := hf.h.files[p]; !ok || r.Pflags().Trunc {
		hf.h.files[p] = ""
	}
	return &hostFile{h: hf.h, path: p}, nil
}

func (hf *hostFS) Filecmd(r *sftp.Request) error {
	hf.h.mu.Lock()
	defer hf.h.mu.Unlock()
	p := path.Clean(r.Filepath)
	switch r.Method {
	case "Setstat":
		return nil
	case "Mkdir":
		if hf.h.isFile(p) || hf.h.isDir(p) {
			return os.ErrExist
		}
		if !hf.h.isDir(path.Dir(p)) {
			return os.ErrNotExist
		}
		hf.h.dirs[p] = true
		return nil
	case "Remove":
		if !hf.h.isFile(p) {
			return os.ErrNotExist
		}
		delete(hf.h.files, p)
		return nil
	case "Rmdir":
		if !hf.h.isDir(p) {
			return os.ErrNotExist
		}
		delete(hf.h.dirs, p)
		return nil
	case "Rename":
		c, ok := hf.h.files[p]
		if !ok {
			return os.ErrNotExist
		}
		delete(hf.h.files, p)
		hf.h.files[path.Clean(r.Target)] = c
		return nil
	}
	return sftp.ErrSSHFxOpUnsupported
}

func (hf *hostFS) Filelist(r *sftp.Request) (sftp.ListerAt, error) {
	hf.h.mu.Lock()
	defer hf.h.mu.Unlock()
	p := path.Clean(r.Filepath)
	switch r.Method {
	case "Stat", "Lstat":
		fi, ok := hf.h.stat(p)
		if !ok {
			return nil, os.ErrNotExist
		}
		return listerAt{fi}, nil
	case "List":
		if !hf.h.isDir(p) {
			return nil, os.ErrNotExist
		}
		return listerAt(hf.h.children(p)), nil
	}
	return nil, sftp.ErrSSHFxOpUnsupported
}

// stat must be called with h.mu held.
func (h *FakeHost) stat(p string) (os.FileInfo, bool) {
	if c, ok := h.files[p]; ok {
		return fileInfo{name: path.Base(p), size: int64(len(c))}, true
	}
	if h.isDir(p) {
		return fileInfo{name: path.Base(p), dir: true}, true
	}
	return nil, false
}

// children must be called with h.mu held.
func (h *FakeHost) children(dir string) []os.FileInfo {
	prefix := dir + "/"
	if dir == "/" {
		prefix = dir
	}
	seen := map[string]bool{}
	collect := func(p string) {
		if !strings.HasPrefix(p, prefix) {
			return
		}
		name, _, _ := strings.Cut(strings.TrimPrefix(p, prefix), "/")
		if name != "" {
			seen[name] = true
		}
	}
	for f := range h.files {
		collect(f)
	}
	for d := range h.dirs {
		collect(d)
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]os.FileInfo, 0, len(names))
	for _, n := range names {
		fi, _ := h.stat(path.Join(dir, n))
		out = append(out, fi)
	}
	return out
}

type hostFile struct {
	h    *FakeHost
	path string
}

func (f *hostFile) WriteAt(b []byte, off int64) (int, error) {
	f.h.mu.Lock()
	defer f.h.mu.Unlock()
	cur := []byte(f.h.files[f.path])
	if end := int(off) + len(b); end > len(cur) {
		cur = append(cur, make([]byte, end-len(cur))...)
	}
	copy(cur[off:], b)
	f.h.files[f.path] = string(cur)
	return len(b), nil
}

type listerAt []os.FileInfo

func (l listerAt) ListAt(ls []os.FileInfo, offset int64) (int, error) {
	if offset >= int64(len(l)) {
		return 0, io.EOF
	}
	n := copy(ls, l[offset:])
	if n < len(ls) {
		return n, io.EOF
	}
	return n, nil
}

type fileInfo struct {
	name string
	size int64
	dir  bool
}

func (fi fileInfo) Name() string       { return fi.name }
func (fi fileInfo) Size() int64        { return fi.size }
func (fi fileInfo) ModTime() time.Time { return time.Time{} }
func (fi fileInfo) IsDir() bool        { return fi.dir }
func (fi fileInfo) Sys() any           { return nil }

func (fi fileInfo) Mode() fs.FileMode {
	if fi.dir {
		return fs.ModeDir | 0o755
	}
	return 0o644
}
