package deploy

import (
	"context"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"webroot-sync/remote"
	"webroot-sync/tools/sshserv"
	"webroot-sync/webroot"
)

// fakeGateway runs commands on an in-memory host and uploads by copying the
// local tree into it.
type fakeGateway struct {
	host      *sshserv.FakeHost
	overrides map[string]remote.Result
	runErr    map[string]error
	uploadErr error
	uploads   int
}

func newFakeGateway(h *sshserv.FakeHost) *fakeGateway {
	return &fakeGateway{host: h, overrides: map[string]remote.Result{}, runErr: map[string]error{}}
}

func (g *fakeGateway) Run(_ context.Context, cmd string) (remote.Result, error) {
	if err, ok := g.runErr[cmd]; ok {
		return remote.Result{ExitCode: -1}, &remote.TransportError{Command: cmd, Err: err}
	}
	if res, ok := g.overrides[cmd]; ok {
		return res, nil
	}
	out, stderr, code := g.host.Exec(cmd)
	return remote.Result{ExitCode: code, Stdout: out, Stderr: stderr}, nil
}

func (g *fakeGateway) UploadTree(_ context.Context, local billy.Filesystem, dir string) (remote.UploadStats, error) {
	g.uploads++
	var stats remote.UploadStats
	if g.uploadErr != nil {
		return stats, &remote.TransferError{Remote: dir, Err: g.uploadErr}
	}
	err := util.Walk(local, "/", func(p string, info os.FileInfo, err error) error {
		if err != nil || !info.Mode().IsRegular() {
			return err
		}
		f, err := local.Open(p)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		b, err := io.ReadAll(f)
		if err != nil {
			return err
		}
		g.host.AddFile(path.Join(dir, remote.RelativePath(p)), string(b))
		stats.Files++
		stats.Bytes += int64(len(b))
		return nil
	})
	return stats, err
}

type fakeResolver struct {
	res   webroot.Resolution
	err   error
	calls int
}

func (r *fakeResolver) Resolve(context.Context) (webroot.Resolution, error) {
	r.calls++
	return r.res, r.err
}

var fixedNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func commandsWithPrefix(cmds []string, prefix string) []string {
	var out []string
	for _, c := range cmds {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}
