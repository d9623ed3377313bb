package deploy

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"webroot-sync/remote"
	"webroot-sync/tools/sshserv"
	"webroot-sync/webroot"
)

const testHost = "xg.kudafn.com"

func buildTree(t *testing.T) billy.Filesystem {
	t.Helper()
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "index.html", []byte("<!doctype html><title>new</title>\n"), 0o644))
	require.NoError(t, util.WriteFile(fs, "assets/app.js", []byte("console.log('new')\n"), 0o644))
	return fs
}

func seededHost() *sshserv.FakeHost {
	h := sshserv.NewFakeHost()
	h.AddFile("/var/www/html/index.html", "<!doctype html><title>old</title>\n")
	h.AddFile("/var/www/html/assets/old.js", "old")
	h.AddFile("/var/www/html/me/institution/index.html", "legacy")
	return h
}

func newTestProcedure(t *testing.T, gw Gateway, r RootResolver, opts Options) *Procedure {
	t.Helper()
	p := NewProcedure(gw, r, buildTree(t), opts, zerolog.Nop())
	p.now = func() time.Time { return fixedNow }
	return p
}

func htmlRoot() *fakeResolver {
	return &fakeResolver{res: webroot.Resolution{Root: "/var/www/html", Tier: webroot.TierDefault}}
}

func statuses(r *Report) map[string]Status {
	out := map[string]Status{}
	for _, s := range r.Steps {
		out[s.Name] = s.Status
	}
	return out
}

func TestRun_Success(t *testing.T) {
	h := seededHost()
	gw := newFakeGateway(h)
	rep, err := newTestProcedure(t, gw, htmlRoot(), DefaultOptions(testHost)).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateSuccess, rep.State)
	require.Equal(t, "/var/www/html", rep.Root)
	require.Equal(t, webroot.TierDefault, rep.Tier)
	require.Equal(t, "2026-01-02T03:04:05Z", rep.Started)
	require.Len(t, rep.Steps, len(StepNames()))
	for name, st := range statuses(rep) {
		require.Equal(t, StatusOK, st, name)
	}

	require.True(t, h.Exists("/var/www/html/index.html.bak-20260102-030405"))
	require.True(t, h.Exists("/var/www/html/assets.bak-20260102-030405/old.js"))
	require.False(t, h.Exists("/var/www/html/me"))
	require.True(t, h.Exists("/var/www/html/assets/app.js"))
	require.Equal(t, 1, gw.uploads)
	require.Equal(t, 2, rep.Upload.Files)

	cmds := h.Commands()
	require.Equal(t, []string{"rm -rf -- /var/www/html/me /var/www/html/me/institution"}, commandsWithPrefix(cmds, "rm "))
	require.Equal(t, []string{"nginx -s reload"}, commandsWithPrefix(cmds, "nginx -s"))
	require.Empty(t, commandsWithPrefix(cmds, "systemctl"))
	require.Len(t, commandsWithPrefix(cmds, "curl "), 2)
	require.Contains(t, rep.Step("inspect-index").Commands[0].Stdout, "<title>new</title>")
}

func TestRun_ResolveFailureNeverUploads(t *testing.T) {
	gw := newFakeGateway(seededHost())
	r := &fakeResolver{err: webroot.ErrRootNotFound}
	rep, err := newTestProcedure(t, gw, r, DefaultOptions(testHost)).Run(context.Background())
	require.ErrorIs(t, err, webroot.ErrRootNotFound)
	require.Equal(t, StateAbortedNoRoot, rep.State)
	require.Zero(t, gw.uploads)
	require.Empty(t, gw.host.Commands())

	st := statuses(rep)
	require.Equal(t, StatusFailed, st["resolve-root"])
	for _, name := range StepNames()[1:] {
		require.Equal(t, StatusSkipped, st[name], name)
	}
}

func TestRun_UploadFailureIsNeverSuccess(t *testing.T) {
	gw := newFakeGateway(seededHost())
	gw.uploadErr = errors.New("disk full")
	rep, err := newTestProcedure(t, gw, htmlRoot(), DefaultOptions(testHost)).Run(context.Background())
	var te *remote.TransferError
	require.ErrorAs(t, err, &te)
	require.Equal(t, StateAbortedUploadFailed, rep.State)
	require.NotEqual(t, StateSuccess, rep.State)

	st := statuses(rep)
	require.Equal(t, StatusOK, st["backup"])
	require.Equal(t, StatusFailed, st["upload"])
	require.Equal(t, StatusSkipped, st["config-test"])
	require.Empty(t, commandsWithPrefix(gw.host.Commands(), "nginx"))
}

func TestRun_MissingLegacyDirsDoNotBlock(t *testing.T) {
	h := sshserv.NewFakeHost()
	h.AddFile("/var/www/html/index.html", "old")
	gw := newFakeGateway(h)
	rep, err := newTestProcedure(t, gw, htmlRoot(), DefaultOptions(testHost)).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateSuccess, rep.State)
	require.Equal(t, StatusOK, rep.Step("remove-legacy").Status)
	require.Equal(t, StatusOK, rep.Step("backup").Status)
	require.Equal(t, 1, gw.uploads)

	// assets did not exist, so only index.html was copied.
	require.Len(t, commandsWithPrefix(h.Commands(), "cp "), 1)
}

func TestRun_TolerantStepsKeepGoing(t *testing.T) {
	h := seededHost()
	h.ConfigTestExit = 1
	gw := newFakeGateway(h)
	gw.overrides["nginx -s reload"] = remote.Result{ExitCode: 1, Stderr: "nginx: [error] invalid PID number"}
	gw.runErr["rm -rf -- /var/www/html/me /var/www/html/me/institution"] = errors.New("channel closed")

	rep, err := newTestProcedure(t, gw, htmlRoot(), DefaultOptions(testHost)).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateSuccess, rep.State)

	st := statuses(rep)
	require.Equal(t, StatusFailed, st["remove-legacy"])
	require.Equal(t, StatusFailed, st["config-test"])
	require.Equal(t, StatusOK, st["reload"])
	require.Equal(t, "reloaded with systemctl reload nginx", rep.Step("reload").Detail)
	require.Len(t, rep.Step("reload").Commands, 2)
}

func TestRun_ReloadFailsAfterFallback(t *testing.T) {
	h := seededHost()
	h.ReloadExit = 1
	rep, err := newTestProcedure(t, newFakeGateway(h), htmlRoot(), DefaultOptions(testHost)).Run(context.Background())
	require.NoError(t, err)
	reload := rep.Step("reload")
	require.Equal(t, StatusFailed, reload.Status)
	require.Contains(t, reload.Error, "nginx -s reload")
	require.Contains(t, reload.Error, "systemctl reload nginx")
}

func TestRun_DryRunOnlyReads(t *testing.T) {
	h := seededHost()
	gw := newFakeGateway(h)
	opts := DefaultOptions(testHost)
	opts.DryRun = true
	rep, err := newTestProcedure(t, gw, htmlRoot(), opts).Run(context.Background())
	require.NoError(t, err)
	require.True(t, rep.DryRun)
	require.Zero(t, gw.uploads)
	require.True(t, h.Exists("/var/www/html/me/institution"))

	for _, c := range h.Commands() {
		require.NotRegexp(t, `^(cp|rm|nginx|systemctl) `, c)
	}
	st := statuses(rep)
	require.Equal(t, StatusPlanned, st["backup"])
	require.Equal(t, StatusPlanned, st["remove-legacy"])
	require.Equal(t, StatusPlanned, st["upload"])
	require.Equal(t, StatusPlanned, st["config-test"])
	require.Equal(t, StatusPlanned, st["reload"])
	require.Equal(t, StatusOK, st["inspect-index"])
	require.ElementsMatch(t, []string{"index.html", "assets/app.js"}, rep.Step("upload").Files)
}

func TestWriteReport(t *testing.T) {
	rep, err := newTestProcedure(t, newFakeGateway(seededHost()), htmlRoot(), DefaultOptions(testHost)).Run(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, rep))
	out := buf.String()
	require.Contains(t, out, "host: xg.kudafn.com\n")
	require.Contains(t, out, "tier: default\n")
	require.Contains(t, out, "state: success\n")
	require.Contains(t, out, "  - name: resolve-root\n")
	require.Contains(t, out, "policy: fatal\n")
}

func TestRun_ProbeFailureIsRecorded(t *testing.T) {
	h := seededHost()
	h.ProbeExit = 7
	gw := newFakeGateway(h)
	rep, err := newTestProcedure(t, gw, htmlRoot(), DefaultOptions(testHost)).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateSuccess, rep.State)

	probe := rep.Step("probe-legacy")
	require.Equal(t, StatusFailed, probe.Status)
	require.Contains(t, probe.Error, "exit status 7")
	require.Len(t, probe.Commands, 2)
	require.Equal(t, "curl -sSI -L http://xg.kudafn.com/me", probe.Commands[0].Command)
	require.Equal(t, 7, probe.Commands[0].ExitCode)
}

func TestRun_ProbeOutputIsCut(t *testing.T) {
	h := seededHost()
	h.ProbeResponse = "HTTP/1.1 301 Moved\nLocation: /me/\n\nHTTP/1.1 200 OK\nServer: nginx\n"
	opts := DefaultOptions(testHost)
	opts.ProbeLines = 2
	rep, err := newTestProcedure(t, newFakeGateway(h), htmlRoot(), opts).Run(context.Background())
	require.NoError(t, err)

	probe := rep.Step("probe-legacy")
	require.Equal(t, StatusOK, probe.Status)
	require.Equal(t, "HTTP/1.1 301 Moved\nLocation: /me/\n", probe.Commands[0].Stdout)
}

func TestFirstLines(t *testing.T) {
	require.Equal(t, "a\nb\n", firstLines("a\nb\nc\n", 2))
	require.Equal(t, "a\nb", firstLines("a\nb", 5))
	require.Empty(t, firstLines("a\n", 0))
}
