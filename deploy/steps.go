package deploy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/go-git/go-billy/v5/util"

	"webroot-sync/remote"
)

// backupTimeFormat is appended to backup copies as ".bak-<timestamp>".
const backupTimeFormat = "20060102-150405"

type step struct {
	name   string
	policy Policy
	// abort is the terminal state reported when a fatal step fails.
	abort State
	run   func(*execution, context.Context, *StepResult) error
}

var steps = []step{
	{name: "resolve-root", policy: Fatal, abort: StateAbortedNoRoot, run: (*execution).resolveRoot},
	{name: "backup", policy: Tolerated, run: (*execution).backup},
	{name: "remove-legacy", policy: Tolerated, run: (*execution).removeLegacy},
	{name: "upload", policy: Fatal, abort: StateAbortedUploadFailed, run: (*execution).upload},
	{name: "config-test", policy: Tolerated, run: (*execution).configTest},
	{name: "reload", policy: Tolerated, run: (*execution).reload},
	{name: "inspect-index", policy: Tolerated, run: (*execution).inspectIndex},
	{name: "probe-legacy", policy: Tolerated, run: (*execution).probeLegacy},
}

// StepNames lists the steps in execution order.
func StepNames() []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.name
	}
	return out
}

func (e *execution) resolveRoot(ctx context.Context, sr *StepResult) error {
	res, err := e.resolver.Resolve(ctx)
	if err != nil {
		return err
	}
	e.root = res.Root
	e.report.Root = res.Root
	e.report.Tier = res.Tier
	e.report.ConfigFile = res.ConfigFile
	sr.Detail = fmt.Sprintf("web root %s (%s)", res.Root, res.Tier)
	return nil
}

// backup copies each existing entry to <entry>.bak-<timestamp>. Missing
// entries are skipped.
func (e *execution) backup(ctx context.Context, sr *StepResult) error {
	suffix := ".bak-" + e.started.Format(backupTimeFormat)
	var errs []error
	var copied []string
	for _, entry := range e.opts.BackupEntries {
		src := path.Join(e.root, entry)
		res, _, err := e.exec(ctx, sr, remote.Command("test", "-e", src), false)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !res.OK() {
			e.log.Info().Str("path", src).Msg("nothing to back up")
			continue
		}
		cmd := remote.Command("cp", "-a", src, src+suffix)
		res, planned, err := e.exec(ctx, sr, cmd, true)
		switch {
		case err != nil:
			errs = append(errs, err)
		case planned:
		case !res.OK():
			errs = append(errs, exitError(cmd, res))
		default:
			copied = append(copied, src+suffix)
		}
	}
	if len(copied) > 0 {
		sr.Detail = "backed up to " + strings.Join(copied, ", ")
	}
	return errors.Join(errs...)
}

// removeLegacy deletes the legacy directories. rm -f makes absence a no-op.
func (e *execution) removeLegacy(ctx context.Context, sr *StepResult) error {
	if len(e.opts.LegacyDirs) == 0 {
		return nil
	}
	args := []string{"-rf", "--"}
	for _, d := range e.opts.LegacyDirs {
		args = append(args, path.Join(e.root, d))
	}
	cmd := remote.Command("rm", args...)
	res, planned, err := e.exec(ctx, sr, cmd, true)
	if err != nil {
		return err
	}
	if planned {
		return nil
	}
	if !res.OK() {
		return exitError(cmd, res)
	}
	sr.Detail = "removed " + strings.Join(args[2:], ", ")
	return nil
}

func (e *execution) upload(ctx context.Context, sr *StepResult) error {
	if e.opts.DryRun {
		files, err := listFiles(e)
		if err != nil {
			return err
		}
		sr.Files = files
		sr.Detail = fmt.Sprintf("would upload %d files to %s", len(files), e.root)
		return nil
	}
	stats, err := e.gw.UploadTree(ctx, e.local, e.root)
	e.report.Upload = &stats
	if err != nil {
		return err
	}
	sr.Detail = fmt.Sprintf("uploaded %d files (%d bytes) in %d directories to %s", stats.Files, stats.Bytes, stats.Dirs, e.root)
	return nil
}

// listFiles returns the regular files of the local build, relative to its
// root.
func listFiles(e *execution) ([]string, error) {
	var files []string
	err := util.Walk(e.local, "/", func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			files = append(files, remote.RelativePath(p))
		}
		return nil
	})
	return files, err
}

func (e *execution) configTest(ctx context.Context, sr *StepResult) error {
	cmd := e.opts.ConfigTestCommand
	res, planned, err := e.exec(ctx, sr, cmd, true)
	if err != nil || planned {
		return err
	}
	e.log.Info().Str("output", strings.TrimSpace(res.Stdout+res.Stderr)).Msg("config test")
	if !res.OK() {
		return exitError(cmd, res)
	}
	return nil
}

// reload tries each reload command until one succeeds.
func (e *execution) reload(ctx context.Context, sr *StepResult) error {
	var errs []error
	for _, cmd := range e.opts.ReloadCommands {
		res, planned, err := e.exec(ctx, sr, cmd, true)
		switch {
		case planned:
			return nil
		case err != nil:
			errs = append(errs, err)
		case !res.OK():
			errs = append(errs, exitError(cmd, res))
		default:
			sr.Detail = "reloaded with " + cmd
			return nil
		}
		e.log.Debug().Str("cmd", cmd).Msg("reload command failed; trying next")
	}
	return errors.Join(errs...)
}

func (e *execution) inspectIndex(ctx context.Context, sr *StepResult) error {
	cmd := remote.Command("head", "-n", strconv.Itoa(e.opts.InspectLines), path.Join(e.root, e.opts.IndexFile))
	res, _, err := e.exec(ctx, sr, cmd, false)
	if err != nil {
		return err
	}
	if !res.OK() {
		return exitError(cmd, res)
	}
	e.log.Info().Str("output", strings.TrimSpace(res.Stdout)).Msg("served index")
	return nil
}

// probeLegacy fetches each legacy URL from the host itself. curl runs on its
// own so its exit status decides the outcome; the headers are cut to
// ProbeLines here.
func (e *execution) probeLegacy(ctx context.Context, sr *StepResult) error {
	base := strings.TrimRight(e.opts.ProbeBaseURL, "/")
	var errs []error
	for _, p := range e.opts.ProbePaths {
		cmd := remote.Command("curl", "-sSI", "-L", base+p)
		res, _, err := e.exec(ctx, sr, cmd, false)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		res.Stdout = firstLines(res.Stdout, e.opts.ProbeLines)
		sr.Commands[len(sr.Commands)-1].Stdout = res.Stdout
		if !res.OK() {
			errs = append(errs, exitError(cmd, res))
			continue
		}
		e.log.Info().Str("url", base+p).Str("output", strings.TrimSpace(res.Stdout)).Msg("probe")
	}
	return errors.Join(errs...)
}

// firstLines returns at most n lines of s, keeping line terminators.
func firstLines(s string, n int) string {
	end := 0
	for i := 0; i < n; i++ {
		j := strings.IndexByte(s[end:], '\n')
		if j < 0 {
			return s
		}
		end += j + 1
	}
	return s[:end]
}
