package deploy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/rs/zerolog"

	"webroot-sync/remote"
	"webroot-sync/webroot"
)

// Gateway is the remote host as the procedure sees it.
type Gateway interface {
	Run(ctx context.Context, cmd string) (remote.Result, error)
	UploadTree(ctx context.Context, local billy.Filesystem, remoteDir string) (remote.UploadStats, error)
}

// RootResolver finds the web root.
type RootResolver interface {
	Resolve(ctx context.Context) (webroot.Resolution, error)
}

// Procedure runs the step table once against one host.
type Procedure struct {
	gw       Gateway
	resolver RootResolver
	local    billy.Filesystem
	opts     Options
	log      zerolog.Logger
	now      func() time.Time
}

// NewProcedure wires a procedure. local is the build tree to upload.
func NewProcedure(gw Gateway, resolver RootResolver, local billy.Filesystem, opts Options, logger zerolog.Logger) *Procedure {
	return &Procedure{
		gw:       gw,
		resolver: resolver,
		local:    local,
		opts:     opts,
		log:      logger.With().Str("component", "deploy").Logger(),
		now:      time.Now,
	}
}

// execution is the state of one Run.
type execution struct {
	*Procedure
	report  *Report
	root    string
	started time.Time
}

// Run executes the steps in order. It always returns a report; the error is
// non-nil only when a fatal step failed, and wraps that step's cause.
func (p *Procedure) Run(ctx context.Context) (*Report, error) {
	e := &execution{Procedure: p, started: p.now()}
	e.report = &Report{
		Host:    p.opts.Host,
		DryRun:  p.opts.DryRun,
		Started: e.started.Format(time.RFC3339),
	}
	defer func() { e.report.Finished = p.now().Format(time.RFC3339) }()

	for i, s := range steps {
		sr := StepResult{Name: s.name, Policy: s.policy}
		log := p.log.With().Str("step", s.name).Logger()
		log.Debug().Msg("start")

		err := s.run(e, ctx, &sr)
		switch {
		case err != nil:
			sr.Status = StatusFailed
			sr.Error = err.Error()
		case sr.planned():
			sr.Status = StatusPlanned
		default:
			sr.Status = StatusOK
		}
		e.report.Steps = append(e.report.Steps, sr)

		if err == nil {
			log.Info().Str("status", string(sr.Status)).Msg(stepSummary(sr))
			continue
		}
		if s.policy == Tolerated {
			log.Warn().Err(err).Msg("step failed; continuing")
			continue
		}
		log.Error().Err(err).Msg("step failed; aborting")
		for _, rest := range steps[i+1:] {
			e.report.Steps = append(e.report.Steps, StepResult{Name: rest.name, Policy: rest.policy, Status: StatusSkipped})
		}
		e.report.State = s.abort
		return e.report, fmt.Errorf("%s: %w", s.name, err)
	}
	e.report.State = StateSuccess
	return e.report, nil
}

func (sr *StepResult) planned() bool {
	if len(sr.Files) > 0 {
		return true
	}
	for _, c := range sr.Commands {
		if c.Planned {
			return true
		}
	}
	return false
}

func stepSummary(sr StepResult) string {
	if sr.Detail != "" {
		return sr.Detail
	}
	return "done"
}

// exec runs cmd and records it in sr. Mutating commands are only recorded
// during a dry run, and reported back with planned set.
func (e *execution) exec(ctx context.Context, sr *StepResult, cmd string, mutating bool) (res remote.Result, planned bool, err error) {
	if mutating && e.opts.DryRun {
		sr.Commands = append(sr.Commands, CommandRecord{Command: cmd, Planned: true})
		e.log.Info().Str("cmd", cmd).Msg("dry run: not executed")
		return remote.Result{}, true, nil
	}
	res, err = e.gw.Run(ctx, cmd)
	rec := CommandRecord{Command: cmd, ExitCode: res.ExitCode, Stdout: res.Stdout, Stderr: res.Stderr}
	if err != nil {
		rec.Error = err.Error()
	}
	sr.Commands = append(sr.Commands, rec)
	e.log.Debug().Str("cmd", cmd).Int("exit", res.ExitCode).Msg("ran")
	return res, false, err
}

// exitError describes a command that ran but did not exit 0.
func exitError(cmd string, res remote.Result) error {
	out := strings.TrimSpace(res.Output())
	if out == "" {
		return fmt.Errorf("%s: exit status %d", cmd, res.ExitCode)
	}
	return fmt.Errorf("%s: exit status %d: %s", cmd, res.ExitCode, out)
}
