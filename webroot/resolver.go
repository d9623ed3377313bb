package webroot

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"webroot-sync/nginxconf"
	"webroot-sync/remote"
)

// Runner executes one shell command on the remote host.
type Runner interface {
	Run(ctx context.Context, cmd string) (remote.Result, error)
}

// Resolver finds the web root for one host. It only reads from the host.
type Resolver struct {
	run  Runner
	opts Options
	log  zerolog.Logger
}

// NewResolver returns a resolver issuing commands through run.
func NewResolver(run Runner, opts Options, logger zerolog.Logger) *Resolver {
	return &Resolver{run: run, opts: opts, log: logger.With().Str("component", "webroot").Logger()}
}

// Resolve returns the first candidate that holds the index file. Transport
// errors abort resolution; a candidate that merely fails the check does not.
func (r *Resolver) Resolve(ctx context.Context) (Resolution, error) {
	candidates, confFile, err := r.Candidates(ctx)
	if err != nil {
		return Resolution{}, err
	}

	c, err := SelectFirst(candidates, func(p string) (bool, error) { return r.hasIndex(ctx, p) })
	if err == nil {
		res := Resolution{Root: c.Path, Tier: c.Tier}
		if c.Tier == TierConfig {
			res.ConfigFile = confFile
		}
		return res, nil
	}
	if !errors.Is(err, ErrRootNotFound) {
		return Resolution{}, err
	}

	r.log.Info().Str("asset", r.opts.LegacyAsset).Msg("no candidate has an index file; searching for legacy asset")
	for _, dir := range r.opts.SearchDirs {
		root, ok, err := r.reverseSearch(ctx, dir)
		if err != nil {
			return Resolution{}, err
		}
		if ok {
			return Resolution{Root: root, Tier: TierReverseSearch}, nil
		}
	}
	return Resolution{}, fmt.Errorf("%w for host %s", ErrRootNotFound, r.opts.Host)
}

// Candidates returns the config-tier candidates followed by the defaults,
// and the configuration file the config tier read.
func (r *Resolver) Candidates(ctx context.Context) ([]Candidate, string, error) {
	var out []Candidate
	roots, confFile, err := r.configRoots(ctx)
	if err != nil {
		return nil, "", err
	}
	for _, p := range roots {
		out = append(out, Candidate{Path: p, Tier: TierConfig})
	}
	for _, p := range r.opts.DefaultRoots {
		out = append(out, Candidate{Path: p, Tier: TierDefault})
	}
	return out, confFile, nil
}

// configRoots finds the first configuration file naming the host and
// returns the roots of the server blocks that serve it.
func (r *Resolver) configRoots(ctx context.Context) ([]string, string, error) {
	pattern := "server_name.*" + regexp.QuoteMeta(r.opts.Host)
	var file string
	for _, p := range r.opts.ConfigPaths {
		res, err := r.run.Run(ctx, remote.Command("grep", "-R", "-l", "-E", pattern, p)+" 2>/dev/null")
		if err != nil {
			return nil, "", err
		}
		if f := firstLine(res.Stdout); f != "" {
			file = f
			break
		}
	}
	if file == "" {
		r.log.Debug().Msg("no nginx configuration mentions the host")
		return nil, "", nil
	}

	res, err := r.run.Run(ctx, remote.Command("cat", "--", file))
	if err != nil {
		return nil, "", err
	}
	if !res.OK() {
		r.log.Warn().Str("file", file).Str("stderr", strings.TrimSpace(res.Stderr)).Msg("cannot read nginx configuration")
		return nil, file, nil
	}
	ds, err := nginxconf.Parse([]byte(res.Stdout))
	if err != nil {
		r.log.Warn().Err(err).Str("file", file).Msg("cannot parse nginx configuration; skipping config candidates")
		return nil, file, nil
	}
	roots := RootsForHost(ds, r.opts.Host)
	r.log.Debug().Str("file", file).Strs("roots", roots).Msg("config candidates")
	return roots, file, nil
}

// RootsForHost returns the roots of every server block that serves host or
// names it inside a longer server_name, in block order. Only when no block
// carries host in either sense does it fall back to the first root anywhere
// in the file.
func RootsForHost(ds []*nginxconf.Directive, host string) []string {
	var roots []string
	matched := false
	for _, b := range nginxconf.ServerBlocks(ds) {
		if !b.Matches(host) && !b.Mentions(host) {
			continue
		}
		matched = true
		if root := b.EffectiveRoot(); root != "" {
			roots = append(roots, root)
		}
	}
	if !matched {
		if root, ok := nginxconf.FirstRoot(ds); ok {
			roots = append(roots, root)
		}
	}
	return roots
}

// reverseSearch looks for the legacy asset under dir and walks up from its
// directory to the first one that holds the index file.
func (r *Resolver) reverseSearch(ctx context.Context, dir string) (string, bool, error) {
	cmd := remote.Command("find", dir, "-type", "f", "-name", r.opts.LegacyAsset) + " 2>/dev/null | head -n 1"
	res, err := r.run.Run(ctx, cmd)
	if err != nil {
		return "", false, err
	}
	hit := firstLine(res.Stdout)
	if hit == "" {
		return "", false, nil
	}
	r.log.Debug().Str("asset", hit).Msg("legacy asset found")

	base := path.Dir(hit)
	for i := 0; i < r.opts.MaxAscend; i++ {
		ok, err := r.hasIndex(ctx, base)
		if err != nil {
			return "", false, err
		}
		if ok {
			return base, true, nil
		}
		if base == "/" {
			break
		}
		base = path.Dir(base)
	}
	return "", false, nil
}

func (r *Resolver) hasIndex(ctx context.Context, root string) (bool, error) {
	res, err := r.run.Run(ctx, remote.Command("test", "-f", path.Join(root, r.opts.IndexFile)))
	if err != nil {
		return false, err
	}
	r.log.Debug().Str("root", root).Bool("index", res.OK()).Msg("checked candidate")
	return res.OK(), nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}
