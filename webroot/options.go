package webroot

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// Options controls where the resolver looks.
type Options struct {
	Host         string   `yaml:"-"`
	IndexFile    string   `yaml:"index_file"`
	ConfigPaths  []string `yaml:"config_paths"`
	DefaultRoots []string `yaml:"default_roots"`
	SearchDirs   []string `yaml:"search_dirs"`
	// LegacyAsset is a file name the previous build is known to contain.
	LegacyAsset string `yaml:"legacy_asset"`
	// MaxAscend is how many directories, starting with the one holding the
	// legacy asset, are checked on the way up.
	MaxAscend int `yaml:"max_ascend"`
}

// DefaultOptions returns the stock search locations for host.
func DefaultOptions(host string) Options {
	return Options{
		Host:      host,
		IndexFile: "index.html",
		ConfigPaths: []string{
			"/etc/nginx/sites-enabled",
			"/etc/nginx/conf.d",
			"/etc/nginx/nginx.conf",
		},
		DefaultRoots: DefaultRoots(host),
		SearchDirs:   []string{"/var/www", "/usr/share/nginx", "/srv", "/data", "/home/www"},
		LegacyAsset:  "index-TYfQc_0-.js",
		MaxAscend:    4,
	}
}

// DefaultRoots lists the conventional web roots for host: /var/www/<first
// label>, /var/www/<host>, then the distribution defaults.
func DefaultRoots(host string) []string {
	var out []string
	if host != "" {
		label, _, _ := strings.Cut(host, ".")
		out = append(out, path.Join("/var/www", label))
		if label != host {
			out = append(out, path.Join("/var/www", host))
		}
	}
	return append(out,
		"/var/www/html",
		"/usr/share/nginx/html",
		"/srv/www",
		"/data/www",
		"/data/nginx/html",
	)
}

// Validate reports the first invalid field.
func (o Options) Validate() error {
	if o.Host == "" {
		return errors.New("host is required")
	}
	if o.IndexFile == "" || strings.Contains(o.IndexFile, "/") {
		return fmt.Errorf("index file %q must be a plain file name", o.IndexFile)
	}
	if o.LegacyAsset == "" || strings.Contains(o.LegacyAsset, "/") {
		return fmt.Errorf("legacy asset %q must be a plain file name", o.LegacyAsset)
	}
	if o.MaxAscend < 0 {
		return fmt.Errorf("max ascend must not be negative, got %d", o.MaxAscend)
	}
	for _, group := range [][]string{o.ConfigPaths, o.DefaultRoots, o.SearchDirs} {
		for _, p := range group {
			if !path.IsAbs(p) {
				return fmt.Errorf("path %q must be absolute", p)
			}
		}
	}
	return nil
}
