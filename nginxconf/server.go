package nginxconf

import (
	"regexp"
	"strings"
)

// ServerBlock summarizes one server {...} block.
type ServerBlock struct {
	// Names lists every server_name argument in the block, in order.
	Names []string
	// Root is the server-level root, else the first root nested inside the
	// block (for example in a location) in document order.
	Root string
	// InheritedRoot is the root set in the nearest enclosing context, as
	// nginx would apply it when the block sets none.
	InheritedRoot string
	Line          int
}

// EffectiveRoot returns Root, falling back to InheritedRoot.
func (b ServerBlock) EffectiveRoot() string {
	if b.Root != "" {
		return b.Root
	}
	return b.InheritedRoot
}

// ServerBlocks returns every server block in the tree in document order.
func ServerBlocks(ds []*Directive) []ServerBlock {
	var out []ServerBlock
	collectServers(ds, "", &out)
	return out
}

func collectServers(ds []*Directive, inherited string, out *[]ServerBlock) {
	if r := directRoot(ds); r != "" {
		inherited = r
	}
	for _, d := range ds {
		if !d.IsBlock() {
			continue
		}
		if d.Name == "server" {
			*out = append(*out, newServerBlock(d, inherited))
			continue
		}
		collectServers(d.Block, inherited, out)
	}
}

func newServerBlock(d *Directive, inherited string) ServerBlock {
	b := ServerBlock{Line: d.Line, InheritedRoot: inherited}
	for _, c := range d.Block {
		if c.Name == "server_name" {
			b.Names = append(b.Names, c.Args...)
		}
	}
	if r := directRoot(d.Block); r != "" {
		b.Root = r
	} else if r, ok := FirstRoot(d.Block); ok {
		b.Root = r
	}
	return b
}

// directRoot returns the first root directive among ds itself.
func directRoot(ds []*Directive) string {
	for _, d := range ds {
		if d.Name == "root" && len(d.Args) > 0 {
			return d.Args[0]
		}
	}
	return ""
}

// FirstRoot returns the argument of the first root directive anywhere in the
// tree, depth first in document order.
func FirstRoot(ds []*Directive) (string, bool) {
	for _, d := range ds {
		if d.Name == "root" && len(d.Args) > 0 {
			return d.Args[0], true
		}
		if d.IsBlock() {
			if r, ok := FirstRoot(d.Block); ok {
				return r, true
			}
		}
	}
	return "", false
}

// Matches reports whether host is served by the block according to nginx
// server_name rules: exact names (case-insensitive), a leading "*." or
// trailing ".*" wildcard, a leading "." for a domain and its subdomains, and
// "~" regular expressions.
func (b ServerBlock) Matches(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" {
		return false
	}
	for _, n := range b.Names {
		if nameMatches(n, host) {
			return true
		}
	}
	return false
}

// Mentions reports whether host appears in any server_name argument of the
// block, compared case-insensitively as text. A block naming
// www.example.com therefore mentions example.com. Matches implies Mentions
// for every non-regex name.
func (b ServerBlock) Mentions(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" {
		return false
	}
	for _, n := range b.Names {
		if strings.Contains(strings.ToLower(n), host) {
			return true
		}
	}
	return false
}

func nameMatches(name, host string) bool {
	if strings.HasPrefix(name, "~") {
		re, err := regexp.Compile(name[1:])
		return err == nil && re.MatchString(host)
	}
	name = strings.ToLower(name)
	switch {
	case name == "" || name == "_":
		return false
	case strings.HasPrefix(name, "*."):
		suffix := name[1:]
		return len(host) > len(suffix) && strings.HasSuffix(host, suffix)
	case strings.HasSuffix(name, ".*"):
		prefix := name[:len(name)-1]
		return len(host) > len(prefix) && strings.HasPrefix(host, prefix)
	case strings.HasPrefix(name, "."):
		return host == name[1:] || strings.HasSuffix(host, name)
	}
	return name == host
}
