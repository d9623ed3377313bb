package sshserv

import (
	"bufio"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"
)

// FakeHost emulates the handful of shell utilities a deployment run issues
// against an Nginx host: test, grep, cat, head, find, cp, rm, nginx,
// systemctl and curl. Files live in memory keyed by absolute path; directories
// exist implicitly whenever a file lives beneath them or were added with
// AddDir. Pipelines are evaluated left to right with each stage's stdout fed
// to the next.
type FakeHost struct {
	mu       sync.Mutex
	files    map[string]string
	dirs     map[string]bool
	commands []string

	// ConfigTestExit is the status returned by "nginx -t".
	ConfigTestExit int
	// ReloadExit is the status returned by "systemctl reload nginx" and
	// "service nginx reload".
	ReloadExit int
	// ProbeResponse is the header block returned by curl.
	ProbeResponse string
	// ProbeExit is curl's exit status; a non-zero value returns no headers.
	ProbeExit int
}

// NewFakeHost returns an empty host whose nginx and curl invocations succeed.
func NewFakeHost() *FakeHost {
	return &FakeHost{
		files:         map[string]string{},
		dirs:          map[string]bool{},
		ProbeResponse: "HTTP/1.1 404 Not Found\r\nServer: nginx\r\n",
	}
}

// AddFile stores content at p.
func (h *FakeHost) AddFile(p, content string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.files[path.Clean(p)] = content
}

// AddDir records an empty directory at p.
func (h *FakeHost) AddDir(p string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dirs[path.Clean(p)] = true
}

// Exists reports whether p is a file or directory on the host.
func (h *FakeHost) Exists(p string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.isFile(p) || h.isDir(p)
}

// Commands returns every command line received so far, in order.
func (h *FakeHost) Commands() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.commands...)
}

// Exec satisfies ExecFunc.
func (h *FakeHost) Exec(command string) (string, string, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.commands = append(h.commands, command)

	stages, err := splitPipeline(command)
	if err != nil {
		return "", err.Error() + "\n", 2
	}
	var stdin, stderr strings.Builder
	code := 0
	for _, argv := range stages {
		if len(argv) == 0 {
			return "", "syntax error\n", 2
		}
		out, errOut, c := h.run(argv, stdin.String())
		stderr.WriteString(errOut)
		stdin.Reset()
		stdin.WriteString(out)
		code = c
	}
	return stdin.String(), stderr.String(), code
}

func (h *FakeHost) run(argv []string, stdin string) (string, string, int) {
	switch argv[0] {
	case "test":
		return h.test(argv[1:])
	case "cat":
		return h.cat(argv[1:])
	case "head":
		return h.head(argv[1:], stdin)
	case "grep":
		return h.grep(argv[1:])
	case "find":
		return h.find(argv[1:])
	case "cp":
		return h.cp(argv[1:])
	case "rm":
		return h.rm(argv[1:])
	case "nginx":
		if len(argv) > 1 && argv[1] == "-t" {
			if h.ConfigTestExit != 0 {
				return "", "nginx: configuration file /etc/nginx/nginx.conf test failed\n", h.ConfigTestExit
			}
			return "", "nginx: the configuration file /etc/nginx/nginx.conf syntax is ok\nnginx: configuration file /etc/nginx/nginx.conf test is successful\n", 0
		}
		return "", "", h.ReloadExit
	case "systemctl", "service":
		return "", "", h.ReloadExit
	case "curl":
		if h.ProbeExit != 0 {
			return "", "curl: (7) Failed to connect\n", h.ProbeExit
		}
		return h.ProbeResponse, "", 0
	}
	return "", fmt.Sprintf("sh: %s: command not found\n", argv[0]), 127
}

func (h *FakeHost) isFile(p string) bool {
	_, ok := h.files[path.Clean(p)]
	return ok
}

func (h *FakeHost) isDir(p string) bool {
	p = path.Clean(p)
	if p == "/" || h.dirs[p] {
		return true
	}
	prefix := p + "/"
	for f := range h.files {
		if strings.HasPrefix(f, prefix) {
			return true
		}
	}
	for d := range h.dirs {
		if strings.HasPrefix(d, prefix) {
			return true
		}
	}
	return false
}

func (h *FakeHost) test(args []string) (string, string, int) {
	if len(args) != 2 {
		return "", "test: bad arguments\n", 2
	}
	var ok bool
	switch args[0] {
	case "-f":
		ok = h.isFile(args[1])
	case "-d":
		ok = h.isDir(args[1])
	case "-e":
		ok = h.isFile(args[1]) || h.isDir(args[1])
	default:
		return "", "test: unknown operator " + args[0] + "\n", 2
	}
	if ok {
		return "", "", 0
	}
	return "", "", 1
}

func (h *FakeHost) cat(args []string) (string, string, int) {
	var out strings.Builder
	for _, a := range stripDashDash(args) {
		c, ok := h.files[path.Clean(a)]
		if !ok {
			return out.String(), "cat: " + a + ": No such file or directory\n", 1
		}
		out.WriteString(c)
	}
	return out.String(), "", 0
}

func (h *FakeHost) head(args []string, stdin string) (string, string, int) {
	n := 10
	var files []string
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-n" && i+1 < len(args):
			v, err := strconv.Atoi(args[i+1])
			if err != nil {
				return "", "head: invalid number of lines\n", 1
			}
			n = v
			i++
		case args[i] == "--":
		default:
			files = append(files, args[i])
		}
	}
	input := stdin
	if len(files) > 0 {
		c, ok := h.files[path.Clean(files[0])]
		if !ok {
			return "", "head: cannot open '" + files[0] + "' for reading: No such file or directory\n", 1
		}
		input = c
	}
	var out strings.Builder
	sc := bufio.NewScanner(strings.NewReader(input))
	for i := 0; i < n && sc.Scan(); i++ {
		out.WriteString(sc.Text())
		out.WriteByte('\n')
	}
	return out.String(), "", 0
}

// grep supports the "-R -l -E pattern dir" form only.
func (h *FakeHost) grep(args []string) (string, string, int) {
	var operands []string
	for _, a := range args {
		if strings.HasPrefix(a, "-") && len(operands) == 0 {
			continue
		}
		operands = append(operands, a)
	}
	if len(operands) != 2 {
		return "", "grep: bad arguments\n", 2
	}
	re, err := regexp.Compile(operands[0])
	if err != nil {
		return "", "grep: " + err.Error() + "\n", 2
	}
	root := path.Clean(operands[1])
	var matched []string
	for _, f := range h.sortedFiles() {
		if f != root && !strings.HasPrefix(f, root+"/") {
			continue
		}
		for _, line := range strings.Split(h.files[f], "\n") {
			if re.MatchString(line) {
				matched = append(matched, f)
				break
			}
		}
	}
	if len(matched) == 0 {
		return "", "", 1
	}
	return strings.Join(matched, "\n") + "\n", "", 0
}

// find supports the "dir -type f -name name" form only.
func (h *FakeHost) find(args []string) (string, string, int) {
	if len(args) == 0 {
		return "", "find: missing operand\n", 1
	}
	root := path.Clean(args[0])
	var name string
	for i := 1; i+1 < len(args); i++ {
		if args[i] == "-name" {
			name = args[i+1]
		}
	}
	if !h.isDir(root) {
		return "", "find: '" + args[0] + "': No such file or directory\n", 1
	}
	var out strings.Builder
	for _, f := range h.sortedFiles() {
		if !strings.HasPrefix(f, root+"/") && root != "/" {
			continue
		}
		if name == "" || path.Base(f) == name {
			out.WriteString(f)
			out.WriteByte('\n')
		}
	}
	return out.String(), "", 0
}

func (h *FakeHost) cp(args []string) (string, string, int) {
	ops := stripFlags(args)
	if len(ops) != 2 {
		return "", "cp: bad arguments\n", 1
	}
	src, dst := path.Clean(ops[0]), path.Clean(ops[1])
	switch {
	case h.isFile(src):
		h.files[dst] = h.files[src]
	case h.isDir(src):
		for f, c := range h.files {
			if strings.HasPrefix(f, src+"/") {
				h.files[dst+strings.TrimPrefix(f, src)] = c
			}
		}
		for d := range h.dirs {
			if d == src || strings.HasPrefix(d, src+"/") {
				h.dirs[dst+strings.TrimPrefix(d, src)] = true
			}
		}
		h.dirs[dst] = true
	default:
		return "", "cp: cannot stat '" + ops[0] + "': No such file or directory\n", 1
	}
	return "", "", 0
}

func (h *FakeHost) rm(args []string) (string, string, int) {
	for _, t := range stripFlags(args) {
		t = path.Clean(t)
		delete(h.files, t)
		delete(h.dirs, t)
		for f := range h.files {
			if strings.HasPrefix(f, t+"/") {
				delete(h.files, f)
			}
		}
		for d := range h.dirs {
			if strings.HasPrefix(d, t+"/") {
				delete(h.dirs, d)
			}
		}
	}
	return "", "", 0
}

func (h *FakeHost) sortedFiles() []string {
	out := make([]string, 0, len(h.files))
	for f := range h.files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func stripDashDash(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a != "--" {
			out = append(out, a)
		}
	}
	return out
}

// stripFlags drops leading options and the "--" terminator.
func stripFlags(args []string) []string {
	for i, a := range args {
		if a == "--" {
			return args[i+1:]
		}
		if !strings.HasPrefix(a, "-") {
			return args[i:]
		}
	}
	return nil
}

// splitPipeline parses a command line into pipeline stages with quotes
// removed. Redirections such as "2>/dev/null" are dropped; any construct
// other than a plain command or a "|" pipeline is rejected.
func splitPipeline(s string) ([][]string, error) {
	f, err := syntax.NewParser().Parse(strings.NewReader(s), "")
	if err != nil {
		return nil, err
	}
	if len(f.Stmts) != 1 {
		return nil, fmt.Errorf("expected one command, got %d", len(f.Stmts))
	}
	var stages [][]string
	if err := collectStages(f.Stmts[0], &stages); err != nil {
		return nil, err
	}
	return stages, nil
}

func collectStages(st *syntax.Stmt, out *[][]string) error {
	switch c := st.Cmd.(type) {
	case *syntax.BinaryCmd:
		if c.Op != syntax.Pipe {
			return fmt.Errorf("unsupported operator %s", c.Op)
		}
		if err := collectStages(c.X, out); err != nil {
			return err
		}
		return collectStages(c.Y, out)
	case *syntax.CallExpr:
		argv, err := expand.Fields(nil, c.Args...)
		if err != nil {
			return err
		}
		*out = append(*out, argv)
		return nil
	case nil:
		*out = append(*out, nil)
		return nil
	}
	return fmt.Errorf("unsupported command %T", st.Cmd)
}
