package cmd

import (
	"bytes"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/sftp"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"webroot-sync/tools/sshserv"
)

// writeTemp creates a temp file with content and returns its path.
func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

// resetConfig clears global configuration so tests don't leak state.
func resetConfig() {
	viper.Reset()
	bindEnv()
	// Reset flags to defaults and clear Changed status; this also resets the
	// cfg* globals they point at.
	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	cfgEnvFile = ""
	cfgEnvErr = nil
	rootCmd.SetOut(nil)
	rootCmd.SetErr(nil)
}

// execute runs the root command with args and returns stdout, stderr and the
// command error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

// writeDist creates a small frontend build and returns its directory.
func writeDist(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "dist")
	writeTemp(t, dir, "index.html", "<!doctype html><html><head><title>new</title></head><body></body></html>\n")
	writeTemp(t, dir, "assets/app.js", "console.log('new')\n")
	return dir
}

// fakeNginxHost starts an SSH+SFTP server backed by a fake Nginx host whose
// web root is /usr/share/nginx/html. Exec commands and SFTP share one file
// store.
type fakeNginxHost struct {
	*sshserv.FakeHost
	addr string
	host string
	port string
}

func startFakeNginxHost(t *testing.T, disableSFTP bool) *fakeNginxHost {
	t.Helper()
	h := sshserv.NewFakeHost()
	h.AddFile("/usr/share/nginx/html/index.html", "<!doctype html><title>old</title>\n")
	h.AddFile("/usr/share/nginx/html/me/institution/index.html", "legacy\n")
	handlers := h.Handlers()
	addr, stop, err := sshserv.Start("127.0.0.1:0", sshserv.Options{Exec: h.Exec, SFTP: &handlers, DisableSFTP: disableSFTP})
	require.NoError(t, err)
	t.Cleanup(stop)
	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	return &fakeNginxHost{FakeHost: h, addr: addr, host: host, port: port}
}

// connArgs are the flags that reach the fake host.
func (f *fakeNginxHost) connArgs() []string {
	return []string{"--host", f.host, "--port", f.port, "--password", "pw", "--strict-host-key=false", "--conn-timeout", "5s"}
}

// readRemote reads a file back over SFTP.
func (f *fakeNginxHost) readRemote(t *testing.T, p string) string {
	t.Helper()
	client, err := ssh.Dial("tcp", f.addr, &ssh.ClientConfig{User: "root", HostKeyCallback: ssh.InsecureIgnoreHostKey()})
	require.NoError(t, err)
	defer func() { _ = client.Close() }()
	sc, err := sftp.NewClient(client)
	require.NoError(t, err)
	defer func() { _ = sc.Close() }()
	file, err := sc.Open(p)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()
	b, err := io.ReadAll(file)
	require.NoError(t, err)
	return string(b)
}
