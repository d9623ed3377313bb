package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	srv "webroot-sync/tools/sshserv"
)

// A throwaway host for manual runs: one vhost config and a web root under
// /usr/share/nginx/html holding the legacy directories.
func main() {
	host := srv.NewFakeHost()
	host.AddFile("/etc/nginx/conf.d/site.conf", "server {\n    listen 80;\n    server_name xg.kudafn.com;\n    root /usr/share/nginx/html;\n}\n")
	host.AddFile("/usr/share/nginx/html/index.html", "<!doctype html><title>old</title>\n")
	host.AddFile("/usr/share/nginx/html/me/institution/index.html", "legacy\n")

	handlers := host.Handlers()
	addr, stop, err := srv.Start("127.0.0.1:20222", srv.Options{Exec: host.Exec, SFTP: &handlers})
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "failed to start test ssh server:", err)
		os.Exit(1)
	}
	_, _ = fmt.Fprintln(os.Stderr, "test ssh server listening on", addr)
	defer stop()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
}
