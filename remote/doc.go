// Package remote is the gateway to the single host a run operates on.
//
// A Session wraps one authenticated SSH connection and exposes the only two
// primitives the rest of the tool needs: running one shell command and
// reading back its exit code, stdout and stderr (Run), and mirroring a local
// directory tree onto a remote directory over SFTP (UploadTree). Commands run
// one at a time on a fresh exec channel; nothing is retried.
//
// Start with Session.go for the lifecycle, runRemoteCommand.go for command
// execution and uploadTree.go for the file transfer.
package remote
