// Package deploy runs the remediation procedure against a resolved web root:
// back up the current entry points, delete the legacy directories, upload the
// new build, test and reload Nginx, then read back what is being served.
//
// The procedure is a fixed table of steps (steps.go). Each step either aborts
// the run when it fails or is tolerated and merely recorded. Every run yields
// a Report, which can be written out as YAML.
package deploy
