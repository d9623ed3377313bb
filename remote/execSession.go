package remote

import "io"

// execSession runs exactly one command and is then closed.
type execSession interface {
	Run(cmd string, stdout, stderr io.Writer) error
	Close() error
}
