package remote

import (
	"net"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// DefaultPort is used when Options.Port is zero.
const DefaultPort = 22

// Options describes how to reach and authenticate against the remote host.
type Options struct {
	Host           string
	Port           int
	User           string
	Password       string
	KeyPath        string
	Passphrase     string
	KnownHostsPath string
	// StrictHostKey requires the host key to be present in KnownHostsPath.
	StrictHostKey bool
	// Timeout bounds dialing and the SSH handshake.
	Timeout time.Duration
	// CommandTimeout bounds each Run call; 0 disables it.
	CommandTimeout time.Duration
	Logger         *zerolog.Logger
}

// Address returns host:port, falling back to DefaultPort.
func (o Options) Address() string {
	port := o.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(o.Host, strconv.Itoa(port))
}

func (o Options) logger() zerolog.Logger {
	if o.Logger == nil {
		return zerolog.Nop()
	}
	return *o.Logger
}
