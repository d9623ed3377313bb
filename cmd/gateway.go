package cmd

import (
	"webroot-sync/deploy"
	"webroot-sync/remote"
)

// gateway is the remote session as the CLI uses it.
type gateway interface {
	deploy.Gateway
	EnsureFileTransfer() error
	Close() error
}

func connectRemote(opts remote.Options) (gateway, error) {
	s, err := remote.Connect(opts)
	if err != nil {
		// Return a nil interface, not a typed nil *remote.Session.
		return nil, err
	}
	return s, nil
}
