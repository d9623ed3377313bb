// Package webroot works out which directory on the remote host Nginx serves a
// virtual host from.
//
// Candidates come from three tiers tried in order: roots declared in the
// Nginx configuration for the host, a fixed list of conventional locations,
// and finally a search for a file known to ship with the previous build. The
// first candidate that already holds an index file wins.
package webroot
