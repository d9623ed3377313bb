package webroot

import "errors"

// ErrRootNotFound is returned when no candidate holds the index file.
var ErrRootNotFound = errors.New("web root not found")

// Tier identifies where a candidate came from.
type Tier int

const (
	TierConfig Tier = iota + 1
	TierDefault
	TierReverseSearch
)

func (t Tier) String() string {
	switch t {
	case TierConfig:
		return "config"
	case TierDefault:
		return "default"
	case TierReverseSearch:
		return "reverse-search"
	}
	return "unknown"
}

// MarshalYAML renders the tier by name in run reports.
func (t Tier) MarshalYAML() (interface{}, error) { return t.String(), nil }

// Candidate is one directory that may be the web root.
type Candidate struct {
	Path string
	Tier Tier
}

// Resolution is the verified web root.
type Resolution struct {
	Root string
	Tier Tier
	// ConfigFile is the configuration file that mentioned the host, if any.
	ConfigFile string
}

// SelectFirst returns the first candidate for which verify reports true.
// It returns ErrRootNotFound when none does, and stops at the first error
// from verify.
func SelectFirst(candidates []Candidate, verify func(path string) (bool, error)) (Candidate, error) {
	for _, c := range candidates {
		ok, err := verify(c.Path)
		if err != nil {
			return Candidate{}, err
		}
		if ok {
			return c, nil
		}
	}
	return Candidate{}, ErrRootNotFound
}
