package remote

// sessionClient is a minimal interface to obtain a command session
type sessionClient interface {
	NewSession() (execSession, error)
}
