package session

// State is the authentication state of the session.
type State int

const (
	// Unauthenticated holds no tokens.
	Unauthenticated State = iota
	// Authenticating is waiting on a login or register call.
	Authenticating
	// Authenticated holds a pair believed to be valid.
	Authenticated
	// Refreshing holds a pair that is being exchanged for a new one.
	Refreshing
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Refreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}

// LoggedIn reports whether the state counts as signed in.
func (s State) LoggedIn() bool {
	return s == Authenticated || s == Refreshing
}
