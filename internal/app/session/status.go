package session

// Status is the lifecycle state of the process-wide session.
type Status int

const (
	// StatusInitializing is the state before persisted credentials are read.
	StatusInitializing Status = iota
	// StatusOptimistic shows a cached identity while it is revalidated.
	StatusOptimistic
	StatusAuthenticated
	StatusAnonymous
)

func (s Status) String() string {
	switch s {
	case StatusInitializing:
		return "initializing"
	case StatusOptimistic:
		return "optimistic"
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	}
	return "unknown"
}

// HasIdentity reports whether a token and identity are held in this state.
func (s Status) HasIdentity() bool {
	return s == StatusOptimistic || s == StatusAuthenticated
}

// Trigger is what caused a transition.
type Trigger int

const (
	TriggerRestored Trigger = iota
	TriggerNothingStored
	TriggerRevalidated
	TriggerRejected
	TriggerUnreachable
	TriggerSignedIn
	TriggerSignedOut
	TriggerExpired
	TriggerIdentityUpdated
)

func (t Trigger) String() string {
	switch t {
	case TriggerRestored:
		return "restored"
	case TriggerNothingStored:
		return "nothing_stored"
	case TriggerRevalidated:
		return "revalidated"
	case TriggerRejected:
		return "rejected"
	case TriggerUnreachable:
		return "unreachable"
	case TriggerSignedIn:
		return "signed_in"
	case TriggerSignedOut:
		return "signed_out"
	case TriggerExpired:
		return "expired"
	case TriggerIdentityUpdated:
		return "identity_updated"
	}
	return "unknown"
}

// Next is the session state machine. It returns the status reached from
// `from` on trigger t, and false when t is not valid in that state.
//
//	Initializing --restored--------> Optimistic --revalidated--> Authenticated
//	Initializing --nothing_stored--> Anonymous
//	Optimistic   --rejected|unreachable-------> Anonymous
//	any          --signed_in-------> Authenticated
//	any          --signed_out------> Anonymous
func Next(from Status, t Trigger) (Status, bool) {
	switch t {
	case TriggerSignedIn:
		return StatusAuthenticated, true
	case TriggerSignedOut:
		return StatusAnonymous, true
	}

	switch from {
	case StatusInitializing:
		switch t {
		case TriggerRestored:
			return StatusOptimistic, true
		case TriggerNothingStored:
			return StatusAnonymous, true
		}
	case StatusOptimistic:
		switch t {
		case TriggerRevalidated:
			return StatusAuthenticated, true
		case TriggerRejected, TriggerUnreachable, TriggerExpired:
			return StatusAnonymous, true
		case TriggerIdentityUpdated:
			return StatusOptimistic, true
		}
	case StatusAuthenticated:
		switch t {
		case TriggerRevalidated, TriggerIdentityUpdated:
			return StatusAuthenticated, true
		case TriggerUnreachable:
			// A later revalidation that cannot reach the backend keeps the
			// session; only the startup check is strict.
			return StatusAuthenticated, true
		case TriggerRejected, TriggerExpired:
			return StatusAnonymous, true
		}
	}
	return from, false
}
