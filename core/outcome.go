package core

// Outcome tells callers how an operation ended without forcing them to inspect errors.
type Outcome int

const (
	// OutcomeOK means the operation did what was asked.
	OutcomeOK Outcome = iota
	// OutcomeFallback means a collaborator failed and a documented substitute was used.
	OutcomeFallback
	// OutcomeLimited means the user has no quota left today.
	OutcomeLimited
	// OutcomeFailed means the operation had no effect; the failure was logged.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeFallback:
		return "fallback"
	case OutcomeLimited:
		return "limited"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Profile is what the chat platform tells us about the sender.
type Profile struct {
	UserId    int64
	Username  string
	FirstName string
	LastName  string
}
