package blend

// State is the blend controller's position in the idle/attack cycle.
type State int

const (
	// StateIdle loops the idle clip. It is the initial state.
	StateIdle State = iota
	// StateAttacking plays the attack clip once.
	StateAttacking
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateAttacking:
		return "Attacking"
	default:
		return "Unknown"
	}
}

// Reason records what caused a transition.
type Reason int

const (
	// ReasonRequested is an attack request from the caller.
	ReasonRequested Reason = iota
	// ReasonFinished is the mixer reporting the attack action finished.
	ReasonFinished
	// ReasonFallback is the fallback timer expiring before the finished event arrived.
	ReasonFallback
	// ReasonRetracted is the caller withdrawing the attack intent.
	ReasonRetracted
)

func (r Reason) String() string {
	switch r {
	case ReasonRequested:
		return "requested"
	case ReasonFinished:
		return "finished"
	case ReasonFallback:
		return "fallback"
	case ReasonRetracted:
		return "retracted"
	default:
		return "unknown"
	}
}
