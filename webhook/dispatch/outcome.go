package dispatch

// Status is the per-event application result
type Status int

const (
	Applied Status = iota + 1
	AlreadyApplied
	Failed
	// Ignored events have no handler and were only acknowledged
	Ignored
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case Applied:
		return "applied"
	case AlreadyApplied:
		return "already-applied"
	case Failed:
		return "error"
	case Ignored:
		return "ignored"
	default:
		return "unknown"
	}
}

// Outcome is what the dispatcher reports for one event. Err is set only when Status is Failed.
type Outcome struct {
	Status Status
	Reason string
	Err    error
}

func applied() Outcome {
	return Outcome{Status: Applied}
}

func alreadyApplied(reason string) Outcome {
	return Outcome{Status: AlreadyApplied, Reason: reason}
}

func failed(err error) Outcome {
	return Outcome{Status: Failed, Reason: err.Error(), Err: err}
}
