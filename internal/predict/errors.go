package predict

import (
	"github.com/abhisek/leetprob/internal/scoring"
)

// ErrInsufficientData matches every *InsufficientDataError.
var ErrInsufficientData = scoring.ErrInsufficientData

// Reason says why a calculation stopped without a score.
type Reason string

const (
	ReasonNoProblem        Reason = "no problem given"
	ReasonNotAuthenticated Reason = "not signed in"
	ReasonUnknownProblem   Reason = "unknown problem"
	ReasonNoSubmissions    Reason = "no submissions yet"
	ReasonNoResolvable     Reason = "no submissions with known problem details"
)

// InsufficientDataError is the terminal "nothing to score" state. It is not a
// failure: callers report the reason and carry on.
type InsufficientDataError struct {
	Reason Reason
	Slug   string
}

func (e *InsufficientDataError) Error() string {
	if e.Slug != "" {
		return "insufficient data for " + e.Slug + ": " + string(e.Reason)
	}
	return "insufficient data: " + string(e.Reason)
}

func (e *InsufficientDataError) Unwrap() error { return ErrInsufficientData }

func insufficient(reason Reason, slug string) error {
	return &InsufficientDataError{Reason: reason, Slug: slug}
}
