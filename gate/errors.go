package gate

import "errors"

// Sentinel errors returned by Gate.Authorize. A *Denial unwraps to either
// ErrUnauthenticated or ErrForbidden.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNoPolicyDefined = errors.New("no policy defined for resource")
)

// Denial is the error returned when a decision is not Allow.
// Reason carries the human readable message for the caller.
type Denial struct {
	Reason    string
	Challenge bool
}

// Unauthenticated builds a denial asking the caller to log in.
func Unauthenticated(reason string) *Denial {
	return &Denial{Reason: reason, Challenge: true}
}

// Forbidden builds a denial for an authenticated (or anonymous) caller
// who is not allowed to perform the action.
func Forbidden(reason string) *Denial {
	return &Denial{Reason: reason}
}

func (d *Denial) Error() string {
	if d.Reason != "" {
		return d.Reason
	}
	return d.Unwrap().Error()
}

func (d *Denial) Unwrap() error {
	if d.Challenge {
		return ErrUnauthenticated
	}
	return ErrForbidden
}
