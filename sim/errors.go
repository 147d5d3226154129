package sim

import "fmt"

// InvalidTimeError is returned when an event is scheduled before the current
// time.
type InvalidTimeError struct {
	Now VTimeInSec
	At  VTimeInSec
}

func (e *InvalidTimeError) Error() string {
	return fmt.Sprintf(
		"sim: cannot schedule event at %.10f, current time is %.10f",
		e.At, e.Now)
}

// InvalidDelayError is returned when an event is scheduled with a negative
// delay.
type InvalidDelayError struct {
	Delay VTimeInSec
}

func (e *InvalidDelayError) Error() string {
	return fmt.Sprintf("sim: invalid delay %.10f", e.Delay)
}

// CancelError is returned when canceling an event or a command that is not
// queued anymore.
type CancelError struct {
	ID    string
	State EventState
}

func (e *CancelError) Error() string {
	return fmt.Sprintf("sim: cannot cancel %s, it is %s", e.ID, e.State)
}
