package sim

import "fmt"

// VTimeInSec defines the time in the simulated space in the unit of second
type VTimeInSec float64

// Payload is the work carried by an event or a command.
type Payload func()

// EventState is the lifecycle stage of an event or a command.
type EventState int

// The states an event or a command can be in. An item moves from
// NotSubmitted to Queued, and from Queued either to Running and then
// Finished, or directly to Canceled. A running item that cancels itself ends
// up Canceled.
const (
	EventNotSubmitted EventState = iota
	EventQueued
	EventRunning
	EventCanceled
	EventFinished
)

var eventStateNames = map[EventState]string{
	EventNotSubmitted: "NotSubmitted",
	EventQueued:       "Queued",
	EventRunning:      "Running",
	EventCanceled:     "Canceled",
	EventFinished:     "Finished",
}

func (s EventState) String() string {
	name, ok := eventStateNames[s]
	if !ok {
		return fmt.Sprintf("EventState(%d)", int(s))
	}

	return name
}

// An Event is a handle to a piece of work that is going to happen in the
// future. The engine owns the queued representation; the holder of the
// handle can only query the state or cancel the event.
type Event struct {
	id      string
	time    VTimeInSec
	seq     uint64
	payload Payload
	state   EventState

	// selfCanceled is set when the event cancels itself while running.
	selfCanceled bool

	// index is the position in the event heap, -1 when not queued.
	index int

	scheduler EventScheduler
}

// ID returns the unique identifier of the event.
func (e *Event) ID() string {
	return e.id
}

// Time returns the time that the event should happen.
func (e *Event) Time() VTimeInSec {
	return e.time
}

// Seq returns the insertion sequence number used to order events that happen
// at the same time.
func (e *Event) Seq() uint64 {
	return e.seq
}

// State returns the lifecycle state of the event.
func (e *Event) State() EventState {
	return e.state
}

// IsQueued returns true if the event is still waiting to be executed.
func (e *Event) IsQueued() bool {
	return e.state == EventQueued
}

// Cancel removes the event from the scheduler that it is queued in.
func (e *Event) Cancel() error {
	if e.scheduler == nil {
		return &CancelError{ID: e.id, State: e.state}
	}

	return e.scheduler.Cancel(e)
}

func (e *Event) String() string {
	return fmt.Sprintf("event %s @ %.10f (seq %d, %s)",
		e.id, e.time, e.seq, e.state)
}

// A Command is a piece of work that should be done as soon as possible, but
// is not associated with a time. Commands are executed before the next timed
// event.
type Command struct {
	id      string
	payload Payload
	state   EventState

	// selfCanceled is set when the payload cancels its own command.
	selfCanceled bool

	scheduler EventScheduler
}

// ID returns the unique identifier of the command.
func (c *Command) ID() string {
	return c.id
}

// State returns the lifecycle state of the command.
func (c *Command) State() EventState {
	return c.state
}

// Cancel removes the command from the command queue. A running command may
// cancel itself once.
func (c *Command) Cancel() error {
	if c.scheduler == nil {
		return &CancelError{ID: c.id, State: c.state}
	}

	return c.scheduler.CancelCommand(c)
}

func (c *Command) String() string {
	return fmt.Sprintf("command %s (%s)", c.id, c.state)
}
