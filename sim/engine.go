package sim

// TimeTeller can be used to get the current time.
type TimeTeller interface {
	CurrentTime() VTimeInSec
}

// EventScheduler can be used to schedule future events. Components that need
// to schedule work receive an EventScheduler explicitly.
type EventScheduler interface {
	TimeTeller

	// ScheduleNow queues an event at the current time. It runs after all the
	// events that are already queued for the current time.
	ScheduleNow(p Payload) *Event

	// Schedule queues an event at an absolute time. It returns an
	// InvalidTimeError if the time is in the past.
	Schedule(p Payload, at VTimeInSec) (*Event, error)

	// ScheduleDelay queues an event at a time relative to now. It returns an
	// InvalidDelayError if the delay is negative.
	ScheduleDelay(p Payload, delay VTimeInSec) (*Event, error)

	// Cancel removes a queued event. Canceling the event that is currently
	// running from within its own payload is allowed. Any other attempt to
	// cancel an event that is not queued returns a CancelError.
	Cancel(evt *Event) error

	// QueueCommand queues a command that runs before the next timed event.
	QueueCommand(p Payload) *Command

	// CancelCommand removes a queued command.
	CancelCommand(cmd *Command) error
}

// A SimulationEndHandler is a handler that is called after the simulation ends.
type SimulationEndHandler interface {
	Handle(now VTimeInSec)
}

// An Engine is a unit that keeps the discrete event simulation run.
type Engine interface {
	Hookable
	EventScheduler

	// ProcessOneEvent executes exactly one pending item, a command if there
	// is one, otherwise the earliest event. It returns false if nothing is
	// pending.
	ProcessOneEvent() bool

	// Run will process all the events until the queue is exhausted or Stop is
	// called.
	Run() error

	// Stop requests the run loop to return after the current item. Queued
	// events stay queued.
	Stop()

	// Pause will pause the simulation until continue is called.
	Pause()

	// Continue will continue the paused simulation
	Continue()

	// Reset drops all pending events and commands and sets the time back to
	// zero.
	Reset()

	// Size returns the number of queued events, excluding commands.
	Size() int

	// NumCommands returns the number of queued commands.
	NumCommands() int

	// RegisterSimulationEndHandler registers a handler that perform some
	// actions after the simulation is finished.
	RegisterSimulationEndHandler(handler SimulationEndHandler)

	// Finished invokes all the registered SimulationEndHandler
	Finished()
}
