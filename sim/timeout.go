package sim

import "log"

// A TimeoutHandler is notified when its timeout fires.
type TimeoutHandler interface {
	OnTimeout()
}

// TimeoutFunc adapts a function into a TimeoutHandler.
type TimeoutFunc func()

// OnTimeout calls the function.
func (f TimeoutFunc) OnTimeout() {
	f()
}

// A Timeout lets its owner keep at most one outstanding timer. It is meant to
// be embedded or held by the owner, for example an ARQ sender waiting for
// acknowledgements.
//
// The timeout is disarmed before OnTimeout is called, so the handler can arm
// it again.
type Timeout struct {
	scheduler EventScheduler
	handler   TimeoutHandler
	event     *Event
}

// NewTimeout creates a Timeout that schedules on the given scheduler and
// notifies the given handler.
func NewTimeout(scheduler EventScheduler, handler TimeoutHandler) *Timeout {
	if scheduler == nil || handler == nil {
		log.Panic("timeout requires a scheduler and a handler")
	}

	return &Timeout{
		scheduler: scheduler,
		handler:   handler,
	}
}

// SetTimeout arms the timer. It panics if a timeout is already set.
func (t *Timeout) SetTimeout(delay VTimeInSec) {
	if t.HasTimeoutSet() {
		log.Panicf(
			"timeout already set, fires at %.10f", t.event.Time())
	}

	evt, err := t.scheduler.ScheduleDelay(t.fire, delay)
	if err != nil {
		panic(err)
	}

	t.event = evt
}

// CancelTimeout disarms the timer. It panics if no timeout is set.
func (t *Timeout) CancelTimeout() {
	if !t.HasTimeoutSet() {
		log.Panic("no timeout set")
	}

	err := t.scheduler.Cancel(t.event)
	if err != nil {
		panic(err)
	}

	t.event = nil
}

// HasTimeoutSet returns true if a timeout is armed. A timer dropped by an
// engine Reset is no longer armed.
func (t *Timeout) HasTimeoutSet() bool {
	return armed(t.event)
}

// FiresAt returns the time the armed timeout fires. It panics if no timeout
// is set.
func (t *Timeout) FiresAt() VTimeInSec {
	if !t.HasTimeoutSet() {
		log.Panic("no timeout set")
	}

	return t.event.Time()
}

func armed(evt *Event) bool {
	return evt != nil && evt.IsQueued()
}

func (t *Timeout) fire() {
	t.event = nil
	t.handler.OnTimeout()
}

// A PeriodicTimeoutHandler is notified every period.
type PeriodicTimeoutHandler interface {
	PeriodicTimeout()
}

// PeriodicTimeout calls its handler every period until canceled. The next
// period is scheduled before the handler runs, so the handler may cancel the
// periodic timeout.
type PeriodicTimeout struct {
	scheduler EventScheduler
	handler   PeriodicTimeoutHandler
	period    VTimeInSec
	event     *Event
}

// NewPeriodicTimeout creates a PeriodicTimeout.
func NewPeriodicTimeout(
	scheduler EventScheduler,
	handler PeriodicTimeoutHandler,
) *PeriodicTimeout {
	if scheduler == nil || handler == nil {
		log.Panic("periodic timeout requires a scheduler and a handler")
	}

	return &PeriodicTimeout{
		scheduler: scheduler,
		handler:   handler,
	}
}

// StartPeriodicTimeout fires the handler after delay and every period after
// that.
func (t *PeriodicTimeout) StartPeriodicTimeout(period, delay VTimeInSec) {
	if t.HasPeriodicTimeoutSet() {
		log.Panic("periodic timeout already set")
	}

	if period <= 0 {
		log.Panicf("period must be positive, got %.10f", period)
	}

	t.period = period

	evt, err := t.scheduler.ScheduleDelay(t.fire, delay)
	if err != nil {
		panic(err)
	}

	t.event = evt
}

// CancelPeriodicTimeout stops the periodic timeout.
func (t *PeriodicTimeout) CancelPeriodicTimeout() {
	if !t.HasPeriodicTimeoutSet() {
		log.Panic("no periodic timeout set")
	}

	err := t.scheduler.Cancel(t.event)
	if err != nil {
		panic(err)
	}

	t.event = nil
}

// HasPeriodicTimeoutSet returns true if the periodic timeout is running.
func (t *PeriodicTimeout) HasPeriodicTimeoutSet() bool {
	return armed(t.event)
}

// Period returns the period of the timeout.
func (t *PeriodicTimeout) Period() VTimeInSec {
	return t.period
}

func (t *PeriodicTimeout) fire() {
	evt, err := t.scheduler.ScheduleDelay(t.fire, t.period)
	if err != nil {
		panic(err)
	}

	t.event = evt
	t.handler.PeriodicTimeout()
}
