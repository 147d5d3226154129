package tracing

import (
	"sync"

	"github.com/sarchlab/wnsched/sim"
	"github.com/sirupsen/logrus"
)

// EventCounter is an engine hook that counts the events and commands that
// have run.
type EventCounter struct {
	lock     sync.Mutex
	events   uint64
	commands uint64
	canceled uint64
}

// Func counts after every item and on every cancel.
func (c *EventCounter) Func(ctx sim.HookCtx) {
	c.lock.Lock()
	defer c.lock.Unlock()

	switch ctx.Pos {
	case sim.HookPosAfterEvent:
		switch ctx.Item.(type) {
		case *sim.Event:
			c.events++
		case *sim.Command:
			c.commands++
		}
	case sim.HookPosCancelEvent:
		c.canceled++
	}
}

// Events returns the number of timed events that have run.
func (c *EventCounter) Events() uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.events
}

// Commands returns the number of commands that have run.
func (c *EventCounter) Commands() uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.commands
}

// Canceled returns the number of cancellations.
func (c *EventCounter) Canceled() uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.canceled
}

// EventLogger is an engine hook that logs every item before it runs.
type EventLogger struct {
	Logger logrus.FieldLogger
}

// NewEventLogger returns an EventLogger that writes at debug level.
func NewEventLogger(logger logrus.FieldLogger) *EventLogger {
	return &EventLogger{Logger: logger}
}

// Func logs the event or the command.
func (h *EventLogger) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosBeforeEvent {
		return
	}

	switch item := ctx.Item.(type) {
	case *sim.Event:
		h.Logger.WithField("time", float64(item.Time())).
			Debugf("event %s", item.ID())
	case *sim.Command:
		h.Logger.Debugf("command %s", item.ID())
	}
}
