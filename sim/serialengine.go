package sim

import (
	"log"
	"math"
	"sync"
	"sync/atomic"
)

// A SerialEngine is an Engine that always run events one after another.
//
// Events are ordered by (time, insertion sequence). Commands are kept in a
// separate FIFO and always run before the next timed event.
type SerialEngine struct {
	HookableBase

	timeLock sync.RWMutex
	time     VTimeInSec

	queueLock sync.Mutex
	queue     EventQueue
	commands  *commandQueue
	nextSeq   uint64
	current   *Event

	idGenerator IDGenerator

	stopRequested atomic.Bool

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex

	singleRunLock sync.Mutex

	simulationEndHandlers []SimulationEndHandler
}

// NewSerialEngine creates a SerialEngine
func NewSerialEngine() *SerialEngine {
	e := new(SerialEngine)

	e.queue = NewEventQueue()
	e.commands = newCommandQueue()
	e.idGenerator = NewSequentialIDGenerator("")

	return e
}

// WithIDGenerator replaces the generator used to name events and commands.
func (e *SerialEngine) WithIDGenerator(g IDGenerator) *SerialEngine {
	e.idGenerator = g
	return e
}

// ScheduleNow queues an event at the current time.
func (e *SerialEngine) ScheduleNow(p Payload) *Event {
	evt := e.newEvent(p, e.readNow())

	e.invokeHookAt(HookPosScheduleNow, evt)
	e.enqueue(evt)

	return evt
}

// Schedule queues an event at an absolute time.
func (e *SerialEngine) Schedule(p Payload, at VTimeInSec) (*Event, error) {
	now := e.readNow()
	if math.IsNaN(float64(at)) || at < now {
		return nil, &InvalidTimeError{Now: now, At: at}
	}

	evt := e.newEvent(p, at)

	e.invokeHookAt(HookPosSchedule, evt)
	e.enqueue(evt)

	return evt, nil
}

// ScheduleDelay queues an event at now + delay.
func (e *SerialEngine) ScheduleDelay(
	p Payload,
	delay VTimeInSec,
) (*Event, error) {
	if math.IsNaN(float64(delay)) || delay < 0 {
		return nil, &InvalidDelayError{Delay: delay}
	}

	evt := e.newEvent(p, e.readNow()+delay)

	e.invokeHookAt(HookPosScheduleDelay, evt)
	e.enqueue(evt)

	return evt, nil
}

func (e *SerialEngine) newEvent(p Payload, at VTimeInSec) *Event {
	if p == nil {
		log.Panic("sim: cannot schedule an event without payload")
	}

	return &Event{
		id:        e.idGenerator.Generate(),
		time:      at,
		payload:   p,
		state:     EventNotSubmitted,
		index:     -1,
		scheduler: e,
	}
}

func (e *SerialEngine) enqueue(evt *Event) {
	e.queueLock.Lock()
	evt.seq = e.nextSeq
	e.nextSeq++
	evt.state = EventQueued
	e.queue.Push(evt)
	e.queueLock.Unlock()

	e.invokeHookAt(HookPosAddEvent, evt)
}

// Cancel removes a queued event from the engine.
func (e *SerialEngine) Cancel(evt *Event) error {
	if evt == nil {
		return &CancelError{ID: "<nil>", State: EventNotSubmitted}
	}

	if evt.scheduler != e {
		return &CancelError{ID: evt.id, State: evt.state}
	}

	switch evt.state {
	case EventQueued:
		e.queueLock.Lock()
		removed := e.queue.Remove(evt)
		e.queueLock.Unlock()

		if !removed {
			log.Panicf("sim: %s is marked queued but not in queue", evt)
		}

		evt.state = EventCanceled
	case EventRunning:
		if evt.selfCanceled {
			return &CancelError{ID: evt.id, State: EventCanceled}
		}

		evt.selfCanceled = true
	default:
		return &CancelError{ID: evt.id, State: evt.state}
	}

	e.invokeHookAt(HookPosCancelEvent, evt)

	return nil
}

// QueueCommand queues a command that runs before the next timed event.
func (e *SerialEngine) QueueCommand(p Payload) *Command {
	if p == nil {
		log.Panic("sim: cannot queue a command without payload")
	}

	cmd := &Command{
		id:        e.idGenerator.Generate(),
		payload:   p,
		state:     EventQueued,
		scheduler: e,
	}

	e.queueLock.Lock()
	e.commands.Push(cmd)
	e.queueLock.Unlock()

	e.invokeHookAt(HookPosQueueCommand, cmd)

	return cmd
}

// CancelCommand removes a queued command. A running command that cancels
// itself ends Canceled.
func (e *SerialEngine) CancelCommand(cmd *Command) error {
	if cmd == nil {
		return &CancelError{ID: "<nil>", State: EventNotSubmitted}
	}

	if cmd.scheduler != e {
		return &CancelError{ID: cmd.id, State: cmd.state}
	}

	switch cmd.state {
	case EventQueued:
		e.queueLock.Lock()
		e.commands.Remove(cmd)
		e.queueLock.Unlock()

		cmd.state = EventCanceled
	case EventRunning:
		if cmd.selfCanceled {
			return &CancelError{ID: cmd.id, State: EventCanceled}
		}

		cmd.selfCanceled = true
	default:
		return &CancelError{ID: cmd.id, State: cmd.state}
	}

	e.invokeHookAt(HookPosCancelEvent, cmd)

	return nil
}

func (e *SerialEngine) readNow() VTimeInSec {
	e.timeLock.RLock()
	t := e.time
	e.timeLock.RUnlock()

	return t
}

func (e *SerialEngine) writeNow(t VTimeInSec) {
	e.timeLock.Lock()
	e.time = t
	e.timeLock.Unlock()
}

// ProcessOneEvent executes one pending command, or the earliest event if no
// command is pending.
func (e *SerialEngine) ProcessOneEvent() bool {
	e.queueLock.Lock()
	cmd := e.commands.Pop()

	var evt *Event
	if cmd == nil {
		evt = e.queue.Pop()
	}
	e.queueLock.Unlock()

	switch {
	case cmd != nil:
		e.runCommand(cmd)
		return true
	case evt != nil:
		e.runEvent(evt)
		return true
	default:
		return false
	}
}

func (e *SerialEngine) runCommand(cmd *Command) {
	cmd.state = EventRunning

	hookCtx := HookCtx{
		Domain: e,
		Pos:    HookPosBeforeEvent,
		Item:   cmd,
	}
	e.InvokeHook(hookCtx)

	cmd.payload()

	if cmd.selfCanceled {
		cmd.state = EventCanceled
	} else {
		cmd.state = EventFinished
	}

	hookCtx.Pos = HookPosAfterEvent
	e.InvokeHook(hookCtx)
}

func (e *SerialEngine) runEvent(evt *Event) {
	now := e.readNow()
	if evt.time < now {
		log.Panicf(
			"sim: cannot run event in the past, %s, now %.10f", evt, now)
	}

	e.writeNow(evt.time)

	evt.state = EventRunning
	e.current = evt

	hookCtx := HookCtx{
		Domain: e,
		Pos:    HookPosBeforeEvent,
		Item:   evt,
	}
	e.InvokeHook(hookCtx)

	evt.payload()

	e.current = nil
	if evt.selfCanceled {
		evt.state = EventCanceled
	} else {
		evt.state = EventFinished
	}

	hookCtx.Pos = HookPosAfterEvent
	e.InvokeHook(hookCtx)
}

// CurrentEvent returns the event that is being executed, or nil.
func (e *SerialEngine) CurrentEvent() *Event {
	return e.current
}

// Run processes all the events scheduled in the SerialEngine
func (e *SerialEngine) Run() error {
	e.singleRunLock.Lock()
	defer e.singleRunLock.Unlock()

	e.stopRequested.Store(false)

	for {
		if e.stopRequested.Load() {
			return nil
		}

		e.pauseLock.Lock()
		progressed := e.ProcessOneEvent()
		e.pauseLock.Unlock()

		if !progressed {
			return nil
		}
	}
}

// Stop makes Run return after the item that is being executed.
func (e *SerialEngine) Stop() {
	e.stopRequested.Store(true)
}

// Reset drops every pending event and command and moves the time back to 0.
// Dropped items are marked as canceled.
func (e *SerialEngine) Reset() {
	e.queueLock.Lock()
	for _, evt := range e.queue.Clear() {
		evt.state = EventCanceled
	}

	for _, cmd := range e.commands.Clear() {
		cmd.state = EventCanceled
	}

	e.nextSeq = 0
	e.queueLock.Unlock()

	e.stopRequested.Store(false)
	e.writeNow(0)
}

// Size returns the number of queued events.
func (e *SerialEngine) Size() int {
	e.queueLock.Lock()
	defer e.queueLock.Unlock()

	return e.queue.Len()
}

// NumCommands returns the number of queued commands.
func (e *SerialEngine) NumCommands() int {
	e.queueLock.Lock()
	defer e.queueLock.Unlock()

	return e.commands.Len()
}

// Pause prevents the SerialEngine to trigger more events.
func (e *SerialEngine) Pause() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if e.isPaused {
		return
	}

	e.pauseLock.Lock()
	e.isPaused = true
}

// Continue allows the SerialEngine to trigger more events.
func (e *SerialEngine) Continue() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if !e.isPaused {
		return
	}

	e.pauseLock.Unlock()
	e.isPaused = false
}

// CurrentTime returns the current time at which the engine is at.
// Specifically, the run time of the current event.
func (e *SerialEngine) CurrentTime() VTimeInSec {
	return e.readNow()
}

// RegisterSimulationEndHandler invokes all the registered simulation end
// handler.
func (e *SerialEngine) RegisterSimulationEndHandler(
	handler SimulationEndHandler,
) {
	e.simulationEndHandlers = append(e.simulationEndHandlers, handler)
}

// Finished should be called after the simulation ends. This function
// calls all the registered SimulationEndHandler.
func (e *SerialEngine) Finished() {
	now := e.readNow()
	for _, h := range e.simulationEndHandlers {
		h.Handle(now)
	}
}

func (e *SerialEngine) invokeHookAt(pos *HookPos, item any) {
	if e.NumHooks() == 0 {
		return
	}

	e.InvokeHook(HookCtx{
		Domain: e,
		Pos:    pos,
		Item:   item,
	})
}

// MustSchedule is Schedule that panics on error.
func MustSchedule(s EventScheduler, p Payload, at VTimeInSec) *Event {
	evt, err := s.Schedule(p, at)
	if err != nil {
		panic(err)
	}

	return evt
}

// MustScheduleDelay is ScheduleDelay that panics on error.
func MustScheduleDelay(s EventScheduler, p Payload, delay VTimeInSec) *Event {
	evt, err := s.ScheduleDelay(p, delay)
	if err != nil {
		panic(err)
	}

	return evt
}
