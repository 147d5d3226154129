package tracing

import "github.com/sarchlab/wnsched/sim"

// A Task is a traced unit of work, e.g. a PDU from the moment its
// connection offers it until the peer delivers it. Kind groups tasks and
// What tells them apart inside a kind, e.g. the link direction.
type Task struct {
	ID        string
	ParentID  string
	Kind      string
	What      string
	Where     string
	StartTime sim.VTimeInSec
	EndTime   sim.VTimeInSec
	Steps     []TaskStep

	// Detail is the traced object itself. Tracers must not modify it.
	Detail any
}

// A TaskStep is a milestone of a task, such as "queued" or "lost".
type TaskStep struct {
	Time sim.VTimeInSec
	What string
}

// TaskFilter selects the tasks a tracer follows.
type TaskFilter func(t Task) bool

// AllTasks follows every task.
func AllTasks(Task) bool { return true }

// KindIs follows the tasks of one kind.
func KindIs(kind string) TaskFilter {
	return func(t Task) bool { return t.Kind == kind }
}
