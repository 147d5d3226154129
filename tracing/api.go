// Package tracing follows PDUs and other tasks through the simulation with
// hooks on a traced domain.
package tracing

import (
	"log"

	"github.com/sarchlab/wnsched/sim"
)

// NamedHookable is a traced domain, e.g. a cell.
type NamedHookable interface {
	sim.Hookable
	Name() string
	InvokeHook(sim.HookCtx)
}

// Hook positions of the task life cycle.
var (
	HookPosTaskStart = &sim.HookPos{Name: "TaskStart"}
	HookPosTaskStep  = &sim.HookPos{Name: "TaskStep"}
	HookPosTaskEnd   = &sim.HookPos{Name: "TaskEnd"}
)

// StartTask announces a task on the domain. Where is filled in with the
// domain name. A task needs an ID, a kind and a what. Nothing happens if the
// domain is not traced.
func StartTask(domain NamedHookable, task Task) {
	if domain.NumHooks() == 0 {
		return
	}

	switch {
	case task.ID == "":
		log.Panic("task without id")
	case task.Kind == "":
		log.Panic("task " + task.ID + " without kind")
	case task.What == "":
		log.Panic("task " + task.ID + " without what")
	case domain.Name() == "":
		log.Panic("traced domain without name")
	}

	task.Where = domain.Name()
	task.Steps = nil

	invoke(domain, HookPosTaskStart, task)
}

// AddTaskStep marks a milestone of a task, e.g. "queued" or "lost".
func AddTaskStep(domain NamedHookable, id, what string) {
	if domain.NumHooks() == 0 {
		return
	}

	invoke(domain, HookPosTaskStep, Task{
		ID:    id,
		Steps: []TaskStep{{What: what}},
	})
}

// EndTask announces that a task is complete.
func EndTask(domain NamedHookable, id string) {
	if domain.NumHooks() == 0 {
		return
	}

	invoke(domain, HookPosTaskEnd, Task{ID: id})
}

func invoke(domain NamedHookable, pos *sim.HookPos, task Task) {
	domain.InvokeHook(sim.HookCtx{
		Domain: domain,
		Pos:    pos,
		Item:   task,
	})
}
