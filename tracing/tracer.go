package tracing

import (
	"log"

	"github.com/sarchlab/wnsched/sim"
)

// A Tracer receives the tasks of the domains it is attached to. Step and end
// notifications only carry the task ID and, for steps, the new step.
type Tracer interface {
	StartTask(task Task)
	StepTask(task Task)
	EndTask(task Task)
}

// CollectTrace attaches a tracer to a domain. Attaching the same tracer twice
// panics.
func CollectTrace(domain NamedHookable, tracer Tracer) {
	for _, h := range domain.Hooks() {
		if th, ok := h.(taskHook); ok && th.tracer == tracer {
			log.Panicf("domain %s already traced by %T",
				domain.Name(), tracer)
		}
	}

	domain.AcceptHook(taskHook{tracer: tracer})
}

// taskHook forwards the task hook positions to a tracer and ignores the
// others.
type taskHook struct {
	tracer Tracer
}

func (h taskHook) Func(ctx sim.HookCtx) {
	task, ok := ctx.Item.(Task)
	if !ok {
		return
	}

	switch ctx.Pos {
	case HookPosTaskStart:
		h.tracer.StartTask(task)
	case HookPosTaskStep:
		h.tracer.StepTask(task)
	case HookPosTaskEnd:
		h.tracer.EndTask(task)
	}
}
