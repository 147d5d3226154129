package sim

import "log"

// A HookPos names a point where a Hookable invokes its hooks. Positions are
// compared by pointer.
type HookPos struct {
	Name string
}

func (p *HookPos) String() string {
	return p.Name
}

// HookCtx describes one hook invocation.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos

	// Item is what the position is about, e.g. the event that is about to
	// run or the element pushed into a buffer.
	Item any
}

// A Hookable accepts hooks. Hooks are added before the simulation starts
// and are never removed.
type Hookable interface {
	AcceptHook(hook Hook)
	NumHooks() int
	Hooks() []Hook
}

// A Hook observes a Hookable.
type Hook interface {
	Func(ctx HookCtx)
}

// HookFunc turns a function into a Hook. Functions cannot be compared, so
// the same HookFunc may be attached more than once.
type HookFunc func(ctx HookCtx)

// Func calls f.
func (f HookFunc) Func(ctx HookCtx) {
	f(ctx)
}

// HookableBase implements Hookable. Embed it by value and call InvokeHook at
// the hook positions.
type HookableBase struct {
	hooks []Hook
}

// NumHooks returns the number of attached hooks.
func (h *HookableBase) NumHooks() int {
	return len(h.hooks)
}

// Hooks returns the attached hooks in the order they were added.
func (h *HookableBase) Hooks() []Hook {
	return h.hooks
}

// AcceptHook attaches a hook. Attaching a hook that is already attached
// panics.
func (h *HookableBase) AcceptHook(hook Hook) {
	if attached(h.hooks, hook) {
		log.Panicf("hook %T is already attached", hook)
	}

	h.hooks = append(h.hooks, hook)
}

func attached(hooks []Hook, hook Hook) bool {
	if _, isFunc := hook.(HookFunc); isFunc {
		return false
	}

	for _, other := range hooks {
		if _, isFunc := other.(HookFunc); isFunc {
			continue
		}

		if other == hook {
			return true
		}
	}

	return false
}

// InvokeHook calls every hook with ctx.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hooks {
		hook.Func(ctx)
	}
}
