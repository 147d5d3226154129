package sim

import "log"

// Hook positions of a Buffer. The item is the element pushed or popped.
var (
	HookPosBufPush = &HookPos{Name: "BufferPush"}
	HookPosBufPop  = &HookPos{Name: "BufferPop"}
)

// A Buffer is a bounded FIFO. Pushing into a full buffer panics, so callers
// check CanPush first.
type Buffer interface {
	Hookable

	Name() string
	CanPush() bool
	Push(e any)
	Pop() any
	Peek() any
	Capacity() int
	Size() int

	// Peak returns the highest Size ever reached.
	Peak() int
}

// NewBuffer creates a ring buffer with a fixed capacity.
func NewBuffer(name string, capacity int) Buffer {
	if name == "" {
		log.Panic("buffer without name")
	}

	if capacity <= 0 {
		log.Panicf("buffer %s: capacity %d is not positive",
			name, capacity)
	}

	return &ringBuffer{
		name:  name,
		slots: make([]any, capacity),
	}
}

type ringBuffer struct {
	HookableBase

	name  string
	slots []any
	head  int
	size  int
	peak  int
}

func (b *ringBuffer) Name() string  { return b.name }
func (b *ringBuffer) Capacity() int { return len(b.slots) }
func (b *ringBuffer) Size() int     { return b.size }
func (b *ringBuffer) Peak() int     { return b.peak }
func (b *ringBuffer) CanPush() bool { return b.size < len(b.slots) }

func (b *ringBuffer) Push(e any) {
	if !b.CanPush() {
		log.Panicf("buffer %s overflow", b.name)
	}

	b.slots[(b.head+b.size)%len(b.slots)] = e
	b.size++

	if b.size > b.peak {
		b.peak = b.size
	}

	b.notify(HookPosBufPush, e)
}

func (b *ringBuffer) Pop() any {
	if b.size == 0 {
		return nil
	}

	e := b.slots[b.head]
	b.slots[b.head] = nil
	b.head = (b.head + 1) % len(b.slots)
	b.size--

	b.notify(HookPosBufPop, e)

	return e
}

func (b *ringBuffer) Peek() any {
	if b.size == 0 {
		return nil
	}

	return b.slots[b.head]
}

func (b *ringBuffer) notify(pos *HookPos, e any) {
	if b.NumHooks() == 0 {
		return
	}

	b.InvokeHook(HookCtx{Domain: b, Pos: pos, Item: e})
}
