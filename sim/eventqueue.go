package sim

import (
	"container/heap"
	"container/list"
)

// EventQueue is a queue of events ordered by the time of the events. Events
// that happen at the same time are ordered by their insertion sequence.
type EventQueue interface {
	Push(evt *Event)
	Pop() *Event
	Peek() *Event
	Remove(evt *Event) bool
	Len() int
	Clear() []*Event
}

// eventQueueImpl is a binary heap keyed by (time, sequence). The sequence
// key keeps same-time events in FIFO order, which a heap keyed only by time
// does not guarantee.
type eventQueueImpl struct {
	events eventHeap
}

// NewEventQueue creates and returns a newly created EventQueue
func NewEventQueue() EventQueue {
	q := new(eventQueueImpl)
	q.events = make([]*Event, 0)
	heap.Init(&q.events)

	return q
}

// Push adds an event to the event queue
func (q *eventQueueImpl) Push(evt *Event) {
	heap.Push(&q.events, evt)
}

// Pop returns the next earliest event, or nil if the queue is empty.
func (q *eventQueueImpl) Pop() *Event {
	if len(q.events) == 0 {
		return nil
	}

	return heap.Pop(&q.events).(*Event)
}

// Peek returns the event in front of the queue without removing it from the
// queue
func (q *eventQueueImpl) Peek() *Event {
	if len(q.events) == 0 {
		return nil
	}

	return q.events[0]
}

// Remove takes an event out of the queue. It returns false if the event is
// not in the queue.
func (q *eventQueueImpl) Remove(evt *Event) bool {
	i := evt.index
	if i < 0 || i >= len(q.events) || q.events[i] != evt {
		return false
	}

	heap.Remove(&q.events, i)

	return true
}

// Len returns the number of event in the queue
func (q *eventQueueImpl) Len() int {
	return len(q.events)
}

// Clear removes all the events and returns them in no particular order.
func (q *eventQueueImpl) Clear() []*Event {
	removed := q.events
	for _, evt := range removed {
		evt.index = -1
	}

	q.events = make([]*Event, 0)

	return removed
}

type eventHeap []*Event

// Len returns the length of the event queue
func (h eventHeap) Len() int {
	return len(h)
}

// Less returns true if the i-th event happens before the j-th event.
func (h eventHeap) Less(i, j int) bool {
	if h[i].time != h[j].time {
		return h[i].time < h[j].time
	}

	return h[i].seq < h[j].seq
}

// Swap changes the position of two events in the event queue
func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

// Push adds an event into the event queue
func (h *eventHeap) Push(x any) {
	evt := x.(*Event)
	evt.index = len(*h)
	*h = append(*h, evt)
}

// Pop removes and returns the next event to happen
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	evt := old[n-1]
	old[n-1] = nil
	evt.index = -1
	*h = old[0 : n-1]

	return evt
}

// commandQueue is a FIFO of commands that supports removal from the middle.
type commandQueue struct {
	l        *list.List
	elements map[*Command]*list.Element
}

func newCommandQueue() *commandQueue {
	return &commandQueue{
		l:        list.New(),
		elements: make(map[*Command]*list.Element),
	}
}

func (q *commandQueue) Push(cmd *Command) {
	q.elements[cmd] = q.l.PushBack(cmd)
}

func (q *commandQueue) Pop() *Command {
	front := q.l.Front()
	if front == nil {
		return nil
	}

	cmd := q.l.Remove(front).(*Command)
	delete(q.elements, cmd)

	return cmd
}

func (q *commandQueue) Remove(cmd *Command) bool {
	ele, ok := q.elements[cmd]
	if !ok {
		return false
	}

	q.l.Remove(ele)
	delete(q.elements, cmd)

	return true
}

func (q *commandQueue) Len() int {
	return q.l.Len()
}

func (q *commandQueue) Clear() []*Command {
	removed := make([]*Command, 0, q.l.Len())
	for ele := q.l.Front(); ele != nil; ele = ele.Next() {
		removed = append(removed, ele.Value.(*Command))
	}

	q.l.Init()
	q.elements = make(map[*Command]*list.Element)

	return removed
}
