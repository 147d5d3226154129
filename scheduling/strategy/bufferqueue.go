package strategy

import (
	"fmt"
	"sort"

	"github.com/sarchlab/wnsched/scheduling"
	"github.com/sarchlab/wnsched/sim"
)

// A Segment is a part of a PDU that has been split by a SegmentingQueue.
type Segment struct {
	Parent scheduling.PDU
	Offset int
	Bits   int
	Last   bool
}

// LengthInBits returns the size of the segment.
func (s Segment) LengthInBits() int {
	return s.Bits
}

func (s Segment) String() string {
	return fmt.Sprintf("segment(%v, %d+%d)", s.Parent, s.Offset, s.Bits)
}

// BufferQueue keeps one bounded sim.Buffer of PDUs per connection.
type BufferQueue struct {
	capacity int
	buffers  map[scheduling.ConnectionID]sim.Buffer
	users    map[scheduling.ConnectionID]scheduling.UserID
	offsets  map[scheduling.ConnectionID]int
	bits     map[scheduling.ConnectionID]int
	hooks    []sim.Hook
}

// NewBufferQueue creates a queue that holds up to capacity PDUs per
// connection.
func NewBufferQueue(capacity int) *BufferQueue {
	return &BufferQueue{
		capacity: capacity,
		buffers:  make(map[scheduling.ConnectionID]sim.Buffer),
		users:    make(map[scheduling.ConnectionID]scheduling.UserID),
		offsets:  make(map[scheduling.ConnectionID]int),
		bits:     make(map[scheduling.ConnectionID]int),
	}
}

// AcceptHook registers a hook on the buffer of every connection, including
// the ones added later.
func (q *BufferQueue) AcceptHook(h sim.Hook) {
	q.hooks = append(q.hooks, h)
	for _, b := range q.buffers {
		b.AcceptHook(h)
	}
}

// AddConnection registers a connection towards a user.
func (q *BufferQueue) AddConnection(
	cid scheduling.ConnectionID,
	user scheduling.UserID,
) {
	if _, found := q.buffers[cid]; found {
		log.Panicf("connection %d already exists", cid)
	}

	b := sim.NewBuffer(fmt.Sprintf("Queue.CID%d", cid), q.capacity)
	for _, h := range q.hooks {
		b.AcceptHook(h)
	}

	q.buffers[cid] = b
	q.users[cid] = user
}

// CanPush returns true if the connection has room for another PDU.
func (q *BufferQueue) CanPush(cid scheduling.ConnectionID) bool {
	return q.mustGet(cid).CanPush()
}

// Push queues a PDU. It panics if the connection is full.
func (q *BufferQueue) Push(cid scheduling.ConnectionID, pdu scheduling.PDU) {
	q.mustGet(cid).Push(pdu)
	q.bits[cid] += pdu.LengthInBits()
}

func (q *BufferQueue) mustGet(cid scheduling.ConnectionID) sim.Buffer {
	b, found := q.buffers[cid]
	if !found {
		log.Panicf("connection %d does not exist", cid)
	}

	return b
}

// QueueHasPDUs returns true if the connection has anything queued.
func (q *BufferQueue) QueueHasPDUs(cid scheduling.ConnectionID) bool {
	b, found := q.buffers[cid]

	return found && b.Size() > 0
}

// NumBitsForCID returns the queued bits of a connection.
func (q *BufferQueue) NumBitsForCID(cid scheduling.ConnectionID) int {
	return q.bits[cid]
}

// QueuedCIDs returns the connections with queued data in ascending order.
func (q *BufferQueue) QueuedCIDs() []scheduling.ConnectionID {
	cids := make([]scheduling.ConnectionID, 0, len(q.buffers))
	for cid, b := range q.buffers {
		if b.Size() > 0 {
			cids = append(cids, cid)
		}
	}

	sort.Slice(cids, func(i, j int) bool { return cids[i] < cids[j] })

	return cids
}

// QueuedUsers returns the users with queued data in ascending order.
func (q *BufferQueue) QueuedUsers() []scheduling.UserID {
	seen := make(map[scheduling.UserID]bool)
	users := []scheduling.UserID{}

	for _, cid := range q.QueuedCIDs() {
		u := q.users[cid]
		if !seen[u] {
			seen[u] = true
			users = append(users, u)
		}
	}

	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })

	return users
}

// UserOf returns the peer of a connection.
func (q *BufferQueue) UserOf(cid scheduling.ConnectionID) scheduling.UserID {
	return q.users[cid]
}

// HeadOfLinePDUBits returns the bits left of the head-of-line PDU.
func (q *BufferQueue) HeadOfLinePDUBits(cid scheduling.ConnectionID) int {
	b, found := q.buffers[cid]
	if !found || b.Size() == 0 {
		return 0
	}

	return b.Peek().(scheduling.PDU).LengthInBits() - q.offsets[cid]
}

// PopHeadOfLinePDU removes the head-of-line PDU. If part of it has already
// been sent as segments, the remainder is returned as the last segment.
func (q *BufferQueue) PopHeadOfLinePDU(
	cid scheduling.ConnectionID,
) scheduling.PDU {
	b := q.mustGet(cid)
	if b.Size() == 0 {
		return nil
	}

	pdu := b.Pop().(scheduling.PDU)
	offset := q.offsets[cid]
	delete(q.offsets, cid)
	q.bits[cid] -= pdu.LengthInBits() - offset

	if offset == 0 {
		return pdu
	}

	return Segment{
		Parent: pdu,
		Offset: offset,
		Bits:   pdu.LengthInBits() - offset,
		Last:   true,
	}
}

// PopSegment removes the first bits of the head-of-line PDU.
func (q *BufferQueue) PopSegment(
	cid scheduling.ConnectionID,
	bits int,
) scheduling.PDU {
	remaining := q.HeadOfLinePDUBits(cid)
	if remaining == 0 {
		return nil
	}

	if bits >= remaining {
		pdu := q.PopHeadOfLinePDU(cid)
		if _, isSegment := pdu.(Segment); isSegment {
			return pdu
		}

		return Segment{Parent: pdu, Offset: 0, Bits: remaining, Last: true}
	}

	head := q.mustGet(cid).Peek().(scheduling.PDU)
	offset := q.offsets[cid]
	q.offsets[cid] = offset + bits
	q.bits[cid] -= bits

	return Segment{Parent: head, Offset: offset, Bits: bits}
}
