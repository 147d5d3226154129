package strategy

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/wnsched/scheduling"
	"github.com/sarchlab/wnsched/sim"
)

var _ = Describe("BufferQueue", func() {
	var q *BufferQueue

	BeforeEach(func() {
		q = NewBufferQueue(2)
		q.AddConnection(2, "ue2")
		q.AddConnection(1, "ue1")
	})

	It("should track queued bits", func() {
		Expect(q.QueueHasPDUs(1)).To(BeFalse())
		Expect(q.QueuedCIDs()).To(BeEmpty())

		q.Push(2, scheduling.BitPDU{ID: "a", Bits: 100})
		q.Push(1, scheduling.BitPDU{ID: "b", Bits: 200})
		q.Push(1, scheduling.BitPDU{ID: "c", Bits: 300})

		Expect(q.CanPush(1)).To(BeFalse())
		Expect(q.NumBitsForCID(1)).To(Equal(500))
		Expect(q.HeadOfLinePDUBits(1)).To(Equal(200))
		Expect(q.QueuedCIDs()).To(Equal([]scheduling.ConnectionID{1, 2}))
		Expect(q.QueuedUsers()).To(Equal([]scheduling.UserID{"ue1", "ue2"}))
		Expect(q.UserOf(2)).To(Equal(scheduling.UserID("ue2")))

		Expect(q.PopHeadOfLinePDU(1)).
			To(Equal(scheduling.BitPDU{ID: "b", Bits: 200}))
		Expect(q.NumBitsForCID(1)).To(Equal(300))
	})

	It("should split the head of line PDU", func() {
		head := scheduling.BitPDU{ID: "a", Bits: 1000}
		q.Push(1, head)

		Expect(q.PopSegment(1, 300)).
			To(Equal(Segment{Parent: head, Offset: 0, Bits: 300}))
		Expect(q.HeadOfLinePDUBits(1)).To(Equal(700))
		Expect(q.NumBitsForCID(1)).To(Equal(700))

		Expect(q.PopSegment(1, 300)).
			To(Equal(Segment{Parent: head, Offset: 300, Bits: 300}))
		Expect(q.PopSegment(1, 1000)).
			To(Equal(Segment{Parent: head, Offset: 600, Bits: 400, Last: true}))

		Expect(q.QueueHasPDUs(1)).To(BeFalse())
		Expect(q.NumBitsForCID(1)).To(Equal(0))
		Expect(q.PopSegment(1, 10)).To(BeNil())
	})

	It("should return a whole PDU as the last segment", func() {
		head := scheduling.BitPDU{ID: "a", Bits: 100}
		q.Push(1, head)

		Expect(q.PopSegment(1, 100)).
			To(Equal(Segment{Parent: head, Bits: 100, Last: true}))
	})

	It("should panic on unknown or duplicated connections", func() {
		Expect(func() { q.Push(9, scheduling.BitPDU{}) }).To(Panic())
		Expect(func() { q.AddConnection(1, "ue1") }).To(Panic())
	})

	It("should hook every connection buffer", func() {
		var positions []*sim.HookPos
		q.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
			positions = append(positions, ctx.Pos)
		}))
		q.AddConnection(3, "ue3")

		q.Push(3, scheduling.BitPDU{Bits: 1})
		q.Push(1, scheduling.BitPDU{Bits: 1})
		q.PopHeadOfLinePDU(3)

		Expect(positions).To(Equal([]*sim.HookPos{
			sim.HookPosBufPush, sim.HookPosBufPush, sim.HookPosBufPop,
		}))
	})
})
