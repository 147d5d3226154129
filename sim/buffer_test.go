package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Buffer", func() {
	var (
		mockCtrl *gomock.Controller
		buf      Buffer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		buf = NewBuffer("Buf", 2)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should keep fifo order up to the capacity", func() {
		Expect(buf.Capacity()).To(Equal(2))

		buf.Push(1)
		buf.Push(2)
		Expect(buf.CanPush()).To(BeFalse())
		Expect(func() { buf.Push(3) }).To(Panic())

		Expect(buf.Peek()).To(Equal(1))
		Expect(buf.Pop()).To(Equal(1))
		Expect(buf.Size()).To(Equal(1))
		Expect(buf.Pop()).To(Equal(2))
		Expect(buf.Peek()).To(BeNil())
		Expect(buf.Pop()).To(BeNil())
	})

	It("should wrap around", func() {
		for i := 0; i < 5; i++ {
			buf.Push(i)
			buf.Push(i + 10)
			Expect(buf.Pop()).To(Equal(i))
			Expect(buf.Pop()).To(Equal(i + 10))
		}

		Expect(buf.Size()).To(Equal(0))
		Expect(buf.Peak()).To(Equal(2))
	})

	It("should remember the peak", func() {
		buf.Push(1)
		buf.Pop()
		Expect(buf.Peak()).To(Equal(1))
	})

	It("should invoke hooks on push and pop", func() {
		hook := NewMockHook(mockCtrl)
		buf.AcceptHook(hook)

		push := hook.EXPECT().Func(HookCtx{
			Domain: buf, Pos: HookPosBufPush, Item: 7,
		})
		hook.EXPECT().Func(HookCtx{
			Domain: buf, Pos: HookPosBufPop, Item: 7,
		}).After(push)

		buf.Push(7)
		buf.Pop()
	})

	It("should reject invalid construction", func() {
		Expect(func() { NewBuffer("", 1) }).To(Panic())
		Expect(func() { NewBuffer("B", 0) }).To(Panic())
	})
})
