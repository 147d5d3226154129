package arq

import "github.com/sarchlab/wnsched/sim"

// A Link puts a bounded upstream buffer in front of a Sender. Payloads wait
// in the buffer while the window is full and are pumped into the sender when
// acknowledgements open the window again.
type Link struct {
	upstream sim.Buffer
	sender   Sender
}

// NewLink creates a Link with an upstream buffer of the given capacity.
func NewLink(name string, capacity int, sender Sender) *Link {
	return &Link{
		upstream: sim.NewBuffer(name+".Upstream", capacity),
		sender:   sender,
	}
}

// Upstream returns the buffer in front of the sender.
func (l *Link) Upstream() sim.Buffer {
	return l.upstream
}

// Sender returns the ARQ entity of the link.
func (l *Link) Sender() Sender {
	return l.sender
}

// CanSend returns true if the upstream buffer has room.
func (l *Link) CanSend() bool {
	return l.upstream.CanPush()
}

// Send queues a payload. It returns false if the upstream buffer is full.
func (l *Link) Send(payload any) bool {
	if !l.upstream.CanPush() {
		return false
	}

	l.upstream.Push(payload)
	l.pump()

	return true
}

// OnData hands a frame from the peer to the sender and pumps the buffer.
func (l *Link) OnData(f Frame) {
	l.sender.OnData(f)
	l.pump()
}

// Buffered returns the number of payloads waiting for the window.
func (l *Link) Buffered() int {
	return l.upstream.Size()
}

func (l *Link) pump() {
	for l.upstream.Size() > 0 && l.sender.IsAccepting() {
		p := l.upstream.Pop()
		if err := l.sender.Send(p); err != nil {
			log.Panicf("link %s: %v", l.upstream.Name(), err)
		}
	}
}
