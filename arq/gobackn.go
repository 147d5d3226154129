package arq

import (
	"github.com/sarchlab/wnsched/sim"
)

// GoBackN keeps a single timer for the oldest unacknowledged frame and
// resends the whole window when it fires. ACKs are cumulative and the
// receiver only accepts the frame it expects next.
type GoBackN struct {
	cfg       Config
	win       window
	scheduler sim.EventScheduler
	lower     LowerLayer
	upper     UpperLayer
	timeout   *sim.Timeout

	base   int
	next   int
	frames map[int]Frame

	expected int

	stats Stats
}

// NewGoBackN creates a Go-Back-N entity. The configuration must have been
// validated.
func NewGoBackN(
	cfg Config,
	scheduler sim.EventScheduler,
	lower LowerLayer,
	upper UpperLayer,
) *GoBackN {
	g := &GoBackN{
		cfg:       cfg,
		win:       window{size: cfg.WindowSize, modulo: cfg.SequenceNumberSize},
		scheduler: scheduler,
		lower:     lower,
		upper:     upper,
		frames:    make(map[int]Frame),
	}
	g.timeout = sim.NewTimeout(scheduler, g)

	return g
}

// IsAccepting returns true if the window has room.
func (g *GoBackN) IsAccepting() bool {
	return g.next-g.base < g.cfg.WindowSize
}

// NumOutstanding returns the number of frames in the window.
func (g *GoBackN) NumOutstanding() int {
	return g.next - g.base
}

// Stats returns the counters.
func (g *GoBackN) Stats() Stats {
	return g.stats
}

// Send transmits a payload. The timer is armed if the window was empty.
func (g *GoBackN) Send(payload any) error {
	if !g.IsAccepting() {
		return ErrWindowFull
	}

	abs := g.next
	g.next++

	f := Frame{Seq: g.win.wire(abs), Payload: payload}
	g.frames[abs] = f

	g.stats.Sent++
	g.lower.SendDown(f)

	if !g.timeout.HasTimeoutSet() {
		g.timeout.SetTimeout(g.cfg.ResendTimeout)
	}

	return nil
}

// OnTimeout resends every outstanding frame.
func (g *GoBackN) OnTimeout() {
	if g.base == g.next {
		return
	}

	log.Debugf("go-back-n: resend %d frames at %.9f", g.next-g.base,
		g.scheduler.CurrentTime())

	for abs := g.base; abs < g.next; abs++ {
		g.stats.Retransmissions++
		g.lower.SendDown(g.frames[abs])
	}

	g.timeout.SetTimeout(g.cfg.ResendTimeout)
}

// OnData processes a frame from the peer.
func (g *GoBackN) OnData(f Frame) {
	if f.IsACK {
		g.onACK(f.Seq)
		return
	}

	g.onDataFrame(f)
}

func (g *GoBackN) onACK(seq int) {
	abs, found := g.win.find(seq, g.base, g.next)
	if !found {
		return
	}

	g.stats.ACKsReceived++

	for ; g.base <= abs; g.base++ {
		delete(g.frames, g.base)
	}

	if g.timeout.HasTimeoutSet() {
		g.timeout.CancelTimeout()
	}

	if g.base < g.next {
		g.timeout.SetTimeout(g.cfg.ResendTimeout)
	}
}

func (g *GoBackN) onDataFrame(f Frame) {
	if f.Seq != g.win.wire(g.expected) {
		g.stats.Duplicates++

		if g.expected > 0 {
			g.ack(g.win.wire(g.expected - 1))
		}

		return
	}

	g.expected++
	g.stats.Delivered++
	g.upper.Deliver(f.Payload)
	g.ack(f.Seq)
}

func (g *GoBackN) ack(seq int) {
	g.stats.ACKsSent++
	g.lower.SendDown(Frame{Seq: seq, IsACK: true})
}
