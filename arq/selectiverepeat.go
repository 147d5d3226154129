package arq

import "github.com/sarchlab/wnsched/sim"

type srEntry struct {
	frame Frame
	timer *sim.Event
	acked bool
}

// SelectiveRepeat keeps one resend timer per frame and acknowledges every
// frame individually. The receiver buffers frames that arrive out of order.
type SelectiveRepeat struct {
	cfg       Config
	win       window
	scheduler sim.EventScheduler
	lower     LowerLayer
	upper     UpperLayer

	base        int
	next        int
	outstanding map[int]*srEntry

	expected int
	received map[int]any

	stats Stats
}

// NewSelectiveRepeat creates a Selective-Repeat entity. The configuration
// must have been validated.
func NewSelectiveRepeat(
	cfg Config,
	scheduler sim.EventScheduler,
	lower LowerLayer,
	upper UpperLayer,
) *SelectiveRepeat {
	return &SelectiveRepeat{
		cfg:         cfg,
		win:         window{size: cfg.WindowSize, modulo: cfg.SequenceNumberSize},
		scheduler:   scheduler,
		lower:       lower,
		upper:       upper,
		outstanding: make(map[int]*srEntry),
		received:    make(map[int]any),
	}
}

// IsAccepting returns true if the window has room.
func (s *SelectiveRepeat) IsAccepting() bool {
	return s.next-s.base < s.cfg.WindowSize
}

// NumOutstanding returns the number of frames in the window.
func (s *SelectiveRepeat) NumOutstanding() int {
	return s.next - s.base
}

// Stats returns the counters.
func (s *SelectiveRepeat) Stats() Stats {
	return s.stats
}

// Send transmits a payload and arms its resend timer.
func (s *SelectiveRepeat) Send(payload any) error {
	if !s.IsAccepting() {
		return ErrWindowFull
	}

	abs := s.next
	s.next++

	e := &srEntry{frame: Frame{Seq: s.win.wire(abs), Payload: payload}}
	s.outstanding[abs] = e

	s.stats.Sent++
	s.lower.SendDown(e.frame)
	s.arm(abs, e)

	return nil
}

func (s *SelectiveRepeat) arm(abs int, e *srEntry) {
	e.timer = sim.MustScheduleDelay(s.scheduler, func() {
		s.resend(abs)
	}, s.cfg.ResendTimeout)
}

func (s *SelectiveRepeat) resend(abs int) {
	e, found := s.outstanding[abs]
	if !found || e.acked {
		return
	}

	s.stats.Retransmissions++
	log.Debugf("selective repeat: resend %s at %.9f", e.frame,
		s.scheduler.CurrentTime())

	s.lower.SendDown(e.frame)
	s.arm(abs, e)
}

// OnData processes a frame from the peer.
func (s *SelectiveRepeat) OnData(f Frame) {
	if f.IsACK {
		s.onACK(f.Seq)
		return
	}

	s.onDataFrame(f)
}

func (s *SelectiveRepeat) onACK(seq int) {
	abs, found := s.win.find(seq, s.base, s.next)
	if !found {
		return
	}

	e := s.outstanding[abs]
	if e.acked {
		return
	}

	s.stats.ACKsReceived++
	e.acked = true

	if err := s.scheduler.Cancel(e.timer); err != nil {
		log.Panicf("selective repeat: cannot cancel timer of %s: %v",
			e.frame, err)
	}

	for s.base < s.next && s.outstanding[s.base].acked {
		delete(s.outstanding, s.base)
		s.base++
	}
}

func (s *SelectiveRepeat) onDataFrame(f Frame) {
	offset := (f.Seq - s.win.wire(s.expected) + s.win.modulo) % s.win.modulo

	if offset >= s.cfg.WindowSize {
		// Already delivered; the ACK was lost.
		s.stats.Duplicates++
		s.ack(f.Seq)

		return
	}

	abs := s.expected + offset
	if _, dup := s.received[abs]; dup {
		s.stats.Duplicates++
	} else {
		s.received[abs] = f.Payload
	}

	s.ack(f.Seq)

	for {
		payload, found := s.received[s.expected]
		if !found {
			break
		}

		delete(s.received, s.expected)
		s.expected++
		s.stats.Delivered++
		s.upper.Deliver(payload)
	}
}

func (s *SelectiveRepeat) ack(seq int) {
	s.stats.ACKsSent++
	s.lower.SendDown(Frame{Seq: seq, IsACK: true})
}
