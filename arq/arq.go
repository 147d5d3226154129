// Package arq implements Selective-Repeat and Go-Back-N retransmission on
// top of the timeouts of the sim package.
package arq

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/wnsched/sim"
)

var log = logrus.WithField("component", "arq")

// ErrWindowFull is returned by Send when the sender cannot accept another
// payload until an acknowledgement arrives.
var ErrWindowFull = errors.New("arq: window is full")

// HeaderBits is the size of the ARQ header of every frame.
const HeaderBits = 32

// Mode selects the retransmission scheme.
type Mode string

// Supported modes.
const (
	ModeSelectiveRepeat Mode = "SelectiveRepeat"
	ModeGoBackN         Mode = "GoBackN"
)

// Config holds the parameters of an ARQ entity.
type Config struct {
	WindowSize         int            `yaml:"windowSize"`
	SequenceNumberSize int            `yaml:"sequenceNumberSize"`
	ResendTimeout      sim.VTimeInSec `yaml:"resendTimeout"`
}

// Validate checks the parameters for the given mode.
func (c Config) Validate(mode Mode) error {
	if c.WindowSize <= 0 {
		return errors.Errorf("arq: window size must be positive, got %d",
			c.WindowSize)
	}

	if !(c.ResendTimeout > 0) {
		return errors.Errorf("arq: resend timeout must be positive, got %g",
			c.ResendTimeout)
	}

	switch mode {
	case ModeSelectiveRepeat:
		if 2*c.WindowSize > c.SequenceNumberSize {
			return errors.Errorf(
				"arq: selective repeat needs window %d <= sequence number size %d / 2",
				c.WindowSize, c.SequenceNumberSize)
		}
	case ModeGoBackN:
		if c.WindowSize >= c.SequenceNumberSize {
			return errors.Errorf(
				"arq: go-back-n needs window %d < sequence number size %d",
				c.WindowSize, c.SequenceNumberSize)
		}
	default:
		return errors.Errorf("arq: unknown mode %q", mode)
	}

	return nil
}

// A Frame is a data frame or an acknowledgement.
type Frame struct {
	Seq     int
	Payload any
	IsACK   bool
}

// LengthInBits returns the header size plus the size of the payload, if the
// payload knows its size.
func (f Frame) LengthInBits() int {
	n := HeaderBits
	if sized, ok := f.Payload.(interface{ LengthInBits() int }); ok {
		n += sized.LengthInBits()
	}

	return n
}

func (f Frame) String() string {
	if f.IsACK {
		return fmt.Sprintf("ack(%d)", f.Seq)
	}

	return fmt.Sprintf("data(%d)", f.Seq)
}

// LowerLayer carries frames to the peer.
type LowerLayer interface {
	SendDown(f Frame)
}

// LowerLayerFunc adapts a function into a LowerLayer.
type LowerLayerFunc func(f Frame)

// SendDown calls the function.
func (fn LowerLayerFunc) SendDown(f Frame) {
	fn(f)
}

// UpperLayer receives the payloads in order.
type UpperLayer interface {
	Deliver(payload any)
}

// UpperLayerFunc adapts a function into an UpperLayer.
type UpperLayerFunc func(payload any)

// Deliver calls the function.
func (fn UpperLayerFunc) Deliver(payload any) {
	fn(payload)
}

// A Sender is one end of an ARQ connection. It sends data frames and
// acknowledges the frames of its peer.
type Sender interface {
	// IsAccepting returns true if Send would succeed.
	IsAccepting() bool

	// Send transmits a payload. It returns ErrWindowFull if the window is
	// exhausted.
	Send(payload any) error

	// OnData processes a frame received from the peer.
	OnData(f Frame)

	// NumOutstanding returns the number of unacknowledged frames.
	NumOutstanding() int

	// Stats returns the counters of the entity.
	Stats() Stats
}

// Stats counts what an ARQ entity has done.
type Stats struct {
	Sent            int
	Retransmissions int
	ACKsSent        int
	ACKsReceived    int
	Delivered       int
	Duplicates      int
}

// New creates an ARQ entity of the given mode.
func New(
	mode Mode,
	cfg Config,
	scheduler sim.EventScheduler,
	lower LowerLayer,
	upper UpperLayer,
) (Sender, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	switch mode {
	case ModeGoBackN:
		return NewGoBackN(cfg, scheduler, lower, upper), nil
	default:
		return NewSelectiveRepeat(cfg, scheduler, lower, upper), nil
	}
}

// window maps wire sequence numbers to the absolute numbers an entity keeps
// internally.
type window struct {
	size   int
	modulo int
}

func (w window) wire(abs int) int {
	return abs % w.modulo
}

// find returns the absolute number in [from, to) whose wire number is seq.
func (w window) find(seq, from, to int) (int, bool) {
	for abs := from; abs < to; abs++ {
		if w.wire(abs) == seq {
			return abs, true
		}
	}

	return 0, false
}
