package simulation

import (
	"fmt"

	"github.com/sarchlab/wnsched/arq"
	"github.com/sarchlab/wnsched/scheduling"
	"github.com/sarchlab/wnsched/scheduling/strategy"
	"github.com/sarchlab/wnsched/sim"
	"github.com/sarchlab/wnsched/tracing"
)

// A packet is the payload offered by the traffic source of a connection.
type packet struct {
	ID   string
	Bits int
}

func (p packet) LengthInBits() int {
	return p.Bits
}

// A connection carries the traffic of one user in one direction. The sending
// ARQ entity hands data frames to the scheduling queue. The receiving entity
// gets the frames the scheduler has placed and answers with acknowledgements
// that travel back out of band.
type connection struct {
	s *Simulation

	cid          scheduling.ConnectionID
	user         scheduling.UserID
	dir          strategy.Direction
	pdusPerFrame int
	pduBits      int

	queue    *strategy.BufferQueue
	link     *arq.Link
	receiver arq.Sender

	offered   int
	blocked   int
	dropped   int
	lost      int
	delivered int
}

func newConnection(
	s *Simulation,
	cid scheduling.ConnectionID,
	user scheduling.UserID,
	dir strategy.Direction,
	pdusPerFrame, pduBits int,
	queue *strategy.BufferQueue,
) (*connection, error) {
	c := &connection{
		s:            s,
		cid:          cid,
		user:         user,
		dir:          dir,
		pdusPerFrame: pdusPerFrame,
		pduBits:      pduBits,
		queue:        queue,
	}

	cfg := s.cfg
	mode := cfg.ARQMode()

	sender, err := arq.New(mode, cfg.ARQConfig(), s.engine,
		arq.LowerLayerFunc(c.sendDown), arq.UpperLayerFunc(c.deliver))
	if err != nil {
		return nil, err
	}

	c.receiver, err = arq.New(mode, cfg.ARQConfig(), s.engine,
		arq.LowerLayerFunc(c.sendDown), arq.UpperLayerFunc(c.deliver))
	if err != nil {
		return nil, err
	}

	c.link = arq.NewLink(c.name(), cfg.ARQ.BufferSize, sender)
	queue.AddConnection(cid, user)

	return c, nil
}

func (c *connection) name() string {
	return fmt.Sprintf("%s.%s", c.user, c.dir)
}

// offer generates the packets of one frame. Packets that find the upstream
// buffer full are counted as blocked.
func (c *connection) offer() {
	for i := 0; i < c.pdusPerFrame; i++ {
		c.offered++

		if !c.link.CanSend() {
			c.blocked++
			continue
		}

		p := packet{ID: c.s.packetIDs.Generate(), Bits: c.pduBits}
		tracing.StartTask(c.s.cell, tracing.Task{
			ID:     p.ID,
			Kind:   "pdu",
			What:   c.dir.String(),
			Detail: p,
		})
		c.link.Send(p)
	}
}

// sendDown routes the frames of both ARQ entities. Data frames enter the
// scheduling queue, acknowledgements reach the peer after the ACK delay.
func (c *connection) sendDown(f arq.Frame) {
	if f.IsACK {
		sim.MustScheduleDelay(c.s.engine, func() { c.link.OnData(f) },
			sim.VTimeInSec(c.s.cfg.Simulation.ACKDelay))
		return
	}

	id := packetID(f)

	if !c.queue.CanPush(c.cid) {
		c.dropped++
		tracing.AddTaskStep(c.s.cell, id, "dropped")

		return
	}

	c.queue.Push(c.cid, f)
	tracing.AddTaskStep(c.s.cell, id, "queued")
}

// receive hands a frame that went over the air to the receiving entity,
// unless the channel loses it.
func (c *connection) receive(f arq.Frame) {
	if c.s.loss.Float64() < c.s.cfg.Simulation.LossProbability {
		c.lost++
		tracing.AddTaskStep(c.s.cell, packetID(f), "lost")

		return
	}

	c.receiver.OnData(f)
}

func (c *connection) deliver(payload any) {
	p, ok := payload.(packet)
	if !ok {
		log.Panicf("connection %s: unexpected payload %v",
			c.name(), payload)
	}

	c.delivered++
	tracing.EndTask(c.s.cell, p.ID)
}

func (c *connection) senderStats() arq.Stats {
	return c.link.Sender().Stats()
}

func (c *connection) receiverStats() arq.Stats {
	return c.receiver.Stats()
}

func packetID(f arq.Frame) string {
	if p, ok := f.Payload.(packet); ok {
		return p.ID
	}

	return ""
}

// frameOf returns the ARQ frame a compound completes. A segmented frame is
// complete with its last segment.
func frameOf(pdu scheduling.PDU) (arq.Frame, bool) {
	switch p := pdu.(type) {
	case arq.Frame:
		return p, true
	case strategy.Segment:
		if !p.Last {
			return arq.Frame{}, false
		}

		f, ok := p.Parent.(arq.Frame)

		return f, ok
	}

	return arq.Frame{}, false
}
