package simulation

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/sarchlab/wnsched/arq"
	"github.com/sarchlab/wnsched/monitoring"
	"github.com/sarchlab/wnsched/scheduling"
	"github.com/sarchlab/wnsched/scheduling/strategy"
	"github.com/sarchlab/wnsched/sim"
)

// FrameDriver runs one scheduling frame per period. A frame is a downlink
// phase followed by an uplink phase of the same length. The downlink map is
// delivered at the end of the downlink phase and the uplink maps at the end
// of the frame.
type FrameDriver struct {
	s      *Simulation
	ticker *sim.PeriodicTimeout

	frameNr    int
	lastFrame  int
	framesDone int
	err        error

	progress *monitoring.ProgressBar

	granted     int
	grantedBits int
	rejected    map[strategy.RejectReason]int
	usageSum    float64
	passes      int
}

func newFrameDriver(s *Simulation) *FrameDriver {
	d := &FrameDriver{
		s:        s,
		rejected: make(map[strategy.RejectReason]int),
	}
	d.ticker = sim.NewPeriodicTimeout(s.engine, d)

	return d
}

// Start schedules the first frame now and one more every frame duration
// until the given number of frames has been scheduled.
func (d *FrameDriver) Start(frames int) {
	d.lastFrame = d.frameNr + frames
	if frames <= 0 {
		return
	}

	if d.s.monitor != nil {
		d.progress = d.s.monitor.CreateProgressBar("Frames", uint64(frames))
	}

	d.ticker.StartPeriodicTimeout(d.s.cfg.FrameDuration(), 0)
}

// Err returns the error that stopped the driver, if any.
func (d *FrameDriver) Err() error {
	return d.err
}

// PeriodicTimeout runs the next frame.
func (d *FrameDriver) PeriodicTimeout() {
	frameNr := d.frameNr
	d.frameNr++

	last := d.frameNr >= d.lastFrame
	if last {
		d.ticker.CancelPeriodicTimeout()
	}

	if err := d.runFrame(frameNr); err != nil {
		d.err = errors.Wrapf(err, "frame %d", frameNr)

		if d.ticker.HasPeriodicTimeoutSet() {
			d.ticker.CancelPeriodicTimeout()
		}

		d.s.engine.Stop()

		return
	}

	d.framesDone++

	if d.progress != nil {
		d.progress.IncrementFinished(1)
	}

	if last {
		sim.MustScheduleDelay(d.s.engine, d.finish, d.s.cfg.FrameDuration())
	}
}

// finish runs after the deliveries of the last frame. Pending
// retransmission timers stay queued.
func (d *FrameDriver) finish() {
	if d.progress != nil {
		d.s.monitor.CompleteProgressBar(d.progress)
	}

	d.s.engine.Stop()
}

func (d *FrameDriver) runFrame(frameNr int) error {
	s := d.s
	start := s.engine.CurrentTime()

	for _, c := range s.sortedConnections() {
		c.offer()
	}

	dl, err := s.downlink.StartScheduling(
		&strategy.SchedulerState{FrameNr: frameNr})
	if err != nil {
		return errors.Wrap(err, "downlink")
	}

	if err := d.observe(strategy.Downlink, frameNr, dl); err != nil {
		return err
	}

	d.count(dl)

	dlEnd := start + d.phase()
	sim.MustSchedule(s.engine, func() { s.deliver(dl.Map) }, dlEnd)

	ulMaps, err := d.runUplink(frameNr)
	if err != nil {
		return err
	}

	sim.MustSchedule(s.engine, func() {
		for _, m := range ulMaps {
			s.deliver(m)
		}
	}, start+s.cfg.FrameDuration())

	s.publishARQ()

	log.Debugf("frame %d: downlink %d granted, usage %.3f",
		frameNr, dl.Granted, dl.ResourceUsage)

	return nil
}

// runUplink lets the base station grant resources for the reported backlog
// and lets every granted user fill its own grants.
func (d *FrameDriver) runUplink(frameNr int) ([]*scheduling.SchedulingMap, error) {
	s := d.s

	s.reportBacklog()

	master, err := s.uplink.StartScheduling(
		&strategy.SchedulerState{FrameNr: frameNr})
	if err != nil {
		return nil, errors.Wrap(err, "uplink")
	}

	if err := d.observe(strategy.Uplink, frameNr, master); err != nil {
		return nil, err
	}

	d.rejectedBy(master)

	grantedUsers := make(map[scheduling.UserID]bool)
	for _, e := range master.Entries {
		grantedUsers[e.User] = true
	}

	var maps []*scheduling.SchedulingMap

	for _, st := range s.stations {
		if !grantedUsers[st.id] {
			continue
		}

		res, err := st.slave.StartScheduling(&strategy.SchedulerState{
			FrameNr:     frameNr,
			InputMap:    master.Map.Clone(),
			GrantedUser: st.id,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "uplink of %s", st.id)
		}

		d.granted += res.Granted
		d.grantedBits += res.GrantedBits
		maps = append(maps, res.Map)
	}

	return maps, nil
}

// phase is the length of the downlink or the uplink part of a frame.
func (d *FrameDriver) phase() sim.VTimeInSec {
	return d.s.cfg.FrameDuration() / 2
}

func (d *FrameDriver) observe(
	dir strategy.Direction,
	frameNr int,
	res *strategy.StrategyResult,
) error {
	s := d.s

	d.usageSum += res.ResourceUsage
	d.passes++

	if s.monitor != nil {
		s.monitor.PublishMap(dir.String(), res.Map)
	}

	if s.frameRecorder == nil {
		return nil
	}

	if err := s.frameRecorder.RecordMap(dir, res.Map); err != nil {
		return errors.Wrap(err, "recording map")
	}

	if err := s.frameRecorder.RecordFrame(dir, frameNr, res); err != nil {
		return errors.Wrap(err, "recording frame")
	}

	return nil
}

func (d *FrameDriver) count(res *strategy.StrategyResult) {
	d.granted += res.Granted
	d.grantedBits += res.GrantedBits
	d.rejectedBy(res)
}

func (d *FrameDriver) rejectedBy(res *strategy.StrategyResult) {
	for r, n := range res.Rejected {
		d.rejected[r] += n
	}
}

// reportBacklog replaces the bandwidth requests of the last frame with the
// current backlog of every uplink connection. The backlog is reported in
// chunks of one frame each, the head-of-line PDU first.
func (s *Simulation) reportBacklog() {
	for _, c := range s.ulConns {
		for s.requests.QueueHasPDUs(c.cid) {
			s.requests.PopHeadOfLinePDU(c.cid)
		}

		remaining := c.queue.NumBitsForCID(c.cid)
		chunk := c.queue.HeadOfLinePDUBits(c.cid)
		n := 0

		for remaining > 0 && s.requests.CanPush(c.cid) {
			if chunk > remaining {
				chunk = remaining
			}

			s.requests.Push(c.cid, scheduling.BitPDU{
				ID:   fmt.Sprintf("bw-%d-%d", c.cid, n),
				Bits: chunk,
			})

			remaining -= chunk
			chunk = c.pduBits + arq.HeaderBits
			n++
		}
	}
}

// deliver hands every frame a map completes to its receiver.
func (s *Simulation) deliver(m *scheduling.SchedulingMap) {
	m.ForEachPRB(func(b *scheduling.PhysicalResourceBlock) {
		for _, comp := range b.Compounds() {
			c, found := s.connections[comp.ConnectionID]
			if !found {
				continue
			}

			f, complete := frameOf(comp.PDU)
			if !complete {
				continue
			}

			c.receive(f)
		}
	})
}
