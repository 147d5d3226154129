// Package simulation wires the scheduler, the ARQ links and the outputs into
// a runnable cell with one base station and its users.
package simulation

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/wnsched/config"
	"github.com/sarchlab/wnsched/datarecording"
	"github.com/sarchlab/wnsched/monitoring"
	"github.com/sarchlab/wnsched/scheduling"
	"github.com/sarchlab/wnsched/scheduling/strategy"
	"github.com/sarchlab/wnsched/sim"
	"github.com/sarchlab/wnsched/tracing"
)

var log = logrus.WithField("component", "simulation")

// cell is the tracing domain of the simulation.
type cell struct {
	sim.HookableBase
	name string
}

func (c *cell) Name() string {
	return c.name
}

// A station is a user with its uplink queue and the slave scheduler that
// fills the grants of the base station.
type station struct {
	id    scheduling.UserID
	queue *strategy.BufferQueue
	slave *strategy.Strategy
}

// A Simulation is a cell ready to run.
type Simulation struct {
	id  string
	cfg config.Config

	engine    *sim.SerialEngine
	cell      *cell
	packetIDs *sim.SequentialIDs
	loss      *rand.Rand

	registry *strategy.StaticRegistry
	downlink *strategy.Strategy
	uplink   *strategy.Strategy
	dlQueue  *strategy.BufferQueue
	requests *strategy.BufferQueue
	stations []*station

	connections map[scheduling.ConnectionID]*connection
	dlConns     []*connection
	ulConns     []*connection

	collector *monitoring.SchedulerCollector
	monitor   *monitoring.Monitor
	serving   bool

	dataRecorder  datarecording.DataRecorder
	frameRecorder *datarecording.FrameRecorder
	execRecorder  *datarecording.ExecRecorder

	pdus      *tracing.TaskStats
	csvTracer *tracing.CSVTracer
	spanFile  *tracing.SpanFile
	events    *tracing.EventCounter

	driver *FrameDriver
	ran    bool
}

// Summary is the outcome of a run.
type Summary struct {
	Frames            int
	Granted           int
	GrantedBits       int
	Rejected          map[strategy.RejectReason]int
	Offered           int
	Blocked           int
	Dropped           int
	Lost              int
	Delivered         int
	Retransmissions   int
	MeanResourceUsage float64
	MeanLatency       sim.VTimeInSec
	MaxLatency        sim.VTimeInSec
	Latency           map[string]sim.VTimeInSec // mean per direction
	InFlight          int
	Events            uint64
}

func (s Summary) String() string {
	reasons := make([]string, 0, len(s.Rejected))
	for _, r := range strategy.AllRejectReasons {
		if n := s.Rejected[r]; n > 0 {
			reasons = append(reasons, fmt.Sprintf("%s=%d", r, n))
		}
	}

	return fmt.Sprintf(
		"%d frames: %d granted (%d bits), rejected %v, "+
			"%d/%d delivered, %d blocked, %d dropped, %d lost, "+
			"%d retransmissions, usage %.3f, latency %.6f s (max %.6f s)",
		s.Frames, s.Granted, s.GrantedBits, reasons,
		s.Delivered, s.Offered, s.Blocked, s.Dropped, s.Lost,
		s.Retransmissions, s.MeanResourceUsage,
		s.MeanLatency, s.MaxLatency)
}

// ID returns the unique ID of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// Config returns the configuration the simulation was built from.
func (s *Simulation) Config() config.Config {
	return s.cfg
}

// GetEngine returns the engine used in the simulation.
func (s *Simulation) GetEngine() sim.Engine {
	return s.engine
}

// GetDataRecorder returns the data recorder, or nil if nothing is recorded.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// GetMonitor returns the monitor, or nil if monitoring is off.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// GetCollector returns the Prometheus collector of the schedulers.
func (s *Simulation) GetCollector() *monitoring.SchedulerCollector {
	return s.collector
}

// StepCounts returns how many PDUs reached each step at least once, e.g.
// "lost" or "dropped".
func (s *Simulation) StepCounts() map[string]uint64 {
	counts := make(map[string]uint64)
	for _, name := range s.pdus.StepNames() {
		counts[name] = s.pdus.TaskCount(name)
	}

	return counts
}

// Run schedules the given number of frames, or the configured number if
// frames is not positive. A simulation runs only once.
func (s *Simulation) Run(frames int) (Summary, error) {
	if s.ran {
		return Summary{}, errors.New("simulation has already run")
	}

	s.ran = true

	if frames <= 0 {
		frames = s.cfg.Simulation.Frames
	}

	if s.execRecorder != nil {
		s.execRecorder.Add("Frames", strconv.Itoa(frames))
		s.execRecorder.Add("Seed", strconv.FormatInt(s.cfg.Strategy.Seed, 10))
	}

	s.driver.Start(frames)

	if err := s.engine.Run(); err != nil {
		return Summary{}, errors.Wrap(err, "running engine")
	}

	if err := s.driver.Err(); err != nil {
		return Summary{}, err
	}

	if err := s.recordARQ(); err != nil {
		return Summary{}, err
	}

	summary := s.summarize()
	log.Infof("%s", summary)

	return summary, nil
}

func (s *Simulation) sortedConnections() []*connection {
	conns := make([]*connection, 0, len(s.connections))
	for _, c := range s.connections {
		conns = append(conns, c)
	}

	sort.Slice(conns, func(i, j int) bool { return conns[i].cid < conns[j].cid })

	return conns
}

func (s *Simulation) publishARQ() {
	for _, c := range s.sortedConnections() {
		s.collector.SetARQStats(c.name()+".tx", c.senderStats())
		s.collector.SetARQStats(c.name()+".rx", c.receiverStats())
	}
}

func (s *Simulation) recordARQ() error {
	s.publishARQ()

	if s.frameRecorder == nil {
		return nil
	}

	for _, c := range s.sortedConnections() {
		if err := s.frameRecorder.RecordARQ(c.name()+".tx", c.senderStats()); err != nil {
			return errors.Wrap(err, "recording arq counters")
		}

		if err := s.frameRecorder.RecordARQ(c.name()+".rx", c.receiverStats()); err != nil {
			return errors.Wrap(err, "recording arq counters")
		}
	}

	return errors.Wrap(s.frameRecorder.Flush(), "flushing recorder")
}

func (s *Simulation) summarize() Summary {
	d := s.driver

	sum := Summary{
		Frames:      d.framesDone,
		Granted:     d.granted,
		GrantedBits: d.grantedBits,
		Rejected:    make(map[strategy.RejectReason]int),
		MeanLatency: s.pdus.AverageTime(),
		MaxLatency:  s.pdus.MaxTime(),
		Latency:     make(map[string]sim.VTimeInSec),
		InFlight:    s.pdus.InFlight(),
		Events:      s.events.Events(),
	}

	for _, what := range s.pdus.Whats() {
		sum.Latency[what], _ = s.pdus.AverageTimeOf(what)
	}

	for r, n := range d.rejected {
		sum.Rejected[r] = n
	}

	if d.passes > 0 {
		sum.MeanResourceUsage = d.usageSum / float64(d.passes)
	}

	for _, c := range s.connections {
		sum.Offered += c.offered
		sum.Blocked += c.blocked
		sum.Dropped += c.dropped
		sum.Lost += c.lost
		sum.Delivered += c.delivered
		sum.Retransmissions += c.senderStats().Retransmissions
	}

	return sum
}

// Terminate writes the outputs and releases files and the monitor server.
func (s *Simulation) Terminate() error {
	var firstErr error

	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if s.execRecorder != nil {
		keep(s.execRecorder.End())
	}

	if s.dataRecorder != nil {
		keep(s.dataRecorder.Close())
	}

	if s.csvTracer != nil {
		keep(s.csvTracer.Close())
	}

	if s.spanFile != nil {
		keep(s.spanFile.Close())
		s.spanFile = nil
	}

	if s.serving {
		keep(s.monitor.StopServer())
		s.serving = false
	}

	return firstErr
}
