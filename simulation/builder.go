package simulation

import (
	"math/rand"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/wnsched/config"
	"github.com/sarchlab/wnsched/datarecording"
	"github.com/sarchlab/wnsched/monitoring"
	"github.com/sarchlab/wnsched/scheduling"
	"github.com/sarchlab/wnsched/scheduling/strategy"
	"github.com/sarchlab/wnsched/sim"
	"github.com/sarchlab/wnsched/tracing"
)

// Builder can be used to build a simulation.
type Builder struct {
	cfg        config.Config
	recorder   datarecording.DataRecorder
	monitor    *monitoring.Monitor
	registerer prometheus.Registerer
}

// MakeBuilder creates a new builder with the default configuration.
func MakeBuilder() Builder {
	return Builder{
		cfg: config.Default(),
	}
}

// WithConfig sets the configuration of the cell.
func (b Builder) WithConfig(cfg config.Config) Builder {
	b.cfg = cfg
	return b
}

// WithRecorder records into the given recorder instead of the file named by
// the configuration.
func (b Builder) WithRecorder(r datarecording.DataRecorder) Builder {
	b.recorder = r
	return b
}

// WithMonitor uses the given monitor. Its server is left to the caller.
func (b Builder) WithMonitor(m *monitoring.Monitor) Builder {
	b.monitor = m
	return b
}

// WithRegisterer registers the metrics against reg instead of a private
// registry.
func (b Builder) WithRegisterer(reg prometheus.Registerer) Builder {
	b.registerer = reg
	return b
}

// Build builds the simulation.
func (b Builder) Build() (*Simulation, error) {
	cfg := b.cfg
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Simulation{
		id:          sim.NewUniqueIDGenerator("").Generate(),
		cfg:         cfg,
		engine:      sim.NewSerialEngine(),
		cell:        &cell{name: cfg.BaseStation.ID},
		packetIDs:   sim.NewSequentialIDGenerator("pdu-"),
		loss:        rand.New(rand.NewSource(cfg.Strategy.Seed)),
		connections: make(map[scheduling.ConnectionID]*connection),
	}

	if err := b.buildCollector(s); err != nil {
		return nil, err
	}

	if err := b.buildSchedulers(s); err != nil {
		return nil, err
	}

	if err := b.buildConnections(s); err != nil {
		return nil, err
	}

	if err := b.buildTracers(s); err != nil {
		return nil, err
	}

	if err := b.buildRecorder(s); err != nil {
		return nil, err
	}

	if err := b.buildMonitor(s); err != nil {
		return nil, err
	}

	s.driver = newFrameDriver(s)

	log.Infof("built cell %s with %d users, %s, %s/%s/%s",
		cfg.BaseStation.ID, len(cfg.Users), cfg.ARQ.Mode,
		cfg.Strategy.DSA, cfg.Strategy.APC, cfg.Strategy.SubStrategy)

	return s, nil
}

func (b Builder) buildCollector(s *Simulation) error {
	reg := b.registerer
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	collector, err := monitoring.NewSchedulerCollector(reg)
	if err != nil {
		return errors.Wrap(err, "registering metrics")
	}

	s.collector = collector

	return nil
}

func (b Builder) buildSchedulers(s *Simulation) error {
	cfg := s.cfg

	mapper, err := cfg.PhyModeMapper()
	if err != nil {
		return err
	}

	s.registry = strategy.NewStaticRegistry(mapper, cfg.BaseStation.Power)
	for _, u := range cfg.Users {
		id := scheduling.UserID(u.ID)
		s.registry.AddUser(id, u.Power,
			scheduling.ChannelQualities{u.Downlink.ChannelQuality()},
			scheduling.ChannelQualities{u.Uplink.ChannelQuality()})
		s.registry.SetReachable(id, !u.Unreachable)
	}

	s.dlQueue = strategy.NewBufferQueue(cfg.ARQ.BufferSize)
	s.requests = strategy.NewBufferQueue(cfg.ARQ.BufferSize)

	s.downlink, err = strategy.NewStrategy(
		cfg.StrategyConfig(strategy.MasterTx), s.registry, s.dlQueue,
		strategy.WithObserver(s.collector))
	if err != nil {
		return errors.Wrap(err, "downlink scheduler")
	}

	s.uplink, err = strategy.NewStrategy(
		cfg.StrategyConfig(strategy.MasterRx), s.registry, s.requests,
		strategy.WithObserver(s.collector))
	if err != nil {
		return errors.Wrap(err, "uplink scheduler")
	}

	for _, u := range cfg.Users {
		st := &station{
			id:    scheduling.UserID(u.ID),
			queue: strategy.NewBufferQueue(cfg.ARQ.BufferSize),
		}

		slaveCfg := cfg.StrategyConfig(strategy.Slave)
		slaveCfg.OwnID = st.id

		st.slave, err = strategy.NewStrategy(slaveCfg, s.registry, st.queue)
		if err != nil {
			return errors.Wrapf(err, "scheduler of %s", u.ID)
		}

		s.stations = append(s.stations, st)
	}

	return nil
}

// buildConnections creates one downlink and one uplink connection per user.
// Connection IDs are 2i+1 and 2i+2 for the i-th user.
func (b Builder) buildConnections(s *Simulation) error {
	for i, u := range s.cfg.Users {
		st := s.stations[i]
		t := u.Traffic

		dlCID := scheduling.ConnectionID(2*i + 1)
		ulCID := scheduling.ConnectionID(2*i + 2)

		dl, err := newConnection(s, dlCID, st.id, strategy.Downlink,
			t.DownlinkPDUsPerFrame, t.PDUBits, s.dlQueue)
		if err != nil {
			return errors.Wrapf(err, "downlink of %s", u.ID)
		}

		ul, err := newConnection(s, ulCID, st.id, strategy.Uplink,
			t.UplinkPDUsPerFrame, t.PDUBits, st.queue)
		if err != nil {
			return errors.Wrapf(err, "uplink of %s", u.ID)
		}

		s.requests.AddConnection(ulCID, st.id)

		s.registry.SetPriority(dlCID, t.Priority)
		s.registry.SetPriority(ulCID, t.Priority)

		s.connections[dlCID] = dl
		s.connections[ulCID] = ul
		s.dlConns = append(s.dlConns, dl)
		s.ulConns = append(s.ulConns, ul)
	}

	return nil
}

func (b Builder) buildTracers(s *Simulation) error {
	s.pdus = tracing.NewTaskStats(s.engine, tracing.KindIs("pdu"))
	tracing.CollectTrace(s.cell, s.pdus)

	if path := s.cfg.Output.TracePath; path != "" {
		t, err := tracing.NewCSVTracer(s.engine, tracing.AllTasks, path)
		if err != nil {
			return err
		}

		s.csvTracer = t
		tracing.CollectTrace(s.cell, t)
	}

	if path := s.cfg.Output.SpanPath; path != "" {
		f, err := tracing.NewSpanFile(path, "wnsched/"+s.cfg.BaseStation.ID)
		if err != nil {
			return err
		}

		s.spanFile = f
		tracing.CollectTrace(s.cell,
			tracing.NewSpanTracer(f.Provider(), s.engine, tracing.KindIs("pdu")))
	}

	s.events = &tracing.EventCounter{}
	s.engine.AcceptHook(s.events)

	if logrus.IsLevelEnabled(logrus.TraceLevel) {
		s.engine.AcceptHook(tracing.NewEventLogger(
			logrus.WithField("component", "engine")))
	}

	return nil
}

func (b Builder) buildRecorder(s *Simulation) error {
	rec, err := b.openRecorder(s.cfg.Output)
	if err != nil || rec == nil {
		return err
	}

	s.dataRecorder = rec

	s.frameRecorder, err = datarecording.NewFrameRecorder(rec)
	if err != nil {
		return errors.Wrap(err, "creating frame tables")
	}

	s.execRecorder, err = datarecording.NewExecRecorder(rec)
	if err != nil {
		return errors.Wrap(err, "creating exec table")
	}

	s.execRecorder.Start()
	s.execRecorder.Add("Simulation ID", s.id)

	return nil
}

// openRecorder returns the supplied recorder, or the one the configuration
// asks for, or nil if nothing is recorded.
func (b Builder) openRecorder(o config.Output) (datarecording.DataRecorder, error) {
	if b.recorder != nil {
		return b.recorder, nil
	}

	if o.Recorder == config.RecorderClickHouse {
		return datarecording.NewClickHouse(datarecording.ClickHouseOptions{
			Addr:      o.ClickHouse.Addr,
			Database:  o.ClickHouse.Database,
			Username:  o.ClickHouse.Username,
			Password:  o.ClickHouse.Password,
			BatchSize: o.ClickHouse.BatchSize,
		})
	}

	if o.RecordingPath == "" {
		return nil, nil
	}

	return datarecording.New(o.RecordingPath)
}

func (b Builder) buildMonitor(s *Simulation) error {
	m := b.monitor
	startServer := false

	if m == nil {
		if !s.cfg.Output.Monitor {
			return nil
		}

		m = monitoring.NewMonitor().
			WithPortNumber(s.cfg.Output.MonitorPort).
			WithGatherer(s.collector.Gatherer())
		startServer = true
	}

	s.monitor = m
	m.RegisterEngine(s.engine)

	for _, c := range s.sortedConnections() {
		m.RegisterBuffer(c.link.Upstream())
	}

	if !startServer {
		return nil
	}

	url, err := m.StartServer()
	if err != nil {
		return err
	}

	s.serving = true

	if s.cfg.Output.OpenBrowser {
		if err := m.OpenBrowser(url); err != nil {
			log.Warnf("opening browser: %v", err)
		}
	}

	return nil
}
