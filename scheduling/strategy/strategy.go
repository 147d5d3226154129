// Package strategy fills a SchedulingMap from the backlog of a queue, once
// per scheduling frame.
package strategy

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/wnsched/scheduling"
)

var log = logrus.WithField("component", "strategy")

// Role is the position of a scheduler in the master/slave arrangement.
type Role int

// Scheduler roles.
const (
	// MasterTx schedules its own transmissions, e.g. the downlink of a base
	// station.
	MasterTx Role = iota

	// MasterRx schedules the transmissions of remote stations, e.g. the
	// uplink of a base station.
	MasterRx

	// Slave fills the resources a master has granted to it.
	Slave
)

var roleNames = []string{"MasterTx", "MasterRx", "Slave"}

func (r Role) String() string {
	if int(r) < 0 || int(r) >= len(roleNames) {
		return fmt.Sprintf("Role(%d)", int(r))
	}

	return roleNames[r]
}

// ParseRole converts a role name into a Role.
func ParseRole(name string) (Role, error) {
	for i, n := range roleNames {
		if n == name {
			return Role(i), nil
		}
	}

	return 0, &scheduling.ConfigError{
		Field:  "role",
		Reason: fmt.Sprintf("unknown role %q", name),
	}
}

// Config selects the behavior of a Strategy.
type Config struct {
	Role  Role
	OwnID scheduling.UserID

	NumSubChannels   int
	NumTimeSlots     int
	NumSpatialLayers int
	SlotLength       float64

	DSA         string
	APC         string
	SubStrategy string

	// ExcludeTooLowSINR rejects requests whose SINR is below every PHY mode.
	// If unset, the most robust PHY mode is used anyway.
	ExcludeTooLowSINR bool

	// FlatCQI is used when no per-user estimate is known or the DSA strategy
	// does not need one.
	FlatCQI scheduling.ChannelQuality

	AllowSegmentation bool
	MinSegmentBits    int

	PFJitter        float64
	PFHistoryWeight float64
	Seed            int64
}

// DefaultConfig returns a master transmitter with linear DSA, nominal power
// and round robin.
func DefaultConfig() Config {
	return Config{
		Role:              MasterTx,
		OwnID:             "bs",
		NumSubChannels:    8,
		NumTimeSlots:      10,
		NumSpatialLayers:  1,
		SlotLength:        1e-3,
		DSA:               DSALinearFFirst,
		APC:               APCUseNominalTxPower,
		SubStrategy:       SubStrategyRoundRobin,
		ExcludeTooLowSINR: true,
		FlatCQI: scheduling.ChannelQuality{
			PathLoss:     100,
			Interference: -100,
		},
		AllowSegmentation: true,
		MinSegmentBits:    64,
		PFJitter:          DefaultPFJitter,
		PFHistoryWeight:   DefaultPFHistoryWeight,
		Seed:              1,
	}
}

// SchedulerState is the input of one frame.
type SchedulerState struct {
	FrameNr int

	// InputMap is the master's map for a slave, or a prefilled map for a
	// master. A master creates a fresh map if it is nil.
	InputMap *scheduling.SchedulingMap

	// UsableSubChannels masks out subchannels when set.
	UsableSubChannels []bool

	// GrantedUser is the user whose grants a slave may fill.
	GrantedUser scheduling.UserID
}

// StrategyResult is the outcome of one frame.
type StrategyResult struct {
	Map           *scheduling.SchedulingMap
	Entries       []scheduling.MapInfoEntry
	ResourceUsage float64
	Granted       int
	GrantedBits   int
	Rejected      map[RejectReason]int
}

// An Option customizes a Strategy.
type Option func(s *Strategy)

// WithObserver adds an observer of allocation outcomes.
func WithObserver(o Observer) Option {
	return func(s *Strategy) {
		s.observers = append(s.observers, o)
	}
}

// WithDSA replaces the DSA strategy chosen by name.
func WithDSA(d DSAStrategy) Option {
	return func(s *Strategy) {
		s.dsa = d
	}
}

// WithAPC replaces the APC strategy chosen by name.
func WithAPC(a APCStrategy) Option {
	return func(s *Strategy) {
		s.apc = a
	}
}

// A Strategy runs the resource allocation of one scheduler.
type Strategy struct {
	cfg       Config
	registry  Registry
	queue     Queue
	dsa       DSAStrategy
	apc       APCStrategy
	subs      map[int]SubStrategy
	cqi       *cqiCache
	observers []Observer
}

// NewStrategy creates a Strategy. It fails if a sub-strategy name is
// unknown.
func NewStrategy(
	cfg Config,
	registry Registry,
	queue Queue,
	opts ...Option,
) (*Strategy, error) {
	dsa, err := NewDSAStrategy(cfg.DSA, rand.New(rand.NewSource(cfg.Seed)))
	if err != nil {
		return nil, err
	}

	apc, err := NewAPCStrategy(cfg.APC)
	if err != nil {
		return nil, err
	}

	s := &Strategy{
		cfg:      cfg,
		registry: registry,
		queue:    queue,
		dsa:      dsa,
		apc:      apc,
		subs:     make(map[int]SubStrategy),
		cqi:      newCQICache(cfg.FlatCQI),
	}

	if _, err := s.subStrategyFor(0); err != nil {
		return nil, err
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Config returns the configuration of the strategy.
func (s *Strategy) Config() Config {
	return s.cfg
}

func (s *Strategy) subStrategyFor(class int) (SubStrategy, error) {
	if sub, found := s.subs[class]; found {
		return sub, nil
	}

	sub, err := NewSubStrategy(s.cfg.SubStrategy, SubStrategyParams{
		Jitter:        s.cfg.PFJitter,
		HistoryWeight: s.cfg.PFHistoryWeight,
		Rand:          rand.New(rand.NewSource(s.cfg.Seed + int64(class) + 1)),
	})
	if err != nil {
		return nil, err
	}

	s.subs[class] = sub

	return sub, nil
}

func (s *Strategy) validate() error {
	c := s.cfg

	switch {
	case c.NumSubChannels <= 0:
		return &scheduling.ConfigError{Field: "numberOfSubChannels", Reason: "must be positive"}
	case c.NumTimeSlots <= 0:
		return &scheduling.ConfigError{Field: "numberOfTimeSlots", Reason: "must be positive"}
	case c.NumSpatialLayers <= 0:
		return &scheduling.ConfigError{Field: "numSpatialLayers", Reason: "must be positive"}
	case !(c.SlotLength > 0):
		return &scheduling.ConfigError{Field: "slotLength", Reason: "must be positive"}
	case c.AllowSegmentation && c.MinSegmentBits <= 0:
		return &scheduling.ConfigError{Field: "minSegmentBits", Reason: "must be positive"}
	}

	return nil
}

// StartScheduling runs one frame. Configuration errors are returned before
// anything is placed. Requests that cannot be served are counted in the
// result and stay queued.
func (s *Strategy) StartScheduling(
	state *SchedulerState,
) (*StrategyResult, error) {
	if state == nil {
		return nil, &scheduling.ConfigError{
			Field:  "state",
			Reason: "scheduler state is required",
		}
	}

	if err := s.validate(); err != nil {
		return nil, err
	}

	m, err := s.prepareMap(state)
	if err != nil {
		return nil, err
	}

	pass := &framePass{
		strategy: s,
		state:    state,
		m:        m,
		result: &StrategyResult{
			Map:      m,
			Rejected: make(map[RejectReason]int),
		},
	}

	classes := s.classify(pass)
	for class := 0; class < len(classes); class++ {
		if len(classes[class]) == 0 {
			continue
		}

		sub, err := s.subStrategyFor(class)
		if err != nil {
			return nil, err
		}

		sub.ScheduleClass(pass, classes[class])
	}

	if s.cfg.Role == MasterRx {
		m.GrantFullResources()
	}

	res := pass.result
	res.Entries = m.ConvertToMapInfoCollection()
	res.ResourceUsage = m.ResourceUsage()

	for _, o := range s.observers {
		o.FrameDone(state.FrameNr, res.ResourceUsage)
	}

	log.Debugf("frame %d (%s): %d granted, %d bits, usage %.3f",
		state.FrameNr, s.cfg.Role, res.Granted, res.GrantedBits,
		res.ResourceUsage)

	return res, nil
}

func (s *Strategy) prepareMap(
	state *SchedulerState,
) (*scheduling.SchedulingMap, error) {
	var m *scheduling.SchedulingMap

	switch {
	case s.cfg.Role == Slave:
		if state.InputMap == nil {
			return nil, &scheduling.ConfigError{
				Field:  "inputMap",
				Reason: "a slave needs the map of its master",
			}
		}

		if state.GrantedUser == scheduling.NoUser {
			return nil, &scheduling.ConfigError{
				Field:  "grantedUser",
				Reason: "a slave needs the user its grants belong to",
			}
		}

		m = state.InputMap
		m.ProcessMasterMap()
		m.SetFrameNr(state.FrameNr)
	case state.InputMap != nil:
		m = state.InputMap
	default:
		var err error

		m, err = scheduling.NewSchedulingMap(
			s.cfg.SlotLength,
			s.cfg.NumSubChannels,
			s.cfg.NumTimeSlots,
			s.cfg.NumSpatialLayers,
			state.FrameNr,
		)
		if err != nil {
			return nil, err
		}
	}

	if state.UsableSubChannels != nil {
		if err := m.MaskOutSubChannels(state.UsableSubChannels); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// classify refreshes the channel estimates and groups the connections of
// reachable users by priority class.
func (s *Strategy) classify(pass *framePass) [][]scheduling.ConnectionID {
	reachable := s.registry.FilterReachable(s.queue.QueuedUsers())
	s.cqi.refresh(s.registry, reachable, s.direction())

	isReachable := make(map[scheduling.UserID]bool, len(reachable))
	for _, u := range reachable {
		isReachable[u] = true
	}

	n := s.registry.NumberOfPriorities()
	if n < 1 {
		n = 1
	}

	classes := make([][]scheduling.ConnectionID, n)

	for _, cid := range s.queue.QueuedCIDs() {
		if !isReachable[s.queue.UserOf(cid)] {
			continue
		}

		class := s.registry.Priority(cid)
		if class < 0 {
			class = 0
		}

		if class >= n {
			class = n - 1
		}

		classes[class] = append(classes[class], cid)
	}

	return classes
}

func (s *Strategy) direction() Direction {
	if s.cfg.Role == MasterTx {
		return Downlink
	}

	return Uplink
}

func (s *Strategy) txCaps(user scheduling.UserID) scheduling.PowerCapabilities {
	if s.cfg.Role == MasterTx {
		return s.registry.OwnPowerCapabilities()
	}

	return s.registry.PowerCapabilities(user)
}

func (s *Strategy) sourceOf(user scheduling.UserID) scheduling.UserID {
	if s.cfg.Role == MasterTx {
		return s.cfg.OwnID
	}

	return user
}

func (s *Strategy) estimateFor(
	user scheduling.UserID,
) scheduling.ChannelQualities {
	if !s.dsa.RequiresCQI() {
		return s.cqi.flatEstimate()
	}

	cqi, _ := s.cqi.lookup(user)

	return cqi
}

// DoAdaptiveResourceScheduling finds a resource block for a request and
// chooses its power and PHY mode. It does not place anything into the map.
// It returns false if the request cannot be served in this frame.
func (s *Strategy) DoAdaptiveResourceScheduling(
	req scheduling.RequestForResource,
	state *SchedulerState,
	m *scheduling.SchedulingMap,
) (scheduling.MapInfoEntry, bool) {
	entry, _, ok := s.adaptive(req, state, m)
	return entry, ok
}

func (s *Strategy) adaptive(
	req scheduling.RequestForResource,
	state *SchedulerState,
	m *scheduling.SchedulingMap,
) (scheduling.MapInfoEntry, RejectReason, bool) {
	if s.cfg.Role == Slave {
		return s.slaveEntry(req, state, m)
	}

	cqi := s.estimateFor(req.User)

	candidates := s.dsa.Candidates(req, m, cqi)
	if len(candidates) == 0 {
		return scheduling.MapInfoEntry{}, RejectNoSubChannel, false
	}

	caps := s.txCaps(req.User)
	firstReason := RejectDoesNotFit
	failed := false

	for _, b := range candidates {
		entry, reason, ok := s.placeOn(b, req, cqi.On(b.SubChannel()), caps, m)
		if ok {
			return entry, 0, true
		}

		if !failed {
			firstReason = reason
			failed = true
		}
	}

	return scheduling.MapInfoEntry{}, firstReason, false
}

func (s *Strategy) placeOn(
	b *scheduling.PhysicalResourceBlock,
	req scheduling.RequestForResource,
	cqi scheduling.ChannelQuality,
	caps scheduling.PowerCapabilities,
	m *scheduling.SchedulingMap,
) (scheduling.MapInfoEntry, RejectReason, bool) {
	phyMode := b.PhyMode()
	txPower := b.TxPower()
	pattern := b.Pattern()

	if !b.IsAssigned() {
		res, reason, ok := s.apc.DoAPC(APCInput{
			CQI:               cqi,
			Caps:              caps,
			Available:         m.RemainingTxPower(caps.MaxOverall, b.TimeSlot()),
			Mapper:            s.registry.PhyModeMapper(),
			ExcludeTooLowSINR: s.cfg.ExcludeTooLowSINR,
		})
		if !ok {
			return scheduling.MapInfoEntry{}, reason, false
		}

		phyMode = res.PhyMode
		txPower = res.TxPower
		pattern = scheduling.Omnidirectional
	}

	if !b.PDUFitsInto(req, phyMode) {
		return scheduling.MapInfoEntry{}, RejectDoesNotFit, false
	}

	return entryFor(m, b, req, req.User, s.sourceOf(req.User),
		phyMode, txPower, pattern, cqi), 0, true
}

func entryFor(
	m *scheduling.SchedulingMap,
	b *scheduling.PhysicalResourceBlock,
	req scheduling.RequestForResource,
	user, source scheduling.UserID,
	phyMode *scheduling.PhyMode,
	txPower scheduling.Power,
	pattern scheduling.AntennaPattern,
	cqi scheduling.ChannelQuality,
) scheduling.MapInfoEntry {
	return scheduling.MapInfoEntry{
		FrameNr:      m.FrameNr(),
		SubBand:      b.SubChannel(),
		TimeSlot:     b.TimeSlot(),
		SpatialLayer: b.SpatialLayer(),
		User:         user,
		SourceUser:   source,
		PhyMode:      phyMode,
		TxPower:      txPower,
		Pattern:      pattern,
		EstimatedCQI: cqi,
		Start:        b.NextPosition(),
		End:          b.NextPosition() + phyMode.DurationFor(req.Bits),
	}
}

// slaveEntry reuses a block granted by the master with its PHY mode and
// power unchanged.
func (s *Strategy) slaveEntry(
	req scheduling.RequestForResource,
	state *SchedulerState,
	m *scheduling.SchedulingMap,
) (scheduling.MapInfoEntry, RejectReason, bool) {
	granted := false

	for ts := 0; ts < m.NumTimeSlots(); ts++ {
		for sc := 0; sc < m.NumSubChannels(); sc++ {
			for l := 0; l < m.NumSpatialLayers(); l++ {
				b := m.PRB(sc, ts, l)
				if b.UserID() != state.GrantedUser || !b.IsUsable() {
					continue
				}

				granted = true

				grantReq := req
				grantReq.User = b.UserID()

				if !b.PDUFitsInto(grantReq, b.PhyMode()) {
					continue
				}

				return entryFor(m, b, grantReq, b.UserID(), b.SourceUserID(),
					b.PhyMode(), b.TxPower(), b.Pattern(),
					b.EstimatedCQI()), 0, true
			}
		}
	}

	if !granted {
		return scheduling.MapInfoEntry{}, RejectNoSubChannel, false
	}

	return scheduling.MapInfoEntry{}, RejectDoesNotFit, false
}

// framePass is the state of one StartScheduling call.
type framePass struct {
	strategy *Strategy
	state    *SchedulerState
	m        *scheduling.SchedulingMap
	result   *StrategyResult
}

func (p *framePass) FrameNr() int {
	return p.state.FrameNr
}

func (p *framePass) Queue() Queue {
	return p.strategy.queue
}

func (p *framePass) AchievableRate(cid scheduling.ConnectionID) float64 {
	s := p.strategy
	user := s.queue.UserOf(cid)
	cqi, _ := s.cqi.lookup(user)
	caps := s.txCaps(user)
	mapper := s.registry.PhyModeMapper()

	best := 0.0
	for sc := 0; sc < p.m.NumSubChannels(); sc++ {
		mode := mapper.BestPhyMode(cqi.On(sc).SINR(caps.Nominal))
		if mode != nil && mode.DataRate > best {
			best = mode.DataRate
		}
	}

	return best
}

func (p *framePass) ScheduleConnection(cid scheduling.ConnectionID) (int, bool) {
	s := p.strategy
	q := s.queue

	hol := q.HeadOfLinePDUBits(cid)
	if hol <= 0 {
		return 0, false
	}

	user := q.UserOf(cid)
	req := scheduling.RequestForResource{
		ConnectionID: cid,
		User:         user,
		Bits:         hol,
		CQI:          s.estimateFor(user).On(0),
	}

	entry, reason, ok := s.adaptive(req, p.state, p.m)
	if ok {
		return p.commit(entry, cid, q.PopHeadOfLinePDU(cid)), true
	}

	sq, segmenting := q.(SegmentingQueue)
	if segmenting && s.cfg.AllowSegmentation && hol > s.cfg.MinSegmentBits {
		segReq := req
		segReq.Bits = s.cfg.MinSegmentBits

		entry, _, ok = s.adaptive(segReq, p.state, p.m)
		if ok {
			n := p.segmentSize(entry, segReq, hol)
			return p.commit(entry, cid, sq.PopSegment(cid, n)), true
		}
	}

	p.reject(reason)

	return 0, false
}

// segmentSize returns the largest number of bits, up to the size of the
// head-of-line PDU, that fits into the block of the entry.
func (p *framePass) segmentSize(
	entry scheduling.MapInfoEntry,
	req scheduling.RequestForResource,
	hol int,
) int {
	b := p.m.PRB(entry.SubBand, entry.TimeSlot, entry.SpatialLayer)

	n := b.FreeBits(entry.PhyMode)
	if n > hol {
		n = hol
	}

	req.User = entry.User
	req.Bits = n

	for n > p.strategy.cfg.MinSegmentBits && !b.PDUFitsInto(req, entry.PhyMode) {
		n--
		req.Bits = n
	}

	return n
}

func (p *framePass) commit(
	entry scheduling.MapInfoEntry,
	cid scheduling.ConnectionID,
	pdu scheduling.PDU,
) int {
	if !p.m.AddCompoundForEntry(entry, cid, pdu, false) {
		log.Panicf("frame %d: %v does not fit into %s",
			p.state.FrameNr, pdu, entry)
	}

	bits := pdu.LengthInBits()
	p.result.Granted++
	p.result.GrantedBits += bits

	for _, o := range p.strategy.observers {
		o.Granted(entry.User, bits)
	}

	log.Debugf("frame %d: cid %d got %d bits on sc %d ts %d layer %d",
		p.state.FrameNr, cid, bits, entry.SubBand, entry.TimeSlot,
		entry.SpatialLayer)

	return bits
}

func (p *framePass) reject(reason RejectReason) {
	p.result.Rejected[reason]++

	for _, o := range p.strategy.observers {
		o.Rejected(reason)
	}
}
