package scheduling

import (
	"fmt"
	"log"
	"math"
	"strings"
)

// ResourceUsageTolerance bounds the rounding error accepted when the
// resource usage is checked against [0, 1].
const ResourceUsageTolerance = 1e-6

// A SchedulingMap is the resource grid of one scheduling frame: subchannels
// by time slots by spatial layers.
type SchedulingMap struct {
	frameNr      int
	slotLength   float64
	numTimeSlots int
	numLayers    int
	subChannels  []*SchedulingSubChannel
}

// NewSchedulingMap creates an empty map.
func NewSchedulingMap(
	slotLength float64,
	numSubChannels, numTimeSlots, numLayers int,
	frameNr int,
) (*SchedulingMap, error) {
	if err := validateDimensions(
		slotLength, numSubChannels, numTimeSlots, numLayers,
	); err != nil {
		return nil, err
	}

	m := &SchedulingMap{
		frameNr:      frameNr,
		slotLength:   slotLength,
		numTimeSlots: numTimeSlots,
		numLayers:    numLayers,
	}

	m.subChannels = make([]*SchedulingSubChannel, numSubChannels)
	for i := range m.subChannels {
		m.subChannels[i] = newSchedulingSubChannel(
			i, numTimeSlots, numLayers, slotLength)
	}

	return m, nil
}

func validateDimensions(
	slotLength float64,
	numSubChannels, numTimeSlots, numLayers int,
) error {
	switch {
	case numSubChannels <= 0:
		return &ConfigError{Field: "numberOfSubChannels", Reason: "must be positive"}
	case numTimeSlots <= 0:
		return &ConfigError{Field: "numberOfTimeSlots", Reason: "must be positive"}
	case numLayers <= 0:
		return &ConfigError{Field: "numSpatialLayers", Reason: "must be positive"}
	case math.IsNaN(slotLength) || slotLength <= 0:
		return &ConfigError{Field: "slotLength", Reason: "must be positive"}
	}

	return nil
}

// FrameNr returns the frame the map belongs to.
func (m *SchedulingMap) FrameNr() int { return m.frameNr }

// SetFrameNr moves the map to another frame, e.g. when a master map is
// reused by a slave.
func (m *SchedulingMap) SetFrameNr(frameNr int) { m.frameNr = frameNr }

// SlotLength returns the duration of one time slot.
func (m *SchedulingMap) SlotLength() float64 { return m.slotLength }

// NumSubChannels returns the number of subchannels.
func (m *SchedulingMap) NumSubChannels() int { return len(m.subChannels) }

// NumTimeSlots returns the number of time slots per subchannel.
func (m *SchedulingMap) NumTimeSlots() int { return m.numTimeSlots }

// NumSpatialLayers returns the number of layers per time slot.
func (m *SchedulingMap) NumSpatialLayers() int { return m.numLayers }

// SubChannel returns a subchannel.
func (m *SchedulingMap) SubChannel(sc int) *SchedulingSubChannel {
	return m.subChannels[sc]
}

// SubChannels returns all the subchannels.
func (m *SchedulingMap) SubChannels() []*SchedulingSubChannel {
	return m.subChannels
}

// PRB returns a resource block. It panics if the coordinates are out of
// range.
func (m *SchedulingMap) PRB(sc, ts, layer int) *PhysicalResourceBlock {
	if !m.contains(sc, ts, layer) {
		log.Panicf(
			"scheduling map: prb (%d, %d, %d) out of range (%d, %d, %d)",
			sc, ts, layer, len(m.subChannels), m.numTimeSlots, m.numLayers)
	}

	return m.subChannels[sc].timeSlots[ts].blocks[layer]
}

func (m *SchedulingMap) contains(sc, ts, layer int) bool {
	return sc >= 0 && sc < len(m.subChannels) &&
		ts >= 0 && ts < m.numTimeSlots &&
		layer >= 0 && layer < m.numLayers
}

// ForEachPRB visits every resource block in subchannel, time slot, layer
// order.
func (m *SchedulingMap) ForEachPRB(f func(b *PhysicalResourceBlock)) {
	for _, sc := range m.subChannels {
		for _, ts := range sc.timeSlots {
			for _, b := range ts.blocks {
				f(b)
			}
		}
	}
}

// PDUFitsInto returns true if the request fits into the resource named by the
// entry, using the entry's PHY mode.
func (m *SchedulingMap) PDUFitsInto(
	req RequestForResource,
	entry MapInfoEntry,
) bool {
	if !m.contains(entry.SubBand, entry.TimeSlot, entry.SpatialLayer) {
		return false
	}

	b := m.PRB(entry.SubBand, entry.TimeSlot, entry.SpatialLayer)

	return b.PDUFitsInto(req, entry.PhyMode)
}

// AddCompound places a PDU into a resource block. See
// PhysicalResourceBlock.AddCompound.
func (m *SchedulingMap) AddCompound(
	sc, ts, layer int,
	duration float64,
	cid ConnectionID,
	user UserID,
	sourceUser UserID,
	pdu PDU,
	phyMode *PhyMode,
	txPower Power,
	pattern AntennaPattern,
	cqi ChannelQuality,
	harq bool,
) bool {
	return m.PRB(sc, ts, layer).AddCompound(
		duration, cid, user, sourceUser, pdu, phyMode, txPower, pattern,
		cqi, harq)
}

// AddCompoundForEntry places a PDU into the resource named by the entry,
// using the entry's assignment.
func (m *SchedulingMap) AddCompoundForEntry(
	entry MapInfoEntry,
	cid ConnectionID,
	pdu PDU,
	harq bool,
) bool {
	if !entry.PhyMode.IsValid() {
		return false
	}

	return m.AddCompound(
		entry.SubBand, entry.TimeSlot, entry.SpatialLayer,
		entry.PhyMode.DurationFor(pdu.LengthInBits()),
		cid, entry.User, entry.SourceUser, pdu, entry.PhyMode,
		entry.TxPower, entry.Pattern, entry.EstimatedCQI, harq)
}

// FreeTime sums the free time of every usable resource block.
func (m *SchedulingMap) FreeTime() float64 {
	total := 0.0
	for _, sc := range m.subChannels {
		total += sc.FreeTime()
	}

	return total
}

// UsedTime sums the used time of every resource block.
func (m *SchedulingMap) UsedTime() float64 {
	total := 0.0
	for _, sc := range m.subChannels {
		total += sc.UsedTime()
	}

	return total
}

// FreeBitsOnSubChannel returns the bits that still fit into a subchannel
// with the given PHY mode, over all time slots and layers.
func (m *SchedulingMap) FreeBitsOnSubChannel(sc int, phyMode *PhyMode) int {
	total := 0
	for _, ts := range m.subChannels[sc].timeSlots {
		for _, b := range ts.blocks {
			total += b.FreeBits(phyMode)
		}
	}

	return total
}

// GrantFullResources marks every assigned resource block as fully used.
func (m *SchedulingMap) GrantFullResources() {
	m.ForEachPRB(func(b *PhysicalResourceBlock) {
		if b.IsAssigned() {
			b.GrantFullResources()
		}
	})
}

// ProcessMasterMap prepares a map received from the master for a slave
// scheduler.
func (m *SchedulingMap) ProcessMasterMap() {
	m.ForEachPRB(func(b *PhysicalResourceBlock) {
		b.ProcessMasterMap()
	})
}

// Clone returns a deep copy of the map. Compounds are copied; the PDUs they
// carry are shared.
func (m *SchedulingMap) Clone() *SchedulingMap {
	c := &SchedulingMap{
		frameNr:      m.frameNr,
		slotLength:   m.slotLength,
		numTimeSlots: m.numTimeSlots,
		numLayers:    m.numLayers,
		subChannels:  make([]*SchedulingSubChannel, len(m.subChannels)),
	}

	for i, sc := range m.subChannels {
		nsc := &SchedulingSubChannel{
			index:     sc.index,
			usable:    sc.usable,
			timeSlots: make([]*SchedulingTimeSlot, len(sc.timeSlots)),
		}

		for j, ts := range sc.timeSlots {
			nts := &SchedulingTimeSlot{
				subChannel: nsc,
				index:      ts.index,
				usable:     ts.usable,
				blocks:     make([]*PhysicalResourceBlock, len(ts.blocks)),
			}

			for l, b := range ts.blocks {
				nb := *b
				nb.timeSlot = nts
				nb.compounds = append([]SchedulingCompound(nil), b.compounds...)
				nts.blocks[l] = &nb
			}

			nsc.timeSlots[j] = nts
		}

		c.subChannels[i] = nsc
	}

	return c
}

// Reset drops every assignment and compound and makes all resources usable
// again.
func (m *SchedulingMap) Reset() {
	for _, sc := range m.subChannels {
		sc.usable = true
		for _, ts := range sc.timeSlots {
			ts.usable = true
			for _, b := range ts.blocks {
				b.reset()
			}
		}
	}
}

// MaskOutSubChannels sets the usable flag of every subchannel. The vector
// must have one entry per subchannel.
func (m *SchedulingMap) MaskOutSubChannels(usable []bool) error {
	if len(usable) != len(m.subChannels) {
		return &ConfigError{
			Field: "usableSubChannels",
			Reason: fmt.Sprintf("got %d entries for %d subchannels",
				len(usable), len(m.subChannels)),
		}
	}

	for i, u := range usable {
		m.subChannels[i].usable = u
	}

	return nil
}

// SetTimeSlotUsable masks a single time slot in or out.
func (m *SchedulingMap) SetTimeSlotUsable(sc, ts int, usable bool) {
	m.subChannels[sc].timeSlots[ts].usable = usable
}

// ResourceUsage returns the used share of the usable capacity. It panics if
// the bookkeeping produces a value outside [0, 1].
func (m *SchedulingMap) ResourceUsage() float64 {
	used := 0.0
	total := 0.0

	m.ForEachPRB(func(b *PhysicalResourceBlock) {
		if !b.IsUsable() {
			return
		}

		used += b.UsedTime()
		total += b.slotLength
	})

	if total == 0 {
		return 0
	}

	usage := used / total
	if usage < -ResourceUsageTolerance || usage > 1+ResourceUsageTolerance {
		log.Panicf(
			"scheduling map: frame %d resource usage %g out of range",
			m.frameNr, usage)
	}

	return math.Min(1, math.Max(0, usage))
}

// TxPowerUsedInTimeSlot sums the power of every assigned block in a time
// slot over all subchannels and layers.
func (m *SchedulingMap) TxPowerUsedInTimeSlot(ts int) Power {
	total := NoPower
	for _, sc := range m.subChannels {
		total = total.Add(sc.timeSlots[ts].TxPower())
	}

	return total
}

// RemainingTxPower returns the power still available in a time slot under
// the overall limit.
func (m *SchedulingMap) RemainingTxPower(maxOverall Power, ts int) Power {
	return maxOverall.Sub(m.TxPowerUsedInTimeSlot(ts))
}

// ConvertToMapInfoCollection returns one entry per assigned resource block.
func (m *SchedulingMap) ConvertToMapInfoCollection() []MapInfoEntry {
	var entries []MapInfoEntry

	m.ForEachPRB(func(b *PhysicalResourceBlock) {
		if !b.IsAssigned() {
			return
		}

		entries = append(entries, MapInfoEntry{
			FrameNr:      m.frameNr,
			SubBand:      b.subChannel,
			TimeSlot:     b.timeSlotIdx,
			SpatialLayer: b.spatialLayer,
			User:         b.userID,
			SourceUser:   b.sourceUserID,
			PhyMode:      b.phyMode,
			TxPower:      b.txPower,
			Pattern:      b.pattern,
			EstimatedCQI: b.estimatedCQI,
			Start:        0,
			End:          b.nextPosition,
			Compounds:    b.Compounds(),
		})
	})

	return entries
}

// IsEmpty returns true if no resource block carries anything.
func (m *SchedulingMap) IsEmpty() bool {
	for _, sc := range m.subChannels {
		if !sc.IsEmpty() {
			return false
		}
	}

	return true
}

// NumberOfCompounds counts the compounds of the whole map.
func (m *SchedulingMap) NumberOfCompounds() int {
	n := 0
	m.ForEachPRB(func(b *PhysicalResourceBlock) {
		n += len(b.compounds)
	})

	return n
}

func (m *SchedulingMap) String() string {
	s := new(strings.Builder)
	fmt.Fprintf(s, "SchedulingMap frame %d (%d sc x %d ts x %d layers, %.3e s)\n",
		m.frameNr, len(m.subChannels), m.numTimeSlots, m.numLayers,
		m.slotLength)

	for _, sc := range m.subChannels {
		if !sc.usable {
			fmt.Fprintf(s, "  sc %d: masked\n", sc.index)
			continue
		}

		for _, ts := range sc.timeSlots {
			for _, b := range ts.blocks {
				if b.IsEmpty() && !b.IsAssigned() {
					continue
				}

				fmt.Fprintf(s, "  %s\n", b)
			}
		}
	}

	return s.String()
}
