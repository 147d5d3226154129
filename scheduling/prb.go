package scheduling

import (
	"fmt"
	"log"
	"math"
	"strings"
)

// SlotLengthTolerance absorbs floating point error when durations are
// compared with the remaining capacity of a resource block.
const SlotLengthTolerance = 1e-12

// A PhysicalResourceBlock is the capacity of one spatial layer of one time
// slot on one subchannel. Compounds are placed back to back from the start
// of the slot. All compounds of a block belong to the same user and share
// its PHY mode and transmit power.
type PhysicalResourceBlock struct {
	timeSlot *SchedulingTimeSlot

	subChannel   int
	timeSlotIdx  int
	spatialLayer int
	slotLength   float64

	nextPosition float64
	freeTime     float64
	granted      bool

	userID       UserID
	sourceUserID UserID
	phyMode      *PhyMode
	txPower      Power
	pattern      AntennaPattern
	estimatedCQI ChannelQuality

	compounds []SchedulingCompound
}

func newPhysicalResourceBlock(
	ts *SchedulingTimeSlot,
	subChannel, timeSlot, spatialLayer int,
	slotLength float64,
) *PhysicalResourceBlock {
	return &PhysicalResourceBlock{
		timeSlot:     ts,
		subChannel:   subChannel,
		timeSlotIdx:  timeSlot,
		spatialLayer: spatialLayer,
		slotLength:   slotLength,
		freeTime:     slotLength,
		txPower:      NoPower,
		pattern:      Omnidirectional,
	}
}

// SubChannel returns the subchannel index of the block.
func (b *PhysicalResourceBlock) SubChannel() int { return b.subChannel }

// TimeSlot returns the time slot index of the block.
func (b *PhysicalResourceBlock) TimeSlot() int { return b.timeSlotIdx }

// SpatialLayer returns the spatial layer index of the block.
func (b *PhysicalResourceBlock) SpatialLayer() int { return b.spatialLayer }

// SlotLength returns the capacity of the block in seconds.
func (b *PhysicalResourceBlock) SlotLength() float64 { return b.slotLength }

// NextPosition returns the offset at which the next compound starts.
func (b *PhysicalResourceBlock) NextPosition() float64 { return b.nextPosition }

// UsedTime returns the occupied part of the block.
func (b *PhysicalResourceBlock) UsedTime() float64 { return b.nextPosition }

// FreeTime returns the capacity still available. Blocks that are masked out
// have no free time.
func (b *PhysicalResourceBlock) FreeTime() float64 {
	if !b.IsUsable() {
		return 0
	}

	return b.freeTime
}

// IsUsable returns false if the time slot or the subchannel of the block is
// masked out.
func (b *PhysicalResourceBlock) IsUsable() bool {
	return b.timeSlot.IsUsable()
}

// UserID returns the user the block is assigned to, or NoUser.
func (b *PhysicalResourceBlock) UserID() UserID { return b.userID }

// SourceUserID returns the transmitting station of the block.
func (b *PhysicalResourceBlock) SourceUserID() UserID { return b.sourceUserID }

// PhyMode returns the PHY mode of the block, or nil if it is not assigned.
func (b *PhysicalResourceBlock) PhyMode() *PhyMode { return b.phyMode }

// TxPower returns the transmit power of the block.
func (b *PhysicalResourceBlock) TxPower() Power { return b.txPower }

// Pattern returns the antenna pattern of the block.
func (b *PhysicalResourceBlock) Pattern() AntennaPattern { return b.pattern }

// EstimatedCQI returns the channel estimate used when the block was
// assigned.
func (b *PhysicalResourceBlock) EstimatedCQI() ChannelQuality {
	return b.estimatedCQI
}

// IsGranted returns true if the whole block is reserved for the assigned
// user.
func (b *PhysicalResourceBlock) IsGranted() bool { return b.granted }

// IsAssigned returns true if the block belongs to a user.
func (b *PhysicalResourceBlock) IsAssigned() bool { return b.userID != NoUser }

// IsEmpty returns true if nothing has been placed into the block.
func (b *PhysicalResourceBlock) IsEmpty() bool {
	return len(b.compounds) == 0 && b.nextPosition == 0
}

// NumberOfCompounds returns the number of compounds in the block.
func (b *PhysicalResourceBlock) NumberOfCompounds() int {
	return len(b.compounds)
}

// Compounds returns a copy of the compounds in the block.
func (b *PhysicalResourceBlock) Compounds() []SchedulingCompound {
	out := make([]SchedulingCompound, len(b.compounds))
	copy(out, b.compounds)

	return out
}

// NetBits returns the number of payload bits in the block.
func (b *PhysicalResourceBlock) NetBits() int {
	total := 0
	for _, c := range b.compounds {
		total += c.Bits()
	}

	return total
}

// FreeBits returns the number of bits that still fit into the block. The
// PHY mode of the block takes precedence over the given one.
func (b *PhysicalResourceBlock) FreeBits(phyMode *PhyMode) int {
	pm := b.phyMode
	if pm == nil {
		pm = phyMode
	}

	if !pm.IsValid() {
		return 0
	}

	return pm.BitsFor(b.FreeTime())
}

// CanBeUsedBy returns true if the user may place compounds into the block.
func (b *PhysicalResourceBlock) CanBeUsedBy(user UserID) bool {
	if !b.IsUsable() || b.freeTime <= SlotLengthTolerance {
		return false
	}

	return b.userID == NoUser || b.userID == user
}

// PDUFitsInto returns true if the requested bits fit into the remaining
// capacity with the given PHY mode.
func (b *PhysicalResourceBlock) PDUFitsInto(
	req RequestForResource,
	phyMode *PhyMode,
) bool {
	if !phyMode.IsValid() || !b.IsUsable() {
		return false
	}

	if b.userID != NoUser && b.userID != req.User {
		return false
	}

	return b.fits(phyMode.DurationFor(req.Bits))
}

func (b *PhysicalResourceBlock) fits(duration float64) bool {
	return b.nextPosition+duration <= b.slotLength+SlotLengthTolerance
}

// AddCompound places a PDU at the next free position. It returns false if
// the block is masked out or has not enough room. Placing a compound of a
// different user, or with a different PHY mode or power than the block
// already carries, is a programming error and panics.
func (b *PhysicalResourceBlock) AddCompound(
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
	if math.IsNaN(duration) || duration < 0 {
		b.panicf("invalid compound duration %g", duration)
	}

	if user == NoUser {
		b.panicf("compound of connection %d has no user", cid)
	}

	if !b.IsUsable() || !b.fits(duration) {
		return false
	}

	b.mustBeConsistentWith(user, sourceUser, phyMode, txPower)

	if b.userID == NoUser {
		b.userID = user
		b.sourceUserID = sourceUser
		b.phyMode = phyMode
		b.txPower = txPower
		b.pattern = pattern
		b.estimatedCQI = cqi
	}

	start := b.nextPosition
	end := start + duration

	b.compounds = append(b.compounds, SchedulingCompound{
		SubChannel:   b.subChannel,
		TimeSlot:     b.timeSlotIdx,
		SpatialLayer: b.spatialLayer,
		StartTime:    start,
		EndTime:      end,
		ConnectionID: cid,
		UserID:       user,
		SourceUserID: sourceUser,
		PDU:          pdu,
		PhyMode:      phyMode,
		TxPower:      txPower,
		Pattern:      pattern,
		EstimatedCQI: cqi,
		HARQ:         harq,
	})

	b.nextPosition = end
	b.freeTime -= duration

	if b.freeTime < 0 {
		b.freeTime = 0
		b.nextPosition = b.slotLength
	}

	b.mustBeConsistent(duration)

	return true
}

func (b *PhysicalResourceBlock) mustBeConsistentWith(
	user, sourceUser UserID,
	phyMode *PhyMode,
	txPower Power,
) {
	if b.userID == NoUser {
		return
	}

	if b.userID != user {
		b.panicf("assigned to %s, cannot place compound of %s",
			b.userID, user)
	}

	if b.sourceUserID != sourceUser {
		b.panicf("source user is %s, cannot place compound from %s",
			b.sourceUserID, sourceUser)
	}

	if b.phyMode != nil && !b.phyMode.SameAs(phyMode) {
		b.panicf("uses %s, cannot place compound with %s",
			b.phyMode, phyMode)
	}

	if !b.txPower.IsZero() &&
		math.Abs(float64(b.txPower)-float64(txPower)) > 1e-6 {
		b.panicf("uses %s, cannot place compound with %s",
			b.txPower, txPower)
	}
}

func (b *PhysicalResourceBlock) mustBeConsistent(requested float64) {
	if math.Abs(b.nextPosition+b.freeTime-b.slotLength) > SlotLengthTolerance {
		b.panicf("used %g + free %g != slot length %g (requested %g)",
			b.nextPosition, b.freeTime, b.slotLength, requested)
	}

	if b.freeTime < -SlotLengthTolerance {
		b.panicf("negative free time %g (requested %g)",
			b.freeTime, requested)
	}

	sum := 0.0
	for _, c := range b.compounds {
		sum += c.Duration()
	}

	if sum > b.nextPosition+SlotLengthTolerance {
		b.panicf("compounds take %g but only %g is used (requested %g)",
			sum, b.nextPosition, requested)
	}
}

// GrantFullResources reserves the whole block for its user. The remaining
// capacity is handed to the user's own scheduler through the slave map.
func (b *PhysicalResourceBlock) GrantFullResources() {
	b.nextPosition = b.slotLength
	b.freeTime = 0
	b.granted = true
}

// ProcessMasterMap turns a block received from the master into a block the
// slave can fill. The compounds are dropped. The user, the PHY mode and the
// power decided by the master stay.
func (b *PhysicalResourceBlock) ProcessMasterMap() {
	b.compounds = nil
	b.nextPosition = 0
	b.freeTime = b.slotLength
	b.granted = false
}

func (b *PhysicalResourceBlock) reset() {
	b.ProcessMasterMap()
	b.userID = NoUser
	b.sourceUserID = NoUser
	b.phyMode = nil
	b.txPower = NoPower
	b.pattern = Omnidirectional
	b.estimatedCQI = ChannelQuality{}
}

func (b *PhysicalResourceBlock) panicf(format string, args ...any) {
	log.Panicf("prb(sc=%d, ts=%d, layer=%d): %s",
		b.subChannel, b.timeSlotIdx, b.spatialLayer,
		fmt.Sprintf(format, args...))
}

func (b *PhysicalResourceBlock) String() string {
	s := new(strings.Builder)
	fmt.Fprintf(s, "prb(sc=%d, ts=%d, layer=%d", b.subChannel,
		b.timeSlotIdx, b.spatialLayer)

	if b.userID != NoUser {
		fmt.Fprintf(s, ", user=%s, %s, %s", b.userID, b.phyMode, b.txPower)
	}

	fmt.Fprintf(s, ", used=%.3e/%.3e", b.nextPosition, b.slotLength)

	for _, c := range b.compounds {
		fmt.Fprintf(s, ", %s", c)
	}

	s.WriteString(")")

	return s.String()
}
