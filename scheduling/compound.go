package scheduling

import (
	"fmt"
	"strings"
)

// UserID identifies a station. The empty UserID means unassigned.
type UserID string

// NoUser is the user of a resource that is not assigned.
const NoUser UserID = ""

// ConnectionID identifies a connection of a user.
type ConnectionID int

// AntennaPattern names the beam used on a resource.
type AntennaPattern string

// Omnidirectional is the pattern used when no beamforming is applied.
const Omnidirectional AntennaPattern = "omni"

// A PDU is the payload placed into the map. PDUs are shared by every
// compound and queue that refers to them and must not be modified after they
// are queued.
type PDU interface {
	LengthInBits() int
}

// BitPDU is a PDU that only carries its size.
type BitPDU struct {
	ID   string
	Bits int
}

// LengthInBits returns the size of the PDU.
func (p BitPDU) LengthInBits() int {
	return p.Bits
}

// RequestForResource asks for resources to transmit a number of bits of one
// connection.
type RequestForResource struct {
	ConnectionID ConnectionID
	User         UserID
	Bits         int
	CQI          ChannelQuality
	HARQ         bool
}

func (r RequestForResource) String() string {
	return fmt.Sprintf("request(cid=%d, user=%s, bits=%d)",
		r.ConnectionID, r.User, r.Bits)
}

// A SchedulingCompound is one PDU placed into a resource block. Start and
// end are relative to the beginning of the time slot.
type SchedulingCompound struct {
	SubChannel   int
	TimeSlot     int
	SpatialLayer int
	StartTime    float64
	EndTime      float64
	ConnectionID ConnectionID
	UserID       UserID
	SourceUserID UserID
	PDU          PDU
	PhyMode      *PhyMode
	TxPower      Power
	Pattern      AntennaPattern
	EstimatedCQI ChannelQuality
	HARQ         bool
}

// Duration returns the time the compound occupies.
func (c SchedulingCompound) Duration() float64 {
	return c.EndTime - c.StartTime
}

// Bits returns the size of the PDU, or 0 if there is none.
func (c SchedulingCompound) Bits() int {
	if c.PDU == nil {
		return 0
	}

	return c.PDU.LengthInBits()
}

func (c SchedulingCompound) String() string {
	return fmt.Sprintf("cid=%d [%.3e, %.3e) %d bits",
		c.ConnectionID, c.StartTime, c.EndTime, c.Bits())
}

// MapInfoEntry describes a placement decision: which resource a user gets
// and with which PHY mode and power. Entries are values; copies do not share
// state with the map.
type MapInfoEntry struct {
	FrameNr      int
	SubBand      int
	TimeSlot     int
	SpatialLayer int
	User         UserID
	SourceUser   UserID
	PhyMode      *PhyMode
	TxPower      Power
	Pattern      AntennaPattern
	EstimatedCQI ChannelQuality
	Start        float64
	End          float64
	Compounds    []SchedulingCompound
}

// TotalBits returns the number of bits of all the compounds in the entry.
func (e MapInfoEntry) TotalBits() int {
	total := 0
	for _, c := range e.Compounds {
		total += c.Bits()
	}

	return total
}

func (e MapInfoEntry) String() string {
	b := new(strings.Builder)
	fmt.Fprintf(b, "frame %d sc %d ts %d layer %d: user=%s %s %s",
		e.FrameNr, e.SubBand, e.TimeSlot, e.SpatialLayer,
		e.User, e.PhyMode, e.TxPower)

	if len(e.Compounds) > 0 {
		fmt.Fprintf(b, ", %d compounds", len(e.Compounds))
	}

	return b.String()
}
