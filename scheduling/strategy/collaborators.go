package strategy

import "github.com/sarchlab/wnsched/scheduling"

// Queue exposes the backlog of the connections a scheduler serves.
type Queue interface {
	// QueueHasPDUs returns true if the connection has anything queued.
	QueueHasPDUs(cid scheduling.ConnectionID) bool

	// NumBitsForCID returns the number of bits queued for a connection.
	NumBitsForCID(cid scheduling.ConnectionID) int

	// QueuedUsers returns the users that have queued data, sorted.
	QueuedUsers() []scheduling.UserID

	// QueuedCIDs returns the connections that have queued data, sorted.
	QueuedCIDs() []scheduling.ConnectionID

	// UserOf returns the peer of a connection.
	UserOf(cid scheduling.ConnectionID) scheduling.UserID

	// HeadOfLinePDUBits returns the size of the next PDU of a connection.
	HeadOfLinePDUBits(cid scheduling.ConnectionID) int

	// PopHeadOfLinePDU removes the next PDU of a connection.
	PopHeadOfLinePDU(cid scheduling.ConnectionID) scheduling.PDU
}

// A SegmentingQueue can split the head-of-line PDU.
type SegmentingQueue interface {
	Queue

	// PopSegment removes the first bits of the head-of-line PDU and returns
	// them as a PDU. The whole remainder is returned if it is not larger than
	// bits.
	PopSegment(cid scheduling.ConnectionID, bits int) scheduling.PDU
}

// Direction tells which link a channel estimate describes.
type Direction int

// Link directions.
const (
	Downlink Direction = iota
	Uplink
)

func (d Direction) String() string {
	if d == Uplink {
		return "uplink"
	}

	return "downlink"
}

// Registry answers questions about the stations a scheduler talks to.
type Registry interface {
	PhyModeMapper() *scheduling.PhyModeMapper
	OwnPowerCapabilities() scheduling.PowerCapabilities
	PowerCapabilities(user scheduling.UserID) scheduling.PowerCapabilities

	// ChannelQualities returns the per-subchannel estimate of a user. It
	// returns false if no estimate is known.
	ChannelQualities(
		user scheduling.UserID,
		dir Direction,
	) (scheduling.ChannelQualities, bool)

	// FilterReachable drops the users that cannot be served this frame.
	FilterReachable(users []scheduling.UserID) []scheduling.UserID

	// Priority returns the priority class of a connection. Class 0 is served
	// first.
	Priority(cid scheduling.ConnectionID) int

	// NumberOfPriorities returns the number of priority classes.
	NumberOfPriorities() int
}

// An Observer is told about the outcome of every allocation attempt.
type Observer interface {
	Granted(user scheduling.UserID, bits int)
	Rejected(reason RejectReason)
	FrameDone(frameNr int, resourceUsage float64)
}

// RejectReason tells why a request was not served in a frame. All the
// reasons are retryable in the next frame.
type RejectReason int

// Reject reasons.
const (
	RejectNoSubChannel RejectReason = iota
	RejectSINRTooLow
	RejectNoPower
	RejectDoesNotFit
)

var rejectReasonNames = []string{
	"no_subchannel",
	"sinr_too_low",
	"no_power",
	"does_not_fit",
}

// AllRejectReasons lists every reason.
var AllRejectReasons = []RejectReason{
	RejectNoSubChannel,
	RejectSINRTooLow,
	RejectNoPower,
	RejectDoesNotFit,
}

func (r RejectReason) String() string {
	if int(r) < 0 || int(r) >= len(rejectReasonNames) {
		return "unknown"
	}

	return rejectReasonNames[r]
}
