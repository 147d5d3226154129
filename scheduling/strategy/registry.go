package strategy

import (
	"github.com/sarchlab/wnsched/scheduling"
)

// StaticRegistry is a Registry with fixed answers, filled in by the
// simulation builder.
type StaticRegistry struct {
	mapper      *scheduling.PhyModeMapper
	ownCaps     scheduling.PowerCapabilities
	caps        map[scheduling.UserID]scheduling.PowerCapabilities
	downlink    map[scheduling.UserID]scheduling.ChannelQualities
	uplink      map[scheduling.UserID]scheduling.ChannelQualities
	unreachable map[scheduling.UserID]bool
	priorities  map[scheduling.ConnectionID]int
	numPrio     int
}

// NewStaticRegistry creates a registry with a single priority class.
func NewStaticRegistry(
	mapper *scheduling.PhyModeMapper,
	ownCaps scheduling.PowerCapabilities,
) *StaticRegistry {
	return &StaticRegistry{
		mapper:      mapper,
		ownCaps:     ownCaps,
		caps:        make(map[scheduling.UserID]scheduling.PowerCapabilities),
		downlink:    make(map[scheduling.UserID]scheduling.ChannelQualities),
		uplink:      make(map[scheduling.UserID]scheduling.ChannelQualities),
		unreachable: make(map[scheduling.UserID]bool),
		priorities:  make(map[scheduling.ConnectionID]int),
		numPrio:     1,
	}
}

// AddUser registers a user with its power limits and channel estimates.
// Either estimate may be nil.
func (r *StaticRegistry) AddUser(
	user scheduling.UserID,
	caps scheduling.PowerCapabilities,
	downlink, uplink scheduling.ChannelQualities,
) {
	r.caps[user] = caps

	if downlink != nil {
		r.downlink[user] = downlink
	}

	if uplink != nil {
		r.uplink[user] = uplink
	}
}

// SetReachable marks a user as reachable or not.
func (r *StaticRegistry) SetReachable(user scheduling.UserID, reachable bool) {
	if reachable {
		delete(r.unreachable, user)
		return
	}

	r.unreachable[user] = true
}

// SetPriority puts a connection into a priority class.
func (r *StaticRegistry) SetPriority(cid scheduling.ConnectionID, prio int) {
	r.priorities[cid] = prio
	if prio+1 > r.numPrio {
		r.numPrio = prio + 1
	}
}

// PhyModeMapper returns the PHY mode table.
func (r *StaticRegistry) PhyModeMapper() *scheduling.PhyModeMapper {
	return r.mapper
}

// OwnPowerCapabilities returns the limits of the scheduling station.
func (r *StaticRegistry) OwnPowerCapabilities() scheduling.PowerCapabilities {
	return r.ownCaps
}

// PowerCapabilities returns the limits of a user. Unknown users get the
// limits of the scheduling station.
func (r *StaticRegistry) PowerCapabilities(
	user scheduling.UserID,
) scheduling.PowerCapabilities {
	caps, found := r.caps[user]
	if !found {
		return r.ownCaps
	}

	return caps
}

// ChannelQualities returns the estimate of a user for a direction.
func (r *StaticRegistry) ChannelQualities(
	user scheduling.UserID,
	dir Direction,
) (scheduling.ChannelQualities, bool) {
	var cqi scheduling.ChannelQualities

	var found bool
	if dir == Uplink {
		cqi, found = r.uplink[user]
	} else {
		cqi, found = r.downlink[user]
	}

	return cqi, found
}

// FilterReachable drops the users marked as unreachable.
func (r *StaticRegistry) FilterReachable(
	users []scheduling.UserID,
) []scheduling.UserID {
	out := make([]scheduling.UserID, 0, len(users))
	for _, u := range users {
		if !r.unreachable[u] {
			out = append(out, u)
		}
	}

	return out
}

// Priority returns the priority class of a connection, 0 if unset.
func (r *StaticRegistry) Priority(cid scheduling.ConnectionID) int {
	return r.priorities[cid]
}

// NumberOfPriorities returns the number of classes in use.
func (r *StaticRegistry) NumberOfPriorities() int {
	return r.numPrio
}
