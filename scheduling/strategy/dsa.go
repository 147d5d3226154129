package strategy

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"sort"

	"github.com/sarchlab/wnsched/scheduling"
)

// A DSAStrategy chooses the resource blocks a request may be placed into.
type DSAStrategy interface {
	Name() string

	// RequiresCQI returns true if the strategy needs a per-user channel
	// estimate rather than the flat one.
	RequiresCQI() bool

	// Candidates returns the resource blocks the user may use, most
	// preferred first. An empty result means no subchannel is available.
	Candidates(
		req scheduling.RequestForResource,
		m *scheduling.SchedulingMap,
		cqi scheduling.ChannelQualities,
	) []*scheduling.PhysicalResourceBlock
}

// DSA strategy names.
const (
	DSALinearFFirst = "LinearFFirst"
	DSARandom       = "Random"
	DSABestChannel  = "BestChannel"
	DSAFixed        = "Fixed"
)

// NewDSAStrategy creates a DSA strategy by name. The random generator is
// only used by the Random strategy.
func NewDSAStrategy(name string, rng *rand.Rand) (DSAStrategy, error) {
	switch name {
	case DSALinearFFirst:
		return linearFFirst{}, nil
	case DSARandom:
		if rng == nil {
			rng = rand.New(rand.NewSource(1))
		}

		return &randomDSA{rng: rng}, nil
	case DSABestChannel:
		return bestChannel{}, nil
	case DSAFixed:
		return fixedDSA{}, nil
	default:
		return nil, &scheduling.ConfigError{
			Field:  "dsa",
			Reason: fmt.Sprintf("unknown DSA strategy %q", name),
		}
	}
}

// usableBlocks lists the blocks the user may use, time slot by time slot,
// subchannel by subchannel within a slot.
func usableBlocks(
	m *scheduling.SchedulingMap,
	user scheduling.UserID,
) []*scheduling.PhysicalResourceBlock {
	var blocks []*scheduling.PhysicalResourceBlock

	for ts := 0; ts < m.NumTimeSlots(); ts++ {
		for sc := 0; sc < m.NumSubChannels(); sc++ {
			for l := 0; l < m.NumSpatialLayers(); l++ {
				b := m.PRB(sc, ts, l)
				if b.CanBeUsedBy(user) {
					blocks = append(blocks, b)
				}
			}
		}
	}

	return blocks
}

type linearFFirst struct{}

func (linearFFirst) Name() string      { return DSALinearFFirst }
func (linearFFirst) RequiresCQI() bool { return false }

func (linearFFirst) Candidates(
	req scheduling.RequestForResource,
	m *scheduling.SchedulingMap,
	_ scheduling.ChannelQualities,
) []*scheduling.PhysicalResourceBlock {
	return usableBlocks(m, req.User)
}

type randomDSA struct {
	rng *rand.Rand
}

func (*randomDSA) Name() string      { return DSARandom }
func (*randomDSA) RequiresCQI() bool { return false }

func (d *randomDSA) Candidates(
	req scheduling.RequestForResource,
	m *scheduling.SchedulingMap,
	_ scheduling.ChannelQualities,
) []*scheduling.PhysicalResourceBlock {
	blocks := usableBlocks(m, req.User)
	d.rng.Shuffle(len(blocks), func(i, j int) {
		blocks[i], blocks[j] = blocks[j], blocks[i]
	})

	return blocks
}

type bestChannel struct{}

func (bestChannel) Name() string      { return DSABestChannel }
func (bestChannel) RequiresCQI() bool { return true }

func (bestChannel) Candidates(
	req scheduling.RequestForResource,
	m *scheduling.SchedulingMap,
	cqi scheduling.ChannelQualities,
) []*scheduling.PhysicalResourceBlock {
	blocks := usableBlocks(m, req.User)

	sort.SliceStable(blocks, func(i, j int) bool {
		return cqi.On(blocks[i].SubChannel()).
			BetterThan(cqi.On(blocks[j].SubChannel()))
	})

	return blocks
}

// fixedDSA hashes the user to a preferred subchannel and falls back to the
// linear order when that subchannel is full.
type fixedDSA struct{}

func (fixedDSA) Name() string      { return DSAFixed }
func (fixedDSA) RequiresCQI() bool { return false }

func (fixedDSA) Candidates(
	req scheduling.RequestForResource,
	m *scheduling.SchedulingMap,
	_ scheduling.ChannelQualities,
) []*scheduling.PhysicalResourceBlock {
	preferred := PreferredSubChannel(req.User, m.NumSubChannels())
	blocks := usableBlocks(m, req.User)

	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].SubChannel() == preferred &&
			blocks[j].SubChannel() != preferred
	})

	return blocks
}

// PreferredSubChannel maps a user to a subchannel with an FNV-1a hash.
func PreferredSubChannel(user scheduling.UserID, numSubChannels int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(user))

	return int(h.Sum32() % uint32(numSubChannels))
}
