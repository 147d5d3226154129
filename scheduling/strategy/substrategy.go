package strategy

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sarchlab/wnsched/scheduling"
)

// A Frame is the view a sub-strategy has on one scheduling pass.
type Frame interface {
	FrameNr() int
	Queue() Queue

	// ScheduleConnection places the next PDU, or a segment of it, of a
	// connection into the map. It returns the number of bits placed.
	ScheduleConnection(cid scheduling.ConnectionID) (int, bool)

	// AchievableRate estimates the data rate of a connection on one
	// subchannel.
	AchievableRate(cid scheduling.ConnectionID) float64
}

// A SubStrategy decides in which order the connections of one priority
// class are served.
type SubStrategy interface {
	Name() string
	ScheduleClass(f Frame, cids []scheduling.ConnectionID)
}

// Sub-strategy names.
const (
	SubStrategyRoundRobin           = "RoundRobin"
	SubStrategyExhaustiveRoundRobin = "ExhaustiveRoundRobin"
	SubStrategyProportionalFair     = "ProportionalFair"
)

// DefaultPFJitter is the relative perturbation of proportional fair
// preferences.
const DefaultPFJitter = 0.01

// DefaultPFHistoryWeight is the weight of the current frame in the
// throughput average of proportional fair.
const DefaultPFHistoryWeight = 0.1

// SubStrategyParams tunes the sub-strategies that need it.
type SubStrategyParams struct {
	Jitter        float64
	HistoryWeight float64
	Rand          *rand.Rand
}

// NewSubStrategy creates a sub-strategy by name.
func NewSubStrategy(name string, p SubStrategyParams) (SubStrategy, error) {
	switch name {
	case SubStrategyRoundRobin:
		return &roundRobin{}, nil
	case SubStrategyExhaustiveRoundRobin:
		return &roundRobin{exhaustive: true}, nil
	case SubStrategyProportionalFair:
		return newProportionalFair(p)
	default:
		return nil, &scheduling.ConfigError{
			Field:  "subStrategy",
			Reason: fmt.Sprintf("unknown sub-strategy %q", name),
		}
	}
}

// roundRobin serves one PDU per connection per round. The position where a
// frame starts follows the last connection served in the previous frame.
type roundRobin struct {
	exhaustive bool
	hasLast    bool
	last       scheduling.ConnectionID
}

func (r *roundRobin) Name() string {
	if r.exhaustive {
		return SubStrategyExhaustiveRoundRobin
	}

	return SubStrategyRoundRobin
}

// rotate returns the sorted cids starting after the last one served.
func (r *roundRobin) rotate(
	cids []scheduling.ConnectionID,
) []scheduling.ConnectionID {
	if !r.hasLast {
		return cids
	}

	start := 0
	for i, cid := range cids {
		if cid > r.last {
			start = i
			break
		}
	}

	out := make([]scheduling.ConnectionID, 0, len(cids))
	out = append(out, cids[start:]...)
	out = append(out, cids[:start]...)

	return out
}

func (r *roundRobin) ScheduleClass(f Frame, cids []scheduling.ConnectionID) {
	order := r.rotate(cids)
	blocked := make(map[scheduling.ConnectionID]bool)

	for {
		progress := false

		for _, cid := range order {
			if blocked[cid] || !f.Queue().QueueHasPDUs(cid) {
				continue
			}

			if r.serve(f, cid) {
				progress = true
			} else {
				blocked[cid] = true
			}
		}

		if !progress {
			return
		}
	}
}

// serve returns false if the connection could not be served at all.
func (r *roundRobin) serve(f Frame, cid scheduling.ConnectionID) bool {
	served := false

	for f.Queue().QueueHasPDUs(cid) {
		if _, ok := f.ScheduleConnection(cid); !ok {
			return served
		}

		served = true
		r.hasLast = true
		r.last = cid

		if !r.exhaustive {
			break
		}
	}

	return served
}

// proportionalFair serves the connection with the highest ratio of
// achievable rate to average throughput first.
type proportionalFair struct {
	jitter  float64
	weight  float64
	rng     *rand.Rand
	average map[scheduling.ConnectionID]float64
}

func newProportionalFair(p SubStrategyParams) (*proportionalFair, error) {
	if p.Jitter < 0 || p.Jitter >= 1 || math.IsNaN(p.Jitter) {
		return nil, &scheduling.ConfigError{
			Field:  "pfJitter",
			Reason: fmt.Sprintf("%g is not in [0, 1)", p.Jitter),
		}
	}

	if p.HistoryWeight <= 0 || p.HistoryWeight > 1 {
		return nil, &scheduling.ConfigError{
			Field:  "pfHistoryWeight",
			Reason: fmt.Sprintf("%g is not in (0, 1]", p.HistoryWeight),
		}
	}

	rng := p.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	return &proportionalFair{
		jitter:  p.Jitter,
		weight:  p.HistoryWeight,
		rng:     rng,
		average: make(map[scheduling.ConnectionID]float64),
	}, nil
}

func (pf *proportionalFair) Name() string {
	return SubStrategyProportionalFair
}

// Average returns the throughput average of a connection in bits per frame.
func (pf *proportionalFair) Average(cid scheduling.ConnectionID) float64 {
	return pf.average[cid]
}

func (pf *proportionalFair) ScheduleClass(
	f Frame,
	cids []scheduling.ConnectionID,
) {
	served := make(map[scheduling.ConnectionID]int)
	blocked := make(map[scheduling.ConnectionID]bool)

	for {
		cid, found := pf.pick(f, cids, served, blocked)
		if !found {
			break
		}

		bits, ok := f.ScheduleConnection(cid)
		if !ok {
			blocked[cid] = true
			continue
		}

		served[cid] += bits
	}

	for _, cid := range cids {
		pf.average[cid] = (1-pf.weight)*pf.average[cid] +
			pf.weight*float64(served[cid])
	}
}

func (pf *proportionalFair) pick(
	f Frame,
	cids []scheduling.ConnectionID,
	served map[scheduling.ConnectionID]int,
	blocked map[scheduling.ConnectionID]bool,
) (scheduling.ConnectionID, bool) {
	var best scheduling.ConnectionID

	found := false
	bestPref := math.Inf(-1)

	for _, cid := range cids {
		if blocked[cid] || !f.Queue().QueueHasPDUs(cid) {
			continue
		}

		avg := (1-pf.weight)*pf.average[cid] + pf.weight*float64(served[cid])
		pref := f.AchievableRate(cid) / math.Max(avg, 1)

		if pf.jitter > 0 {
			pref *= 1 + pf.jitter*(2*pf.rng.Float64()-1)
		}

		if pref > bestPref {
			best = cid
			bestPref = pref
			found = true
		}
	}

	return best, found
}
