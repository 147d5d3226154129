package strategy

import (
	"fmt"

	"github.com/sarchlab/wnsched/scheduling"
)

// APCInput is what an APC strategy knows about one placement.
type APCInput struct {
	CQI  scheduling.ChannelQuality
	Caps scheduling.PowerCapabilities

	// Available is the power left in the time slot under the overall limit.
	Available scheduling.Power

	Mapper            *scheduling.PhyModeMapper
	ExcludeTooLowSINR bool
}

// APCResult is the power and PHY mode chosen for a placement.
type APCResult struct {
	TxPower scheduling.Power
	PhyMode *scheduling.PhyMode
	SINR    scheduling.Ratio
}

// An APCStrategy chooses the transmit power and the PHY mode of a resource
// block.
type APCStrategy interface {
	Name() string

	// DoAPC returns false and a reason if no usable setting exists.
	DoAPC(in APCInput) (APCResult, RejectReason, bool)
}

// APC strategy names.
const (
	APCUseNominalTxPower = "UseNominalTxPower"
	APCUseMaxTxPower     = "UseMaxTxPower"
	APCFCFSMaxPhyMode    = "FCFSMaxPhyMode"
)

// NewAPCStrategy creates an APC strategy by name.
func NewAPCStrategy(name string) (APCStrategy, error) {
	switch name {
	case APCUseNominalTxPower:
		return fixedPowerAPC{name: name, pick: nominalPower}, nil
	case APCUseMaxTxPower:
		return fixedPowerAPC{name: name, pick: maxPower}, nil
	case APCFCFSMaxPhyMode:
		return fcfsMaxPhyMode{}, nil
	default:
		return nil, &scheduling.ConfigError{
			Field:  "apc",
			Reason: fmt.Sprintf("unknown APC strategy %q", name),
		}
	}
}

func nominalPower(c scheduling.PowerCapabilities) scheduling.Power {
	return c.Nominal
}

func maxPower(c scheduling.PowerCapabilities) scheduling.Power {
	return c.MaxPerSubChannel
}

// minNoticeablePower is the power below which a slot counts as exhausted.
const minNoticeablePower = 1e-9

func capPower(p, limit scheduling.Power) scheduling.Power {
	if limit < p {
		return limit
	}

	return p
}

// pickPhyMode applies the minimum SINR rule. With ExcludeTooLowSINR unset,
// the most robust mode is used when nothing else works.
func pickPhyMode(
	in APCInput,
	sinr scheduling.Ratio,
) (*scheduling.PhyMode, bool) {
	mode := in.Mapper.BestPhyMode(sinr)
	if mode != nil {
		return mode, true
	}

	if in.ExcludeTooLowSINR {
		return nil, false
	}

	return in.Mapper.LowestPhyMode(), true
}

type fixedPowerAPC struct {
	name string
	pick func(scheduling.PowerCapabilities) scheduling.Power
}

func (a fixedPowerAPC) Name() string { return a.name }

func (a fixedPowerAPC) DoAPC(in APCInput) (APCResult, RejectReason, bool) {
	if in.Available.MilliWatt() < minNoticeablePower {
		return APCResult{}, RejectNoPower, false
	}

	p := capPower(a.pick(in.Caps), in.Available)
	sinr := in.CQI.SINR(p)

	mode, ok := pickPhyMode(in, sinr)
	if !ok {
		return APCResult{}, RejectSINRTooLow, false
	}

	return APCResult{TxPower: p, PhyMode: mode, SINR: sinr}, 0, true
}

// fcfsMaxPhyMode picks the fastest PHY mode reachable under the
// per-subchannel limit and uses just enough power to reach it.
type fcfsMaxPhyMode struct{}

func (fcfsMaxPhyMode) Name() string { return APCFCFSMaxPhyMode }

func (fcfsMaxPhyMode) DoAPC(in APCInput) (APCResult, RejectReason, bool) {
	if in.Available.MilliWatt() < minNoticeablePower {
		return APCResult{}, RejectNoPower, false
	}

	limit := capPower(in.Caps.MaxPerSubChannel, in.Available)
	maxSINR := in.CQI.SINR(limit)

	mode := in.Mapper.BestPhyMode(maxSINR)
	if mode == nil {
		if in.ExcludeTooLowSINR {
			return APCResult{}, RejectSINRTooLow, false
		}

		return APCResult{
			TxPower: limit,
			PhyMode: in.Mapper.LowestPhyMode(),
			SINR:    maxSINR,
		}, 0, true
	}

	p := capPower(in.CQI.RequiredTxPower(mode.MinSINR), limit)

	return APCResult{TxPower: p, PhyMode: mode, SINR: in.CQI.SINR(p)}, 0, true
}
