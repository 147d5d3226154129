package config

import (
	"github.com/sarchlab/wnsched/arq"
	"github.com/sarchlab/wnsched/scheduling"
	"github.com/sarchlab/wnsched/scheduling/strategy"
)

// Default returns a base station with three users at increasing distance,
// eight subchannels and ten 1 ms slots per direction.
func Default() Config {
	ueCaps := powerCaps(20, 23, 23)

	return Config{
		ARQ: ARQ{
			Mode:               string(arq.ModeSelectiveRepeat),
			WindowSize:         8,
			SequenceNumberSize: 16,
			ResendTimeout:      0.05,
			BufferSize:         64,
		},
		Map: Map{
			NumberOfSubChannels: 8,
			NumberOfTimeSlots:   10,
			NumSpatialLayers:    1,
			SlotLength:          1e-3,
			SymbolDuration:      4e-6,
			SubCarriers:         48,
		},
		Strategy: Strategy{
			DSA:               strategy.DSALinearFFirst,
			APC:               strategy.APCUseNominalTxPower,
			SubStrategy:       strategy.SubStrategyRoundRobin,
			ExcludeTooLowSINR: true,
			AllowSegmentation: true,
			MinSegmentBits:    64,
			PFJitter:          strategy.DefaultPFJitter,
			PFHistoryWeight:   strategy.DefaultPFHistoryWeight,
			Seed:              1,
			FlatCQI:           CQI{PathLoss: 100, Interference: -100},
		},
		BaseStation: Station{
			ID:    "bs",
			Power: powerCaps(20, 23, 30),
		},
		PhyModes: []PhyMode{
			{Name: "BPSK-1/2", Modulation: "BPSK", CodeRate: 0.5, MinSINR: 1},
			{Name: "QPSK-1/2", Modulation: "QPSK", CodeRate: 0.5, MinSINR: 4},
			{Name: "QPSK-3/4", Modulation: "QPSK", CodeRate: 0.75, MinSINR: 7},
			{Name: "QAM16-1/2", Modulation: "QAM16", CodeRate: 0.5, MinSINR: 10},
			{Name: "QAM16-3/4", Modulation: "QAM16", CodeRate: 0.75, MinSINR: 14},
			{Name: "QAM64-2/3", Modulation: "QAM64", CodeRate: 2.0 / 3, MinSINR: 18},
			{Name: "QAM64-3/4", Modulation: "QAM64", CodeRate: 0.75, MinSINR: 20},
		},
		Users: []User{
			defaultUser("ue1", 90, ueCaps),
			defaultUser("ue2", 105, ueCaps),
			defaultUser("ue3", 115, ueCaps),
		},
		Simulation: SimParams{
			Frames:          100,
			LossProbability: 0.01,
			ACKDelay:        1e-3,
		},
		Output: Output{
			Recorder:    RecorderSQLite,
			MonitorPort: 0,
			LogLevel:    "info",
		},
	}
}

func defaultUser(id string, pathLoss float64, caps scheduling.PowerCapabilities) User {
	return User{
		ID:       id,
		Downlink: CQI{PathLoss: pathLoss, Interference: -100},
		Uplink:   CQI{PathLoss: pathLoss, Interference: -98},
		Power:    caps,
		Traffic: Traffic{
			DownlinkPDUsPerFrame: 4,
			UplinkPDUsPerFrame:   2,
			PDUBits:              8000,
		},
	}
}

func powerCaps(nominal, perSubChannel, overall float64) scheduling.PowerCapabilities {
	return scheduling.PowerCapabilities{
		Nominal:          scheduling.Power(nominal),
		MaxPerSubChannel: scheduling.Power(perSubChannel),
		MaxOverall:       scheduling.Power(overall),
	}
}
