package scheduling

import (
	"fmt"
	"math"
)

// Power is a transmit or received power level in dBm.
type Power float64

// NoPower is the power level of 0 mW.
var NoPower = Power(math.Inf(-1))

// PowerFromMilliWatt converts a linear power into dBm.
func PowerFromMilliWatt(mw float64) Power {
	if mw <= 0 {
		return NoPower
	}

	return Power(10 * math.Log10(mw))
}

// MilliWatt returns the linear power.
func (p Power) MilliWatt() float64 {
	if math.IsInf(float64(p), -1) {
		return 0
	}

	return math.Pow(10, float64(p)/10)
}

// Add sums two powers in the linear domain.
func (p Power) Add(other Power) Power {
	return PowerFromMilliWatt(p.MilliWatt() + other.MilliWatt())
}

// Sub subtracts a power in the linear domain. The result is NoPower if other
// is larger than p.
func (p Power) Sub(other Power) Power {
	return PowerFromMilliWatt(p.MilliWatt() - other.MilliWatt())
}

// Plus adds a ratio, e.g. a gain.
func (p Power) Plus(r Ratio) Power {
	return Power(float64(p) + float64(r))
}

// Minus subtracts a ratio, e.g. a loss.
func (p Power) Minus(r Ratio) Power {
	return Power(float64(p) - float64(r))
}

// IsZero returns true if the power is 0 mW.
func (p Power) IsZero() bool {
	return math.IsInf(float64(p), -1)
}

func (p Power) String() string {
	if p.IsZero() {
		return "-inf dBm"
	}

	return fmt.Sprintf("%.2f dBm", float64(p))
}

// Ratio is a dimensionless ratio in dB, e.g. a SINR or a path loss.
type Ratio float64

func (r Ratio) String() string {
	return fmt.Sprintf("%.2f dB", float64(r))
}

// PowerCapabilities describes the transmit power limits of a station.
type PowerCapabilities struct {
	// Nominal is the default power on one subchannel.
	Nominal Power `yaml:"nominal"`

	// MaxPerSubChannel is the upper limit on one subchannel.
	MaxPerSubChannel Power `yaml:"maxPerSubChannel"`

	// MaxOverall is the upper limit summed over all subchannels of one time
	// slot.
	MaxOverall Power `yaml:"maxOverall"`
}

// Validate checks that the limits are ordered.
func (c PowerCapabilities) Validate() error {
	if c.Nominal > c.MaxPerSubChannel {
		return &ConfigError{
			Field:  "power.nominal",
			Reason: fmt.Sprintf("%s exceeds the per-subchannel maximum %s", c.Nominal, c.MaxPerSubChannel),
		}
	}

	if c.MaxPerSubChannel > c.MaxOverall {
		return &ConfigError{
			Field:  "power.maxPerSubChannel",
			Reason: fmt.Sprintf("%s exceeds the overall maximum %s", c.MaxPerSubChannel, c.MaxOverall),
		}
	}

	return nil
}
