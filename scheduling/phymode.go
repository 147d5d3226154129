package scheduling

import (
	"fmt"
	"log"
	"math"
	"sort"
)

// Modulation is a modulation scheme, valued by its bits per symbol.
type Modulation int

// Supported modulation schemes.
const (
	BPSK   Modulation = 1
	QPSK   Modulation = 2
	QAM16  Modulation = 4
	QAM64  Modulation = 6
	QAM256 Modulation = 8
)

var modulationNames = map[Modulation]string{
	BPSK:   "BPSK",
	QPSK:   "QPSK",
	QAM16:  "QAM16",
	QAM64:  "QAM64",
	QAM256: "QAM256",
}

func (m Modulation) String() string {
	name, ok := modulationNames[m]
	if !ok {
		return fmt.Sprintf("Modulation(%d)", int(m))
	}

	return name
}

// ParseModulation converts a modulation name into a Modulation.
func ParseModulation(name string) (Modulation, error) {
	for m, n := range modulationNames {
		if n == name {
			return m, nil
		}
	}

	return 0, &ConfigError{
		Field:  "modulation",
		Reason: fmt.Sprintf("unknown modulation %q", name),
	}
}

// A PhyMode is a combination of modulation and coding. DataRate is the
// number of bits per second one subchannel carries with this mode.
type PhyMode struct {
	Name       string
	Modulation Modulation
	CodeRate   float64
	DataRate   float64
	MinSINR    Ratio
}

// NewPhyMode creates a PhyMode whose data rate is derived from the number of
// subcarriers of one subchannel and the OFDM symbol duration.
func NewPhyMode(
	name string,
	modulation Modulation,
	codeRate float64,
	subCarriers int,
	symbolDuration float64,
	minSINR Ratio,
) *PhyMode {
	if symbolDuration <= 0 {
		log.Panicf("phy mode %s: symbol duration must be positive", name)
	}

	rate := float64(modulation) * codeRate * float64(subCarriers) /
		symbolDuration

	return &PhyMode{
		Name:       name,
		Modulation: modulation,
		CodeRate:   codeRate,
		DataRate:   rate,
		MinSINR:    minSINR,
	}
}

// BitsPerSymbol returns the net bits per symbol on one subcarrier.
func (m *PhyMode) BitsPerSymbol() float64 {
	return float64(m.Modulation) * m.CodeRate
}

// DurationFor returns the time needed to carry the given number of bits on
// one subchannel.
func (m *PhyMode) DurationFor(bits int) float64 {
	return float64(bits) / m.DataRate
}

// BitsFor returns the number of bits that fit into the given duration.
func (m *PhyMode) BitsFor(duration float64) int {
	if duration <= 0 {
		return 0
	}

	return int(math.Floor(duration*m.DataRate + 1e-6))
}

// IsValid returns true if the mode can carry data.
func (m *PhyMode) IsValid() bool {
	return m != nil && m.DataRate > 0 && !math.IsInf(m.DataRate, 0) &&
		!math.IsNaN(m.DataRate)
}

// SameAs returns true if both modes carry the same name and rate.
func (m *PhyMode) SameAs(other *PhyMode) bool {
	if m == nil || other == nil {
		return m == other
	}

	return m.Name == other.Name && m.DataRate == other.DataRate
}

func (m *PhyMode) String() string {
	if m == nil {
		return "<no phy mode>"
	}

	return fmt.Sprintf("%s(%s %.3f, %.0f bit/s)",
		m.Name, m.Modulation, m.CodeRate, m.DataRate)
}

// A PhyModeMapper maps SINR values to the PhyModes that can be used.
type PhyModeMapper struct {
	modes []*PhyMode
}

// NewPhyModeMapper creates a mapper. Modes are ordered by their minimum SINR.
func NewPhyModeMapper(modes ...*PhyMode) (*PhyModeMapper, error) {
	if len(modes) == 0 {
		return nil, &ConfigError{
			Field:  "phyModes",
			Reason: "at least one phy mode is required",
		}
	}

	sorted := make([]*PhyMode, len(modes))
	copy(sorted, modes)

	for _, m := range sorted {
		if !m.IsValid() {
			return nil, &ConfigError{
				Field:  "phyModes",
				Reason: fmt.Sprintf("phy mode %s has no positive data rate", m),
			}
		}
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].MinSINR != sorted[j].MinSINR {
			return sorted[i].MinSINR < sorted[j].MinSINR
		}

		return sorted[i].DataRate < sorted[j].DataRate
	})

	return &PhyModeMapper{modes: sorted}, nil
}

// PhyModes returns all the modes, from the most robust to the fastest.
func (m *PhyModeMapper) PhyModes() []*PhyMode {
	return m.modes
}

// BestPhyMode returns the fastest mode that works with the given SINR, or nil
// if the SINR is below the minimum of every mode.
func (m *PhyModeMapper) BestPhyMode(sinr Ratio) *PhyMode {
	var best *PhyMode

	for _, mode := range m.modes {
		if mode.MinSINR > sinr {
			break
		}

		best = mode
	}

	return best
}

// LowestPhyMode returns the most robust mode.
func (m *PhyModeMapper) LowestPhyMode() *PhyMode {
	return m.modes[0]
}

// HighestPhyMode returns the fastest mode.
func (m *PhyModeMapper) HighestPhyMode() *PhyMode {
	return m.modes[len(m.modes)-1]
}

// MinimumSINR returns the SINR below which no mode is usable.
func (m *PhyModeMapper) MinimumSINR() Ratio {
	return m.modes[0].MinSINR
}

// Find returns the mode with the given name, or nil.
func (m *PhyModeMapper) Find(name string) *PhyMode {
	for _, mode := range m.modes {
		if mode.Name == name {
			return mode
		}
	}

	return nil
}
