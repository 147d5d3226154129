package scheduling

import "fmt"

// ChannelQuality is the estimated state of the channel towards one user on
// one subchannel.
type ChannelQuality struct {
	// PathLoss is the attenuation between the transmitter and the receiver.
	PathLoss Ratio

	// Interference is the interference plus noise at the receiver.
	Interference Power
}

// SINR returns the signal to interference plus noise ratio achieved with the
// given transmit power.
func (c ChannelQuality) SINR(txPower Power) Ratio {
	rx := txPower.Minus(c.PathLoss)

	return Ratio(float64(rx) - float64(c.Interference))
}

// RequiredTxPower returns the transmit power that reaches the given SINR.
func (c ChannelQuality) RequiredTxPower(sinr Ratio) Power {
	return c.Interference.Plus(c.PathLoss).Plus(sinr)
}

// BetterThan returns true if the channel needs less power than the other for
// the same SINR.
func (c ChannelQuality) BetterThan(other ChannelQuality) bool {
	return c.RequiredTxPower(0) < other.RequiredTxPower(0)
}

func (c ChannelQuality) String() string {
	return fmt.Sprintf("pl=%s, i=%s", c.PathLoss, c.Interference)
}

// ChannelQualities holds one estimate per subchannel.
type ChannelQualities []ChannelQuality

// On returns the estimate for a subchannel. Subchannels beyond the end of
// the slice use the last entry.
func (c ChannelQualities) On(subChannel int) ChannelQuality {
	if subChannel >= len(c) {
		return c[len(c)-1]
	}

	return c[subChannel]
}
