package scheduling

import (
	"fmt"
	"io"
	"strings"
)

// A DumpRow describes one resource block of one frame for offline analysis.
type DumpRow struct {
	FrameNr        int
	SubChannel     int
	TimeSlot       int
	SpatialLayer   int
	BitsPerSymbol  float64
	TxPowerDBm     float64
	FractionFilled float64
	CompoundCount  int
	UserName       string
	CIDList        string
}

// DumpRows returns one row per resource block.
func (m *SchedulingMap) DumpRows() []DumpRow {
	rows := make([]DumpRow, 0,
		len(m.subChannels)*m.numTimeSlots*m.numLayers)

	m.ForEachPRB(func(b *PhysicalResourceBlock) {
		row := DumpRow{
			FrameNr:        m.frameNr,
			SubChannel:     b.subChannel,
			TimeSlot:       b.timeSlotIdx,
			SpatialLayer:   b.spatialLayer,
			FractionFilled: b.UsedTime() / b.slotLength,
			CompoundCount:  len(b.compounds),
			UserName:       string(b.userID),
		}

		if b.phyMode != nil {
			row.BitsPerSymbol = b.phyMode.BitsPerSymbol()
		}

		if !b.txPower.IsZero() {
			row.TxPowerDBm = float64(b.txPower)
		}

		cids := make([]string, 0, len(b.compounds))
		for _, c := range b.compounds {
			cids = append(cids, fmt.Sprintf("%d(%d)", c.ConnectionID, c.Bits()))
		}

		row.CIDList = strings.Join(cids, "\t")

		rows = append(rows, row)
	})

	return rows
}

// DumpContents writes the rows of DumpRows as tab-separated lines.
func (m *SchedulingMap) DumpContents(w io.Writer) error {
	for _, r := range m.DumpRows() {
		user := r.UserName
		if user == "" {
			user = "-"
		}

		_, err := fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%g\t%.2f\t%.4f\t%d\t%s",
			r.FrameNr, r.SubChannel, r.TimeSlot, r.SpatialLayer,
			r.BitsPerSymbol, r.TxPowerDBm, r.FractionFilled,
			r.CompoundCount, user)
		if err != nil {
			return err
		}

		if r.CIDList != "" {
			if _, err := fmt.Fprintf(w, "\t%s", r.CIDList); err != nil {
				return err
			}
		}

		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}

	return nil
}
