package datarecording

import (
	"github.com/sarchlab/wnsched/arq"
	"github.com/sarchlab/wnsched/scheduling"
	"github.com/sarchlab/wnsched/scheduling/strategy"
)

// Tables written by FrameRecorder.
const (
	PRBTable   = "prb"
	FrameTable = "frame"
	ARQTable   = "arq"
)

// PRBRow is one resource block of one scheduled map.
type PRBRow struct {
	Direction      string
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

// FrameRow summarizes one scheduling pass.
type FrameRow struct {
	Direction          string
	FrameNr            int
	ResourceUsage      float64
	Granted            int
	GrantedBits        int
	RejectedNoSubChan  int
	RejectedSINRTooLow int
	RejectedNoPower    int
	RejectedNoFit      int
}

// ARQRow holds the counters of one ARQ sender at the end of a run.
type ARQRow struct {
	Link            string
	Sent            int
	Retransmissions int
	ACKsSent        int
	ACKsReceived    int
	Delivered       int
	Duplicates      int
}

// FrameRecorder writes scheduling maps, frame summaries and ARQ counters.
type FrameRecorder struct {
	recorder DataRecorder
}

// NewFrameRecorder creates the tables on the recorder.
func NewFrameRecorder(recorder DataRecorder) (*FrameRecorder, error) {
	tables := []struct {
		name   string
		sample any
	}{
		{PRBTable, PRBRow{}},
		{FrameTable, FrameRow{}},
		{ARQTable, ARQRow{}},
	}

	for _, t := range tables {
		if err := recorder.CreateTable(t.name, t.sample); err != nil {
			return nil, err
		}
	}

	return &FrameRecorder{recorder: recorder}, nil
}

// RecordMap writes every resource block of the map.
func (r *FrameRecorder) RecordMap(
	dir strategy.Direction,
	m *scheduling.SchedulingMap,
) error {
	for _, row := range m.DumpRows() {
		err := r.recorder.InsertData(PRBTable, PRBRow{
			Direction:      dir.String(),
			FrameNr:        row.FrameNr,
			SubChannel:     row.SubChannel,
			TimeSlot:       row.TimeSlot,
			SpatialLayer:   row.SpatialLayer,
			BitsPerSymbol:  row.BitsPerSymbol,
			TxPowerDBm:     row.TxPowerDBm,
			FractionFilled: row.FractionFilled,
			CompoundCount:  row.CompoundCount,
			UserName:       row.UserName,
			CIDList:        row.CIDList,
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// RecordFrame writes the summary of one scheduling pass.
func (r *FrameRecorder) RecordFrame(
	dir strategy.Direction,
	frameNr int,
	res *strategy.StrategyResult,
) error {
	return r.recorder.InsertData(FrameTable, FrameRow{
		Direction:          dir.String(),
		FrameNr:            frameNr,
		ResourceUsage:      res.ResourceUsage,
		Granted:            res.Granted,
		GrantedBits:        res.GrantedBits,
		RejectedNoSubChan:  res.Rejected[strategy.RejectNoSubChannel],
		RejectedSINRTooLow: res.Rejected[strategy.RejectSINRTooLow],
		RejectedNoPower:    res.Rejected[strategy.RejectNoPower],
		RejectedNoFit:      res.Rejected[strategy.RejectDoesNotFit],
	})
}

// RecordARQ writes the counters of one sender.
func (r *FrameRecorder) RecordARQ(link string, s arq.Stats) error {
	return r.recorder.InsertData(ARQTable, ARQRow{
		Link:            link,
		Sent:            s.Sent,
		Retransmissions: s.Retransmissions,
		ACKsSent:        s.ACKsSent,
		ACKsReceived:    s.ACKsReceived,
		Delivered:       s.Delivered,
		Duplicates:      s.Duplicates,
	})
}

// Flush writes the buffered rows.
func (r *FrameRecorder) Flush() error {
	return r.recorder.Flush()
}
