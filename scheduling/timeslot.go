package scheduling

// A SchedulingTimeSlot holds one resource block per spatial layer.
type SchedulingTimeSlot struct {
	subChannel *SchedulingSubChannel
	index      int
	usable     bool
	blocks     []*PhysicalResourceBlock
}

func newSchedulingTimeSlot(
	sc *SchedulingSubChannel,
	index, numLayers int,
	slotLength float64,
) *SchedulingTimeSlot {
	ts := &SchedulingTimeSlot{
		subChannel: sc,
		index:      index,
		usable:     true,
	}

	ts.blocks = make([]*PhysicalResourceBlock, numLayers)
	for l := range ts.blocks {
		ts.blocks[l] = newPhysicalResourceBlock(ts, sc.index, index, l, slotLength)
	}

	return ts
}

// Index returns the position of the time slot in the frame.
func (ts *SchedulingTimeSlot) Index() int { return ts.index }

// IsUsable returns false if the time slot or its subchannel is masked out.
func (ts *SchedulingTimeSlot) IsUsable() bool {
	return ts.usable && ts.subChannel.usable
}

// SetUsable masks the time slot in or out.
func (ts *SchedulingTimeSlot) SetUsable(usable bool) {
	ts.usable = usable
}

// NumSpatialLayers returns the number of resource blocks in the slot.
func (ts *SchedulingTimeSlot) NumSpatialLayers() int {
	return len(ts.blocks)
}

// PRB returns the resource block of a spatial layer.
func (ts *SchedulingTimeSlot) PRB(layer int) *PhysicalResourceBlock {
	return ts.blocks[layer]
}

// PRBs returns all the resource blocks of the slot.
func (ts *SchedulingTimeSlot) PRBs() []*PhysicalResourceBlock {
	return ts.blocks
}

// FreeTime sums the free time of all the layers.
func (ts *SchedulingTimeSlot) FreeTime() float64 {
	total := 0.0
	for _, b := range ts.blocks {
		total += b.FreeTime()
	}

	return total
}

// UsedTime sums the used time of all the layers.
func (ts *SchedulingTimeSlot) UsedTime() float64 {
	total := 0.0
	for _, b := range ts.blocks {
		total += b.UsedTime()
	}

	return total
}

// IsEmpty returns true if no layer carries anything.
func (ts *SchedulingTimeSlot) IsEmpty() bool {
	for _, b := range ts.blocks {
		if !b.IsEmpty() {
			return false
		}
	}

	return true
}

// TxPower sums the power of all the assigned layers.
func (ts *SchedulingTimeSlot) TxPower() Power {
	total := NoPower
	for _, b := range ts.blocks {
		if b.IsAssigned() {
			total = total.Add(b.txPower)
		}
	}

	return total
}
