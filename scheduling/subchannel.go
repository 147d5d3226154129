package scheduling

// A SchedulingSubChannel holds the time slots of one frequency subchannel.
type SchedulingSubChannel struct {
	index     int
	usable    bool
	timeSlots []*SchedulingTimeSlot
}

func newSchedulingSubChannel(
	index, numTimeSlots, numLayers int,
	slotLength float64,
) *SchedulingSubChannel {
	sc := &SchedulingSubChannel{
		index:  index,
		usable: true,
	}

	sc.timeSlots = make([]*SchedulingTimeSlot, numTimeSlots)
	for t := range sc.timeSlots {
		sc.timeSlots[t] = newSchedulingTimeSlot(sc, t, numLayers, slotLength)
	}

	return sc
}

// Index returns the position of the subchannel.
func (sc *SchedulingSubChannel) Index() int { return sc.index }

// IsUsable returns false if the subchannel is masked out.
func (sc *SchedulingSubChannel) IsUsable() bool { return sc.usable }

// SetUsable masks the subchannel in or out.
func (sc *SchedulingSubChannel) SetUsable(usable bool) { sc.usable = usable }

// TimeSlot returns a time slot of the subchannel.
func (sc *SchedulingSubChannel) TimeSlot(index int) *SchedulingTimeSlot {
	return sc.timeSlots[index]
}

// TimeSlots returns all the time slots of the subchannel.
func (sc *SchedulingSubChannel) TimeSlots() []*SchedulingTimeSlot {
	return sc.timeSlots
}

// FreeTime sums the free time of all the time slots.
func (sc *SchedulingSubChannel) FreeTime() float64 {
	total := 0.0
	for _, ts := range sc.timeSlots {
		total += ts.FreeTime()
	}

	return total
}

// UsedTime sums the used time of all the time slots.
func (sc *SchedulingSubChannel) UsedTime() float64 {
	total := 0.0
	for _, ts := range sc.timeSlots {
		total += ts.UsedTime()
	}

	return total
}

// IsEmpty returns true if no time slot carries anything.
func (sc *SchedulingSubChannel) IsEmpty() bool {
	for _, ts := range sc.timeSlots {
		if !ts.IsEmpty() {
			return false
		}
	}

	return true
}
