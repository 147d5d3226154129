package sim

// Hook positions of the engine. The item is the *Event or *Command involved.
var (
	// HookPosAddEvent follows every insertion into the event queue.
	HookPosAddEvent = &HookPos{Name: "AddEvent"}

	HookPosSchedule      = &HookPos{Name: "Schedule"}
	HookPosScheduleNow   = &HookPos{Name: "ScheduleNow"}
	HookPosScheduleDelay = &HookPos{Name: "ScheduleDelay"}
	HookPosQueueCommand  = &HookPos{Name: "QueueCommand"}

	// HookPosCancelEvent fires for canceled events and commands alike.
	HookPosCancelEvent = &HookPos{Name: "CancelEvent"}

	HookPosBeforeEvent = &HookPos{Name: "BeforeEvent"}
	HookPosAfterEvent  = &HookPos{Name: "AfterEvent"}
)
