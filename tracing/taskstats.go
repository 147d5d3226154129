package tracing

import (
	"sort"
	"sync"

	"github.com/sarchlab/wnsched/sim"
)

// TaskStats measures how long tasks take and which steps they go through.
// Durations are kept per What, e.g. per link direction.
type TaskStats struct {
	timeTeller sim.TimeTeller
	filter     TaskFilter

	lock     sync.Mutex
	inflight map[string]*Task
	byWhat   map[string]*durationStats
	total    durationStats

	stepNames    []string
	stepCount    map[string]uint64
	tasksPerStep map[string]uint64
}

type durationStats struct {
	count uint64
	mean  sim.VTimeInSec
	max   sim.VTimeInSec
}

func (d *durationStats) add(v sim.VTimeInSec) {
	d.count++
	d.mean += (v - d.mean) / sim.VTimeInSec(d.count)

	if v > d.max {
		d.max = v
	}
}

// NewTaskStats creates a TaskStats that follows the tasks the filter
// accepts.
func NewTaskStats(timeTeller sim.TimeTeller, filter TaskFilter) *TaskStats {
	return &TaskStats{
		timeTeller:   timeTeller,
		filter:       filter,
		inflight:     make(map[string]*Task),
		byWhat:       make(map[string]*durationStats),
		stepCount:    make(map[string]uint64),
		tasksPerStep: make(map[string]uint64),
	}
}

// StartTask starts the clock of the task.
func (t *TaskStats) StartTask(task Task) {
	if !t.filter(task) {
		return
	}

	task.StartTime = t.timeTeller.CurrentTime()

	t.lock.Lock()
	t.inflight[task.ID] = &task
	t.lock.Unlock()
}

// StepTask counts the step. A step of an untracked task only counts towards
// StepCount.
func (t *TaskStats) StepTask(task Task) {
	if len(task.Steps) == 0 {
		return
	}

	what := task.Steps[0].What

	t.lock.Lock()
	defer t.lock.Unlock()

	if _, seen := t.stepCount[what]; !seen {
		t.stepNames = append(t.stepNames, what)
	}

	t.stepCount[what]++

	tracked, ok := t.inflight[task.ID]
	if !ok {
		return
	}

	if !hasStep(tracked, what) {
		t.tasksPerStep[what]++
	}

	tracked.Steps = append(tracked.Steps,
		TaskStep{Time: t.timeTeller.CurrentTime(), What: what})
}

func hasStep(task *Task, what string) bool {
	for _, s := range task.Steps {
		if s.What == what {
			return true
		}
	}

	return false
}

// EndTask stops the clock and folds the duration into the statistics.
func (t *TaskStats) EndTask(task Task) {
	now := t.timeTeller.CurrentTime()

	t.lock.Lock()
	defer t.lock.Unlock()

	tracked, ok := t.inflight[task.ID]
	if !ok {
		return
	}

	delete(t.inflight, task.ID)

	d := now - tracked.StartTime
	t.total.add(d)

	per, ok := t.byWhat[tracked.What]
	if !ok {
		per = &durationStats{}
		t.byWhat[tracked.What] = per
	}

	per.add(d)
}

// TotalCount returns the number of finished tasks.
func (t *TaskStats) TotalCount() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.total.count
}

// AverageTime returns the mean duration of the finished tasks.
func (t *TaskStats) AverageTime() sim.VTimeInSec {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.total.mean
}

// MaxTime returns the longest duration of a finished task.
func (t *TaskStats) MaxTime() sim.VTimeInSec {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.total.max
}

// AverageTimeOf returns the mean duration of the finished tasks with the
// given What, and false if there is none.
func (t *TaskStats) AverageTimeOf(what string) (sim.VTimeInSec, bool) {
	t.lock.Lock()
	defer t.lock.Unlock()

	per, ok := t.byWhat[what]
	if !ok {
		return 0, false
	}

	return per.mean, true
}

// Whats returns the sorted Whats of the finished tasks.
func (t *TaskStats) Whats() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	whats := make([]string, 0, len(t.byWhat))
	for w := range t.byWhat {
		whats = append(whats, w)
	}

	sort.Strings(whats)

	return whats
}

// InFlight returns the number of started tasks that have not ended.
func (t *TaskStats) InFlight() int {
	t.lock.Lock()
	defer t.lock.Unlock()

	return len(t.inflight)
}

// StepNames returns the step names in the order they were first seen.
func (t *TaskStats) StepNames() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	return append([]string(nil), t.stepNames...)
}

// StepCount returns how many times a step happened.
func (t *TaskStats) StepCount(what string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.stepCount[what]
}

// TaskCount returns the number of tracked tasks that had the step at least
// once.
func (t *TaskStats) TaskCount(what string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.tasksPerStep[what]
}
