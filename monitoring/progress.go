package monitoring

import (
	"sync"
	"time"
)

// A ProgressBar follows how many of a known number of items, e.g. frames,
// are done.
type ProgressBar struct {
	id    string
	name  string
	start time.Time
	total uint64

	lock     sync.Mutex
	finished uint64
}

// ProgressBarStatus is what /api/progress reports for one bar. ETA is the
// estimated wall time left and stays 0 until an item is done.
type ProgressBarStatus struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	StartTime time.Time     `json:"start_time"`
	Total     uint64        `json:"total"`
	Finished  uint64        `json:"finished"`
	Percent   float64       `json:"percent"`
	ETA       time.Duration `json:"eta_ns"`
}

func newProgressBar(id, name string, total uint64) *ProgressBar {
	return &ProgressBar{
		id:    id,
		name:  name,
		start: time.Now(),
		total: total,
	}
}

// IncrementFinished marks more items as done. The count never goes past
// the total.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.finished += amount
	if b.finished > b.total {
		b.finished = b.total
	}
}

// Done tells if every item is finished.
func (b *ProgressBar) Done() bool {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.finished == b.total
}

// Status takes a snapshot of the bar.
func (b *ProgressBar) Status() ProgressBarStatus {
	b.lock.Lock()
	finished := b.finished
	b.lock.Unlock()

	s := ProgressBarStatus{
		ID:        b.id,
		Name:      b.name,
		StartTime: b.start,
		Total:     b.total,
		Finished:  finished,
	}

	if b.total > 0 {
		s.Percent = 100 * float64(finished) / float64(b.total)
	}

	if finished > 0 {
		elapsed := time.Since(b.start)
		perItem := elapsed / time.Duration(finished)
		s.ETA = perItem * time.Duration(b.total-finished)
	}

	return s
}
