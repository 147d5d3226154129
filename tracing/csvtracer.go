package tracing

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/sarchlab/wnsched/sim"
	"github.com/tebeka/atexit"
)

// CSVTracer writes every finished task as one line of a CSV file.
type CSVTracer struct {
	timeTeller sim.TimeTeller
	filter     TaskFilter

	lock       sync.Mutex
	file       *os.File
	writer     *csv.Writer
	inflight   map[string]*Task
	buffered   int
	bufferSize int
	closed     bool
}

// CSVHeader is the first line of the trace file.
var CSVHeader = []string{
	"ID", "ParentID", "Kind", "What", "Where", "Start", "End", "Steps",
}

// NewCSVTracer creates path + ".csv". An empty path picks a unique name. It
// fails if the file already exists. The file is flushed and closed when the
// program exits through atexit.
func NewCSVTracer(
	timeTeller sim.TimeTeller,
	filter TaskFilter,
	path string,
) (*CSVTracer, error) {
	if path == "" {
		path = "wnsched_trace_" + xid.New().String()
	}

	filename := path + ".csv"
	if _, err := os.Stat(filename); err == nil {
		return nil, errors.Errorf("file %s already exists", filename)
	}

	file, err := os.Create(filename)
	if err != nil {
		return nil, errors.Wrap(err, "creating trace file")
	}

	t := &CSVTracer{
		timeTeller: timeTeller,
		filter:     filter,
		file:       file,
		writer:     csv.NewWriter(file),
		inflight:   make(map[string]*Task),
		bufferSize: 1000,
	}

	if err := t.writer.Write(CSVHeader); err != nil {
		file.Close()
		return nil, errors.Wrap(err, "writing trace header")
	}

	atexit.Register(func() {
		if err := t.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "closing %s: %v\n", filename, err)
		}
	})

	return t, nil
}

// StartTask remembers the task and its start time.
func (t *CSVTracer) StartTask(task Task) {
	if !t.filter(task) {
		return
	}

	task.StartTime = t.timeTeller.CurrentTime()

	t.lock.Lock()
	t.inflight[task.ID] = &task
	t.lock.Unlock()
}

// StepTask appends a timestamped step to a tracked task.
func (t *CSVTracer) StepTask(task Task) {
	if len(task.Steps) == 0 {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	original, ok := t.inflight[task.ID]
	if !ok {
		return
	}

	step := task.Steps[0]
	step.Time = t.timeTeller.CurrentTime()
	original.Steps = append(original.Steps, step)
}

// EndTask writes the task.
func (t *CSVTracer) EndTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	original, ok := t.inflight[task.ID]
	if !ok || t.closed {
		return
	}

	delete(t.inflight, task.ID)
	original.EndTime = t.timeTeller.CurrentTime()

	steps := make([]string, 0, len(original.Steps))
	for _, s := range original.Steps {
		steps = append(steps, fmt.Sprintf("%s@%.10f", s.What, s.Time))
	}

	err := t.writer.Write([]string{
		original.ID,
		original.ParentID,
		original.Kind,
		original.What,
		original.Where,
		strconv.FormatFloat(float64(original.StartTime), 'f', 10, 64),
		strconv.FormatFloat(float64(original.EndTime), 'f', 10, 64),
		strings.Join(steps, ";"),
	})
	if err != nil {
		panic(err)
	}

	t.buffered++
	if t.buffered >= t.bufferSize {
		t.writer.Flush()
		t.buffered = 0
	}
}

// Flush writes the buffered lines to the file.
func (t *CSVTracer) Flush() error {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.closed {
		return nil
	}

	t.writer.Flush()
	t.buffered = 0

	return t.writer.Error()
}

// Close flushes and closes the file. Tasks still in flight are dropped.
func (t *CSVTracer) Close() error {
	if err := t.Flush(); err != nil {
		return err
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	if t.closed {
		return nil
	}

	t.closed = true

	return t.file.Close()
}
