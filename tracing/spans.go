package tracing

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/sarchlab/wnsched/sim"
)

// Epoch is the wall clock time that simulated time 0 maps to in spans.
var Epoch = time.Unix(0, 0).UTC()

// SpanTime converts a simulated time to a span timestamp.
func SpanTime(t sim.VTimeInSec) time.Time {
	return Epoch.Add(time.Duration(float64(t) * float64(time.Second)))
}

// SpanTracer turns every task into an OpenTelemetry span and every step
// into an event of that span. A task whose parent is still open becomes a
// child span.
type SpanTracer struct {
	tracer     trace.Tracer
	timeTeller sim.TimeTeller
	filter     TaskFilter

	lock  sync.Mutex
	spans map[string]trace.Span
}

// NewSpanTracer creates a SpanTracer that draws its tracer from tp.
func NewSpanTracer(
	tp trace.TracerProvider,
	timeTeller sim.TimeTeller,
	filter TaskFilter,
) *SpanTracer {
	return &SpanTracer{
		tracer:     tp.Tracer("github.com/sarchlab/wnsched/tracing"),
		timeTeller: timeTeller,
		filter:     filter,
		spans:      make(map[string]trace.Span),
	}
}

func (t *SpanTracer) now() time.Time {
	return SpanTime(t.timeTeller.CurrentTime())
}

// StartTask opens a span.
func (t *SpanTracer) StartTask(task Task) {
	if !t.filter(task) {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	ctx := context.Background()
	if parent, ok := t.spans[task.ParentID]; ok {
		ctx = trace.ContextWithSpan(ctx, parent)
	}

	_, span := t.tracer.Start(ctx, task.Kind+" "+task.What,
		trace.WithTimestamp(t.now()),
		trace.WithAttributes(
			attribute.String("task.id", task.ID),
			attribute.String("task.kind", task.Kind),
			attribute.String("task.what", task.What),
			attribute.String("task.where", task.Where),
		))

	t.spans[task.ID] = span
}

// StepTask adds an event to the span of the task.
func (t *SpanTracer) StepTask(task Task) {
	if len(task.Steps) == 0 {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	span, ok := t.spans[task.ID]
	if !ok {
		return
	}

	span.AddEvent(task.Steps[0].What, trace.WithTimestamp(t.now()))
}

// EndTask closes the span of the task.
func (t *SpanTracer) EndTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	span, ok := t.spans[task.ID]
	if !ok {
		return
	}

	delete(t.spans, task.ID)
	span.End(trace.WithTimestamp(t.now()))
}

// Open returns the number of spans not yet ended.
func (t *SpanTracer) Open() int {
	t.lock.Lock()
	defer t.lock.Unlock()

	return len(t.spans)
}

// SpanFile exports spans as JSON lines into a file.
type SpanFile struct {
	file     *os.File
	provider *sdktrace.TracerProvider
}

// NewSpanFile creates path + ".json". It fails if the file already exists.
func NewSpanFile(path, service string) (*SpanFile, error) {
	filename := path + ".json"
	if _, err := os.Stat(filename); err == nil {
		return nil, errors.Errorf("file %s already exists", filename)
	}

	file, err := os.Create(filename)
	if err != nil {
		return nil, errors.Wrap(err, "creating span file")
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(file))
	if err != nil {
		file.Close()
		return nil, errors.Wrap(err, "creating span exporter")
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", service))),
	)

	return &SpanFile{file: file, provider: provider}, nil
}

// Provider returns the provider whose spans end up in the file.
func (f *SpanFile) Provider() trace.TracerProvider {
	return f.provider
}

// Close exports the pending spans and closes the file.
func (f *SpanFile) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := f.provider.Shutdown(ctx); err != nil {
		f.file.Close()
		return errors.Wrap(err, "exporting spans")
	}

	return f.file.Close()
}
