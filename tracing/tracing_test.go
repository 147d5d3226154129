package tracing

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/wnsched/sim"
	"github.com/sirupsen/logrus"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func pdu(id, what string) Task {
	return Task{ID: id, Kind: "pdu", What: what}
}

var _ = Describe("Task API", func() {
	var (
		engine *sim.SerialEngine
		d      *domain
	)

	BeforeEach(func() {
		engine = sim.NewSerialEngine()
		d = &domain{name: "BS"}
	})

	It("should do nothing without hooks", func() {
		Expect(func() {
			StartTask(d, Task{})
			AddTaskStep(d, "1", "queued")
			EndTask(d, "1")
		}).NotTo(Panic())
	})

	It("should reject incomplete tasks when hooked", func() {
		CollectTrace(d, NewTaskStats(engine, AllTasks))

		Expect(func() { StartTask(d, pdu("", "downlink")) }).To(Panic())
		Expect(func() { StartTask(d, Task{ID: "1", What: "downlink"}) }).To(Panic())
		Expect(func() { StartTask(d, Task{ID: "1", Kind: "pdu"}) }).To(Panic())
	})

	It("should reject an unnamed domain", func() {
		d.name = ""
		CollectTrace(d, NewTaskStats(engine, AllTasks))

		Expect(func() { StartTask(d, pdu("1", "downlink")) }).To(Panic())
	})

	It("should not accept the same tracer twice", func() {
		tracer := NewTaskStats(engine, AllTasks)
		CollectTrace(d, tracer)

		Expect(func() { CollectTrace(d, tracer) }).To(Panic())
		Expect(func() { CollectTrace(d, NewTaskStats(engine, AllTasks)) }).
			NotTo(Panic())
	})
})

var _ = Describe("TaskStats", func() {
	var (
		engine *sim.SerialEngine
		d      *domain
		stats  *TaskStats
	)

	BeforeEach(func() {
		engine = sim.NewSerialEngine()
		d = &domain{name: "BS"}
		stats = NewTaskStats(engine, KindIs("pdu"))
		CollectTrace(d, stats)
	})

	It("should measure durations per what", func() {
		at(engine, 0, func() {
			StartTask(d, pdu("a", "downlink"))
			StartTask(d, Task{ID: "x", Kind: "ack", What: "uplink"})
		})
		at(engine, 1, func() {
			StartTask(d, pdu("b", "downlink"))
			StartTask(d, pdu("c", "uplink"))
		})
		at(engine, 2, func() { EndTask(d, "a") })
		at(engine, 5, func() {
			EndTask(d, "b")
			EndTask(d, "x")
		})
		at(engine, 7, func() { EndTask(d, "c") })

		Expect(engine.Run()).To(Succeed())

		Expect(stats.TotalCount()).To(Equal(uint64(3)))
		Expect(float64(stats.AverageTime())).To(BeNumerically("~", 4.0, 1e-12))
		Expect(float64(stats.MaxTime())).To(BeNumerically("~", 6.0, 1e-12))
		Expect(stats.InFlight()).To(Equal(0))
		Expect(stats.Whats()).To(Equal([]string{"downlink", "uplink"}))

		dl, ok := stats.AverageTimeOf("downlink")
		Expect(ok).To(BeTrue())
		Expect(float64(dl)).To(BeNumerically("~", 3.0, 1e-12))

		_, ok = stats.AverageTimeOf("sidelink")
		Expect(ok).To(BeFalse())
	})

	It("should count steps", func() {
		StartTask(d, pdu("a", "downlink"))
		StartTask(d, pdu("b", "downlink"))
		AddTaskStep(d, "a", "retransmit")
		AddTaskStep(d, "a", "retransmit")
		AddTaskStep(d, "b", "queued")
		EndTask(d, "a")
		AddTaskStep(d, "a", "queued")

		Expect(stats.StepNames()).To(Equal([]string{"retransmit", "queued"}))
		Expect(stats.StepCount("retransmit")).To(Equal(uint64(2)))
		Expect(stats.StepCount("queued")).To(Equal(uint64(2)))
		Expect(stats.TaskCount("retransmit")).To(Equal(uint64(1)))
		Expect(stats.TaskCount("queued")).To(Equal(uint64(1)))
		Expect(stats.InFlight()).To(Equal(1))
	})
})

var _ = Describe("CSVTracer", func() {
	It("should write finished tasks", func() {
		engine := sim.NewSerialEngine()
		d := &domain{name: "BS"}
		path := filepath.Join(GinkgoT().TempDir(), "trace")

		tracer, err := NewCSVTracer(engine, AllTasks, path)
		Expect(err).NotTo(HaveOccurred())
		CollectTrace(d, tracer)

		at(engine, 0, func() { StartTask(d, pdu("7", "downlink")) })
		at(engine, 0.5, func() { AddTaskStep(d, "7", "scheduled") })
		at(engine, 1, func() { EndTask(d, "7") })
		Expect(engine.Run()).To(Succeed())
		Expect(tracer.Close()).To(Succeed())

		data, err := os.ReadFile(path + ".csv")
		Expect(err).NotTo(HaveOccurred())

		records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(2))
		Expect(records[0]).To(Equal(CSVHeader))
		Expect(records[1][0]).To(Equal("7"))
		Expect(records[1][4]).To(Equal("BS"))
		Expect(records[1][6]).To(Equal("1.0000000000"))
		Expect(records[1][7]).To(Equal("scheduled@0.5000000000"))

		_, err = NewCSVTracer(engine, AllTasks, path)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Engine hooks", func() {
	It("should count events, commands and cancellations", func() {
		engine := sim.NewSerialEngine()
		counter := &EventCounter{}
		engine.AcceptHook(counter)

		buf := new(bytes.Buffer)
		logger := logrus.New()
		logger.SetOutput(buf)
		logger.SetLevel(logrus.DebugLevel)
		engine.AcceptHook(NewEventLogger(logger))

		at(engine, 1, func() {})
		evt := sim.MustScheduleDelay(engine, func() {}, 2)
		engine.QueueCommand(func() {})
		Expect(engine.Cancel(evt)).To(Succeed())

		Expect(engine.Run()).To(Succeed())

		Expect(counter.Events()).To(Equal(uint64(1)))
		Expect(counter.Commands()).To(Equal(uint64(1)))
		Expect(counter.Canceled()).To(Equal(uint64(1)))
		Expect(buf.String()).To(ContainSubstring("command"))
		Expect(buf.String()).To(ContainSubstring("event"))
	})
})

var _ = Describe("SpanTracer", func() {
	var (
		engine   *sim.SerialEngine
		d        *domain
		recorder *tracetest.SpanRecorder
		tracer   *SpanTracer
	)

	BeforeEach(func() {
		engine = sim.NewSerialEngine()
		d = &domain{name: "BS"}
		recorder = tracetest.NewSpanRecorder()
		tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
		tracer = NewSpanTracer(tp, engine, KindIs("pdu"))
		CollectTrace(d, tracer)
	})

	It("should turn tasks into spans on the simulated clock", func() {
		at(engine, 1, func() {
			StartTask(d, pdu("a", "downlink"))
			StartTask(d, Task{ID: "b", ParentID: "a", Kind: "pdu", What: "segment"})
			StartTask(d, Task{ID: "x", Kind: "ack", What: "uplink"})
		})
		at(engine, 1.5, func() { AddTaskStep(d, "a", "queued") })
		at(engine, 2, func() { EndTask(d, "b") })
		at(engine, 3, func() { EndTask(d, "a") })

		Expect(engine.Run()).To(Succeed())
		Expect(tracer.Open()).To(Equal(0))

		ended := recorder.Ended()
		Expect(ended).To(HaveLen(2))

		child, parent := ended[0], ended[1]
		Expect(parent.Name()).To(Equal("pdu downlink"))
		Expect(parent.StartTime()).To(BeTemporally("==", SpanTime(1)))
		Expect(parent.EndTime()).To(BeTemporally("==", SpanTime(3)))
		Expect(parent.Events()).To(HaveLen(1))
		Expect(parent.Events()[0].Name).To(Equal("queued"))
		Expect(parent.Events()[0].Time).To(BeTemporally("==", SpanTime(1.5)))

		Expect(child.Parent().SpanID()).To(Equal(parent.SpanContext().SpanID()))
		Expect(child.SpanContext().TraceID()).
			To(Equal(parent.SpanContext().TraceID()))
	})
})

var _ = Describe("SpanFile", func() {
	It("should export ended spans as json", func() {
		engine := sim.NewSerialEngine()
		d := &domain{name: "BS"}
		path := filepath.Join(GinkgoT().TempDir(), "spans")

		file, err := NewSpanFile(path, "wnsched-test")
		Expect(err).NotTo(HaveOccurred())
		CollectTrace(d, NewSpanTracer(file.Provider(), engine, AllTasks))

		StartTask(d, pdu("7", "uplink"))
		EndTask(d, "7")
		Expect(file.Close()).To(Succeed())

		data, err := os.ReadFile(path + ".json")
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring("pdu uplink"))
		Expect(string(data)).To(ContainSubstring("wnsched-test"))

		_, err = NewSpanFile(path, "wnsched-test")
		Expect(err).To(HaveOccurred())
	})
})
