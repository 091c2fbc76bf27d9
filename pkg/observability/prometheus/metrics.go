package prometheus

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DefaultRegistry is the default Prometheus registry
	DefaultRegistry = prometheus.NewRegistry()

	// DefaultRegisterer is the default Prometheus registerer
	DefaultRegisterer = prometheus.WrapRegistererWith(prometheus.Labels{"service": "streamactor"}, DefaultRegistry)

	// Metrics collection
	metricsOnce sync.Once
	metrics     *Metrics
)

// Read modes for ChunksReadTotal
const (
	ModePush = "push"
	ModePull = "pull"
)

// Write kinds for WritesDrainedTotal
const (
	KindWrite = "write"
	KindEnd   = "end"
)

// Message outcomes for ActorMessagesTotal
const (
	OutcomeDelivered = "delivered"
	OutcomeRejected  = "rejected"
	OutcomePanicked  = "panicked"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Read sequencer metrics
	ChunksReadTotal   *prometheus.CounterVec
	ReadMismatchTotal *prometheus.CounterVec

	// Write sequencer metrics
	WritesDrainedTotal     *prometheus.CounterVec
	WritesStaleTotal       *prometheus.CounterVec
	WritesOverwrittenTotal *prometheus.CounterVec
	WritesRejectedTotal    *prometheus.CounterVec
	BackpressureTotal      *prometheus.CounterVec
	PendingWrites          *prometheus.GaugeVec

	// Errors raised by wrapped streams
	StreamErrorsTotal *prometheus.CounterVec

	// Actor system metrics
	ActorMessagesTotal *prometheus.CounterVec
	ActorMailboxDepth  *prometheus.GaugeVec
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = NewMetrics(DefaultRegisterer)
	})
	return metrics
}

// NewMetrics creates a new metrics collection
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &Metrics{
		ChunksReadTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "streamactor_chunks_read_total",
				Help: "Total number of chunks delivered by read sequencers",
			},
			[]string{"stream", "mode"}, // mode: push, pull
		),
		ReadMismatchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "streamactor_read_mismatch_total",
				Help: "Total number of pull requests rejected for a sequence mismatch",
			},
			[]string{"stream"},
		),

		WritesDrainedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "streamactor_writes_drained_total",
				Help: "Total number of buffered writes forwarded to the sink in order",
			},
			[]string{"stream", "kind"}, // kind: write, end
		),
		WritesStaleTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "streamactor_writes_stale_total",
				Help: "Total number of writes behind the current write sequence",
			},
			[]string{"stream"},
		),
		WritesOverwrittenTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "streamactor_writes_overwritten_total",
				Help: "Total number of buffered writes replaced by a later write with the same sequence",
			},
			[]string{"stream"},
		),
		WritesRejectedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "streamactor_writes_rejected_total",
				Help: "Total number of writes rejected because the sink was already ended",
			},
			[]string{"stream"},
		),
		BackpressureTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "streamactor_backpressure_total",
				Help: "Total number of sink writes that reported backpressure",
			},
			[]string{"stream"},
		),
		PendingWrites: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "streamactor_pending_writes",
				Help: "Writes buffered while waiting for an earlier sequence number",
			},
			[]string{"stream"},
		),

		StreamErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "streamactor_stream_errors_total",
				Help: "Total number of errors raised by wrapped streams",
			},
			[]string{"stream"},
		),

		ActorMessagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "streamactor_actor_messages_total",
				Help: "Total number of actor messages by outcome",
			},
			[]string{"system", "outcome"}, // outcome: delivered, rejected, panicked
		),
		ActorMailboxDepth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "streamactor_actor_mailbox_depth",
				Help: "Messages queued in an actor system mailbox",
			},
			[]string{"system"},
		),
	}
}

// RecordRead records a chunk delivered by a read sequencer
func (m *Metrics) RecordRead(stream, mode string) {
	m.ChunksReadTotal.WithLabelValues(stream, mode).Inc()
}

// RecordDrain records a write forwarded to the sink and the remaining buffer depth
func (m *Metrics) RecordDrain(stream, kind string, pending int) {
	m.WritesDrainedTotal.WithLabelValues(stream, kind).Inc()
	m.PendingWrites.WithLabelValues(stream).Set(float64(pending))
}

// SetPending updates the pending writes gauge
func (m *Metrics) SetPending(stream string, pending int) {
	m.PendingWrites.WithLabelValues(stream).Set(float64(pending))
}

// RecordActorMessage records the outcome of one actor message
func (m *Metrics) RecordActorMessage(system, outcome string) {
	m.ActorMessagesTotal.WithLabelValues(system, outcome).Inc()
}

// SetMailboxDepth updates the mailbox depth gauge
func (m *Metrics) SetMailboxDepth(system string, depth int) {
	m.ActorMailboxDepth.WithLabelValues(system).Set(float64(depth))
}
