package adapter

import (
	"github.com/fluxorio/streamactor/pkg/actor"
	"github.com/fluxorio/streamactor/pkg/core"
	"github.com/fluxorio/streamactor/pkg/observability/prometheus"
	"github.com/fluxorio/streamactor/pkg/stream"
	"github.com/google/uuid"
)

// StalePolicy decides what happens to a write whose sequence number is
// behind the current write sequence
type StalePolicy int

const (
	// StaleDrop discards stale writes without telling the writer
	StaleDrop StalePolicy = iota

	// StaleReport discards stale writes and sends WriteRejected to the
	// request's Fail ref
	StaleReport
)

func (p StalePolicy) String() string {
	switch p {
	case StaleDrop:
		return "drop"
	case StaleReport:
		return "report"
	}
	return "unknown"
}

// ParseStalePolicy parses "drop" or "report"
func ParseStalePolicy(s string) (StalePolicy, error) {
	switch s {
	case "", "drop":
		return StaleDrop, nil
	case "report":
		return StaleReport, nil
	}
	return StaleDrop, &core.Error{Code: "INVALID_STALE_POLICY", Message: "unknown stale write policy: " + s}
}

// DefaultPushWindow is the number of pushed chunks a ReadSequencer lets queue
// up in the actor system before pausing a flowing source
const DefaultPushWindow = 256

// Options selects the listeners notified for each stream event. A nil ref
// means the event is not requested.
type Options struct {
	// Name labels logs and metrics; generated when empty
	Name string

	Data     *actor.Ref // DataEvent; registering it puts the source in flowing mode
	End      *actor.Ref // EndEvent
	Error    *actor.Ref // ErrorEvent
	Close    *actor.Ref // CloseEvent
	Readable *actor.Ref // ReadableEvent
	Drain    *actor.Ref // DrainEvent
	Finish   *actor.Ref // FinishEvent

	// Encoding is applied to the source, and used for writes that carry none
	Encoding string

	StaleWrites StalePolicy

	// PushWindow bounds the pushed chunks waiting to be numbered; defaults to
	// DefaultPushWindow
	PushWindow int

	Logger  core.Logger
	Metrics *prometheus.Metrics
}

func (o Options) withDefaults(system *actor.System) (Options, error) {
	if o.Name == "" {
		o.Name = "stream-" + uuid.New().String()[:8]
	}
	if err := core.ValidateName(o.Name); err != nil {
		return o, err
	}
	enc, err := stream.NormalizeEncoding(o.Encoding)
	if err != nil {
		return o, err
	}
	o.Encoding = enc
	if o.PushWindow == 0 {
		o.PushWindow = DefaultPushWindow
	}
	if err := core.ValidateSize("push window", o.PushWindow); err != nil {
		return o, err
	}
	if o.Logger == nil {
		o.Logger = system.Logger()
	}
	o.Logger = o.Logger.WithFields(map[string]interface{}{"stream": o.Name})
	if o.Metrics == nil {
		o.Metrics = prometheus.GetMetrics()
	}
	return o, nil
}
