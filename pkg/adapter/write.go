package adapter

import (
	"github.com/fluxorio/streamactor/pkg/actor"
	"github.com/fluxorio/streamactor/pkg/core"
	"github.com/fluxorio/streamactor/pkg/observability/prometheus"
	"github.com/fluxorio/streamactor/pkg/stream"
)

// drained is relayed from the sink's drain listener through the write actor
type drained struct{}

// WriteSequencer accepts writes in any order and forwards them to one Sink in
// sequence order. The end write takes part in the same ordering.
//
// Like ReadSequencer, its state belongs to behaviors of a single System.
type WriteSequencer struct {
	sink  stream.Sink
	opts  Options
	buf   *writeBuffer
	ended bool

	write *actor.Ref
	end   *actor.Ref
}

// NewWriteSequencer wraps sink and subscribes the listeners named in opts
func NewWriteSequencer(system *actor.System, sink stream.Sink, opts Options) (*WriteSequencer, error) {
	core.MustNotNil(system, "system")
	core.MustNotNil(sink, "sink")
	opts, err := opts.withDefaults(system)
	if err != nil {
		return nil, err
	}
	w := newWriteSequencer(system, sink, opts)
	w.subscribe(true)
	return w, nil
}

func newWriteSequencer(system *actor.System, sink stream.Sink, opts Options) *WriteSequencer {
	w := &WriteSequencer{sink: sink, opts: opts, buf: newWriteBuffer()}
	w.write = system.Spawn(opts.Name+".write", w.handleWrite)
	w.end = system.Spawn(opts.Name+".end", w.handleEnd)
	return w
}

// subscribe registers the sink listeners. withError is false when the read
// side of a duplex already listens for error and close.
func (w *WriteSequencer) subscribe(withError bool) {
	if w.opts.Drain != nil {
		// Through the write actor, so DrainEvent never overtakes the
		// Backpressure sent by the write that filled the sink.
		w.sink.OnDrain(func() { w.notify(w.write, drained{}) })
	}
	if w.opts.Finish != nil {
		w.sink.OnFinish(func() { w.notify(w.opts.Finish, FinishEvent{}) })
	}
	if withError {
		w.sink.OnError(func(err error) {
			w.opts.Metrics.StreamErrorsTotal.WithLabelValues(w.opts.Name).Inc()
			w.opts.Logger.Debugf("stream error: %v", err)
			w.notify(w.opts.Error, ErrorEvent{Err: err})
		})
		w.sink.OnClose(func() { w.notify(w.opts.Close, CloseEvent{}) })
	}
}

// notify runs in sink callbacks, which may fire on the dispatch loop inside
// Write or End, so it posts instead of waiting for mailbox room
func (w *WriteSequencer) notify(to *actor.Ref, msg any) {
	if err := to.Post(msg); err != nil {
		w.opts.Logger.Errorf("sink event %T lost: %v", msg, err)
	}
}

// WriteRef returns the capability answering WriteRequest
func (w *WriteSequencer) WriteRef() *actor.Ref { return w.write }

// EndRef returns the capability answering the terminal WriteRequest
func (w *WriteSequencer) EndRef() *actor.Ref { return w.end }

// Seq returns the write sequence: the number of entries forwarded to the sink.
// Only meaningful from a behavior of the same System or after System.Quiesce.
func (w *WriteSequencer) Seq() uint64 { return w.buf.base }

// Pending returns the number of buffered writes waiting for a gap to fill.
// Same access rule as Seq.
func (w *WriteSequencer) Pending() int { return w.buf.len() }

// Ended reports whether the end write has drained. Same access rule as Seq.
func (w *WriteSequencer) Ended() bool { return w.ended }

func (w *WriteSequencer) handleWrite(ctx *actor.Context, msg any) {
	switch m := msg.(type) {
	case WriteRequest:
		w.submit(ctx, newPendingWrite(m, false))
	case drained:
		ctx.Send(w.opts.Drain, DrainEvent{})
	default:
		ctx.Log().Warnf("unexpected message %T ignored", msg)
	}
}

func (w *WriteSequencer) handleEnd(ctx *actor.Context, msg any) {
	req, ok := msg.(WriteRequest)
	if !ok {
		ctx.Log().Warnf("unexpected message %T ignored", msg)
		return
	}
	w.submit(ctx, newPendingWrite(req, true))
}

func (w *WriteSequencer) submit(ctx *actor.Context, pw *pendingWrite) {
	if w.ended {
		w.reject(ctx, pw, ErrWriteAfterEnd)
		return
	}
	if w.buf.stale(pw.seq) {
		w.opts.Metrics.WritesStaleTotal.WithLabelValues(w.opts.Name).Inc()
		w.opts.Logger.Debugf("stale write %d dropped (current %d)", pw.seq, w.buf.base)
		if w.opts.StaleWrites == StaleReport {
			ctx.Send(pw.fail, WriteRejected{Seq: pw.seq, Current: w.buf.base, Err: ErrStaleWrite})
		}
		return
	}
	if w.buf.put(pw) {
		w.opts.Metrics.WritesOverwrittenTotal.WithLabelValues(w.opts.Name).Inc()
		w.opts.Logger.Debugf("buffered write %d overwritten", pw.seq)
	}
	w.drain(ctx)
}

// drain forwards slot 0 to the sink until a gap is reached or the end write
// has been forwarded
func (w *WriteSequencer) drain(ctx *actor.Context) {
	for {
		pw, ok := w.buf.pop()
		if !ok {
			break
		}
		enc := pw.encoding
		if enc == "" {
			enc = w.opts.Encoding
		}
		cb := w.completion(pw)

		if pw.terminal {
			w.ended = true
			w.sink.End(pw.chunk, enc, cb)
			w.opts.Metrics.RecordDrain(w.opts.Name, prometheus.KindEnd, 0)
			for _, rest := range w.buf.clear() {
				w.reject(ctx, rest, ErrWriteAfterEnd)
			}
			w.opts.Metrics.SetPending(w.opts.Name, 0)
			return
		}

		if !w.sink.Write(pw.chunk, enc, cb) {
			w.opts.Metrics.BackpressureTotal.WithLabelValues(w.opts.Name).Inc()
			ctx.Send(pw.wait, Backpressure{Seq: pw.seq, Next: w.write})
		}
		w.opts.Metrics.RecordDrain(w.opts.Name, prometheus.KindWrite, w.buf.len())
	}
	w.opts.Metrics.SetPending(w.opts.Name, w.buf.len())
}

// completion returns the sink callback acknowledging pw. The sink may call it
// from any goroutine; it only sends a message.
func (w *WriteSequencer) completion(pw *pendingWrite) func(error) {
	if pw.ok == nil {
		return nil
	}
	seq, ok, next := pw.seq, pw.ok, w.write
	return func(err error) {
		w.notify(ok, WriteAck{Seq: seq, Next: next, Err: err})
	}
}

func (w *WriteSequencer) reject(ctx *actor.Context, pw *pendingWrite, err error) {
	w.opts.Metrics.WritesRejectedTotal.WithLabelValues(w.opts.Name).Inc()
	w.opts.Logger.Warnf("write %d rejected: %v", pw.seq, err)
	ctx.Send(pw.fail, WriteRejected{Seq: pw.seq, Current: w.buf.base, Err: err})
}
