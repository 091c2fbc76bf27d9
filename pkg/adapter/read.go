package adapter

import (
	"sync/atomic"

	"github.com/fluxorio/streamactor/pkg/actor"
	"github.com/fluxorio/streamactor/pkg/core"
	"github.com/fluxorio/streamactor/pkg/observability/prometheus"
	"github.com/fluxorio/streamactor/pkg/stream"
)

// source events, relayed from stream listeners to the events actor
type (
	pushed   struct{ chunk stream.Chunk }
	readable struct{}
	ended    struct{}
	closed   struct{}
	failed   struct{ err error }
)

// ReadSequencer numbers the chunks of one Source. Every chunk delivered, by
// push or by pull, consumes exactly one sequence number.
//
// All state is owned by behaviors of a single actor.System, so it is never
// touched concurrently. Stream events from other goroutines reach it as
// messages to an internal events actor, which keeps them in source order.
//
// In flowing mode the source is paused while PushWindow pushed chunks are
// still waiting to be numbered, and resumed once they all are.
type ReadSequencer struct {
	src    stream.Source
	opts   Options
	seq    uint64
	paused bool // by a PauseRequest

	// shared with the goroutines raising source events
	inflight        atomic.Int64
	windowFull      atomic.Bool
	readablePending atomic.Bool

	read    *actor.Ref
	pause   *actor.Ref
	resume  *actor.Ref
	unshift *actor.Ref
	events  *actor.Ref
}

// NewReadSequencer wraps src and subscribes the listeners named in opts
func NewReadSequencer(system *actor.System, src stream.Source, opts Options) (*ReadSequencer, error) {
	core.MustNotNil(system, "system")
	core.MustNotNil(src, "source")
	opts, err := opts.withDefaults(system)
	if err != nil {
		return nil, err
	}
	r := newReadSequencer(system, src, opts)
	if err := r.subscribe(true); err != nil {
		return nil, err
	}
	return r, nil
}

func newReadSequencer(system *actor.System, src stream.Source, opts Options) *ReadSequencer {
	r := &ReadSequencer{src: src, opts: opts}
	r.read = system.Spawn(opts.Name+".read", r.handleRead)
	r.pause = system.Spawn(opts.Name+".pause", r.handlePause)
	r.resume = system.Spawn(opts.Name+".resume", r.handleResume)
	r.unshift = system.Spawn(opts.Name+".unshift", r.handleUnshift)
	r.events = system.Spawn(opts.Name+".events", r.handleEvent)
	return r
}

// subscribe registers the stream listeners. withError is false when another
// component already listens for error and close on the same stream.
func (r *ReadSequencer) subscribe(withError bool) error {
	if r.opts.Encoding != "" {
		if err := r.src.SetEncoding(r.opts.Encoding); err != nil {
			return err
		}
	}
	if withError {
		r.src.OnError(func(err error) { r.relay(failed{err: err}) })
		r.src.OnClose(func() { r.relay(closed{}) })
	}
	r.src.OnEnd(func() { r.relay(ended{}) })
	if r.opts.Readable != nil {
		r.src.OnReadable(func() {
			// One pending notification is enough: its Seq is taken when handled.
			if r.readablePending.CompareAndSwap(false, true) {
				r.relay(readable{})
			}
		})
	}
	// Last: a data listener switches the source into flowing mode.
	if r.opts.Data != nil {
		r.src.OnData(r.onPush)
	}
	return nil
}

// relay may run on the dispatch loop (inside Read or Resume) as well as on a
// producer goroutine, so it posts instead of waiting for mailbox room. The
// push window bounds what it can queue.
func (r *ReadSequencer) relay(ev any) {
	if err := r.events.Post(ev); err != nil {
		r.opts.Logger.Errorf("source event %T lost: %v", ev, err)
	}
}

func (r *ReadSequencer) onPush(c stream.Chunk) {
	if r.inflight.Add(1) >= int64(r.opts.PushWindow) && r.windowFull.CompareAndSwap(false, true) {
		r.src.Pause()
	}
	r.relay(pushed{chunk: c})
}

// settle accounts for one numbered push and reopens the window once every
// relayed chunk has been numbered
func (r *ReadSequencer) settle() {
	if r.inflight.Add(-1) > 0 || r.paused {
		return
	}
	if r.windowFull.CompareAndSwap(true, false) {
		r.src.Resume()
	}
}

// ReadRef returns the capability answering ReadRequest
func (r *ReadSequencer) ReadRef() *actor.Ref { return r.read }

// PauseRef returns the capability answering PauseRequest
func (r *ReadSequencer) PauseRef() *actor.Ref { return r.pause }

// ResumeRef returns the capability answering ResumeRequest
func (r *ReadSequencer) ResumeRef() *actor.Ref { return r.resume }

// UnshiftRef returns the capability answering UnshiftRequest
func (r *ReadSequencer) UnshiftRef() *actor.Ref { return r.unshift }

// Seq returns the read sequence. Only meaningful from a behavior of the same
// System or after System.Quiesce.
func (r *ReadSequencer) Seq() uint64 { return r.seq }

func (r *ReadSequencer) handleEvent(ctx *actor.Context, msg any) {
	switch ev := msg.(type) {
	case pushed:
		if err := ctx.Send(r.opts.Data, DataEvent{Chunk: ev.chunk, Seq: r.seq}); err == nil {
			r.seq++
			r.opts.Metrics.RecordRead(r.opts.Name, prometheus.ModePush)
		}
		r.settle()
	case readable:
		r.readablePending.Store(false)
		ctx.Send(r.opts.Readable, ReadableEvent{Seq: r.seq})
	case ended:
		ctx.Send(r.opts.End, EndEvent{})
	case closed:
		ctx.Send(r.opts.Close, CloseEvent{})
	case failed:
		r.opts.Metrics.StreamErrorsTotal.WithLabelValues(r.opts.Name).Inc()
		r.opts.Logger.Debugf("stream error: %v", ev.err)
		ctx.Send(r.opts.Error, ErrorEvent{Err: ev.err})
	}
}

func (r *ReadSequencer) handleRead(ctx *actor.Context, msg any) {
	req, ok := msg.(ReadRequest)
	if !ok {
		r.unexpected(ctx, msg)
		return
	}
	if req.Seq != r.seq {
		r.opts.Metrics.ReadMismatchTotal.WithLabelValues(r.opts.Name).Inc()
		r.opts.Logger.Debugf("read mismatch: requested %d, current %d", req.Seq, r.seq)
		ctx.Send(req.Fail, ReadMismatch{Current: r.seq, Requested: req.Seq})
		return
	}
	if req.OK == nil {
		return
	}
	chunk, ready := r.src.Read(req.Size)
	ctx.Send(req.OK, ReadResult{Chunk: chunk, Ready: ready, Next: ctx.Self(), Seq: r.seq})
	r.seq++
	r.opts.Metrics.RecordRead(r.opts.Name, prometheus.ModePull)
}

func (r *ReadSequencer) handlePause(ctx *actor.Context, msg any) {
	req, ok := msg.(PauseRequest)
	if !ok {
		r.unexpected(ctx, msg)
		return
	}
	r.paused = true
	r.src.Pause()
	ctx.Send(req.OK, Done{})
}

func (r *ReadSequencer) handleResume(ctx *actor.Context, msg any) {
	req, ok := msg.(ResumeRequest)
	if !ok {
		r.unexpected(ctx, msg)
		return
	}
	r.paused = false
	// A full push window resumes the source itself once it empties.
	if r.inflight.Load() == 0 || !r.windowFull.Load() {
		r.windowFull.Store(false)
		r.src.Resume()
	}
	ctx.Send(req.OK, Done{})
}

func (r *ReadSequencer) handleUnshift(ctx *actor.Context, msg any) {
	req, ok := msg.(UnshiftRequest)
	if !ok {
		r.unexpected(ctx, msg)
		return
	}
	if err := r.src.Unshift(req.Chunk); err != nil {
		r.opts.Logger.Warnf("unshift failed: %v", err)
		ctx.Send(r.opts.Error, ErrorEvent{Err: err})
		return
	}
	ctx.Send(req.OK, Done{})
}

func (r *ReadSequencer) unexpected(ctx *actor.Context, msg any) {
	ctx.Log().Warnf("unexpected message %T ignored", msg)
}
