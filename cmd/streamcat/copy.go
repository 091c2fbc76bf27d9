package main

import (
	"context"

	"github.com/fluxorio/streamactor/pkg/actor"
	"github.com/fluxorio/streamactor/pkg/adapter"
	"github.com/fluxorio/streamactor/pkg/stream"
)

// start hands the copier its capabilities once both streams are adapted
type start struct {
	in  *adapter.Capabilities
	out *adapter.Capabilities
}

// copier pulls chunks from one adapted source and writes them, in order, to
// one adapted sink. It only runs on the system's dispatch loop.
type copier struct {
	in, out *adapter.Capabilities
	stash   []any

	nextRead uint64
	writeSeq uint64
	endSeq   uint64

	readable bool
	pulling  bool
	waiting  bool
	srcEnded bool
	endSent  bool
	finished bool

	done chan error
}

// copyStream copies src into sink entirely through adapter messages and
// returns once the sink finished or either stream failed
func copyStream(ctx context.Context, sys *actor.System, src stream.Source, sink stream.Sink, opts adapter.Options) error {
	c := &copier{done: make(chan error, 1)}
	self := sys.Spawn("streamcat.copier", c.starting)

	inOpts := opts
	inOpts.Name = opts.Name + ".in"
	inOpts.Readable, inOpts.End, inOpts.Error = self, self, self
	in, err := adapter.Adapt(sys, src, inOpts)
	if err != nil {
		return err
	}

	outOpts := opts
	outOpts.Name = opts.Name + ".out"
	outOpts.Drain, outOpts.Error = self, self
	out, err := adapter.Adapt(sys, sink, outOpts)
	if err != nil {
		return err
	}

	if err := self.Post(start{in: in, out: out}); err != nil {
		return err
	}
	select {
	case err := <-c.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// starting keeps events that arrive before the capabilities are known
func (c *copier) starting(ctx *actor.Context, msg any) {
	s, ok := msg.(start)
	if !ok {
		c.stash = append(c.stash, msg)
		return
	}
	c.in, c.out = s.in, s.out
	ctx.Become(c.receive)
	for _, m := range c.stash {
		c.receive(ctx, m)
	}
	c.stash = nil
	c.readable = true
	c.maybePull(ctx)
}

func (c *copier) receive(ctx *actor.Context, msg any) {
	switch m := msg.(type) {
	case adapter.ReadableEvent:
		c.readable = true
		c.maybePull(ctx)
	case adapter.ReadResult:
		c.pulling = false
		c.nextRead = m.Seq + 1
		if m.Ready {
			c.write(ctx, m.Chunk)
			c.readable = true
		}
		c.maybePull(ctx)
		c.maybeEnd(ctx)
	case adapter.ReadMismatch:
		ctx.Log().Warnf("read resynchronized from %d to %d", m.Requested, m.Current)
		c.pulling = false
		c.nextRead = m.Current
		c.readable = true
		c.maybePull(ctx)
	case adapter.EndEvent:
		c.srcEnded = true
		c.maybeEnd(ctx)
	case adapter.Backpressure:
		c.waiting = true
	case adapter.DrainEvent:
		c.waiting = false
		c.maybePull(ctx)
	case adapter.WriteAck:
		if m.Err != nil {
			c.finish(m.Err)
			return
		}
		if c.endSent && m.Seq == c.endSeq {
			c.finish(nil)
		}
	case adapter.WriteRejected:
		c.finish(m.Err)
	case adapter.ErrorEvent:
		c.finish(m.Err)
	}
}

func (c *copier) maybePull(ctx *actor.Context) {
	if c.pulling || !c.readable || c.waiting || c.srcEnded || c.finished {
		return
	}
	c.pulling = true
	c.readable = false
	ctx.Send(c.in.Read, adapter.ReadRequest{Seq: c.nextRead, OK: ctx.Self(), Fail: ctx.Self()})
}

func (c *copier) write(ctx *actor.Context, chunk stream.Chunk) {
	ctx.Send(c.out.Write, adapter.WriteRequest{
		Chunk: chunk,
		Seq:   c.writeSeq,
		OK:    ctx.Self(),
		Wait:  ctx.Self(),
		Fail:  ctx.Self(),
	})
	c.writeSeq++
}

func (c *copier) maybeEnd(ctx *actor.Context) {
	if !c.srcEnded || c.pulling || c.endSent || c.finished {
		return
	}
	c.endSent = true
	c.endSeq = c.writeSeq
	ctx.Send(c.out.End, adapter.WriteRequest{Seq: c.endSeq, OK: ctx.Self(), Fail: ctx.Self()})
}

func (c *copier) finish(err error) {
	if c.finished {
		return
	}
	c.finished = true
	c.done <- err
}
