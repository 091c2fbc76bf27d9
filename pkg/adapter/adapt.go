// Package adapter exposes a byte stream as actor capabilities.
//
// A Source is wrapped by a ReadSequencer, which numbers every chunk it hands
// out so consumers can demand exactly the next one. A Sink is wrapped by a
// WriteSequencer, which takes writes tagged with sequence numbers in any order
// and forwards them to the sink in order. Adapt picks what applies.
package adapter

import (
	"github.com/fluxorio/streamactor/pkg/actor"
	"github.com/fluxorio/streamactor/pkg/core"
	"github.com/fluxorio/streamactor/pkg/stream"
)

// Capabilities are the addresses through which a wrapped stream is driven.
// Fields that do not apply to the stream are nil.
type Capabilities struct {
	Read    *actor.Ref // ReadRequest
	Pause   *actor.Ref // PauseRequest
	Resume  *actor.Ref // ResumeRequest
	Unshift *actor.Ref // UnshiftRequest
	Write   *actor.Ref // WriteRequest
	End     *actor.Ref // WriteRequest, terminal

	Reader *ReadSequencer
	Writer *WriteSequencer
}

// Adapt inspects s and wraps it as a duplex, a source or a sink, in that order
func Adapt(system *actor.System, s any, opts Options) (*Capabilities, error) {
	switch v := s.(type) {
	case stream.Duplex:
		return AdaptDuplex(system, v, opts)
	case stream.Source:
		return AdaptReadable(system, v, opts)
	case stream.Sink:
		return AdaptWritable(system, v, opts)
	}
	return nil, ErrUnsupportedStream
}

// AdaptReadable wraps a source
func AdaptReadable(system *actor.System, src stream.Source, opts Options) (*Capabilities, error) {
	r, err := NewReadSequencer(system, src, opts)
	if err != nil {
		return nil, err
	}
	caps := &Capabilities{}
	caps.withReader(r)
	return caps, nil
}

// AdaptWritable wraps a sink
func AdaptWritable(system *actor.System, sink stream.Sink, opts Options) (*Capabilities, error) {
	w, err := NewWriteSequencer(system, sink, opts)
	if err != nil {
		return nil, err
	}
	caps := &Capabilities{}
	caps.withWriter(w)
	return caps, nil
}

// AdaptDuplex wraps both halves of d. Error and close listeners are
// subscribed once, through the read side.
func AdaptDuplex(system *actor.System, d stream.Duplex, opts Options) (*Capabilities, error) {
	core.MustNotNil(system, "system")
	core.MustNotNil(d, "stream")
	opts, err := opts.withDefaults(system)
	if err != nil {
		return nil, err
	}
	r := newReadSequencer(system, d, opts)
	w := newWriteSequencer(system, d, opts)
	w.subscribe(false)
	if err := r.subscribe(true); err != nil {
		return nil, err
	}
	caps := &Capabilities{}
	caps.withReader(r)
	caps.withWriter(w)
	return caps, nil
}

func (c *Capabilities) withReader(r *ReadSequencer) {
	c.Reader = r
	c.Read = r.ReadRef()
	c.Pause = r.PauseRef()
	c.Resume = r.ResumeRef()
	c.Unshift = r.UnshiftRef()
}

func (c *Capabilities) withWriter(w *WriteSequencer) {
	c.Writer = w
	c.Write = w.WriteRef()
	c.End = w.EndRef()
}
