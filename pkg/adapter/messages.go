package adapter

import (
	"github.com/fluxorio/streamactor/pkg/actor"
	"github.com/fluxorio/streamactor/pkg/stream"
)

// ReadRequest asks the read capability for the chunk numbered Seq.
// It is honoured only when Seq equals the sequencer's read sequence.
type ReadRequest struct {
	Seq  uint64
	Size int // byte count hint; <= 0 reads everything buffered

	OK   *actor.Ref // receives ReadResult
	Fail *actor.Ref // receives ReadMismatch
}

// ReadResult answers a ReadRequest. Ready is false when the source had
// nothing to give; wait for the next ReadableEvent before pulling again.
type ReadResult struct {
	Chunk stream.Chunk
	Ready bool
	Next  *actor.Ref // the read capability, for the next pull
	Seq   uint64
}

// ReadMismatch reports a ReadRequest with the wrong sequence number.
// Current is authoritative; resynchronize to it.
type ReadMismatch struct {
	Current   uint64
	Requested uint64
}

// PauseRequest pauses the source
type PauseRequest struct {
	OK *actor.Ref // optional, receives Done
}

// ResumeRequest resumes the source
type ResumeRequest struct {
	OK *actor.Ref // optional, receives Done
}

// UnshiftRequest pushes Chunk back onto the head of the source buffer
type UnshiftRequest struct {
	Chunk stream.Chunk
	OK    *actor.Ref // optional, receives Done
}

// Done acknowledges a pause, resume or unshift
type Done struct{}

// DataEvent carries a pushed chunk and its read sequence number
type DataEvent struct {
	Chunk stream.Chunk
	Seq   uint64
}

// ReadableEvent reports that data may be available; Seq is the sequence
// number the next ReadRequest must carry
type ReadableEvent struct {
	Seq uint64
}

// EndEvent reports the end of the source's data
type EndEvent struct{}

// CloseEvent reports that the stream closed
type CloseEvent struct{}

// DrainEvent reports that a sink which signalled backpressure can take more data
type DrainEvent struct{}

// FinishEvent reports that the sink flushed everything after its end write
type FinishEvent struct{}

// ErrorEvent forwards an error raised by the wrapped stream, unchanged
type ErrorEvent struct {
	Err error
}

// WriteRequest submits one write (to the write capability) or the terminal
// write (to the end capability) at position Seq
type WriteRequest struct {
	Chunk    stream.Chunk
	Encoding string
	Seq      uint64

	OK   *actor.Ref // optional, receives WriteAck once the sink accepted the write
	Wait *actor.Ref // optional, receives Backpressure
	Fail *actor.Ref // optional, receives WriteRejected
}

// WriteAck confirms a write (or the end write). Next is the write capability.
type WriteAck struct {
	Seq  uint64
	Next *actor.Ref
	Err  error
}

// Backpressure tells a writer the sink is full. Next is the write capability;
// a DrainEvent listener learns when to continue.
type Backpressure struct {
	Seq  uint64
	Next *actor.Ref
}

// WriteRejected reports a write that will never reach the sink
type WriteRejected struct {
	Seq     uint64
	Current uint64 // write sequence at the time of rejection
	Err     error  // ErrStaleWrite or ErrWriteAfterEnd
}
