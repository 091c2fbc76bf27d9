// Package stream defines the byte-stream primitive wrapped by the adapters
// and ships in-memory and io-backed implementations of it.
//
// Listeners may be invoked on any goroutine, but the listeners of one stream
// are called one at a time and in event order. Implementations never hold
// internal locks while calling a listener or a write callback.
package stream

import "github.com/fluxorio/streamactor/pkg/core"

// Source is a push-based byte source with a pull-style Read
type Source interface {
	// OnReadable registers a listener for "more data may be available"
	OnReadable(fn func())

	// OnData registers a listener for pushed chunks and switches the source
	// into flowing mode
	OnData(fn func(Chunk))

	// OnEnd registers a listener for the end of data
	OnEnd(fn func())

	// OnError registers a listener for source errors
	OnError(fn func(error))

	// OnClose registers a listener for the final close event
	OnClose(fn func())

	// Read returns up to size bytes (size <= 0 means everything buffered).
	// ok is false when nothing is ready yet.
	Read(size int) (chunk Chunk, ok bool)

	// Pause stops data events; chunks accumulate in the buffer
	Pause()

	// Resume restarts data events
	Resume()

	// Unshift puts chunk back at the head of the buffer
	Unshift(chunk Chunk) error

	// SetEncoding makes subsequent chunks text in the given encoding
	SetEncoding(enc string) error
}

// Sink is a byte sink with completion callbacks and a backpressure signal
type Sink interface {
	// OnDrain registers a listener fired when a sink that reported
	// backpressure can take more data
	OnDrain(fn func())

	// OnFinish registers a listener fired once all data has been flushed after End
	OnFinish(fn func())

	// OnError registers a listener for sink errors
	OnError(fn func(error))

	// OnClose registers a listener for the final close event
	OnClose(fn func())

	// Write queues chunk; cb runs once it has been accepted. The result is
	// false when the caller should wait for drain before writing more.
	Write(chunk Chunk, encoding string, cb func(error)) bool

	// End writes an optional final chunk (skipped when nil) and finishes the
	// sink; cb runs on finish
	End(chunk Chunk, encoding string, cb func(error))
}

// Duplex is both a Source and a Sink
type Duplex interface {
	Source
	Sink
}

// Errors
var (
	ErrPushAfterEnd  = &core.Error{Code: "PUSH_AFTER_END", Message: "stream: push after end"}
	ErrWriteAfterEnd = &core.Error{Code: "WRITE_AFTER_END", Message: "stream: write after end"}
	ErrDestroyed     = &core.Error{Code: "DESTROYED", Message: "stream: destroyed"}
)
