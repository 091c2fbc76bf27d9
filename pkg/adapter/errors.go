package adapter

import "github.com/fluxorio/streamactor/pkg/core"

// Errors
var (
	// ErrStaleWrite rejects a write behind the current write sequence
	ErrStaleWrite = &core.Error{Code: "STALE_WRITE", Message: "write sequence already drained"}

	// ErrWriteAfterEnd rejects a write submitted or buffered after the end write drained
	ErrWriteAfterEnd = &core.Error{Code: "WRITE_AFTER_END", Message: "write after end"}

	// ErrUnsupportedStream is returned by Adapt for values that are neither a Source nor a Sink
	ErrUnsupportedStream = &core.Error{Code: "UNSUPPORTED_STREAM", Message: "stream is neither a source nor a sink"}
)
