package stream

import (
	"context"
	"errors"
	"io"
)

// ReaderConfig configures NewReaderSource
type ReaderConfig struct {
	// ChunkSize is the size of each read from the underlying reader
	ChunkSize int

	// HighWaterMark pauses reading while this many bytes are buffered
	HighWaterMark int
}

// DefaultReaderConfig returns default reader configuration
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{
		ChunkSize:     64 << 10, // 64KB
		HighWaterMark: 256 << 10,
	}
}

// NewReaderSource pumps rd into a Readable on its own goroutine until EOF,
// a read error (the Readable is destroyed with it) or ctx cancellation.
func NewReaderSource(ctx context.Context, rd io.Reader, config ReaderConfig) *Readable {
	if config.ChunkSize < 1 {
		config.ChunkSize = DefaultReaderConfig().ChunkSize
	}
	if config.HighWaterMark < config.ChunkSize {
		config.HighWaterMark = config.ChunkSize
	}
	r := NewReadable()
	go pump(ctx, rd, r, config)
	return r
}

func pump(ctx context.Context, rd io.Reader, r *Readable, config ReaderConfig) {
	buf := make([]byte, config.ChunkSize)
	for {
		if err := r.WaitForRoom(ctx, config.HighWaterMark); err != nil {
			if !errors.Is(err, ErrDestroyed) {
				r.Destroy(err)
			}
			return
		}
		n, err := rd.Read(buf)
		if n > 0 {
			if perr := r.Push(buf[:n]); perr != nil {
				return
			}
		}
		if errors.Is(err, io.EOF) {
			r.PushEnd()
			return
		}
		if err != nil {
			r.Destroy(err)
			return
		}
	}
}
