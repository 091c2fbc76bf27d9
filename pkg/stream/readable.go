package stream

import (
	"context"
	"sync"
)

// Readable is an in-memory Source fed by Push.
//
// With a data listener registered and not paused it is in flowing mode and
// every pushed chunk is emitted as a data event. Otherwise chunks are
// buffered, a readable event is emitted, and consumers pull with Read.
type Readable struct {
	mu       sync.Mutex
	buf      [][]byte
	length   int
	encoding string
	decoder  *TextDecoder

	paused     bool
	ended      bool
	endEmitted bool
	destroyed  bool
	closeSent  bool

	// room is closed and replaced whenever buffered bytes are consumed
	room chan struct{}

	ev       dispatcher
	readable listeners[func()]
	data     listeners[func(Chunk)]
	end      listeners[func()]
	errs     listeners[func(error)]
	closed   listeners[func()]
}

// NewReadable creates an empty Readable
func NewReadable() *Readable {
	return &Readable{room: make(chan struct{})}
}

// Push appends b to the stream (producer side)
func (r *Readable) Push(b []byte) error {
	r.mu.Lock()
	if r.destroyed {
		r.mu.Unlock()
		return ErrDestroyed
	}
	if r.ended {
		r.mu.Unlock()
		return ErrPushAfterEnd
	}
	if len(b) > 0 {
		r.buf = append(r.buf, append([]byte(nil), b...))
		r.length += len(b)
	}
	r.pumpLocked(&r.ev)
	r.mu.Unlock()
	r.ev.flush(&r.mu)
	return nil
}

// PushEnd signals that no more data will be pushed
func (r *Readable) PushEnd() {
	r.mu.Lock()
	if r.ended || r.destroyed {
		r.mu.Unlock()
		return
	}
	r.ended = true
	r.pumpLocked(&r.ev)
	r.mu.Unlock()
	r.ev.flush(&r.mu)
}

// Destroy tears the stream down, emitting error (when err is non-nil) and close
func (r *Readable) Destroy(err error) {
	r.mu.Lock()
	if r.destroyed {
		r.mu.Unlock()
		return
	}
	r.destroyed = true
	r.buf = nil
	r.length = 0
	r.wakeLocked()
	if err != nil {
		emitError(&r.ev, &r.errs, err)
	}
	r.closeLocked(&r.ev)
	r.mu.Unlock()
	r.ev.flush(&r.mu)
}

// Buffered returns the number of bytes waiting to be consumed
func (r *Readable) Buffered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.length
}

// WaitForRoom blocks while at least limit bytes are buffered.
// Producers use it to honour backpressure from a paused consumer.
func (r *Readable) WaitForRoom(ctx context.Context, limit int) error {
	r.mu.Lock()
	for r.length >= limit && !r.destroyed {
		room := r.room
		r.mu.Unlock()
		select {
		case <-room:
		case <-ctx.Done():
			return ctx.Err()
		}
		r.mu.Lock()
	}
	destroyed := r.destroyed
	r.mu.Unlock()
	if destroyed {
		return ErrDestroyed
	}
	return nil
}

func (r *Readable) OnReadable(fn func()) {
	r.readable.add(fn)
	r.mu.Lock()
	r.pumpLocked(&r.ev)
	r.mu.Unlock()
	r.ev.flush(&r.mu)
}

func (r *Readable) OnData(fn func(Chunk)) {
	r.data.add(fn)
	r.mu.Lock()
	r.pumpLocked(&r.ev)
	r.mu.Unlock()
	r.ev.flush(&r.mu)
}

func (r *Readable) OnEnd(fn func()) { r.end.add(fn) }

func (r *Readable) OnError(fn func(error)) { r.errs.add(fn) }

func (r *Readable) OnClose(fn func()) { r.closed.add(fn) }

// Read returns up to size bytes. When fewer than size bytes are buffered and
// the stream has not ended, nothing is returned. size <= 0 drains the buffer.
func (r *Readable) Read(size int) (Chunk, bool) {
	r.mu.Lock()
	var out []byte
	switch {
	case r.destroyed || r.length == 0:
	case size <= 0 || size >= r.length:
		if size > r.length && !r.ended {
			break
		}
		out = r.takeLocked(r.length)
	default:
		out = r.takeLocked(size)
	}
	chunk, ok := Chunk{}, false
	if out != nil {
		chunk, ok = r.chunkLocked(out), true
	}
	if rest, has := r.restLocked(); has {
		chunk, ok = Text(chunk.String()+rest), true
	}
	r.maybeEndLocked(&r.ev)
	r.mu.Unlock()
	r.ev.flush(&r.mu)
	return chunk, ok
}

func (r *Readable) Pause() {
	r.mu.Lock()
	r.paused = true
	r.mu.Unlock()
}

func (r *Readable) Resume() {
	r.mu.Lock()
	r.paused = false
	r.pumpLocked(&r.ev)
	r.mu.Unlock()
	r.ev.flush(&r.mu)
}

// Unshift puts chunk back at the head of the buffer
func (r *Readable) Unshift(chunk Chunk) error {
	b, err := chunk.Encode(r.encodingSnapshot())
	if err != nil {
		return err
	}
	r.mu.Lock()
	if r.destroyed {
		r.mu.Unlock()
		return ErrDestroyed
	}
	if r.endEmitted {
		r.mu.Unlock()
		return ErrPushAfterEnd
	}
	if len(b) > 0 {
		r.buf = append([][]byte{append([]byte(nil), b...)}, r.buf...)
		r.length += len(b)
	}
	r.pumpLocked(&r.ev)
	r.mu.Unlock()
	r.ev.flush(&r.mu)
	return nil
}

// SetEncoding makes subsequent chunks text chunks. An empty name restores raw bytes.
func (r *Readable) SetEncoding(enc string) error {
	enc, err := NormalizeEncoding(enc)
	if err != nil {
		return err
	}
	var dec *TextDecoder
	if enc != "" {
		if dec, err = NewTextDecoder(enc); err != nil {
			return err
		}
	}
	r.mu.Lock()
	r.encoding = enc
	r.decoder = dec
	r.mu.Unlock()
	return nil
}

func (r *Readable) encodingSnapshot() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.encoding
}

func (r *Readable) flowingLocked() bool {
	return !r.paused && r.data.len() > 0
}

// pumpLocked decides which events the current state calls for
func (r *Readable) pumpLocked(p *dispatcher) {
	if r.destroyed || r.endEmitted {
		return
	}
	if r.flowingLocked() {
		for r.length > 0 {
			if c := r.chunkLocked(r.takeLocked(len(r.buf[0]))); c.Len() > 0 {
				emitChunk(p, &r.data, c)
			}
		}
		if rest, has := r.restLocked(); has {
			emitChunk(p, &r.data, Text(rest))
		}
		r.maybeEndLocked(p)
		return
	}
	if r.length > 0 || r.ended {
		emit(p, &r.readable)
	}
}

func (r *Readable) maybeEndLocked(p *dispatcher) {
	if r.ended && r.length == 0 && !r.endEmitted && !r.destroyed {
		r.endEmitted = true
		emit(p, &r.end)
		r.closeLocked(p)
	}
}

func (r *Readable) closeLocked(p *dispatcher) {
	if !r.closeSent {
		r.closeSent = true
		emit(p, &r.closed)
	}
}

// takeLocked removes exactly n buffered bytes (n <= r.length)
func (r *Readable) takeLocked(n int) []byte {
	out := make([]byte, 0, n)
	for n > 0 {
		head := r.buf[0]
		if len(head) <= n {
			out = append(out, head...)
			n -= len(head)
			r.length -= len(head)
			r.buf = r.buf[1:]
			continue
		}
		out = append(out, head[:n]...)
		r.buf[0] = head[n:]
		r.length -= n
		n = 0
	}
	r.wakeLocked()
	return out
}

func (r *Readable) wakeLocked() {
	close(r.room)
	r.room = make(chan struct{})
}

func (r *Readable) chunkLocked(b []byte) Chunk {
	if r.decoder == nil {
		return Chunk{data: b}
	}
	text, err := r.decoder.Decode(b)
	if err != nil {
		return Chunk{data: b}
	}
	return Text(text)
}

// restLocked flushes the decoder once the stream has ended and every byte has
// been taken
func (r *Readable) restLocked() (string, bool) {
	if r.decoder == nil || r.destroyed || !r.ended || r.length > 0 || !r.decoder.Pending() {
		return "", false
	}
	rest, err := r.decoder.Flush()
	if err != nil || rest == "" {
		return "", false
	}
	return rest, true
}
