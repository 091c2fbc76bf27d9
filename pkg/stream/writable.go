package stream

import (
	"io"
	"sync"
)

// WritableConfig configures a Writable
type WritableConfig struct {
	// HighWaterMark is the number of buffered bytes at which Write starts
	// reporting backpressure
	HighWaterMark int

	// DefaultEncoding converts text chunks written without an encoding
	DefaultEncoding string

	// CloseWriter closes the underlying writer on End when it is an io.Closer
	CloseWriter bool
}

// DefaultWritableConfig returns default writable configuration
func DefaultWritableConfig() WritableConfig {
	return WritableConfig{
		HighWaterMark:   16 << 10, // 16KB
		DefaultEncoding: EncodingUTF8,
	}
}

type queuedWrite struct {
	data []byte
	cb   func(error)
}

// Writable is a Sink over an io.Writer.
//
// Uncorked, every Write goes straight to the writer. While corked, writes are
// buffered and Write returns false once HighWaterMark bytes are queued; the
// drain event fires after Uncork flushes them.
type Writable struct {
	mu     sync.Mutex
	w      io.Writer
	config WritableConfig

	corked    bool
	queue     []queuedWrite
	buffered  int
	needDrain bool

	ending    bool
	finished  bool
	destroyed bool
	closeSent bool
	err       error

	ev     dispatcher
	drain  listeners[func()]
	finish listeners[func()]
	errs   listeners[func(error)]
	closed listeners[func()]
}

// NewWritable creates a Writable writing to w
func NewWritable(w io.Writer, config WritableConfig) *Writable {
	if config.HighWaterMark < 1 {
		config.HighWaterMark = DefaultWritableConfig().HighWaterMark
	}
	if config.DefaultEncoding == "" {
		config.DefaultEncoding = EncodingUTF8
	}
	return &Writable{w: w, config: config}
}

func (s *Writable) OnDrain(fn func()) { s.drain.add(fn) }

func (s *Writable) OnFinish(fn func()) { s.finish.add(fn) }

func (s *Writable) OnError(fn func(error)) { s.errs.add(fn) }

func (s *Writable) OnClose(fn func()) { s.closed.add(fn) }

// Write implements Sink
func (s *Writable) Write(chunk Chunk, encoding string, cb func(error)) bool {
	s.mu.Lock()
	ok := s.writeLocked(&s.ev, chunk, encoding, cb)
	s.mu.Unlock()
	s.ev.flush(&s.mu)
	return ok
}

// End implements Sink
func (s *Writable) End(chunk Chunk, encoding string, cb func(error)) {
	s.mu.Lock()
	if s.ending {
		s.mu.Unlock()
		if cb != nil {
			cb(ErrWriteAfterEnd)
		}
		return
	}
	if !chunk.IsNil() {
		s.writeLocked(&s.ev, chunk, encoding, nil)
	}
	s.ending = true
	s.corked = false
	s.flushLocked(&s.ev)
	s.finishLocked(&s.ev, cb)
	s.mu.Unlock()
	s.ev.flush(&s.mu)
}

// Cork starts buffering writes in memory
func (s *Writable) Cork() {
	s.mu.Lock()
	s.corked = true
	s.mu.Unlock()
}

// Uncork flushes buffered writes and fires drain if a writer was told to wait
func (s *Writable) Uncork() {
	s.mu.Lock()
	s.corked = false
	s.flushLocked(&s.ev)
	s.mu.Unlock()
	s.ev.flush(&s.mu)
}

// Buffered returns the number of bytes queued while corked
func (s *Writable) Buffered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffered
}

// Destroy tears the sink down, emitting error (when err is non-nil) and close
func (s *Writable) Destroy(err error) {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.destroyed = true
	for _, q := range s.queue {
		if q.cb != nil {
			cb := q.cb
			s.ev.add(func() { cb(ErrDestroyed) })
		}
	}
	s.queue = nil
	s.buffered = 0
	if err != nil {
		emitError(&s.ev, &s.errs, err)
	}
	s.closeLocked(&s.ev)
	s.mu.Unlock()
	s.ev.flush(&s.mu)
}

func (s *Writable) writeLocked(p *dispatcher, chunk Chunk, encoding string, cb func(error)) bool {
	fail := func(err error) bool {
		if cb != nil {
			p.add(func() { cb(err) })
		}
		return false
	}
	switch {
	case s.destroyed:
		return fail(ErrDestroyed)
	case s.ending:
		err := ErrWriteAfterEnd
		emitError(p, &s.errs, err)
		return fail(err)
	case s.err != nil:
		return fail(s.err)
	}

	if encoding == "" {
		encoding = s.config.DefaultEncoding
	}
	data, err := chunk.Encode(encoding)
	if err != nil {
		emitError(p, &s.errs, err)
		return fail(err)
	}

	if s.corked {
		s.queue = append(s.queue, queuedWrite{data: data, cb: cb})
		s.buffered += len(data)
		if s.buffered >= s.config.HighWaterMark {
			s.needDrain = true
			return false
		}
		return true
	}

	s.writeOutLocked(p, data, cb)
	return s.err == nil
}

func (s *Writable) writeOutLocked(p *dispatcher, data []byte, cb func(error)) {
	var err error
	if len(data) > 0 {
		_, err = s.w.Write(data)
	}
	if err != nil && s.err == nil {
		s.err = err
		emitError(p, &s.errs, err)
	}
	if cb != nil {
		p.add(func() { cb(err) })
	}
}

func (s *Writable) flushLocked(p *dispatcher) {
	queue := s.queue
	s.queue = nil
	s.buffered = 0
	for _, q := range queue {
		if s.err != nil {
			if q.cb != nil {
				cb, err := q.cb, s.err
				p.add(func() { cb(err) })
			}
			continue
		}
		s.writeOutLocked(p, q.data, q.cb)
	}
	if s.needDrain && !s.ending {
		s.needDrain = false
		emit(p, &s.drain)
	}
}

func (s *Writable) finishLocked(p *dispatcher, cb func(error)) {
	if s.finished {
		return
	}
	s.finished = true
	err := s.err
	if closer, ok := s.w.(io.Closer); ok && s.config.CloseWriter {
		if cerr := closer.Close(); cerr != nil && err == nil {
			err = cerr
			emitError(p, &s.errs, cerr)
		}
	}
	if err == nil {
		emit(p, &s.finish)
	}
	if cb != nil {
		p.add(func() { cb(err) })
	}
	s.closeLocked(p)
}

func (s *Writable) closeLocked(p *dispatcher) {
	if !s.closeSent {
		s.closeSent = true
		emit(p, &s.closed)
	}
}
