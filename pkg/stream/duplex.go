package stream

import "sync"

// DuplexStream joins an independent Readable and Writable.
// Error listeners hear both halves; close fires once, after both halves closed.
type DuplexStream struct {
	*Readable
	*Writable

	mu          sync.Mutex
	readClosed  bool
	writeClosed bool
	closeSent   bool
	ev          dispatcher
	closed      listeners[func()]
}

// NewDuplex combines r and w into one Duplex
func NewDuplex(r *Readable, w *Writable) *DuplexStream {
	d := &DuplexStream{Readable: r, Writable: w}
	r.OnClose(func() { d.halfClosed(true) })
	w.OnClose(func() { d.halfClosed(false) })
	return d
}

// NewPassThrough returns a Duplex whose written bytes become readable on the
// other side; ending the writable half ends the readable half.
// Readable listeners run inside Write, so they must not write back to d.
func NewPassThrough(config WritableConfig) *DuplexStream {
	r := NewReadable()
	w := NewWritable(pushWriter{r}, config)
	w.OnFinish(r.PushEnd)
	return NewDuplex(r, w)
}

func (d *DuplexStream) OnError(fn func(error)) {
	d.Readable.OnError(fn)
	d.Writable.OnError(fn)
}

func (d *DuplexStream) OnClose(fn func()) {
	d.closed.add(fn)
}

func (d *DuplexStream) halfClosed(read bool) {
	d.mu.Lock()
	if read {
		d.readClosed = true
	} else {
		d.writeClosed = true
	}
	if d.readClosed && d.writeClosed && !d.closeSent {
		d.closeSent = true
		emit(&d.ev, &d.closed)
	}
	d.mu.Unlock()
	d.ev.flush(&d.mu)
}

// Destroy tears down both halves
func (d *DuplexStream) Destroy(err error) {
	d.Readable.Destroy(err)
	d.Writable.Destroy(nil)
}

type pushWriter struct {
	r *Readable
}

func (w pushWriter) Write(p []byte) (int, error) {
	if err := w.r.Push(p); err != nil {
		return 0, err
	}
	return len(p), nil
}
