package stream

import "sync"

// listeners is a goroutine-safe list of callbacks of one event kind
type listeners[F any] struct {
	mu  sync.Mutex
	fns []F
}

func (l *listeners[F]) add(fn F) {
	l.mu.Lock()
	l.fns = append(l.fns, fn)
	l.mu.Unlock()
}

func (l *listeners[F]) snapshot() []F {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]F(nil), l.fns...)
}

func (l *listeners[F]) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.fns)
}

// dispatcher queues callbacks decided under a stream lock and delivers them
// one at a time, in queue order, after the lock is released. A goroutine that
// flushes while another delivery is running leaves its callbacks to that one.
type dispatcher struct {
	queue   []func()
	running bool
}

// add must be called with the owning stream's lock held
func (d *dispatcher) add(fn func()) {
	d.queue = append(d.queue, fn)
}

// flush must be called with mu (the owning stream's lock) released
func (d *dispatcher) flush(mu *sync.Mutex) {
	mu.Lock()
	if d.running {
		mu.Unlock()
		return
	}
	d.running = true
	for len(d.queue) > 0 {
		fn := d.queue[0]
		d.queue[0] = nil
		d.queue = d.queue[1:]
		mu.Unlock()
		fn()
		mu.Lock()
	}
	d.running = false
	mu.Unlock()
}

func emit(p *dispatcher, l *listeners[func()]) {
	for _, fn := range l.snapshot() {
		p.add(fn)
	}
}

func emitChunk(p *dispatcher, l *listeners[func(Chunk)], c Chunk) {
	for _, fn := range l.snapshot() {
		fn := fn
		p.add(func() { fn(c) })
	}
}

func emitError(p *dispatcher, l *listeners[func(error)], err error) {
	for _, fn := range l.snapshot() {
		fn := fn
		p.add(func() { fn(err) })
	}
}
