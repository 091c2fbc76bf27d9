package actor

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrMailboxClosed is returned when trying to send/receive on a closed mailbox
	ErrMailboxClosed = errors.New("mailbox is closed")

	// ErrMailboxFull is returned when trying to send to a full mailbox (backpressure)
	ErrMailboxFull = errors.New("mailbox is full")
)

// envelope is one queued delivery. A non-nil barrier marks a Quiesce probe
// instead of a message.
type envelope struct {
	to      *Ref
	msg     any
	barrier chan bool
}

// mailbox is a FIFO of envelopes with a single consumer.
//
// send refuses envelopes once capacity are queued. post always queues: it
// serves producers that may be running on the consumer goroutine itself and
// so can neither wait for room nor afford to lose the envelope.
type mailbox struct {
	mu       sync.Mutex
	queue    []envelope
	notify   chan struct{}
	closed   bool
	capacity int
}

func newMailbox(capacity int) *mailbox {
	if capacity < 1 {
		capacity = 100
	}
	return &mailbox{
		queue:    make([]envelope, 0, capacity),
		notify:   make(chan struct{}, 1),
		capacity: capacity,
	}
}

// send never blocks: a full mailbox is reported as ErrMailboxFull
func (mb *mailbox) send(env envelope) error {
	return mb.put(env, true)
}

// post queues env whatever the number of envelopes already queued
func (mb *mailbox) post(env envelope) error {
	return mb.put(env, false)
}

func (mb *mailbox) put(env envelope, bounded bool) error {
	mb.mu.Lock()
	if mb.closed {
		mb.mu.Unlock()
		return ErrMailboxClosed
	}
	if bounded && len(mb.queue) >= mb.capacity {
		mb.mu.Unlock()
		return ErrMailboxFull
	}
	mb.queue = append(mb.queue, env)
	mb.mu.Unlock()
	mb.wake()
	return nil
}

func (mb *mailbox) wake() {
	select {
	case mb.notify <- struct{}{}:
	default:
	}
}

// receive blocks until an envelope is available or ctx is cancelled.
// Envelopes queued before close are still returned.
func (mb *mailbox) receive(ctx context.Context) (envelope, error) {
	for {
		mb.mu.Lock()
		if len(mb.queue) > 0 {
			env := mb.queue[0]
			mb.queue[0] = envelope{}
			mb.queue = mb.queue[1:]
			mb.mu.Unlock()
			return env, nil
		}
		closed := mb.closed
		mb.mu.Unlock()
		if closed {
			return envelope{}, ErrMailboxClosed
		}
		select {
		case <-mb.notify:
		case <-ctx.Done():
			return envelope{}, ctx.Err()
		}
	}
}

func (mb *mailbox) close() {
	mb.mu.Lock()
	mb.closed = true
	mb.mu.Unlock()
	mb.wake()
}

func (mb *mailbox) size() int {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return len(mb.queue)
}

func (mb *mailbox) isClosed() bool {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return mb.closed
}
