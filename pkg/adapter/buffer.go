package adapter

import (
	"sort"

	"github.com/fluxorio/streamactor/pkg/actor"
	"github.com/fluxorio/streamactor/pkg/stream"
)

// pendingWrite is one buffered write waiting for its turn
type pendingWrite struct {
	chunk    stream.Chunk
	encoding string
	seq      uint64
	terminal bool

	ok   *actor.Ref
	wait *actor.Ref
	fail *actor.Ref
}

func newPendingWrite(req WriteRequest, terminal bool) *pendingWrite {
	return &pendingWrite{
		chunk:    req.Chunk,
		encoding: req.Encoding,
		seq:      req.Seq,
		terminal: terminal,
		ok:       req.OK,
		wait:     req.Wait,
		fail:     req.Fail,
	}
}

// writeBuffer holds writes keyed by sequence number. base is the write
// sequence: the entry at base (slot 0) is the only one that may drain.
type writeBuffer struct {
	base  uint64
	slots map[uint64]*pendingWrite
}

func newWriteBuffer() *writeBuffer {
	return &writeBuffer{slots: make(map[uint64]*pendingWrite)}
}

// stale reports whether seq was already drained
func (b *writeBuffer) stale(seq uint64) bool {
	return seq < b.base
}

// put stores w in its slot and reports whether it replaced an earlier entry
func (b *writeBuffer) put(w *pendingWrite) bool {
	_, replaced := b.slots[w.seq]
	b.slots[w.seq] = w
	return replaced
}

// pop removes slot 0 and advances the base. ok is false when slot 0 is empty.
func (b *writeBuffer) pop() (*pendingWrite, bool) {
	w, ok := b.slots[b.base]
	if !ok {
		return nil, false
	}
	delete(b.slots, b.base)
	b.base++
	return w, true
}

func (b *writeBuffer) len() int {
	return len(b.slots)
}

// clear empties the buffer and returns the removed entries in sequence order
func (b *writeBuffer) clear() []*pendingWrite {
	out := make([]*pendingWrite, 0, len(b.slots))
	for _, w := range b.slots {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	b.slots = make(map[uint64]*pendingWrite)
	return out
}
