package actor

import (
	"github.com/fluxorio/streamactor/pkg/core"
	"github.com/google/uuid"
)

// Ref is the address of an actor. Holding a Ref is the capability to send
// to it; there is no other way to reach the actor's behavior.
//
// A nil *Ref is a valid "nobody" address: sending to it does nothing.
type Ref struct {
	id     string
	name   string
	system *System

	// behavior is read and replaced only on the system's dispatch loop
	behavior Behavior
}

func newRef(system *System, name string, behavior Behavior) *Ref {
	if name == "" {
		name = "actor"
	}
	return &Ref{
		id:       "actor." + uuid.New().String(),
		name:     name,
		system:   system,
		behavior: behavior,
	}
}

// ID returns the unique address of the actor
func (r *Ref) ID() string {
	if r == nil {
		return ""
	}
	return r.id
}

// Name returns the name given at spawn time
func (r *Ref) Name() string {
	if r == nil {
		return ""
	}
	return r.name
}

// System returns the system the actor lives in
func (r *Ref) System() *System {
	if r == nil {
		return nil
	}
	return r.system
}

func (r *Ref) String() string {
	if r == nil {
		return "<nobody>"
	}
	return r.name + "(" + r.id + ")"
}

// Send enqueues msg for the actor. It never blocks; a system mailbox already
// holding MailboxSize messages returns ErrMailboxFull. Sending to a nil Ref is
// a no-op.
func (r *Ref) Send(msg any) error {
	return r.deliver(msg, true)
}

// Post enqueues msg even when the system mailbox is at MailboxSize. It is for
// producers that must not lose a message and cannot wait for the dispatch
// loop, such as stream callbacks that may run on the loop itself. They bound
// their own traffic. Posting to a nil Ref is a no-op.
func (r *Ref) Post(msg any) error {
	return r.deliver(msg, false)
}

func (r *Ref) deliver(msg any, bounded bool) error {
	if r == nil {
		return nil
	}
	if core.IsNil(msg) {
		return &core.Error{Code: "INVALID_BODY", Message: "message cannot be nil"}
	}
	return r.system.enqueue(r, msg, bounded)
}
