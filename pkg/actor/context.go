package actor

import (
	"context"

	"github.com/fluxorio/streamactor/pkg/core"
)

// Context is handed to a behavior for the duration of one message
type Context struct {
	self   *Ref
	system *System
}

// Self returns the address of the actor handling the message
func (c *Context) Self() *Ref {
	return c.self
}

// System returns the system running the behavior
func (c *Context) System() *System {
	return c.system
}

// Send delivers msg to another actor. Behaviors run on the dispatch loop, so
// the message is posted: MailboxSize does not apply and only a closed system
// refuses it. Failures are logged and returned.
func (c *Context) Send(to *Ref, msg any) error {
	return to.Post(msg)
}

// Spawn creates a new actor in the same system
func (c *Context) Spawn(name string, behavior Behavior) *Ref {
	return c.system.Spawn(name, behavior)
}

// Become replaces the behavior used for the next messages to Self
func (c *Context) Become(behavior Behavior) {
	core.MustNotNil(behavior, "behavior")
	c.self.behavior = behavior
}

// Log returns the system logger annotated with the actor address
func (c *Context) Log() core.Logger {
	return c.system.logger.WithFields(map[string]interface{}{"actor": c.self.String()})
}

// Context returns the system's root context
func (c *Context) Context() context.Context {
	return c.system.ctx
}
