package actor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/fluxorio/streamactor/pkg/core"
	"github.com/fluxorio/streamactor/pkg/observability/prometheus"
)

// Behavior handles one message on behalf of an actor.
// Behaviors of one System never run concurrently with each other.
type Behavior func(ctx *Context, msg any)

// SystemConfig configures a System
type SystemConfig struct {
	// Name labels logs and metrics
	Name string

	// MailboxSize bounds the queue for Ref.Send (backpressure). Messages sent
	// by behaviors and posted with Ref.Post are queued regardless.
	MailboxSize int

	// Logger receives recovered panics and dropped messages; defaults to NewDefaultLogger
	Logger core.Logger

	// Metrics defaults to the global collection
	Metrics *prometheus.Metrics
}

// DefaultSystemConfig returns default system configuration
func DefaultSystemConfig() SystemConfig {
	return SystemConfig{
		Name:        "streamactor",
		MailboxSize: 4096,
	}
}

// Stats provides counters about a System
type Stats struct {
	Actors    int64
	Queued    int
	Capacity  int
	Delivered int64
	Rejected  int64
	Panicked  int64
}

// System is a single dispatch loop shared by all actors spawned in it.
//
// Every message is delivered on the loop goroutine and its behavior runs to
// completion before the next message is taken, so state owned by the actors
// of one System needs no locking.
type System struct {
	name    string
	mailbox *mailbox
	logger  core.Logger
	metrics *prometheus.Metrics

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	closeOnce sync.Once

	actors    int64
	delivered int64
	rejected  int64
	panicked  int64
}

// NewSystem creates a System and starts its dispatch loop.
// The loop stops when ctx is cancelled or Close is called.
func NewSystem(ctx context.Context, config SystemConfig) (*System, error) {
	if config.Name == "" {
		config.Name = DefaultSystemConfig().Name
	}
	if err := core.ValidateName(config.Name); err != nil {
		return nil, err
	}
	if config.MailboxSize == 0 {
		config.MailboxSize = DefaultSystemConfig().MailboxSize
	}
	if err := core.ValidateSize("mailbox size", config.MailboxSize); err != nil {
		return nil, err
	}
	if config.Logger == nil {
		config.Logger = core.NewDefaultLogger()
	}
	if config.Metrics == nil {
		config.Metrics = prometheus.GetMetrics()
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &System{
		name:    config.Name,
		mailbox: newMailbox(config.MailboxSize),
		logger:  config.Logger.WithFields(map[string]interface{}{"system": config.Name}),
		metrics: config.Metrics,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go s.loop()
	return s, nil
}

// Name returns the system name
func (s *System) Name() string {
	return s.name
}

// Logger returns the system logger
func (s *System) Logger() core.Logger {
	return s.logger
}

// Spawn registers behavior under a new address. Safe to call from any goroutine.
func (s *System) Spawn(name string, behavior Behavior) *Ref {
	core.MustNotNil(behavior, "behavior")
	atomic.AddInt64(&s.actors, 1)
	return newRef(s, name, behavior)
}

// Quiesce blocks until the dispatch loop has no queued messages left.
//
// It only observes messages already enqueued or enqueued by the behaviors that
// run meanwhile; producers on other goroutines may enqueue more afterwards.
func (s *System) Quiesce(ctx context.Context) error {
	for {
		probe := make(chan bool, 1)
		if err := s.mailbox.post(envelope{barrier: probe}); err != nil {
			return err
		}
		select {
		case idle := <-probe:
			if idle {
				return nil
			}
		case <-s.done:
			return ErrMailboxClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops the dispatch loop. Messages still queued are delivered before
// the loop exits unless ctx expires first.
func (s *System) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.mailbox.close()
	})
	select {
	case <-s.done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		return fmt.Errorf("close timeout: %w", ctx.Err())
	}
}

// Done is closed once the dispatch loop has exited
func (s *System) Done() <-chan struct{} {
	return s.done
}

// Stats returns current system statistics
func (s *System) Stats() Stats {
	return Stats{
		Actors:    atomic.LoadInt64(&s.actors),
		Queued:    s.mailbox.size(),
		Capacity:  s.mailbox.capacity,
		Delivered: atomic.LoadInt64(&s.delivered),
		Rejected:  atomic.LoadInt64(&s.rejected),
		Panicked:  atomic.LoadInt64(&s.panicked),
	}
}

func (s *System) enqueue(to *Ref, msg any, bounded bool) error {
	env := envelope{to: to, msg: msg}
	var err error
	if bounded {
		err = s.mailbox.send(env)
	} else {
		err = s.mailbox.post(env)
	}
	if err != nil {
		atomic.AddInt64(&s.rejected, 1)
		s.metrics.RecordActorMessage(s.name, prometheus.OutcomeRejected)
		s.logger.Warnf("message to %s rejected: %v", to, err)
		return err
	}
	return nil
}

func (s *System) loop() {
	defer close(s.done)
	for {
		env, err := s.mailbox.receive(s.ctx)
		if err != nil {
			return
		}
		if env.barrier != nil {
			env.barrier <- s.mailbox.size() == 0
			continue
		}
		s.dispatch(env)
		s.metrics.SetMailboxDepth(s.name, s.mailbox.size())
	}
}

// dispatch runs one behavior with panic isolation
func (s *System) dispatch(env envelope) {
	defer func() {
		if r := recover(); r != nil {
			atomic.AddInt64(&s.panicked, 1)
			s.metrics.RecordActorMessage(s.name, prometheus.OutcomePanicked)
			s.logger.Errorf("behavior panic in %s (isolated): %v", env.to, r)
		}
	}()
	ctx := &Context{self: env.to, system: s}
	env.to.behavior(ctx, env.msg)
	atomic.AddInt64(&s.delivered, 1)
	s.metrics.RecordActorMessage(s.name, prometheus.OutcomeDelivered)
}
