package adapter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fluxorio/streamactor/pkg/actor"
	"github.com/fluxorio/streamactor/pkg/core"
	"github.com/fluxorio/streamactor/pkg/observability/prometheus"
	"github.com/fluxorio/streamactor/pkg/stream"
	promclient "github.com/prometheus/client_golang/prometheus"
)

var testMetrics = prometheus.NewMetrics(promclient.NewRegistry())

func newTestSystem(t *testing.T) *actor.System {
	t.Helper()
	return newTestSystemSize(t, 0)
}

// newTestSystemSize creates a system whose mailbox holds mailboxSize messages
// (the default when 0)
func newTestSystemSize(t *testing.T, mailboxSize int) *actor.System {
	t.Helper()
	sys, err := actor.NewSystem(context.Background(), actor.SystemConfig{
		Name:        "test",
		MailboxSize: mailboxSize,
		Logger:      core.NewNopLogger(),
		Metrics:     testMetrics,
	})
	if err != nil {
		t.Fatalf("NewSystem() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = sys.Close(ctx)
	})
	return sys
}

func testOptions(name string) Options {
	return Options{Name: name, Logger: core.NewNopLogger(), Metrics: testMetrics}
}

func quiesce(t *testing.T, sys *actor.System) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := sys.Quiesce(ctx); err != nil {
		t.Fatalf("Quiesce() error = %v", err)
	}
}

// recorder is an actor that keeps every message it receives
type recorder struct {
	mu   sync.Mutex
	msgs []any
	ref  *actor.Ref
}

func newRecorder(sys *actor.System, name string) *recorder {
	r := &recorder{}
	r.ref = sys.Spawn(name, func(_ *actor.Context, msg any) {
		r.mu.Lock()
		r.msgs = append(r.msgs, msg)
		r.mu.Unlock()
	})
	return r
}

func (r *recorder) all() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.msgs...)
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

// recordingSink is a Sink that logs every operation and completes writes
// synchronously
type recordingSink struct {
	mu       sync.Mutex
	ops      []string
	accept   bool
	drain    []func()
	finish   []func()
	errs     []func(error)
	closed   []func()
	writeErr error
}

func newRecordingSink() *recordingSink {
	return &recordingSink{accept: true}
}

func (s *recordingSink) OnDrain(fn func()) { s.drain = append(s.drain, fn) }
func (s *recordingSink) OnFinish(fn func()) { s.finish = append(s.finish, fn) }
func (s *recordingSink) OnError(fn func(error)) { s.errs = append(s.errs, fn) }
func (s *recordingSink) OnClose(fn func()) { s.closed = append(s.closed, fn) }

func (s *recordingSink) Write(chunk stream.Chunk, _ string, cb func(error)) bool {
	s.mu.Lock()
	s.ops = append(s.ops, "write:"+chunk.String())
	s.mu.Unlock()
	if cb != nil {
		cb(s.writeErr)
	}
	return s.accept
}

func (s *recordingSink) End(chunk stream.Chunk, _ string, cb func(error)) {
	s.mu.Lock()
	s.ops = append(s.ops, "end:"+chunk.String())
	s.mu.Unlock()
	for _, fn := range s.finish {
		fn()
	}
	if cb != nil {
		cb(nil)
	}
	for _, fn := range s.closed {
		fn()
	}
}

func (s *recordingSink) written() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ops...)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
