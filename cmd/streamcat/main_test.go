package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fluxorio/streamactor/pkg/actor"
	"github.com/fluxorio/streamactor/pkg/adapter"
	"github.com/fluxorio/streamactor/pkg/core"
	"github.com/fluxorio/streamactor/pkg/stream"
)

func newTestSystem(t *testing.T) *actor.System {
	t.Helper()
	sys, err := actor.NewSystem(context.Background(), actor.SystemConfig{Name: "streamcat-test", Logger: core.NewNopLogger()})
	if err != nil {
		t.Fatalf("NewSystem() error = %v", err)
	}
	t.Cleanup(func() { sys.Close(context.Background()) })
	return sys
}

func copyWith(t *testing.T, r io.Reader, w io.Writer, chunkSize int, encoding string) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sys := newTestSystem(t)
	src := stream.NewReaderSource(ctx, r, stream.ReaderConfig{ChunkSize: chunkSize})
	sink := stream.NewWritable(w, stream.DefaultWritableConfig())
	return copyStream(ctx, sys, src, sink, adapter.Options{Name: t.Name(), Encoding: encoding, Logger: core.NewNopLogger()})
}

func TestCopyStream(t *testing.T) {
	input := strings.Repeat("the quick brown fox jumps over the lazy dog\n", 200)
	tests := []struct {
		name      string
		input     string
		chunkSize int
		encoding  string
	}{
		{"empty", "", 16, ""},
		{"single chunk", "hello", 1024, ""},
		{"many chunks", input, 7, ""},
		{"hex", input, 64, "hex"},
		{"base64", input, 33, "base64"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if err := copyWith(t, strings.NewReader(tt.input), &out, tt.chunkSize, tt.encoding); err != nil {
				t.Fatalf("copyStream() error = %v", err)
			}
			if out.String() != tt.input {
				t.Errorf("copied %d bytes, want %d", out.Len(), len(tt.input))
			}
		})
	}
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

type errWriter struct{ err error }

func (w errWriter) Write([]byte) (int, error) { return 0, w.err }

func TestCopyStream_SourceError(t *testing.T) {
	boom := errors.New("device gone")
	var out bytes.Buffer
	if err := copyWith(t, errReader{boom}, &out, 16, ""); !errors.Is(err, boom) {
		t.Errorf("copyStream() error = %v, want %v", err, boom)
	}
}

func TestCopyStream_SinkError(t *testing.T) {
	boom := errors.New("broken pipe")
	if err := copyWith(t, strings.NewReader("data"), errWriter{boom}, 16, ""); !errors.Is(err, boom) {
		t.Errorf("copyStream() error = %v, want %v", err, boom)
	}
}

func TestCopyStream_Cancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	ctx, cancel := context.WithCancel(context.Background())
	sys := newTestSystem(t)
	src := stream.NewReaderSource(ctx, pr, stream.DefaultReaderConfig())
	sink := stream.NewWritable(io.Discard, stream.DefaultWritableConfig())

	errs := make(chan error, 1)
	go func() {
		errs <- copyStream(ctx, sys, src, sink, adapter.Options{Name: "cancelled", Logger: core.NewNopLogger()})
	}()
	cancel()
	select {
	case err := <-errs:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("copyStream() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("copyStream() did not return after cancel")
	}
}

// throttledSink reports backpressure on every third write and drains from
// another goroutine shortly after
type throttledSink struct {
	mu     sync.Mutex
	out    bytes.Buffer
	writes int
	waits  int
	drain  []func()
	finish []func()
	closed []func()
}

func (s *throttledSink) OnDrain(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drain = append(s.drain, fn)
}

func (s *throttledSink) OnFinish(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finish = append(s.finish, fn)
}

func (s *throttledSink) OnError(func(error)) {}

func (s *throttledSink) OnClose(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = append(s.closed, fn)
}

func (s *throttledSink) Write(chunk stream.Chunk, encoding string, cb func(error)) bool {
	b, err := chunk.Encode(encoding)
	s.mu.Lock()
	if err == nil {
		s.out.Write(b)
	}
	s.writes++
	full := s.writes%3 == 0
	if full {
		s.waits++
	}
	drain := append([]func(){}, s.drain...)
	s.mu.Unlock()
	if cb != nil {
		cb(err)
	}
	if !full {
		return true
	}
	go func() {
		time.Sleep(time.Millisecond)
		for _, fn := range drain {
			fn()
		}
	}()
	return false
}

func (s *throttledSink) End(chunk stream.Chunk, encoding string, cb func(error)) {
	s.mu.Lock()
	if b, err := chunk.Encode(encoding); err == nil {
		s.out.Write(b)
	}
	finish, closed := s.finish, s.closed
	s.mu.Unlock()
	for _, fn := range finish {
		fn()
	}
	if cb != nil {
		cb(nil)
	}
	for _, fn := range closed {
		fn()
	}
}

func TestCopyStream_Backpressure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sys := newTestSystem(t)

	input := strings.Repeat("backpressure ", 500)
	src := stream.NewReaderSource(ctx, strings.NewReader(input), stream.ReaderConfig{ChunkSize: 64})
	sink := &throttledSink{}
	if err := copyStream(ctx, sys, src, sink, adapter.Options{Name: "throttled", Logger: core.NewNopLogger()}); err != nil {
		t.Fatalf("copyStream() error = %v", err)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.out.String() != input {
		t.Errorf("copied %d bytes, want %d", sink.out.Len(), len(input))
	}
	if sink.waits == 0 {
		t.Error("sink never applied backpressure")
	}
}

func TestParseConfig(t *testing.T) {
	cfg, err := parseConfig([]string{"-in", "a.txt", "-out", "b.txt", "-encoding", "hex", "-chunk-size", "10", "-stale-writes", "report"})
	if err != nil {
		t.Fatalf("parseConfig() error = %v", err)
	}
	if cfg.Input != "a.txt" || cfg.Output != "b.txt" || cfg.Encoding != "hex" || cfg.ChunkSize != 10 || cfg.StaleWrites != "report" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.MailboxSize != 4096 {
		t.Errorf("MailboxSize = %d, want default 4096", cfg.MailboxSize)
	}

	if _, err := parseConfig([]string{"-encoding", "klingon"}); err == nil {
		t.Error("unknown encoding should be rejected")
	}
	if _, err := parseConfig([]string{"extra"}); err == nil {
		t.Error("positional arguments should be rejected")
	}
}

func TestRun_Files(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	out := filepath.Join(dir, "out.txt")
	content := strings.Repeat("0123456789abcdef", 4096)
	if err := os.WriteFile(in, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	if err := run([]string{"-in", in, "-out", out, "-chunk-size", "1000", "-log-level", "error"}); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != content {
		t.Errorf("output has %d bytes, want %d", len(got), len(content))
	}
}

func TestRun_MissingInput(t *testing.T) {
	if err := run([]string{"-in", filepath.Join(t.TempDir(), "nope"), "-log-level", "error"}); err == nil {
		t.Error("run() with a missing input should fail")
	}
}
