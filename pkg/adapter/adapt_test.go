package adapter

import (
	"errors"
	"testing"

	"github.com/fluxorio/streamactor/pkg/stream"
)

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestAdapt_Categories(t *testing.T) {
	tests := []struct {
		name      string
		stream    any
		wantRead  bool
		wantWrite bool
	}{
		{"source", stream.NewReadable(), true, false},
		{"sink", newRecordingSink(), false, true},
		{"duplex", stream.NewPassThrough(stream.DefaultWritableConfig()), true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := newTestSystem(t)
			caps, err := Adapt(sys, tt.stream, testOptions(tt.name))
			if err != nil {
				t.Fatalf("Adapt() error = %v", err)
			}
			readRefs := caps.Read != nil && caps.Pause != nil && caps.Resume != nil && caps.Unshift != nil
			if readRefs != tt.wantRead || (caps.Reader != nil) != tt.wantRead {
				t.Errorf("read capabilities present = %v, want %v", readRefs, tt.wantRead)
			}
			writeRefs := caps.Write != nil && caps.End != nil
			if writeRefs != tt.wantWrite || (caps.Writer != nil) != tt.wantWrite {
				t.Errorf("write capabilities present = %v, want %v", writeRefs, tt.wantWrite)
			}
			if caps.Read == nil && caps.Pause != nil {
				t.Error("partial read capabilities")
			}
		})
	}
}

func TestAdapt_Unsupported(t *testing.T) {
	sys := newTestSystem(t)
	if _, err := Adapt(sys, struct{}{}, testOptions("none")); !errors.Is(err, ErrUnsupportedStream) {
		t.Errorf("Adapt() error = %v, want ErrUnsupportedStream", err)
	}
}

func TestAdapt_DistinctCapabilities(t *testing.T) {
	sys := newTestSystem(t)
	caps, err := Adapt(sys, stream.NewPassThrough(stream.DefaultWritableConfig()), testOptions("distinct"))
	if err != nil {
		t.Fatalf("Adapt() error = %v", err)
	}
	ids := map[string]bool{}
	for _, ref := range []interface{ ID() string }{caps.Read, caps.Pause, caps.Resume, caps.Unshift, caps.Write, caps.End} {
		if ids[ref.ID()] {
			t.Errorf("capability %s shared", ref.ID())
		}
		ids[ref.ID()] = true
	}
}

func TestAdapt_DuplexRoundTrip(t *testing.T) {
	sys := newTestSystem(t)
	data := newRecorder(sys, "data")
	end := newRecorder(sys, "end")
	closeRec := newRecorder(sys, "close")
	finish := newRecorder(sys, "finish")

	opts := testOptions("passthrough")
	opts.Data, opts.End, opts.Close, opts.Finish = data.ref, end.ref, closeRec.ref, finish.ref
	caps, err := Adapt(sys, stream.NewPassThrough(stream.DefaultWritableConfig()), opts)
	if err != nil {
		t.Fatalf("Adapt() error = %v", err)
	}

	caps.End.Send(textWrite(2, "!"))
	caps.Write.Send(textWrite(1, "world"))
	caps.Write.Send(textWrite(0, "hello "))
	quiesce(t, sys)

	var got string
	for i, msg := range data.all() {
		ev := msg.(DataEvent)
		if ev.Seq != uint64(i) {
			t.Errorf("event %d Seq = %d", i, ev.Seq)
		}
		got += ev.Chunk.String()
	}
	if got != "hello world!" {
		t.Errorf("read back %q, want %q", got, "hello world!")
	}
	if end.len() != 1 || finish.len() != 1 {
		t.Errorf("end events = %d finish events = %d, want 1 and 1", end.len(), finish.len())
	}
	if closeRec.len() != 1 {
		t.Errorf("close events = %d, want 1", closeRec.len())
	}
}

func TestAdapt_DuplexErrorNotifiedOnce(t *testing.T) {
	sys := newTestSystem(t)
	errRec := newRecorder(sys, "error")

	boom := errors.New("disk full")
	d := stream.NewDuplex(stream.NewReadable(), stream.NewWritable(failingWriter{boom}, stream.DefaultWritableConfig()))
	opts := testOptions("duplex-error")
	opts.Error = errRec.ref
	caps, err := Adapt(sys, d, opts)
	if err != nil {
		t.Fatalf("Adapt() error = %v", err)
	}

	caps.Write.Send(textWrite(0, "data"))
	quiesce(t, sys)

	if errRec.len() != 1 {
		t.Fatalf("error events = %d, want 1", errRec.len())
	}
	if ev := errRec.all()[0].(ErrorEvent); !errors.Is(ev.Err, boom) {
		t.Errorf("ErrorEvent.Err = %v, want %v", ev.Err, boom)
	}
	if caps.Writer.Seq() != 1 {
		t.Errorf("write Seq() = %d, want 1", caps.Writer.Seq())
	}
}

func TestParseStalePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    StalePolicy
		wantErr bool
	}{
		{"", StaleDrop, false},
		{"drop", StaleDrop, false},
		{"report", StaleReport, false},
		{"explode", StaleDrop, true},
	}
	for _, tt := range tests {
		got, err := ParseStalePolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStalePolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStalePolicy(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if !tt.wantErr && tt.in != "" && got.String() != tt.in {
			t.Errorf("String() = %q, want %q", got.String(), tt.in)
		}
	}
}
