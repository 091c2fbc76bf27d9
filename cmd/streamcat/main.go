// Command streamcat copies a file or stdin to a file or stdout by driving
// both ends as actor capabilities: every chunk is pulled by sequence number
// and written back in sequence order.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fluxorio/streamactor/pkg/actor"
	"github.com/fluxorio/streamactor/pkg/adapter"
	"github.com/fluxorio/streamactor/pkg/config"
	"github.com/fluxorio/streamactor/pkg/core"
	"github.com/fluxorio/streamactor/pkg/observability/prometheus"
	"github.com/fluxorio/streamactor/pkg/stream"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "streamcat:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := parseConfig(args)
	if err != nil {
		return err
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := core.NewLogger(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	in, err := openInput(cfg.Input)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := openOutput(cfg.Output)
	if err != nil {
		return err
	}

	sys, err := actor.NewSystem(ctx, actor.SystemConfig{
		Name:        "streamcat",
		MailboxSize: cfg.MailboxSize,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sys.Close(closeCtx); err != nil {
			logger.Warnf("actor system close: %v", err)
		}
	}()

	stale, err := adapter.ParseStalePolicy(cfg.StaleWrites)
	if err != nil {
		return err
	}
	opts := adapter.Options{
		Name:        "streamcat",
		Encoding:    cfg.Encoding,
		StaleWrites: stale,
		Logger:      logger,
	}

	g, gctx := errgroup.WithContext(ctx)
	copyCtx, copyDone := context.WithCancel(gctx)
	defer copyDone()

	if cfg.MetricsAddr != "" {
		srv := prometheus.NewServer("/metrics", prometheus.DefaultRegistry)
		g.Go(func() error {
			logger.Infof("serving metrics on %s/metrics", cfg.MetricsAddr)
			return srv.ListenAndServe(cfg.MetricsAddr)
		})
		g.Go(func() error {
			<-copyCtx.Done()
			return srv.Shutdown()
		})
	}

	g.Go(func() error {
		defer copyDone()
		src := stream.NewReaderSource(copyCtx, in, stream.ReaderConfig{
			ChunkSize:     cfg.ChunkSize,
			HighWaterMark: cfg.HighWaterMark,
		})
		sink := stream.NewWritable(out, stream.WritableConfig{
			HighWaterMark: cfg.HighWaterMark,
			CloseWriter:   !config.Stdio(cfg.Output),
		})
		start := time.Now()
		if err := copyStream(copyCtx, sys, src, sink, opts); err != nil {
			return fmt.Errorf("copy failed: %w", err)
		}
		st := sys.Stats()
		logger.WithFields(map[string]interface{}{
			"messages": st.Delivered,
			"actors":   st.Actors,
			"elapsed":  time.Since(start).String(),
		}).Info("copy finished")
		return nil
	})

	return g.Wait()
}

func parseConfig(args []string) (config.StreamConfig, error) {
	fs := flag.NewFlagSet("streamcat", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML or JSON config file")
	input := fs.String("in", "", "input file, - for stdin")
	output := fs.String("out", "", "output file, - for stdout")
	encoding := fs.String("encoding", "", "chunk encoding (utf8, ascii, latin1, utf16le, base64, hex)")
	chunkSize := fs.Int("chunk-size", 0, "bytes per read")
	staleWrites := fs.String("stale-writes", "", "stale write policy: drop or report")
	metricsAddr := fs.String("metrics-addr", "", "serve Prometheus metrics on this address")
	logLevel := fs.String("log-level", "", "debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return config.StreamConfig{}, err
	}

	cfg, err := config.LoadStreamConfig(*configPath)
	if err != nil {
		return cfg, err
	}

	// Flags given explicitly win over the file and the environment.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "in":
			cfg.Input = *input
		case "out":
			cfg.Output = *output
		case "encoding":
			cfg.Encoding = *encoding
		case "chunk-size":
			cfg.ChunkSize = *chunkSize
		case "stale-writes":
			cfg.StaleWrites = *staleWrites
		case "metrics-addr":
			cfg.MetricsAddr = *metricsAddr
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})
	if fs.NArg() > 0 {
		return cfg, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return cfg, cfg.Validate()
}

func openInput(name string) (io.ReadCloser, error) {
	if config.Stdio(name) {
		return io.NopCloser(os.Stdin), nil
	}
	// #nosec G304 -- the path comes from the operator's command line.
	return os.Open(name)
}

func openOutput(name string) (io.Writer, error) {
	if config.Stdio(name) {
		return os.Stdout, nil
	}
	// #nosec G304 -- the path comes from the operator's command line.
	return os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
}
