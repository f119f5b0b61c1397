// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/stratumtap/lib/config"
	"github.com/bureau-foundation/stratumtap/lib/events"
	"github.com/bureau-foundation/stratumtap/lib/process"
	"github.com/bureau-foundation/stratumtap/lib/version"
	"github.com/bureau-foundation/stratumtap/relay"
)

const binaryName = "stratumtap"

func main() {
	if err := run(os.Args[1:]); err != nil {
		process.Fatal(binaryName, err)
	}
}

// flagValues holds the command line. Only flags the user actually set
// override the configuration file.
type flagValues struct {
	configPath         string
	upstream           string
	dialTimeout        time.Duration
	maxFrameBytes      int
	readBufferBytes    int
	drainTimeout       time.Duration
	logLevel           string
	logFormat          string
	capture            string
	captureCompression string
	showVersion        bool
	help               bool
}

func newFlagSet(values *flagValues) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(binaryName, pflag.ContinueOnError)
	flagSet.StringVar(&values.configPath, "config", "", "path to a YAML or JSONC config file (default: $"+config.EnvironmentVariable+")")
	flagSet.StringVar(&values.upstream, "upstream", "", "pool address host:port (default: "+config.DefaultUpstream+")")
	flagSet.DurationVar(&values.dialTimeout, "dial-timeout", 0, "upstream dial timeout, 0 to disable (default: "+config.DefaultDialTimeout+")")
	flagSet.IntVar(&values.maxFrameBytes, "max-frame-bytes", 0, "largest accepted Stratum frame in bytes")
	flagSet.IntVar(&values.readBufferBytes, "read-buffer-bytes", 0, "per-direction read size in bytes")
	flagSet.DurationVar(&values.drainTimeout, "drain-timeout", 0, "time to let the other direction finish after one side closes")
	flagSet.StringVar(&values.logLevel, "log-level", "", "debug, info, warn, or error")
	flagSet.StringVar(&values.logFormat, "log-format", "", "auto, text, or json")
	flagSet.StringVar(&values.capture, "capture", "", "append events to this CBOR capture file")
	flagSet.StringVar(&values.captureCompression, "capture-compression", "", "none, zstd, or lz4")
	flagSet.BoolVar(&values.showVersion, "version", false, "print version information and exit")
	flagSet.BoolVarP(&values.help, "help", "h", false, "show help")
	flagSet.SortFlags = false
	return flagSet
}

// loadConfig reads the configuration file and layers the command line
// on top of it.
func loadConfig(flagSet *pflag.FlagSet, values *flagValues) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if values.configPath != "" {
		cfg, err = config.LoadFile(values.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if flagSet.Changed("upstream") {
		cfg.Upstream.Address = values.upstream
	}
	if flagSet.Changed("dial-timeout") {
		cfg.Upstream.DialTimeout = values.dialTimeout.String()
	}
	if flagSet.Changed("max-frame-bytes") {
		cfg.Framing.MaxFrameBytes = values.maxFrameBytes
	}
	if flagSet.Changed("read-buffer-bytes") {
		cfg.Framing.ReadBufferBytes = values.readBufferBytes
	}
	if flagSet.Changed("drain-timeout") {
		cfg.Session.DrainTimeout = values.drainTimeout.String()
	}
	if flagSet.Changed("log-level") {
		cfg.Log.Level = values.logLevel
	}
	if flagSet.Changed("log-format") {
		cfg.Log.Format = values.logFormat
	}
	if flagSet.Changed("capture") {
		cfg.Capture.Path = values.capture
	}
	if flagSet.Changed("capture-compression") {
		cfg.Capture.Compression = values.captureCompression
	}

	switch args := flagSet.Args(); len(args) {
	case 0:
	case 1:
		cfg.Listen = args[0]
	default:
		return nil, fmt.Errorf("expected at most one listen address, got %d arguments", len(args))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger. The auto format picks text when
// output is a terminal and JSON otherwise.
func newLogger(output io.Writer, terminal bool, logConfig config.LogConfig) *slog.Logger {
	options := &slog.HandlerOptions{Level: logConfig.SlogLevel()}
	var handler slog.Handler
	switch logConfig.Format {
	case "text":
		handler = slog.NewTextHandler(output, options)
	case "json":
		handler = slog.NewJSONHandler(output, options)
	default:
		if terminal {
			handler = slog.NewTextHandler(output, options)
		} else {
			handler = slog.NewJSONHandler(output, options)
		}
	}
	return slog.New(handler)
}

// newSink returns the event sink for cfg and a function that flushes
// and closes it.
func newSink(cfg *config.Config, logger *slog.Logger) (events.Sink, func() error, error) {
	logSink := &events.LogSink{Logger: logger}
	if cfg.Capture.Path == "" {
		return logSink, func() error { return nil }, nil
	}

	compression, err := events.ParseCompression(cfg.Capture.Compression)
	if err != nil {
		return nil, nil, err
	}
	capture, err := events.CreateCapture(cfg.Capture.Path, compression)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("capturing events",
		"path", cfg.Capture.Path,
		"compression", string(compression),
	)
	return events.Multi(logSink, capture), capture.Close, nil
}

func newRelay(cfg *config.Config, sink events.Sink, logger *slog.Logger) *relay.Relay {
	return &relay.Relay{
		ListenAddr: cfg.Listen,
		Connector: &relay.Connector{
			Address: cfg.Upstream.Address,
			Timeout: cfg.Upstream.Timeout(),
		},
		Sink:            sink,
		Logger:          logger,
		MaxFrameBytes:   cfg.Framing.MaxFrameBytes,
		ReadBufferBytes: cfg.Framing.ReadBufferBytes,
		DrainTimeout:    cfg.Session.Drain(),
	}
}

func run(args []string) error {
	var values flagValues
	flagSet := newFlagSet(&values)
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if values.help {
		printHelp(flagSet)
		return nil
	}
	if values.showVersion {
		version.Print(os.Stdout, binaryName)
		return nil
	}

	cfg, err := loadConfig(flagSet, &values)
	if err != nil {
		return err
	}

	logger := newLogger(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())), cfg.Log)
	slog.SetDefault(logger)

	sink, closeSink, err := newSink(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tap := newRelay(cfg, sink, logger)
	if err := tap.Start(ctx); err != nil {
		closeSink()
		return err
	}

	<-ctx.Done()
	logger.Info("shutting down")
	tap.Stop()

	if err := closeSink(); err != nil {
		return fmt.Errorf("closing capture: %w", err)
	}
	return nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `stratumtap - transparent Stratum mining relay

Miners connect to the listen address; every connection is relayed
byte-for-byte to the pool while each Stratum message is classified
and logged.

Usage:
  stratumtap [flags] [listen-address]

The listen address defaults to %s. Flags override values from the
config file; the positional address overrides both.

Examples:
  # Relay local miners to the default pool
  stratumtap

  # Listen on all interfaces and relay to another pool
  stratumtap --upstream pool.example.com:3333 0.0.0.0:3333

  # Keep a compressed capture of every message
  stratumtap --capture /var/lib/stratumtap/capture.cbor.zst --capture-compression zstd

Flags:
`, config.DefaultListen)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
