// mixhost is the host-side controller for a multi-material mixing
// extruder. It reads G-code command lines from a serial port (or stdin),
// maintains the mix collector and virtual tool store, and serves mixer
// status to frontends.
//
// Usage:
//
//	mixhost -config mixer.cfg [options]
//
// Options:
//
//	-config string   Host configuration file (required)
//	-status string   Status API server address (default ":7125")
//	-metrics string  Prometheus metrics address (empty: disabled)
//	-logfile string  Log file path (default: stderr)
//	-trace           Enable debug logging
//
// Examples:
//
//	# Drive a mixing extruder on the configured serial port
//	mixhost -config mixer.cfg
//
//	# Interactive session on stdin with metrics enabled
//	mixhost -config mixer.cfg -metrics :9100
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mixhost/pkg/config"
	"mixhost/pkg/hostmix"
	"mixhost/pkg/log"
	"mixhost/pkg/metrics"
	"mixhost/pkg/mixing"
	"mixhost/pkg/serial"
	"mixhost/pkg/status"
)

func main() {
	configFile := flag.String("config", "", "Host configuration file (required)")
	statusAddr := flag.String("status", ":7125", "Status API server address")
	metricsAddr := flag.String("metrics", "", "Prometheus metrics address (empty: disabled)")
	logFile := flag.String("logfile", "", "Log file path (default: stderr)")
	trace := flag.Bool("trace", false, "Enable debug logging")
	flag.Parse()

	if *configFile == "" {
		fmt.Fprintf(os.Stderr, "Error: -config is required\n")
		flag.Usage()
		os.Exit(1)
	}

	logger := log.New("mixhost")
	log.ConfigureFromEnv(logger)
	if *trace {
		logger.SetLevel(log.DEBUG)
	}
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logger.SetWriter(f)
		logger.SetColorize(false)
	}
	log.SetDefaultLogger(logger)

	cfg, err := config.ParseMixerConfig(*configFile)
	if err != nil {
		logger.Error("config: %v", err)
		os.Exit(1)
	}
	logger.Info("config: %s", *configFile)
	logger.Info("mixing steppers: %d, virtual tools: %d, direct mixing: %v",
		cfg.MixingSteppers, cfg.VirtualTools, cfg.DirectMixing)

	mixer, err := mixing.New(mixing.Config{
		Steppers:     cfg.MixingSteppers,
		VirtualTools: cfg.VirtualTools,
	})
	if err != nil {
		logger.Error("mixer: %v", err)
		os.Exit(1)
	}

	mm := metrics.NewMixerMetrics()

	// Command source and reporting sink
	var in io.Reader
	var out io.Writer
	if cfg.Device != "" {
		port, err := serial.Open(serial.Config{
			Device:   cfg.Device,
			BaudRate: cfg.Baud,
		})
		if err != nil {
			logger.Error("serial: %v", err)
			os.Exit(1)
		}
		defer port.Close()
		logger.Info("serial: %s @ %d baud", cfg.Device, cfg.Baud)
		in = retryReader{port}
		out = port
	} else {
		logger.Info("no serial device configured, reading commands from stdin")
		in = os.Stdin
		out = os.Stdout
	}

	handler := hostmix.NewHandler(mixer, out, logger.WithPrefix("gcode"), mm,
		hostmix.HandlerConfig{DirectMixing: cfg.DirectMixing})

	var statusServer *status.Server
	if *statusAddr != "" {
		statusServer = status.New(status.Config{
			Addr:   *statusAddr,
			Mixer:  handler,
			Logger: logger.WithPrefix("status"),
		})
		go func() {
			if err := statusServer.Start(); err != nil {
				logger.Error("status server: %v", err)
			}
		}()
	}

	var metricsServer *metrics.Server
	if *metricsAddr != "" {
		metricsServer = metrics.NewServer(mm, *metricsAddr)
		logger.Info("metrics: %s/metrics", *metricsAddr)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.Error("metrics server: %v", err)
			}
		}()
	}

	// Shut down cleanly on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		sig := <-sigCh
		logger.Info("received %v, shutting down", sig)
		close(done)
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			logger.Error("command source: %v", err)
		}
	}()

	logger.Info("ready")
loop:
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				break loop
			}
			handler.ProcessLine(line)
			if statusServer != nil {
				statusServer.NotifyStatusUpdate()
			}
		case <-done:
			break loop
		}
	}

	if statusServer != nil {
		statusServer.Stop()
	}
	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		metricsServer.Shutdown(ctx)
		cancel()
	}
	logger.Info("exited")
}

// retryReader retries serial reads that time out with no data, so the
// line scanner only sees real data and real errors.
type retryReader struct {
	port *serial.Port
}

func (r retryReader) Read(b []byte) (int, error) {
	for {
		n, err := r.port.Read(b)
		if err == serial.ErrTimeout || (n == 0 && err == nil) {
			continue
		}
		return n, err
	}
}
