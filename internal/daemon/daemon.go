// Package daemon implements the daemon lifecycle manager.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"reflect"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/zMarques/albion-network/internal/config"
	logpkg "github.com/zMarques/albion-network/internal/log"
	"github.com/zMarques/albion-network/internal/metrics"
	"github.com/zMarques/albion-network/internal/reporter"
	"github.com/zMarques/albion-network/pkg/sniffer"
)

// Version is reported by the version command and on startup. Set at build time.
var Version = "0.1.0"

// ErrSnifferStopped is returned by Run when the sniffer stops on its own,
// for example because every capture worker failed.
var ErrSnifferStopped = errors.New("albion-network: sniffer stopped")

// runner is the part of *sniffer.Sniffer the daemon drives.
type runner interface {
	Stop()
	Done() <-chan struct{}
	Interfaces() []string
	Stats() sniffer.Stats
}

// listenFunc starts the sniffer. Replaced in tests.
type listenFunc func(ctx context.Context, h sniffer.Handler, opts ...sniffer.Option) (runner, error)

func listenSniffer(ctx context.Context, h sniffer.Handler, opts ...sniffer.Option) (runner, error) {
	s, err := sniffer.Listen(ctx, h, opts...)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Daemon manages the albion-network process lifecycle.
type Daemon struct {
	// Configuration
	config     *config.GlobalConfig
	configPath string
	pidFile    string

	// Core components
	sniffer       runner
	reporter      *reporter.Reporter
	metricsServer *metrics.Server // nil if metrics disabled

	out    io.Writer
	listen listenFunc

	// Lifecycle management
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownChan chan struct{}
	sigChan      chan os.Signal
	stopOnce     sync.Once
	pidWritten   bool
}

// New creates a new Daemon instance. A non-empty pidFile overrides
// control.pid_file from the configuration.
func New(configPath, pidFile string) (*Daemon, error) {
	// Load global configuration
	globalConfig, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if pidFile == "" {
		pidFile = globalConfig.Control.PIDFile
	}

	d := &Daemon{
		config:       globalConfig,
		configPath:   configPath,
		pidFile:      pidFile,
		out:          os.Stdout,
		listen:       listenSniffer,
		shutdownChan: make(chan struct{}, 1),
	}

	// Create context for lifecycle management
	d.ctx, d.cancel = context.WithCancel(context.Background())

	return d, nil
}

// Start initializes and starts all daemon components. On failure the
// components already started are stopped again.
func (d *Daemon) Start() (err error) {
	// 1. Initialize logging system
	if err := d.initLogging(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	slog.Info("starting albion-network daemon",
		"version", Version,
		"config", d.configPath,
		"pid_file", d.pidFile,
	)

	defer func() {
		if err != nil {
			d.Stop()
		}
	}()

	// 2. Write PID file
	if err := d.writePIDFile(); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}

	// 3. Start metrics server
	if err := d.startMetrics(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	// 4. Create reporter
	d.reporter, err = reporter.New(d.config.Reporter, d.out)
	if err != nil {
		return fmt.Errorf("failed to create reporter: %w", err)
	}

	// 5. Start sniffer
	d.sniffer, err = d.listen(d.ctx, d.reporter.Handle, snifferOptions(d.config)...)
	if err != nil {
		return fmt.Errorf("failed to start sniffer: %w", err)
	}
	metrics.SnifferStatus.Set(metrics.SnifferStatusRunning)

	slog.Info("daemon started successfully", "interfaces", d.sniffer.Interfaces())
	return nil
}

// Stop performs graceful shutdown of all daemon components. It is safe to
// call more than once.
func (d *Daemon) Stop() {
	d.stopOnce.Do(d.stop)
}

func (d *Daemon) stop() {
	slog.Info("initiating graceful shutdown")

	// 1. Stop sniffer (no new messages)
	if d.sniffer != nil {
		slog.Info("stopping sniffer")
		d.sniffer.Stop()
		st := d.sniffer.Stats()
		slog.Info("sniffer stopped",
			"payloads", st.Payloads,
			"messages", st.Messages,
			"failed_workers", st.FailedWorkers,
		)
	}
	metrics.SnifferStatus.Set(metrics.SnifferStatusStopped)

	// 2. Stop metrics server
	if d.metricsServer != nil {
		slog.Info("stopping metrics server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.metricsServer.Stop(shutdownCtx); err != nil {
			slog.Error("error stopping metrics server", "error", err)
		}
	}

	// 3. Cancel context to signal all goroutines
	d.cancel()

	// 4. Unregister signal handler to prevent goroutine leak
	if d.sigChan != nil {
		signal.Stop(d.sigChan)
	}

	// 5. Remove PID file
	if err := d.removePIDFile(); err != nil {
		slog.Error("error removing PID file", "error", err)
	}

	slog.Info("daemon stopped gracefully")

	// 6. Flush logs
	if err := logpkg.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", err)
	}
}

// Run runs the daemon main loop, blocking until shutdown is triggered.
// Shutdown can be triggered by:
//  1. OS signals (SIGTERM, SIGINT)
//  2. TriggerShutdown
//  3. the sniffer stopping on its own
//
// SIGHUP triggers a config reload.
func (d *Daemon) Run() error {
	// Setup signal handling
	d.sigChan = make(chan os.Signal, 1)
	signal.Notify(d.sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)

	slog.Info("daemon running, waiting for signals")

	for {
		select {
		case sig := <-d.sigChan:
			switch sig {
			case syscall.SIGTERM, syscall.SIGINT:
				slog.Info("received shutdown signal", "signal", sig)
				d.Stop()
				return nil

			case syscall.SIGHUP:
				slog.Info("received reload signal")
				if err := d.Reload(); err != nil {
					slog.Error("failed to reload config", "error", err)
				}
			}

		case <-d.shutdownChan:
			slog.Info("shutdown triggered")
			d.Stop()
			return nil

		case <-d.sniffer.Done():
			slog.Error("sniffer stopped unexpectedly")
			d.Stop()
			return ErrSnifferStopped

		case <-d.ctx.Done():
			// Context cancelled externally
			slog.Info("context cancelled", "error", d.ctx.Err())
			d.Stop()
			return d.ctx.Err()
		}
	}
}

// Reload reloads the global configuration.
// Hot-reloadable: log level/format/outputs.
// Cold (requires restart): capture, queue, decoder, reporter, metrics, control.
func (d *Daemon) Reload() error {
	slog.Info("reloading configuration", "path", d.configPath)

	newConfig, err := config.Load(d.configPath)
	if err != nil {
		return fmt.Errorf("failed to load new config: %w", err)
	}

	// Track what was hot-reloaded for the log message
	hotReloaded := []string{}

	// 1. Re-initialize logging with new config (level, format and outputs)
	if !reflect.DeepEqual(newConfig.Log, d.config.Log) {
		if err := logpkg.Init(newConfig.Log); err != nil {
			return fmt.Errorf("failed to reinitialize logging: %w", err)
		}
		hotReloaded = append(hotReloaded, "log")
	}

	// 2. Warn about cold-reload items that changed
	requiresRestart := []string{}
	if !reflect.DeepEqual(newConfig.Capture, d.config.Capture) {
		requiresRestart = append(requiresRestart, "capture")
	}
	if newConfig.Queue != d.config.Queue {
		requiresRestart = append(requiresRestart, "queue")
	}
	if newConfig.Decoder != d.config.Decoder {
		requiresRestart = append(requiresRestart, "decoder")
	}
	if newConfig.Reporter != d.config.Reporter {
		requiresRestart = append(requiresRestart, "reporter")
	}
	if newConfig.Metrics != d.config.Metrics {
		requiresRestart = append(requiresRestart, "metrics")
	}
	if newConfig.Control != d.config.Control {
		requiresRestart = append(requiresRestart, "control")
	}

	// Keep the running settings for everything that was not applied.
	d.config.Log = newConfig.Log

	slog.Info("configuration reloaded",
		"hot_reloaded", hotReloaded,
		"requires_restart", requiresRestart,
	)

	return nil
}

// TriggerShutdown triggers graceful shutdown from an external caller.
func (d *Daemon) TriggerShutdown() {
	select {
	case d.shutdownChan <- struct{}{}:
	default:
		// Shutdown already pending
	}
}

// Stats returns the sniffer counters, or zero values before Start.
func (d *Daemon) Stats() sniffer.Stats {
	if d.sniffer == nil {
		return sniffer.Stats{}
	}
	return d.sniffer.Stats()
}

// initLogging initializes the logging system from config.
func (d *Daemon) initLogging() error {
	if err := logpkg.Init(d.config.Log); err != nil {
		return err
	}

	slog.Debug("logging initialized",
		"level", d.config.Log.Level,
		"format", d.config.Log.Format,
	)

	return nil
}

// startMetrics starts the metrics HTTP server if enabled.
func (d *Daemon) startMetrics() error {
	if !d.config.Metrics.Enabled {
		slog.Info("metrics server disabled")
		return nil
	}

	srv := metrics.NewServer(d.config.Metrics.Listen, d.config.Metrics.Path)
	if err := srv.Start(d.ctx); err != nil {
		return err
	}
	d.metricsServer = srv

	slog.Info("metrics server started",
		"addr", srv.Addr(),
		"path", d.config.Metrics.Path,
	)

	return nil
}

// snifferOptions maps the configuration onto sniffer options.
func snifferOptions(cfg *config.GlobalConfig) []sniffer.Option {
	c := cfg.Capture
	return []sniffer.Option{
		sniffer.WithLogger(slog.Default()),
		sniffer.WithSource(c.Source),
		sniffer.WithTargetPort(uint16(c.TargetPort)),
		sniffer.WithMaxFrameSize(c.MaxFrameSize),
		sniffer.WithPromiscuous(c.Promiscuous),
		sniffer.WithPollTimeout(c.PollTimeoutDuration()),
		sniffer.WithBufferSize(c.BufferSize),
		sniffer.WithKernelFilter(c.KernelFilter),
		sniffer.WithInterfaces(c.Include, c.Exclude),
		sniffer.WithQueue(cfg.Queue.Capacity, cfg.Queue.DropPolicy),
		sniffer.WithDecoderName(cfg.Decoder.Name),
	}
}

// writePIDFile writes the current process ID to the PID file. It refuses to
// overwrite the PID file of a process that is still alive.
func (d *Daemon) writePIDFile() error {
	if d.pidFile == "" {
		return nil
	}

	if pid, err := ReadPIDFile(d.pidFile); err == nil && processAlive(pid) {
		return fmt.Errorf("%w: pid %d (%s)", ErrAlreadyRunning, pid, d.pidFile)
	}

	pid := os.Getpid()
	data := []byte(strconv.Itoa(pid) + "\n")

	if err := os.WriteFile(d.pidFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write PID file %s: %w", d.pidFile, err)
	}
	d.pidWritten = true

	slog.Debug("PID file written", "path", d.pidFile, "pid", pid)
	return nil
}

// removePIDFile removes the PID file if this daemon wrote it.
func (d *Daemon) removePIDFile() error {
	if d.pidFile == "" || !d.pidWritten {
		return nil
	}

	if err := os.Remove(d.pidFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file %s: %w", d.pidFile, err)
	}
	d.pidWritten = false

	slog.Debug("PID file removed", "path", d.pidFile)
	return nil
}
