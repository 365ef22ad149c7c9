// Package config handles global configuration loading using viper.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/zMarques/albion-network/internal/core"
	"github.com/zMarques/albion-network/internal/queue"
	"github.com/zMarques/albion-network/pkg/decoder"
)

// GlobalConfig represents the top-level configuration.
// Maps to the `albion-network:` root key in YAML.
type GlobalConfig struct {
	Capture  CaptureConfig  `mapstructure:"capture" yaml:"capture"`
	Queue    QueueConfig    `mapstructure:"queue" yaml:"queue"`
	Decoder  DecoderConfig  `mapstructure:"decoder" yaml:"decoder"`
	Reporter ReporterConfig `mapstructure:"reporter" yaml:"reporter"`
	Metrics  MetricsConfig  `mapstructure:"metrics" yaml:"metrics"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Control  ControlConfig  `mapstructure:"control" yaml:"control"`
}

// ─── Capture ───

// CaptureConfig controls interface selection and the capture handles.
type CaptureConfig struct {
	Source       string   `mapstructure:"source" yaml:"source"` // afpacket | pcap
	TargetPort   int      `mapstructure:"target_port" yaml:"target_port"`
	MaxFrameSize int      `mapstructure:"max_frame_size" yaml:"max_frame_size"`
	Promiscuous  bool     `mapstructure:"promiscuous" yaml:"promiscuous"`
	PollTimeout  string   `mapstructure:"poll_timeout" yaml:"poll_timeout"` // e.g. "100ms"
	BufferSize   int      `mapstructure:"buffer_size" yaml:"buffer_size"`   // bytes per interface
	KernelFilter bool     `mapstructure:"kernel_filter" yaml:"kernel_filter"`
	Include      []string `mapstructure:"include" yaml:"include,omitempty"` // Empty = every non-loopback interface
	Exclude      []string `mapstructure:"exclude" yaml:"exclude,omitempty"`

	pollTimeout time.Duration
}

// PollTimeoutDuration returns the parsed poll timeout.
func (c CaptureConfig) PollTimeoutDuration() time.Duration {
	return c.pollTimeout
}

// ─── Queue ───

// QueueConfig configures the fan-in queue between capture and decoding.
type QueueConfig struct {
	Capacity   int    `mapstructure:"capacity" yaml:"capacity"`
	DropPolicy string `mapstructure:"drop_policy" yaml:"drop_policy"` // "block" | "tail" | "head"
}

// ─── Decoder ───

// DecoderConfig selects the payload decoder.
type DecoderConfig struct {
	Name string `mapstructure:"name" yaml:"name"`
}

// ─── Reporter ───

// ReporterConfig configures how decoded messages are reported.
type ReporterConfig struct {
	Format  string `mapstructure:"format" yaml:"format"`     // text / json
	MaxDump int    `mapstructure:"max_dump" yaml:"max_dump"` // bytes of raw payload shown, 0 = none
}

// ─── Metrics ───

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Listen  string `mapstructure:"listen" yaml:"listen"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// ─── Log ───

// LogConfig contains logging settings.
type LogConfig struct {
	Level   string           `mapstructure:"level" yaml:"level"`   // debug / info / warn / error
	Format  string           `mapstructure:"format" yaml:"format"` // json / text
	Outputs LogOutputsConfig `mapstructure:"outputs" yaml:"outputs"`
}

// LogOutputsConfig contains structured log output destinations.
type LogOutputsConfig struct {
	File FileOutputConfig `mapstructure:"file" yaml:"file"`
}

// FileOutputConfig configures file log output.
type FileOutputConfig struct {
	Enabled  bool           `mapstructure:"enabled" yaml:"enabled"`
	Path     string         `mapstructure:"path" yaml:"path"`
	Rotation RotationConfig `mapstructure:"rotation" yaml:"rotation"`
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxAgeDays int  `mapstructure:"max_age_days" yaml:"max_age_days"`
	MaxBackups int  `mapstructure:"max_backups" yaml:"max_backups"`
	Compress   bool `mapstructure:"compress" yaml:"compress"`
}

// ─── Control ───

// ControlConfig contains process control settings.
type ControlConfig struct {
	PIDFile string `mapstructure:"pid_file" yaml:"pid_file"` // Empty = no pid file
}

// ─── Loading ───

// rootKey is the YAML root wrapper.
const rootKey = "albion-network"

// configRoot is the top-level wrapper matching the YAML structure `albion-network: ...`.
type configRoot struct {
	AlbionNetwork GlobalConfig `mapstructure:"albion-network"`
}

// Load loads configuration from file. An empty path loads defaults and
// environment overrides only.
// The YAML file uses `albion-network:` as root key; env vars use the
// ALBION_NETWORK_ prefix (e.g., ALBION_NETWORK_LOG_LEVEL).
func Load(path string) (*GlobalConfig, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// The `albion-network.` key prefix maps to `ALBION_NETWORK_` in env vars
	// via the key replacer (e.g., key "albion-network.log.level" → env "ALBION_NETWORK_LOG_LEVEL").
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Set defaults with "albion-network." prefix to match the YAML structure
	setDefaults(v)

	// Unmarshal into wrapper → extract inner GlobalConfig
	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.AlbionNetwork

	// Validate and apply defaults
	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func key(k string) string {
	return rootKey + "." + k
}

// setDefaults sets default values for configuration.
// All keys use "albion-network." prefix to match the YAML root wrapper.
func setDefaults(v *viper.Viper) {
	// Capture defaults
	v.SetDefault(key("capture.source"), defaultSource)
	v.SetDefault(key("capture.target_port"), 5056)
	v.SetDefault(key("capture.max_frame_size"), 1600)
	v.SetDefault(key("capture.promiscuous"), true)
	v.SetDefault(key("capture.poll_timeout"), "100ms")
	v.SetDefault(key("capture.buffer_size"), 8*1024*1024)
	v.SetDefault(key("capture.kernel_filter"), true)
	v.SetDefault(key("capture.include"), []string{})
	v.SetDefault(key("capture.exclude"), []string{})

	// Queue defaults
	v.SetDefault(key("queue.capacity"), queue.DefaultCapacity)
	v.SetDefault(key("queue.drop_policy"), "block")

	// Decoder defaults
	v.SetDefault(key("decoder.name"), decoder.RawName)

	// Reporter defaults
	v.SetDefault(key("reporter.format"), "text")
	v.SetDefault(key("reporter.max_dump"), 64)

	// Metrics defaults
	v.SetDefault(key("metrics.enabled"), true)
	v.SetDefault(key("metrics.listen"), ":9091")
	v.SetDefault(key("metrics.path"), "/metrics")

	// Log defaults
	v.SetDefault(key("log.level"), "info")
	v.SetDefault(key("log.format"), "json")
	v.SetDefault(key("log.outputs.file.enabled"), false)
	v.SetDefault(key("log.outputs.file.path"), "/var/log/albion-network/albion-network.log")
	v.SetDefault(key("log.outputs.file.rotation.max_size_mb"), 100)
	v.SetDefault(key("log.outputs.file.rotation.max_age_days"), 30)
	v.SetDefault(key("log.outputs.file.rotation.max_backups"), 5)
	v.SetDefault(key("log.outputs.file.rotation.compress"), true)

	// Control defaults
	v.SetDefault(key("control.pid_file"), "")
}

// ValidateAndApplyDefaults validates configuration and applies runtime defaults.
func (cfg *GlobalConfig) ValidateAndApplyDefaults() error {
	// ── Log validation ──
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("%w: invalid log level: %s (must be debug/info/warn/error)", core.ErrConfigInvalid, cfg.Log.Level)
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "text" {
		return fmt.Errorf("%w: invalid log format: %s (must be json/text)", core.ErrConfigInvalid, cfg.Log.Format)
	}
	if cfg.Log.Outputs.File.Enabled && cfg.Log.Outputs.File.Path == "" {
		return fmt.Errorf("%w: log.outputs.file.path is required when file output is enabled", core.ErrConfigInvalid)
	}

	// ── Capture validation ──
	c := &cfg.Capture
	if !slices.Contains(validSources, c.Source) {
		return fmt.Errorf("%w: invalid capture.source: %s (must be one of %v)", core.ErrConfigInvalid, c.Source, validSources)
	}
	if c.TargetPort < 1 || c.TargetPort > 65535 {
		return fmt.Errorf("%w: capture.target_port out of range: %d", core.ErrConfigInvalid, c.TargetPort)
	}
	if c.MaxFrameSize < 64 || c.MaxFrameSize > 65535 {
		return fmt.Errorf("%w: capture.max_frame_size out of range: %d (64..65535)", core.ErrConfigInvalid, c.MaxFrameSize)
	}
	timeout, err := time.ParseDuration(c.PollTimeout)
	if err != nil || timeout <= 0 {
		return fmt.Errorf("%w: invalid capture.poll_timeout: %q", core.ErrConfigInvalid, c.PollTimeout)
	}
	c.pollTimeout = timeout
	if c.BufferSize <= 0 {
		return fmt.Errorf("%w: capture.buffer_size must be positive", core.ErrConfigInvalid)
	}

	// ── Queue validation ──
	if cfg.Queue.Capacity <= 0 {
		return fmt.Errorf("%w: queue.capacity must be positive", core.ErrConfigInvalid)
	}
	if _, err := queue.ParsePolicy(cfg.Queue.DropPolicy); err != nil {
		return err
	}

	// ── Decoder validation ──
	if !slices.Contains(decoder.Names(), cfg.Decoder.Name) {
		return fmt.Errorf("%w: unknown decoder.name: %s (available: %v)", core.ErrConfigInvalid, cfg.Decoder.Name, decoder.Names())
	}

	// ── Reporter validation ──
	if cfg.Reporter.Format != "json" && cfg.Reporter.Format != "text" {
		return fmt.Errorf("%w: invalid reporter.format: %s (must be json/text)", core.ErrConfigInvalid, cfg.Reporter.Format)
	}
	if cfg.Reporter.MaxDump < 0 {
		cfg.Reporter.MaxDump = 0
	}

	// ── Metrics defaults ──
	if cfg.Metrics.Enabled && cfg.Metrics.Listen == "" {
		return fmt.Errorf("%w: metrics.listen is required when metrics are enabled", core.ErrConfigInvalid)
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	return nil
}
