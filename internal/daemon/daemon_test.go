package daemon

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logpkg "github.com/zMarques/albion-network/internal/log"
	"github.com/zMarques/albion-network/pkg/decoder"
	"github.com/zMarques/albion-network/pkg/sniffer"
)

type fakeRunner struct {
	done     chan struct{}
	once     sync.Once
	stops    atomic.Int32
	handler  sniffer.Handler
	optCount int
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{done: make(chan struct{})}
}

func (f *fakeRunner) Stop() {
	f.stops.Add(1)
	f.exit()
}

func (f *fakeRunner) exit() {
	f.once.Do(func() { close(f.done) })
}

func (f *fakeRunner) Done() <-chan struct{} { return f.done }

func (f *fakeRunner) Interfaces() []string { return []string{"eth0"} }

func (f *fakeRunner) Stats() sniffer.Stats { return sniffer.Stats{Workers: 1, Messages: 3} }

const baseConfig = `
albion-network:
  log:
    level: %s
    format: text
  metrics:
    enabled: false
  capture:
    target_port: %d
  reporter:
    format: text
    max_dump: 4
`

func writeConfig(t *testing.T, path, level string, port int) {
	t.Helper()
	content := []byte(fmt.Sprintf(baseConfig, level, port))
	require.NoError(t, os.WriteFile(path, content, 0644))
}

// newTestDaemon builds a daemon whose sniffer is replaced by a fake.
func newTestDaemon(t *testing.T) (*Daemon, *fakeRunner, string) {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yml")
	writeConfig(t, configPath, "info", 5056)

	pidFile := filepath.Join(tmpDir, "albion-network.pid")
	d, err := New(configPath, pidFile)
	require.NoError(t, err)

	fake := newFakeRunner()
	var out bytes.Buffer
	d.out = &out
	d.listen = func(_ context.Context, h sniffer.Handler, opts ...sniffer.Option) (runner, error) {
		fake.handler = h
		fake.optCount = len(opts)
		return fake, nil
	}
	t.Cleanup(d.Stop)
	return d, fake, pidFile
}

func TestDaemon_StartStopIntegration(t *testing.T) {
	d, fake, pidFile := newTestDaemon(t)

	require.NoError(t, d.Start())

	// PID file holds our pid
	pid, err := ReadPIDFile(pidFile)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)

	// The reporter is wired as the sniffer handler
	require.NotNil(t, fake.handler)
	assert.Greater(t, fake.optCount, 0)
	fake.handler(decoder.Message{Type: "raw", Raw: []byte{0xca, 0xfe}})
	assert.Contains(t, d.out.(*bytes.Buffer).String(), "dump=cafe")
	assert.Equal(t, 3, int(d.Stats().Messages))

	runDone := make(chan error, 1)
	go func() {
		runDone <- d.Run()
	}()

	d.TriggerShutdown()

	select {
	case err := <-runDone:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop within timeout")
	}

	assert.Equal(t, int32(1), fake.stops.Load())
	_, err = os.Stat(pidFile)
	assert.True(t, os.IsNotExist(err), "PID file was not removed after shutdown")

	// Stop is idempotent
	d.Stop()
	assert.Equal(t, int32(1), fake.stops.Load())
}

func TestDaemon_RunReturnsWhenSnifferExits(t *testing.T) {
	d, fake, _ := newTestDaemon(t)
	require.NoError(t, d.Start())

	runDone := make(chan error, 1)
	go func() {
		runDone <- d.Run()
	}()

	fake.exit()

	select {
	case err := <-runDone:
		assert.ErrorIs(t, err, ErrSnifferStopped)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop within timeout")
	}
}

func TestDaemon_StartFailureCleansUp(t *testing.T) {
	d, _, pidFile := newTestDaemon(t)
	d.listen = func(context.Context, sniffer.Handler, ...sniffer.Option) (runner, error) {
		return nil, sniffer.ErrNoInterfaces
	}

	err := d.Start()
	require.Error(t, err)
	assert.ErrorIs(t, err, sniffer.ErrNoInterfaces)

	_, statErr := os.Stat(pidFile)
	assert.True(t, os.IsNotExist(statErr), "PID file left behind after failed start")
}

func TestDaemon_RefusesLivePIDFile(t *testing.T) {
	d, _, pidFile := newTestDaemon(t)
	require.NoError(t, os.WriteFile(pidFile, []byte(strconv.Itoa(os.Getpid())), 0644))

	err := d.Start()
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	// Someone else's PID file is left alone
	_, statErr := os.Stat(pidFile)
	assert.NoError(t, statErr)
}

func TestDaemon_MetricsServer(t *testing.T) {
	d, _, _ := newTestDaemon(t)
	d.config.Metrics.Enabled = true
	d.config.Metrics.Listen = "127.0.0.1:0"

	require.NoError(t, d.Start())
	require.NotNil(t, d.metricsServer)

	resp, err := http.Get("http://" + d.metricsServer.Addr() + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDaemon_ReloadLogLevel(t *testing.T) {
	d, _, _ := newTestDaemon(t)
	require.NoError(t, d.Start())
	assert.Equal(t, slog.LevelInfo, logpkg.Level())

	writeConfig(t, d.configPath, "debug", 5056)
	require.NoError(t, d.Reload())

	assert.Equal(t, "debug", d.config.Log.Level)
	assert.Equal(t, slog.LevelDebug, logpkg.Level())
}

func TestDaemon_ReloadKeepsColdSettings(t *testing.T) {
	d, fake, _ := newTestDaemon(t)
	require.NoError(t, d.Start())

	writeConfig(t, d.configPath, "info", 6000)
	require.NoError(t, d.Reload())

	// Capture settings need a restart; the running sniffer is untouched.
	assert.Equal(t, 5056, d.config.Capture.TargetPort)
	assert.Equal(t, int32(0), fake.stops.Load())
}

func TestDaemon_ReloadInvalidConfig(t *testing.T) {
	d, _, _ := newTestDaemon(t)
	require.NoError(t, d.Start())

	writeConfig(t, d.configPath, "verbose", 5056)
	err := d.Reload()
	require.Error(t, err)
	assert.Equal(t, "info", d.config.Log.Level)
	assert.Equal(t, slog.LevelInfo, logpkg.Level())
}

func TestNewInvalidConfig(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing.yml"), "")
	assert.Error(t, err)
}

func TestNewUsesConfiguredPIDFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yml")
	pidFile := filepath.Join(tmpDir, "from-config.pid")
	content := "albion-network:\n  control:\n    pid_file: " + pidFile + "\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	d, err := New(configPath, "")
	require.NoError(t, err)
	assert.Equal(t, pidFile, d.pidFile)

	d, err = New(configPath, "/tmp/override.pid")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/override.pid", d.pidFile)
}

func TestSnifferOptionsRejectedByListen(t *testing.T) {
	d, _, _ := newTestDaemon(t)
	d.config.Queue.DropPolicy = "sideways"

	_, err := sniffer.Listen(context.Background(), func(decoder.Message) {}, snifferOptions(d.config)...)
	assert.True(t, errors.Is(err, sniffer.ErrInvalid))
}
