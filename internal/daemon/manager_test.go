package daemon

import (
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// deadPID is above the default Linux pid_max.
const deadPID = 1 << 23

func writePID(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "albion-network.pid")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReadPIDFile(t *testing.T) {
	pid, err := ReadPIDFile(writePID(t, "1234\n"))
	require.NoError(t, err)
	assert.Equal(t, 1234, pid)

	for _, content := range []string{"", "abc", "-5", "0"} {
		_, err := ReadPIDFile(writePID(t, content))
		assert.Error(t, err, "content %q", content)
	}
}

func TestReloadDaemonNotRunning(t *testing.T) {
	err := ReloadDaemon(filepath.Join(t.TempDir(), "missing.pid"))
	assert.ErrorIs(t, err, ErrNotRunning)

	err = ReloadDaemon("")
	assert.ErrorIs(t, err, ErrNotRunning)

	err = ReloadDaemon(writePID(t, strconv.Itoa(deadPID)))
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestStopDaemonNotRunning(t *testing.T) {
	err := StopDaemon(writePID(t, strconv.Itoa(deadPID)), time.Second)
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestReloadDaemonSignalsProcess(t *testing.T) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGHUP)
	defer signal.Stop(sigs)

	require.NoError(t, ReloadDaemon(writePID(t, strconv.Itoa(os.Getpid()))))

	select {
	case sig := <-sigs:
		assert.Equal(t, syscall.SIGHUP, sig)
	case <-time.After(2 * time.Second):
		t.Fatal("SIGHUP not delivered")
	}
}

func TestProcessAlive(t *testing.T) {
	assert.True(t, processAlive(os.Getpid()))
	assert.False(t, processAlive(deadPID))
}
