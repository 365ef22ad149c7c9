package daemon

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"
)

var (
	ErrAlreadyRunning = errors.New("albion-network: daemon already running")
	ErrNotRunning     = errors.New("albion-network: daemon not running")
)

// stopPollInterval is how often StopDaemon checks whether the process exited.
const stopPollInterval = 50 * time.Millisecond

// StopDaemon sends SIGTERM to the daemon recorded in pidFile and waits up to
// timeout for it to exit.
func StopDaemon(pidFile string, timeout time.Duration) error {
	pid, err := signalDaemon(pidFile, syscall.SIGTERM)
	if err != nil {
		return err
	}

	// Wait for the process to exit
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			return nil
		}
		time.Sleep(stopPollInterval)
	}
	return fmt.Errorf("daemon pid %d did not exit within %s", pid, timeout)
}

// ReloadDaemon asks the daemon recorded in pidFile to reload its configuration.
func ReloadDaemon(pidFile string) error {
	_, err := signalDaemon(pidFile, syscall.SIGHUP)
	return err
}

// ReadPIDFile returns the process ID stored in pidFile.
func ReadPIDFile(pidFile string) (int, error) {
	data, err := os.ReadFile(pidFile)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid PID file %s: %q", pidFile, strings.TrimSpace(string(data)))
	}
	return pid, nil
}

func signalDaemon(pidFile string, sig syscall.Signal) (int, error) {
	if pidFile == "" {
		return 0, fmt.Errorf("%w: no PID file configured", ErrNotRunning)
	}
	pid, err := ReadPIDFile(pidFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s not found", ErrNotRunning, pidFile)
		}
		return 0, err
	}
	if !processAlive(pid) {
		return 0, fmt.Errorf("%w: stale PID file %s (pid %d)", ErrNotRunning, pidFile, pid)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return 0, err
	}
	if err := process.Signal(sig); err != nil {
		return 0, fmt.Errorf("failed to signal pid %d: %w", pid, err)
	}
	return pid, nil
}

// processAlive reports whether a process with the given pid exists.
func processAlive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = process.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
