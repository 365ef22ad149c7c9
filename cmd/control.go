package cmd

import (
	"fmt"
	"time"

	"github.com/zMarques/albion-network/internal/config"
	"github.com/zMarques/albion-network/internal/daemon"
)

// Controller signals a running daemon. Mocked in tests.
type Controller interface {
	Stop(timeout time.Duration) error
	Reload() error
}

// pidController reaches the daemon through its PID file.
type pidController struct {
	pidFile string
}

func (c pidController) Stop(timeout time.Duration) error {
	return daemon.StopDaemon(c.pidFile, timeout)
}

func (c pidController) Reload() error {
	return daemon.ReloadDaemon(c.pidFile)
}

// newController resolves the PID file from the flag or the configuration.
func newController() (Controller, error) {
	if pidFile != "" {
		return pidController{pidFile: pidFile}, nil
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Control.PIDFile == "" {
		return nil, fmt.Errorf("no PID file: pass --pidfile or set control.pid_file")
	}
	return pidController{pidFile: cfg.Control.PIDFile}, nil
}
