package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gofrs/flock"

	"seedvault/internal/config"
	"seedvault/internal/driver"
	"seedvault/internal/logging"
	"seedvault/internal/tasks"
)

// Daemon coordinates background processing and enforces single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *tasks.Store
	driver *driver.Manager

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *tasks.Store, logger *slog.Logger, drv *driver.Manager) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil || drv == nil {
		return nil, errors.New("daemon requires config, store, logger, and driver")
	}

	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		driver:   drv,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock, recovers tasks interrupted by the last
// shutdown, and launches the driver loop.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another seedvault instance is already running")
	}

	if reset, err := d.store.ResetStuck(ctx); err != nil {
		d.logger.Warn("failed to reset interrupted tasks", logging.Error(err))
	} else if reset > 0 {
		d.logger.Info("interrupted tasks reset for retry", logging.Int64("count", reset))
	}

	if err := d.driver.Start(ctx); err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("start driver: %w", err)
	}
	d.running.Store(true)
	d.logger.Info("seedvault daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops scheduling new ticks, lets in-flight work finish naturally, and
// releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.driver.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("seedvault daemon stopped")
}

// Close stops processing and releases the store connection.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether the daemon is processing.
func (d *Daemon) Running() bool {
	return d.running.Load()
}
