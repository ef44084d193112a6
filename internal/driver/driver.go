package driver

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"seedvault/internal/config"
	"seedvault/internal/logging"
	"seedvault/internal/notifications"
	"seedvault/internal/qbittorrent"
	"seedvault/internal/rclone"
	"seedvault/internal/rules"
	"seedvault/internal/tasks"
)

// Source is the download-client capability the driver depends on.
type Source interface {
	ListCompleted(ctx context.Context) ([]qbittorrent.Torrent, error)
	Delete(ctx context.Context, hash string, deleteFiles bool) error
}

// Manager owns the periodic tick loop and the per-task stage execution.
type Manager struct {
	cfg      *config.Config
	store    *tasks.Store
	source   Source
	transfer rclone.Transfer
	notifier notifications.Service
	logger   *slog.Logger
	rules    []rules.Rule

	pollInterval time.Duration

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup

	tickActive atomic.Bool
}

// New constructs a driver manager. Rule warnings are logged once here; a
// config with unusable rules still drives tasks, it just resolves every
// destination through the synthesized fallback.
func New(cfg *config.Config, store *tasks.Store, source Source, transfer rclone.Transfer, notifier notifications.Service, logger *slog.Logger) *Manager {
	logger = logging.NewComponentLogger(logger, "driver")

	ruleList, warnings := cfg.CompiledRules()
	for _, warning := range warnings {
		logger.Warn("archive rule problem", logging.String("detail", warning))
	}

	return &Manager{
		cfg:          cfg,
		store:        store,
		source:       source,
		transfer:     transfer,
		notifier:     notifier,
		logger:       logger,
		rules:        ruleList,
		pollInterval: time.Duration(cfg.Workflow.PollIntervalMS) * time.Millisecond,
	}
}

// Rules exposes the compiled rule list (used by the resolve CLI command).
func (m *Manager) Rules() []rules.Rule {
	return m.rules
}

// Start begins background processing: one immediate tick, then one per poll
// interval. A tick still running when the next is due is skipped, never run
// in parallel. Ticks execute on a context detached from the caller's
// cancellation; shutdown is signaled separately so an interrupt never kills
// an in-flight transfer.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("driver already running")
	}
	stop := make(chan struct{})
	m.stop = stop
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	go m.loop(context.WithoutCancel(ctx), stop)
	return nil
}

// Stop stops scheduling new ticks and waits for the in-flight tick to finish
// naturally. External-process invocations run to completion or their own
// timeout.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	stop := m.stop
	m.running = false
	m.stop = nil
	m.mu.Unlock()

	close(stop)
	m.wg.Wait()
}

func (m *Manager) loop(ctx context.Context, stop <-chan struct{}) {
	defer m.wg.Done()

	m.runGuardedTick(ctx)

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.runGuardedTick(ctx)
		}
	}
}

func (m *Manager) runGuardedTick(ctx context.Context) {
	if !m.tickActive.CompareAndSwap(false, true) {
		m.logger.Warn("previous tick still running, skipping",
			logging.String(logging.FieldEventType, "tick_skipped"))
		return
	}
	defer m.tickActive.Store(false)

	if err := m.Tick(ctx); err != nil {
		m.logger.Error("tick failed", logging.Error(err))
	}
}
