// Package monitor runs recurring background checks against the upstream
// streaming server: liveness probes and resolution history pruning.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/resolvarr/resolvarr/internal/config"
	"github.com/resolvarr/resolvarr/internal/repository"
)

// HealthChecker reports upstream liveness. Satisfied by resolver.Resolver.
type HealthChecker interface {
	Healthy(ctx context.Context) bool
	BaseURL() string
}

// Status is a snapshot of the most recent upstream check.
type Status struct {
	// Healthy is the last observed liveness; false until the first check.
	Healthy bool `json:"healthy"`
	// CheckedAt is when the last check ran; zero before the first check.
	CheckedAt time.Time `json:"checked_at"`
	// Latency is the duration of the last check.
	Latency time.Duration `json:"latency"`
	// ConsecutiveFailures counts failed checks since the last success.
	ConsecutiveFailures int `json:"consecutive_failures"`
}

// Monitor schedules upstream health checks on a cron expression and exposes
// the latest result to the health API.
type Monitor struct {
	checker HealthChecker
	resRepo repository.ResolutionRepository
	cfg     config.MonitorConfig
	logger  *slog.Logger

	cron *cron.Cron

	mu     sync.RWMutex
	status Status
}

// New creates a Monitor. resRepo may be nil when history pruning is not
// wanted.
func New(checker HealthChecker, resRepo repository.ResolutionRepository, cfg config.MonitorConfig, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		checker: checker,
		resRepo: resRepo,
		cfg:     cfg,
		logger:  logger,
	}
}

// Start registers the cron entries and begins running them. It is a no-op
// when the monitor is disabled.
func (m *Monitor) Start(ctx context.Context) error {
	if !m.cfg.Enabled {
		m.logger.Info("upstream monitor disabled")
		return nil
	}

	c := cron.New()

	if _, err := c.AddFunc(m.cfg.Cron, func() { m.check(ctx) }); err != nil {
		return fmt.Errorf("scheduling health check: %w", err)
	}

	if m.resRepo != nil && m.cfg.HistoryRetention > 0 {
		// Prune once a day; retention granularity does not warrant more.
		if _, err := c.AddFunc("30 3 * * *", func() { m.prune(ctx) }); err != nil {
			return fmt.Errorf("scheduling history pruning: %w", err)
		}
	}

	c.Start()
	m.cron = c

	m.logger.Info("upstream monitor started",
		slog.String("cron", m.cfg.Cron),
		slog.String("upstream", m.checker.BaseURL()),
	)

	// Prime the status so the health endpoint has data immediately.
	go m.check(ctx)

	return nil
}

// Stop halts scheduled checks and waits for running ones to finish.
func (m *Monitor) Stop() {
	if m.cron == nil {
		return
	}
	<-m.cron.Stop().Done()
	m.logger.Info("upstream monitor stopped")
}

// Status returns the latest check snapshot.
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) check(ctx context.Context) {
	start := time.Now()
	healthy := m.checker.Healthy(ctx)
	latency := time.Since(start)

	m.mu.Lock()
	failures := m.status.ConsecutiveFailures
	if healthy {
		failures = 0
	} else {
		failures++
	}
	m.status = Status{
		Healthy:             healthy,
		CheckedAt:           time.Now(),
		Latency:             latency,
		ConsecutiveFailures: failures,
	}
	m.mu.Unlock()

	if healthy {
		m.logger.Debug("upstream healthy", slog.Duration("latency", latency))
	} else {
		m.logger.Warn("upstream unhealthy",
			slog.Duration("latency", latency),
			slog.Int("consecutive_failures", failures),
		)
	}
}

func (m *Monitor) prune(ctx context.Context) {
	cutoff := time.Now().Add(-m.cfg.HistoryRetention)
	deleted, err := m.resRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		m.logger.Error("pruning resolution history failed", slog.String("error", err.Error()))
		return
	}
	if deleted > 0 {
		m.logger.Info("pruned resolution history",
			slog.Int64("deleted", deleted),
			slog.Time("cutoff", cutoff),
		)
	}
}
