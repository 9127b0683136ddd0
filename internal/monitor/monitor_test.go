package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resolvarr/resolvarr/internal/config"
)

type stubChecker struct {
	healthy bool
}

func (s *stubChecker) Healthy(ctx context.Context) bool { return s.healthy }
func (s *stubChecker) BaseURL() string                  { return "http://upstream:11470" }

func TestMonitor_Check(t *testing.T) {
	checker := &stubChecker{healthy: true}
	m := New(checker, nil, config.MonitorConfig{}, nil)

	m.check(context.Background())

	status := m.Status()
	assert.True(t, status.Healthy)
	assert.False(t, status.CheckedAt.IsZero())
	assert.Equal(t, 0, status.ConsecutiveFailures)
}

func TestMonitor_ConsecutiveFailures(t *testing.T) {
	checker := &stubChecker{healthy: false}
	m := New(checker, nil, config.MonitorConfig{}, nil)

	ctx := context.Background()
	m.check(ctx)
	m.check(ctx)
	assert.Equal(t, 2, m.Status().ConsecutiveFailures)

	// A success resets the counter.
	checker.healthy = true
	m.check(ctx)
	status := m.Status()
	assert.True(t, status.Healthy)
	assert.Equal(t, 0, status.ConsecutiveFailures)
}

func TestMonitor_StartDisabled(t *testing.T) {
	m := New(&stubChecker{}, nil, config.MonitorConfig{Enabled: false}, nil)

	require.NoError(t, m.Start(context.Background()))
	assert.Nil(t, m.cron)
	m.Stop()
}

func TestMonitor_StartInvalidCron(t *testing.T) {
	m := New(&stubChecker{}, nil, config.MonitorConfig{
		Enabled: true,
		Cron:    "not a cron expr",
	}, nil)

	assert.Error(t, m.Start(context.Background()))
}

func TestMonitor_StartAndStop(t *testing.T) {
	checker := &stubChecker{healthy: true}
	m := New(checker, nil, config.MonitorConfig{
		Enabled: true,
		Cron:    "*/1 * * * *",
	}, nil)

	require.NoError(t, m.Start(context.Background()))

	// Start primes the status asynchronously.
	require.Eventually(t, func() bool {
		return !m.Status().CheckedAt.IsZero()
	}, 2*time.Second, 10*time.Millisecond)

	m.Stop()
}

func TestStatus_ZeroValue(t *testing.T) {
	m := New(&stubChecker{}, nil, config.MonitorConfig{}, nil)

	status := m.Status()
	assert.False(t, status.Healthy)
	assert.True(t, status.CheckedAt.IsZero())
}
