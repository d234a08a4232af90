package realtime

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/drumline-app/drumline/internal/domain"
)

func TestMonitor_DrivesSweepCycles(t *testing.T) {
	h := newHubHarness(t, 100)

	h.dial(t, uuid.New(), domain.RoleTeacher, 1) // never pongs
	require.True(t, waitForClientCount(h.hub, 1))

	fakeClock := clockwork.NewFakeClock()
	monitor := NewMonitor(h.hub, fakeClock, 30*time.Second)
	monitor.Start()
	t.Cleanup(monitor.Stop)

	// Wait for the sweep loop to install its ticker, then drive two cycles
	fakeClock.BlockUntil(1)
	fakeClock.Advance(30 * time.Second)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 1, h.hub.ClientCount(), "first cycle only probes")

	fakeClock.Advance(30 * time.Second)
	require.True(t, waitForClientCount(h.hub, 0), "second cycle evicts the silent connection")
}

func TestMonitor_StopHaltsSweeping(t *testing.T) {
	h := newHubHarness(t, 100)

	h.dial(t, uuid.New(), domain.RoleTeacher, 1)
	require.True(t, waitForClientCount(h.hub, 1))

	fakeClock := clockwork.NewFakeClock()
	monitor := NewMonitor(h.hub, fakeClock, 30*time.Second)
	monitor.Start()
	fakeClock.BlockUntil(1)
	monitor.Stop()

	// Advancing after Stop produces no sweeps, so the silent connection
	// is never evicted
	fakeClock.Advance(30 * time.Second)
	fakeClock.Advance(30 * time.Second)
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, 1, h.hub.ClientCount())
}
