package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zenith-events/zenith/internal/domain"
)

func TestReconcileSQL_CountsOnlySeatHolders(t *testing.T) {
	sql := reconcileSQL()

	require.Contains(t, sql, "'approved', 'attended'")
	require.NotContains(t, sql, "'pending'")
	require.NotContains(t, sql, "'rejected'")

	// only drifted rows are touched
	require.Contains(t, sql, "e.attendees <> sub.actual")
	// events with zero remaining requests are reset, not skipped
	require.Contains(t, sql, "LEFT JOIN")
	require.Contains(t, sql, "COALESCE(cnt.actual, 0)")
}

func TestAttendingStatuses_MatchDomainStateMachine(t *testing.T) {
	for _, s := range attendingStatuses {
		require.True(t, s.Valid(), "status %q", s)
		require.True(t, s.Active(), "status %q must hold a seat", s)
	}
	require.NotContains(t, attendingStatuses, domain.RequestPending)
	require.NotContains(t, attendingStatuses, domain.RequestRejected)
}

func TestNewReconciler_DefaultInterval(t *testing.T) {
	r := NewReconciler(nil, 0)
	require.Equal(t, 5*time.Minute, r.interval)

	r = NewReconciler(nil, time.Second)
	require.Equal(t, time.Second, r.interval)
}
