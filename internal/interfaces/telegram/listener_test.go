package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestListener(maxPerHour int, cooldown time.Duration) *Listener {
	return &Listener{
		cooldown:   cooldown,
		maxPerHour: maxPerHour,
		limiters:   make(map[string]*userLimiter),
	}
}

func TestCheckRateLimit_FirstCallForUserIsAllowed(t *testing.T) {
	l := newTestListener(10, time.Minute)
	_, limited := l.checkRateLimit("user-1")
	require.False(t, limited)
}

func TestCheckRateLimit_RejectsWithinCooldownAfterRecordedRun(t *testing.T) {
	l := newTestListener(10, time.Hour)
	l.checkRateLimit("user-1")
	l.recordRun("user-1")

	wait, limited := l.checkRateLimit("user-1")
	require.True(t, limited)
	require.Greater(t, wait, time.Duration(0))
}

func TestCheckRateLimit_AllowsAgainAfterCooldownElapses(t *testing.T) {
	l := newTestListener(10, 10*time.Millisecond)
	l.checkRateLimit("user-1")
	l.recordRun("user-1")

	time.Sleep(20 * time.Millisecond)
	_, limited := l.checkRateLimit("user-1")
	require.False(t, limited)
}

func TestCheckRateLimit_EnforcesHourlyCapIndependentlyOfCooldown(t *testing.T) {
	l := newTestListener(1, 0)

	_, limited := l.checkRateLimit("user-1")
	require.False(t, limited, "first token should be available")

	// maxPerHour=1 exhausts the bucket's only token immediately; the next
	// call should be rejected by the limiter even with zero cooldown.
	_, limited = l.checkRateLimit("user-1")
	require.True(t, limited)
}

func TestCheckRateLimit_TracksUsersIndependently(t *testing.T) {
	l := newTestListener(10, time.Hour)
	l.checkRateLimit("user-1")
	l.recordRun("user-1")

	_, limited := l.checkRateLimit("user-2")
	require.False(t, limited, "a different user must not be affected by user-1's cooldown")
}
