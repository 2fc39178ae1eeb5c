// Package ratelimit implements the per-account sliding-window send throttle:
// at most one message per minute and sixty per hour for each account phone.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/estateflow/publisher/internal/domain"
)

const (
	// hourlyCeiling is the maximum number of sends per identity per hour.
	hourlyCeiling = 60

	// minInterval is the minimum spacing between two sends of one identity.
	minInterval = 60 * time.Second

	window = time.Hour

	// SettingKeyEnabled is the settings key of the global kill switch.
	// When false, the limiter allows everything.
	SettingKeyEnabled = "rate_limit_enabled"

	// settingCacheTTL bounds how often the kill switch is re-read from storage.
	settingCacheTTL = 30 * time.Second
)

// Limiter is a mutex-guarded in-memory sliding-window rate limiter. State is
// local to one process; it does not coordinate across multiple workers
// operating on the same account.
type Limiter struct {
	mu    sync.Mutex
	sends map[string][]time.Time

	settings domain.SettingsRepository
	logger   zerolog.Logger

	// kill switch cache
	enabledCached  bool
	enabledFetched time.Time

	now func() time.Time
}

// New creates a new Limiter backed by the given settings storage.
func New(settings domain.SettingsRepository, logger zerolog.Logger) *Limiter {
	return &Limiter{
		sends:    make(map[string][]time.Time),
		settings: settings,
		logger:   logger.With().Str("component", "rate_limiter").Logger(),
		now:      time.Now,
	}
}

// CanSend reports whether the identity may send now, and if not, how many
// seconds to wait.
func (l *Limiter) CanSend(ctx context.Context, identity string) (bool, float64) {
	st := l.Status(ctx, identity)
	return st.Allowed, st.WaitSeconds
}

// RecordSent records a successful send for the identity.
func (l *Limiter) RecordSent(identity string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sends[identity] = append(l.pruneLocked(identity, now), now)
}

// Status returns the full limiter state for the identity.
func (l *Limiter) Status(ctx context.Context, identity string) domain.RateLimitStatus {
	now := l.now()

	if !l.enabled(ctx, now) {
		return domain.RateLimitStatus{
			Allowed:       true,
			Remaining:     hourlyCeiling,
			NextAvailable: now,
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	sends := l.pruneLocked(identity, now)
	l.sends[identity] = sends

	st := domain.RateLimitStatus{
		SentInWindow: len(sends),
		Remaining:    hourlyCeiling - len(sends),
	}

	if len(sends) >= hourlyCeiling {
		wait := window - now.Sub(sends[0])
		st.WaitSeconds = wait.Seconds()
		st.NextAvailable = now.Add(wait)
		return st
	}

	if len(sends) > 0 {
		if elapsed := now.Sub(sends[len(sends)-1]); elapsed < minInterval {
			wait := minInterval - elapsed
			st.WaitSeconds = wait.Seconds()
			st.NextAvailable = now.Add(wait)
			return st
		}
	}

	st.Allowed = true
	st.NextAvailable = now
	return st
}

// pruneLocked drops entries older than the window. Caller holds the mutex.
func (l *Limiter) pruneLocked(identity string, now time.Time) []time.Time {
	sends := l.sends[identity]
	cutoff := now.Add(-window)
	i := 0
	for i < len(sends) && !sends[i].After(cutoff) {
		i++
	}
	return sends[i:]
}

// enabled reads the global kill switch, consulting storage at most once per
// settingCacheTTL.
func (l *Limiter) enabled(ctx context.Context, now time.Time) bool {
	l.mu.Lock()
	if !l.enabledFetched.IsZero() && now.Sub(l.enabledFetched) < settingCacheTTL {
		v := l.enabledCached
		l.mu.Unlock()
		return v
	}
	l.mu.Unlock()

	v, err := l.settings.GetBool(ctx, SettingKeyEnabled, true)
	if err != nil {
		// Fail closed: keep throttling when storage is unavailable.
		l.logger.Error().Err(err).Msg("Failed to read rate limit flag, keeping limiter enabled")
		v = true
	}

	l.mu.Lock()
	l.enabledCached = v
	l.enabledFetched = now
	l.mu.Unlock()

	return v
}

// Ensure Limiter implements domain.RateLimiter interface
var _ domain.RateLimiter = (*Limiter)(nil)
