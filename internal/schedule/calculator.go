// Package schedule computes publication timestamps for a batch of tasks from
// an account's pacing mode. The calculator is pure: no I/O, deterministic for
// identical inputs.
package schedule

import (
	"time"

	"github.com/estateflow/publisher/internal/domain"
)

// Per-task spacing for the fixed-interval pacing modes.
const (
	safeInterval       = 10 * time.Minute
	normalInterval     = 5 * time.Minute
	aggressiveInterval = 2 * time.Minute
)

// Window is the daily publish work window, bounded by hours of day (UTC).
type Window struct {
	StartHour int
	EndHour   int
}

// OpenAt returns the window's opening instant on the given day.
func (w Window) OpenAt(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), w.StartHour, 0, 0, 0, day.Location())
}

// CloseAt returns the window's closing instant on the given day.
func (w Window) CloseAt(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), w.EndHour, 0, 0, 0, day.Location())
}

// Contains reports whether t falls inside the window on its own day.
func (w Window) Contains(t time.Time) bool {
	h := t.Hour()
	return h >= w.StartHour && h < w.EndHour
}

// NextOpening returns the next instant at or after t when the window is open:
// t itself if inside, today's opening if before it, tomorrow's otherwise.
func (w Window) NextOpening(t time.Time) time.Time {
	if w.Contains(t) {
		return t
	}
	open := w.OpenAt(t)
	if t.Before(open) {
		return open
	}
	return w.OpenAt(t.AddDate(0, 0, 1))
}

// Calculator turns (mode, task count, daily limit, start time) into an ordered
// list of publication timestamps.
type Calculator struct {
	window Window
}

// NewCalculator creates a calculator bound to the given work window.
func NewCalculator(window Window) *Calculator {
	return &Calculator{window: window}
}

// Window returns the calculator's work window.
func (c *Calculator) Window() Window {
	return c.window
}

// interval returns the fixed per-task spacing for mode. fixInterval is only
// consulted for PacingFix.
func interval(mode domain.PacingMode, fixInterval time.Duration) time.Duration {
	switch mode {
	case domain.PacingSafe:
		return safeInterval
	case domain.PacingNormal:
		return normalInterval
	case domain.PacingAggressive:
		return aggressiveInterval
	case domain.PacingFix:
		if fixInterval <= 0 {
			return safeInterval
		}
		return fixInterval
	default:
		return safeInterval
	}
}

// Times returns publication timestamps for totalTasks tasks starting at start.
// The result is capped at min(totalTasks, dailyLimit); excess tasks are the
// caller's responsibility (next-day carry-over). Smart mode spreads the tasks
// evenly across the work window instead of fixed spacing.
func (c *Calculator) Times(mode domain.PacingMode, totalTasks, dailyLimit int, start time.Time, fixInterval time.Duration) []time.Time {
	n := cap2(totalTasks, dailyLimit)
	if n <= 0 {
		return nil
	}

	if mode == domain.PacingSmart {
		return c.smartTimes(n, start)
	}

	step := interval(mode, fixInterval)
	times := make([]time.Time, 0, n)
	t := start
	for i := 0; i < n; i++ {
		times = append(times, t)
		t = t.Add(step)
	}
	return times
}

// TimesBounded behaves like Times for the fixed-interval modes but never
// schedules past the window's closing hour: it stops early instead.
func (c *Calculator) TimesBounded(mode domain.PacingMode, totalTasks, dailyLimit int, start time.Time, fixInterval time.Duration) []time.Time {
	n := cap2(totalTasks, dailyLimit)
	if n <= 0 {
		return nil
	}

	if mode == domain.PacingSmart {
		return c.smartTimes(n, start)
	}

	step := interval(mode, fixInterval)
	closing := c.window.CloseAt(start)

	times := make([]time.Time, 0, n)
	t := start
	for i := 0; i < n; i++ {
		if !t.Before(closing) {
			break
		}
		times = append(times, t)
		t = t.Add(step)
	}
	return times
}

// smartTimes spreads n tasks evenly across the work window of start's day:
// first at window start, last at window end. A single task goes out
// immediately at start.
func (c *Calculator) smartTimes(n int, start time.Time) []time.Time {
	if n == 1 {
		return []time.Time{start}
	}

	open := c.window.OpenAt(start)
	if start.After(open) {
		open = start
	}
	close := c.window.CloseAt(start)
	if !close.After(open) {
		// Window already over for today; everything goes out at once.
		times := make([]time.Time, n)
		for i := range times {
			times[i] = open
		}
		return times
	}

	step := close.Sub(open) / time.Duration(n-1)
	times := make([]time.Time, 0, n)
	for i := 0; i < n-1; i++ {
		times = append(times, open.Add(step*time.Duration(i)))
	}
	times = append(times, close)
	return times
}

func cap2(totalTasks, dailyLimit int) int {
	if dailyLimit < totalTasks {
		return dailyLimit
	}
	return totalTasks
}
