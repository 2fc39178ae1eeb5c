package schedule

import (
	"testing"
	"time"

	"github.com/estateflow/publisher/internal/domain"
)

var testWindow = Window{StartHour: 9, EndHour: 21}

func day(hour, min int) time.Time {
	return time.Date(2026, 3, 10, hour, min, 0, 0, time.UTC)
}

func TestWindow_NextOpening(t *testing.T) {
	t.Run("InsideWindow_ReturnsSameInstant", func(t *testing.T) {
		at := day(14, 30)
		if got := testWindow.NextOpening(at); !got.Equal(at) {
			t.Errorf("Expected %v, got %v", at, got)
		}
	})

	t.Run("BeforeOpening_ReturnsTodayOpening", func(t *testing.T) {
		got := testWindow.NextOpening(day(7, 0))
		if want := day(9, 0); !got.Equal(want) {
			t.Errorf("Expected %v, got %v", want, got)
		}
	})

	t.Run("AfterClosing_ReturnsTomorrowOpening", func(t *testing.T) {
		got := testWindow.NextOpening(day(22, 0))
		want := day(9, 0).AddDate(0, 0, 1)
		if !got.Equal(want) {
			t.Errorf("Expected %v, got %v", want, got)
		}
	})
}

func TestCalculator_Times_FixedModes(t *testing.T) {
	calc := NewCalculator(testWindow)
	start := day(10, 0)

	t.Run("SafeMode_TenMinuteSpacing", func(t *testing.T) {
		times := calc.Times(domain.PacingSafe, 3, 10, start, 0)
		want := []time.Time{start, start.Add(10 * time.Minute), start.Add(20 * time.Minute)}
		assertTimes(t, times, want)
	})

	t.Run("NormalMode_FiveMinuteSpacing", func(t *testing.T) {
		times := calc.Times(domain.PacingNormal, 2, 10, start, 0)
		want := []time.Time{start, start.Add(5 * time.Minute)}
		assertTimes(t, times, want)
	})

	t.Run("AggressiveMode_TwoMinuteSpacing", func(t *testing.T) {
		times := calc.Times(domain.PacingAggressive, 2, 10, start, 0)
		want := []time.Time{start, start.Add(2 * time.Minute)}
		assertTimes(t, times, want)
	})

	t.Run("FixMode_UsesGivenInterval", func(t *testing.T) {
		times := calc.Times(domain.PacingFix, 2, 10, start, 45*time.Minute)
		want := []time.Time{start, start.Add(45 * time.Minute)}
		assertTimes(t, times, want)
	})

	t.Run("Deterministic_SameInputsSameOutput", func(t *testing.T) {
		a := calc.Times(domain.PacingSafe, 5, 10, start, 0)
		b := calc.Times(domain.PacingSafe, 5, 10, start, 0)
		assertTimes(t, a, b)
	})
}

func TestCalculator_Times_DailyLimitCap(t *testing.T) {
	calc := NewCalculator(testWindow)
	start := day(10, 0)

	times := calc.Times(domain.PacingNormal, 20, 5, start, 0)
	if len(times) != 5 {
		t.Fatalf("Expected 5 timestamps, got %d", len(times))
	}

	times = calc.Times(domain.PacingNormal, 3, 5, start, 0)
	if len(times) != 3 {
		t.Fatalf("Expected 3 timestamps, got %d", len(times))
	}

	if times := calc.Times(domain.PacingNormal, 0, 5, start, 0); times != nil {
		t.Errorf("Expected nil for zero tasks, got %v", times)
	}
}

func TestCalculator_Times_SmartMode(t *testing.T) {
	calc := NewCalculator(testWindow)

	t.Run("SpreadsAcrossWindow", func(t *testing.T) {
		start := day(8, 0) // before opening
		times := calc.Times(domain.PacingSmart, 4, 10, start, 0)
		if len(times) != 4 {
			t.Fatalf("Expected 4 timestamps, got %d", len(times))
		}

		open := day(9, 0)
		close := day(21, 0)
		if !times[0].Equal(open) {
			t.Errorf("Expected first at window opening %v, got %v", open, times[0])
		}
		if !times[len(times)-1].Equal(close) {
			t.Errorf("Expected last at window closing %v, got %v", close, times[len(times)-1])
		}

		step := times[1].Sub(times[0])
		for i := 1; i < len(times); i++ {
			if got := times[i].Sub(times[i-1]); got != step {
				t.Errorf("Expected even spacing %v, got %v at index %d", step, got, i)
			}
		}
	})

	t.Run("MidWindowStart_BeginsAtStart", func(t *testing.T) {
		start := day(15, 0)
		times := calc.Times(domain.PacingSmart, 3, 10, start, 0)
		if !times[0].Equal(start) {
			t.Errorf("Expected first at start %v, got %v", start, times[0])
		}
		if want := day(21, 0); !times[2].Equal(want) {
			t.Errorf("Expected last at window closing %v, got %v", want, times[2])
		}
	})

	t.Run("SingleTask_GoesOutAtStart", func(t *testing.T) {
		start := day(12, 0)
		times := calc.Times(domain.PacingSmart, 1, 10, start, 0)
		if len(times) != 1 || !times[0].Equal(start) {
			t.Errorf("Expected single timestamp at %v, got %v", start, times)
		}
	})
}

func TestCalculator_TimesBounded_StopsAtWindowClose(t *testing.T) {
	calc := NewCalculator(testWindow)

	// 30 minutes before closing: safe pacing fits only 3 of 10 tasks.
	start := day(20, 30)
	times := calc.TimesBounded(domain.PacingSafe, 10, 10, start, 0)
	if len(times) != 3 {
		t.Fatalf("Expected 3 timestamps before closing, got %d", len(times))
	}
	closing := day(21, 0)
	for _, ts := range times {
		if !ts.Before(closing) {
			t.Errorf("Expected all timestamps before %v, got %v", closing, ts)
		}
	}
}

func assertTimes(t *testing.T, got, want []time.Time) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("Expected %d timestamps, got %d", len(want), len(got))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("Timestamp %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}
