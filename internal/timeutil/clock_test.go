package timeutil

import (
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	clock := RealClock{}
	before := time.Now()
	now := clock.Now()
	after := time.Now()

	if now.Before(before) || now.After(after) {
		t.Errorf("Now() = %v, expected between %v and %v", now, before, after)
	}
}

func TestRealClock_Since(t *testing.T) {
	clock := RealClock{}
	past := time.Now().Add(-time.Second)
	if d := clock.Since(past); d < time.Second {
		t.Errorf("Since() returned %v, expected >= 1s", d)
	}
}

func TestMockClock_SetAdvance(t *testing.T) {
	start := time.Unix(1000, 0)
	clock := NewMockClock(start)

	if !clock.Now().Equal(start) || !clock.Now().Equal(start) {
		t.Error("a mock clock without a step should not move on its own")
	}
	clock.Advance(time.Minute)
	if got := clock.Since(start); got != time.Minute {
		t.Errorf("Since() = %v, want 1m", got)
	}
	later := time.Unix(5000, 0)
	clock.Set(later)
	if !clock.Now().Equal(later) {
		t.Errorf("Now() after Set = %v", clock.Now())
	}
}

func TestSteppingClock(t *testing.T) {
	start := time.Unix(0, 100)
	clock := NewSteppingClock(start, time.Nanosecond)

	a, b, c := clock.Now(), clock.Now(), clock.Now()
	if a.UnixNano() != 100 || b.UnixNano() != 101 || c.UnixNano() != 102 {
		t.Errorf("got %d %d %d, want 100 101 102", a.UnixNano(), b.UnixNano(), c.UnixNano())
	}
}
