package timeutil

import (
	"context"
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

func TestSleep_RealClock(t *testing.T) {
	start := time.Now()
	if err := Sleep(context.Background(), RealClock{}, 10*time.Millisecond); err != nil {
		t.Fatalf("Sleep() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("Sleep() returned after %v, want >= 10ms", elapsed)
	}
}

func TestSleep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Sleep(ctx, RealClock{}, time.Hour)
	if err != context.Canceled {
		t.Errorf("Sleep() error = %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Error("cancelled Sleep() did not return promptly")
	}
}

func TestSleep_ZeroDuration(t *testing.T) {
	clock := NewMockClock(time.Unix(0, 0))
	if err := Sleep(context.Background(), clock, 0); err != nil {
		t.Fatalf("Sleep() error = %v", err)
	}
	if n := len(clock.Sleeps()); n != 0 {
		t.Errorf("zero Sleep() consulted the clock %d times", n)
	}
}

func TestMockClock_RecordsAndAdvances(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)

	for i := 0; i < 3; i++ {
		if err := Sleep(context.Background(), clock, 2*time.Second); err != nil {
			t.Fatalf("Sleep() error = %v", err)
		}
	}

	sleeps := clock.Sleeps()
	if len(sleeps) != 3 {
		t.Fatalf("recorded %d sleeps, want 3", len(sleeps))
	}
	for i, d := range sleeps {
		if d != 2*time.Second {
			t.Errorf("sleep[%d] = %v, want 2s", i, d)
		}
	}
	if got := clock.Now(); !got.Equal(start.Add(6 * time.Second)) {
		t.Errorf("Now() = %v, want %v", got, start.Add(6*time.Second))
	}
}
