package connection

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFixedScheduleExhaustion(t *testing.T) {
	s := FixedSchedule(time.Millisecond, 2*time.Millisecond)
	if d, ok := s.Next(); !ok || d != time.Millisecond {
		t.Fatalf("first: got (%v,%v)", d, ok)
	}
	if d, ok := s.Next(); !ok || d != 2*time.Millisecond {
		t.Fatalf("second: got (%v,%v)", d, ok)
	}
	if _, ok := s.Next(); ok {
		t.Fatalf("expected exhaustion")
	}
}

func TestExponentialScheduleGrowsAndCaps(t *testing.T) {
	s := ExponentialSchedule(time.Millisecond, 2, 5*time.Millisecond)
	d1, _ := s.Next()
	d2, _ := s.Next()
	d3, _ := s.Next()
	d4, _ := s.Next()
	if d1 != time.Millisecond || d2 != 2*time.Millisecond || d3 != 4*time.Millisecond {
		t.Fatalf("growth: got %v %v %v", d1, d2, d3)
	}
	if d4 != 5*time.Millisecond {
		t.Errorf("expected cap at 5ms, got %v", d4)
	}
}

func TestRetryOpStopsOnPermanentError(t *testing.T) {
	calls := 0
	permanent := &ApplicationError{Err: errors.New("boom")}
	_, err := retryOp(context.Background(), FixedSchedule(time.Millisecond), func() (int, error) {
		calls++
		return 0, permanent
	})
	if !errors.Is(err, permanent) {
		t.Errorf("got %v, want permanent error", err)
	}
	if calls != 1 {
		t.Errorf("expected exactly one attempt, got %d", calls)
	}
}

func TestRetryOpRetriesTransientUntilSuccess(t *testing.T) {
	calls := 0
	_, err := retryOp(context.Background(), FixedSchedule(time.Millisecond, time.Millisecond), func() (int, error) {
		calls++
		if calls < 3 {
			return 0, &TransportError{Status: StatusUnavailable}
		}
		return 99, nil
	})
	if err != nil {
		t.Fatalf("retryOp: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestRetryOpGivesUpOnExhaustion(t *testing.T) {
	calls := 0
	_, err := retryOp(context.Background(), FixedSchedule(time.Millisecond), func() (int, error) {
		calls++
		return 0, &TransportError{Status: StatusUnavailable}
	})
	if !IsTransient(err) {
		t.Errorf("expected final error still classified transient, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 attempts (1 + 1 retry), got %d", calls)
	}
}

func TestRetryOpRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := retryOp(ctx, FixedSchedule(time.Hour), func() (int, error) {
		return 0, &TransportError{Status: StatusUnavailable}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
