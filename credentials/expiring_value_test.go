package credentials

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestExpiringValueFreshNoRefresh(t *testing.T) {
	var calls int32
	v := NewExpiringValue(1*time.Minute, func(ctx context.Context) (int, time.Time, error) {
		atomic.AddInt32(&calls, 1)
		return 1, time.Now().Add(time.Hour), nil
	})
	v.Now = func() time.Time { return time.Unix(0, 0) }
	v.state = stateFresh
	v.value = 42
	v.expiresAt = time.Unix(0, 0).Add(10 * time.Minute) // remaining 10m > threshold 1m

	got, err := v.GetValue(context.Background())
	if err != nil || got != 42 {
		t.Fatalf("got %v, %v", got, err)
	}
	if calls != 0 {
		t.Fatalf("expected no refresh, got %d calls", calls)
	}
}

func TestExpiringValueWithinThresholdRefreshesInBackground(t *testing.T) {
	refreshed := make(chan struct{})
	v := NewExpiringValue(1*time.Minute, func(ctx context.Context) (int, time.Time, error) {
		defer close(refreshed)
		return 2, time.Now().Add(time.Hour), nil
	})
	base := time.Unix(0, 0)
	v.Now = func() time.Time { return base }
	v.state = stateFresh
	v.value = 1
	v.expiresAt = base.Add(30 * time.Second) // within 1m threshold, not yet expired

	got, err := v.GetValue(context.Background())
	if err != nil || got != 1 {
		t.Fatalf("expected immediate old value, got %v, %v", got, err)
	}

	select {
	case <-refreshed:
	case <-time.After(time.Second):
		t.Fatal("expected background refresh to run")
	}
}

func TestExpiringValueExpiredAwaitsRefresh(t *testing.T) {
	v := NewExpiringValue(time.Minute, func(ctx context.Context) (int, time.Time, error) {
		return 99, time.Now().Add(time.Hour), nil
	})
	base := time.Unix(0, 0)
	v.Now = func() time.Time { return base }
	v.state = stateFresh
	v.expiresAt = base.Add(-time.Second) // already expired

	got, err := v.GetValue(context.Background())
	if err != nil || got != 99 {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestExpiringValueSingleFlight(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	v := NewExpiringValue(time.Minute, func(ctx context.Context) (int, time.Time, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 7, time.Now().Add(time.Hour), nil
	})

	const n = 5
	results := make(chan int, n)
	for i := 0; i < n; i++ {
		go func() {
			got, err := v.GetValue(context.Background())
			if err != nil {
				t.Error(err)
				return
			}
			results <- got
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)

	for i := 0; i < n; i++ {
		if got := <-results; got != 7 {
			t.Fatalf("unexpected value %d", got)
		}
	}
	if calls != 1 {
		t.Fatalf("expected exactly one refresh invocation, got %d", calls)
	}
}

func TestExpiringValueCancelledWaiterDoesNotCancelOthers(t *testing.T) {
	release := make(chan struct{})
	v := NewExpiringValue(time.Minute, func(ctx context.Context) (int, time.Time, error) {
		<-release
		return 5, time.Now().Add(time.Hour), nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancelled := make(chan error, 1)
	go func() {
		_, err := v.GetValue(ctx)
		cancelled <- err
	}()

	survivor := make(chan int, 1)
	go func() {
		got, _ := v.GetValue(context.Background())
		survivor <- got
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	if err := <-cancelled; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	close(release)
	if got := <-survivor; got != 5 {
		t.Fatalf("expected surviving waiter to receive refreshed value, got %d", got)
	}
}

func TestExpiringValueFailurePropagates(t *testing.T) {
	wantErr := errors.New("refresh failed")
	v := NewExpiringValue(time.Minute, func(ctx context.Context) (int, time.Time, error) {
		return 0, time.Time{}, wantErr
	})

	_, err := v.GetValue(context.Background())
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}

	// Subsequent calls observe the Failed state directly.
	_, err = v.GetValue(context.Background())
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected cached failure %v, got %v", wantErr, err)
	}
}
