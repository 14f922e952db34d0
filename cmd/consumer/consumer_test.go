package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/gatiyaan/internal/models"
)

// fakeUpdater implements StatsUpdater for tests
type fakeUpdater struct {
	failInt   int // number of times to fail HIncrBy before succeeding
	failFloat int // number of times to fail HIncrByFloat before succeeding
	intCalls  int
	floats    map[string]float64
	ints      map[string]int64
}

func newFakeUpdater() *fakeUpdater {
	return &fakeUpdater{floats: map[string]float64{}, ints: map[string]int64{}}
}

func (f *fakeUpdater) HIncrBy(ctx context.Context, key, field string, incr int64) error {
	f.intCalls++
	if f.intCalls <= f.failInt {
		return errors.New("hincrby fail")
	}
	f.ints[key+"/"+field] += incr
	return nil
}

func (f *fakeUpdater) HIncrByFloat(ctx context.Context, key, field string, incr float64) error {
	if f.failFloat > 0 {
		f.failFloat--
		return errors.New("hincrbyfloat fail")
	}
	f.floats[key+"/"+field] += incr
	return nil
}

func TestApplyEvent_CompletedAccumulatesRevenue(t *testing.T) {
	f := newFakeUpdater()
	ev := &models.BookingEvent{
		Type:       models.EventBookingCompleted,
		BookingID:  "booking-1",
		OfferID:    "van-1",
		KWhCharged: 9.5,
		FinalCost:  114.0,
	}
	if err := applyEvent(context.Background(), f, ev); err != nil {
		t.Fatalf("expected success, got err=%v", err)
	}
	if f.ints["offer:stats:van-1/completed"] != 1 {
		t.Fatalf("expected completed=1, got %d", f.ints["offer:stats:van-1/completed"])
	}
	if f.floats["offer:stats:van-1/revenue"] != 114.0 {
		t.Fatalf("expected revenue=114, got %f", f.floats["offer:stats:van-1/revenue"])
	}
	if f.floats["offer:stats:van-1/kwh_delivered"] != 9.5 {
		t.Fatalf("expected kwh=9.5, got %f", f.floats["offer:stats:van-1/kwh_delivered"])
	}
}

func TestApplyEvent_CancelledCountsOnly(t *testing.T) {
	f := newFakeUpdater()
	ev := &models.BookingEvent{Type: models.EventBookingCancelled, OfferID: "van-2"}
	if err := applyEvent(context.Background(), f, ev); err != nil {
		t.Fatalf("expected success, got err=%v", err)
	}
	if f.ints["offer:stats:van-2/cancelled"] != 1 {
		t.Fatalf("expected cancelled=1, got %d", f.ints["offer:stats:van-2/cancelled"])
	}
	if len(f.floats) != 0 {
		t.Fatalf("expected no float updates, got %v", f.floats)
	}
}

func TestApplyEventWithRetry_SucceedsAfterRetries(t *testing.T) {
	f := newFakeUpdater()
	f.failInt = 1
	ev := &models.BookingEvent{Type: models.EventBookingCreated, OfferID: "van-1"}
	start := time.Now()
	if err := applyEventWithRetry(context.Background(), f, ev, 3, 10*time.Millisecond); err != nil {
		t.Fatalf("expected success, got err=%v", err)
	}
	if f.intCalls < 2 {
		t.Fatalf("expected a retry, got %d calls", f.intCalls)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Fatalf("expected at least one backoff")
	}
}

func TestApplyEventWithRetry_FailsWhenExhausted(t *testing.T) {
	f := newFakeUpdater()
	f.failInt = 10
	ev := &models.BookingEvent{Type: models.EventBookingCreated, OfferID: "van-1"}
	if err := applyEventWithRetry(context.Background(), f, ev, 3, time.Millisecond); err == nil {
		t.Fatalf("expected error after retries")
	}
}
