package sched

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestChainFiresArrivalThenCompletion(t *testing.T) {
	c := New(5*time.Millisecond, 5*time.Millisecond)
	var arrived, completed atomic.Int32
	c.Schedule("b1", 1, func() { arrived.Add(1) }, func() { completed.Add(1) })

	deadline := time.Now().Add(2 * time.Second)
	for completed.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	if arrived.Load() != 1 {
		t.Fatalf("expected one arrival, got %d", arrived.Load())
	}
	if completed.Load() != 1 {
		t.Fatalf("expected one completion, got %d", completed.Load())
	}
	if c.Active("b1") {
		t.Fatal("chain must be cleared after completion")
	}
}

func TestCancelPreventsStaleCompletion(t *testing.T) {
	c := New(10*time.Millisecond, 10*time.Millisecond)
	var completed atomic.Int32
	c.Schedule("b1", 1, nil, func() { completed.Add(1) })
	if !c.Cancel("b1") {
		t.Fatal("expected live chain to cancel")
	}
	time.Sleep(100 * time.Millisecond)
	if completed.Load() != 0 {
		t.Fatalf("completion fired after cancel: %d", completed.Load())
	}
	if c.Cancel("b1") {
		t.Fatal("second cancel must report no chain")
	}
}

func TestCancelBetweenArrivalAndCompletion(t *testing.T) {
	c := New(time.Millisecond, 200*time.Millisecond)
	var completed atomic.Int32
	arrivedCh := make(chan struct{}, 1)
	c.Schedule("b1", 1, func() { arrivedCh <- struct{}{} }, func() { completed.Add(1) })

	select {
	case <-arrivedCh:
	case <-time.After(2 * time.Second):
		t.Fatal("arrival never fired")
	}
	if !c.Cancel("b1") {
		t.Fatal("expected chain live during dwell")
	}
	time.Sleep(300 * time.Millisecond)
	if completed.Load() != 0 {
		t.Fatalf("completion fired after cancel: %d", completed.Load())
	}
}
