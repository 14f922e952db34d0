package jobs

import (
	"testing"

	"github.com/example/gatiyaan/internal/models"
)

func job(id string) models.Job {
	return models.Job{Booking: models.Booking{ID: id}, Status: models.JobPending}
}

func TestPushPrepends(t *testing.T) {
	q := NewQueue()
	q.Push(job("a"))
	q.Push(job("b"))
	got := q.Pending()
	if len(got) != 2 || got[0].Booking.ID != "b" {
		t.Fatalf("expected newest first, got %+v", got)
	}
}

func TestTakeRemovesExactlyOne(t *testing.T) {
	q := NewQueue()
	q.Push(job("a"))
	q.Push(job("b"))
	j, ok := q.Take("a")
	if !ok || j.Booking.ID != "a" {
		t.Fatalf("expected to take a, got %+v ok=%v", j, ok)
	}
	if q.Len() != 1 {
		t.Fatalf("expected 1 remaining, got %d", q.Len())
	}
	if _, ok := q.Take("a"); ok {
		t.Fatal("second take of same booking must fail")
	}
}

func TestRemoveMissing(t *testing.T) {
	q := NewQueue()
	if q.Remove("nope") {
		t.Fatal("removing a missing job must report false")
	}
}
