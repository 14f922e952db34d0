package jobs

import (
	"sync"

	"github.com/example/gatiyaan/internal/models"
)

// Queue is the shared incoming-job list. Bookings broadcast here for every
// provider; a job leaves the queue when accepted or when its booking is
// cancelled.
type Queue struct {
	mu      sync.Mutex
	pending []models.Job
}

func NewQueue() *Queue { return &Queue{} }

// Push prepends a job, newest first.
func (q *Queue) Push(j models.Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append([]models.Job{j}, q.pending...)
}

// Take removes and returns the pending job for a booking.
func (q *Queue) Take(bookingID string) (models.Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, j := range q.pending {
		if j.Booking.ID == bookingID {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return j, true
		}
	}
	return models.Job{}, false
}

// Remove drops the pending job for a booking, reporting whether one existed.
func (q *Queue) Remove(bookingID string) bool {
	_, ok := q.Take(bookingID)
	return ok
}

// Pending returns a snapshot of the queue.
func (q *Queue) Pending() []models.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]models.Job, len(q.pending))
	copy(out, q.pending)
	return out
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
