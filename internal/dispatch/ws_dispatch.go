package dispatch

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/example/gatiyaan/internal/models"
)

// TrackingEvent is what a customer sees on the booking screen: the van
// arriving, the charge completing, the booking being cancelled.
type TrackingEvent struct {
	Event   string         `json:"event"`
	Booking models.Booking `json:"booking"`
}

// WSSession wraps one websocket connection with a write lock.
type WSSession struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *WSSession) send(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

// WSRegistry holds connected customer and provider sessions, keyed by
// session token. Customers get tracking events for their own booking;
// every connected provider sees new jobs.
type WSRegistry struct {
	mu        sync.RWMutex
	customers map[string]*WSSession
	providers map[string]*WSSession
	logger    *slog.Logger
}

func NewWSRegistry(logger *slog.Logger) *WSRegistry {
	return &WSRegistry{
		customers: make(map[string]*WSSession),
		providers: make(map[string]*WSSession),
		logger:    logger,
	}
}

func (r *WSRegistry) AddCustomer(token string, conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.customers[token] = &WSSession{conn: conn}
}

func (r *WSRegistry) AddProvider(token string, conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[token] = &WSSession{conn: conn}
}

func (r *WSRegistry) Remove(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.customers, token)
	delete(r.providers, token)
}

// NotifyCustomer pushes a tracking event to one customer session.
func (r *WSRegistry) NotifyCustomer(token string, event string, b models.Booking) {
	r.mu.RLock()
	s, ok := r.customers[token]
	r.mu.RUnlock()
	if !ok {
		return
	}
	if err := s.send(TrackingEvent{Event: event, Booking: b}); err != nil && r.logger != nil {
		r.logger.Warn("ws customer send failed", "error", err, "booking_id", b.ID)
	}
}

// BroadcastJob offers a new job to every connected provider, best-effort.
func (r *WSRegistry) BroadcastJob(j models.Job) {
	r.mu.RLock()
	sessions := make([]*WSSession, 0, len(r.providers))
	for _, s := range r.providers {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()
	for _, s := range sessions {
		if err := s.send(j); err != nil && r.logger != nil {
			r.logger.Warn("ws job broadcast failed", "error", err, "booking_id", j.Booking.ID)
		}
	}
}
