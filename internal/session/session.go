package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math"
	mrand "math/rand"
	"strings"
	"sync"
	"time"

	"github.com/example/gatiyaan/internal/jobs"
	"github.com/example/gatiyaan/internal/models"
	"github.com/example/gatiyaan/internal/observability"
	"github.com/example/gatiyaan/internal/offers"
	"github.com/example/gatiyaan/internal/roster"
	"github.com/example/gatiyaan/internal/sched"
)

// Publisher receives booking lifecycle events; nil disables publishing.
type Publisher interface {
	PublishBookingEvent(ev models.BookingEvent) error
}

// Notifier pushes events to connected clients; nil disables push.
type Notifier interface {
	NotifyCustomer(token string, event string, b models.Booking)
	BroadcastJob(j models.Job)
}

// Deps are the collaborators shared by every session: one roster, one offer
// catalog, one pending-job queue, one countdown scheduler.
type Deps struct {
	Roster    *roster.Roster
	Catalog   *offers.Catalog
	Jobs      *jobs.Queue
	Countdown *sched.Countdown
	Events    Publisher
	Notifier  Notifier
	Logger    *slog.Logger
}

// ownerResolver finds the session holding a given active booking. The
// Manager implements it; a standalone session falls back to itself.
type ownerResolver interface {
	ownerOf(bookingID string) *Session
}

// Session owns all mutable state for one connected client: the navigation
// stack, the authenticated identity, and the customer/provider lifecycles.
// Every mutation happens under one lock, mirroring the single-threaded
// store this replaces.
type Session struct {
	id     string
	deps   Deps
	owners ownerResolver

	mu            sync.Mutex
	nav           []models.Screen
	identity      *models.Identity
	selectedOffer *models.Offer
	activeBooking *models.Booking
	history       []models.Booking
	available     bool
	activeJob     *models.Job
}

// New builds an unauthenticated session parked on the welcome screen.
func New(deps Deps) *Session {
	return &Session{
		id:   newID(),
		deps: deps,
		nav:  []models.Screen{models.ScreenWelcome},
	}
}

func (s *Session) ID() string { return s.id }

// --- navigation ---

// NavigateTo appends a screen to the history. Any identifier is accepted;
// reachability is the client's concern.
func (s *Session) NavigateTo(screen models.Screen) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nav = append(s.nav, screen)
}

// NavigateBack pops the top entry, reporting whether it did. The history
// never empties: at depth one this is a no-op.
func (s *Session) NavigateBack() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.nav) <= 1 {
		return false
	}
	s.nav = s.nav[:len(s.nav)-1]
	return true
}

func (s *Session) CurrentScreen() models.Screen {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nav[len(s.nav)-1]
}

func (s *Session) CanGoBack() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.nav) > 1
}

func (s *Session) NavHistory() []models.Screen {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Screen, len(s.nav))
	copy(out, s.nav)
	return out
}

// --- authentication ---

// Login resolves the phone against the roster (found-or-created) and
// replaces the navigation history with the resolved role's home screen.
func (s *Session) Login(phone string, hint models.Role) (models.Identity, error) {
	if strings.TrimSpace(phone) == "" {
		return models.Identity{}, ErrInvalidPhone
	}
	ident := s.deps.Roster.FindOrCreate(phone, hint)

	s.mu.Lock()
	s.identity = &ident
	s.nav = []models.Screen{ident.Role.HomeScreen()}
	s.mu.Unlock()
	return ident, nil
}

// Logout clears the identity and all in-flight lifecycle state and parks
// the session back on the welcome screen. A live countdown for the active
// booking is cancelled rather than left to fire against a dead session.
func (s *Session) Logout() {
	s.mu.Lock()
	var bookingID string
	if s.activeBooking != nil {
		bookingID = s.activeBooking.ID
	}
	s.identity = nil
	s.activeBooking = nil
	s.activeJob = nil
	s.selectedOffer = nil
	s.nav = []models.Screen{models.ScreenWelcome}
	s.mu.Unlock()

	if bookingID != "" {
		s.cancelCountdown(bookingID)
	}
}

func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity != nil
}

func (s *Session) Identity() (models.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return models.Identity{}, false
	}
	return *s.identity, true
}

// --- customer lifecycle ---

// SelectOffer records the chosen offer and navigates to its detail screen.
func (s *Session) SelectOffer(offerID string) (models.Offer, error) {
	o, ok := s.deps.Catalog.Get(offerID)
	if !ok {
		return models.Offer{}, ErrOfferNotFound
	}
	s.mu.Lock()
	s.selectedOffer = &o
	s.nav = append(s.nav, models.ScreenVanDetail)
	s.mu.Unlock()
	return o, nil
}

func (s *Session) SelectedOffer() (models.Offer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selectedOffer == nil {
		return models.Offer{}, false
	}
	return *s.selectedOffer, true
}

// CreateBooking opens a booking against an offer, pairs a pending job into
// the shared queue, and starts the arrival countdown. At most one booking
// may be active per session.
func (s *Session) CreateBooking(offerID string) (models.Booking, error) {
	o, ok := s.deps.Catalog.Get(offerID)
	if !ok {
		return models.Booking{}, ErrOfferNotFound
	}

	s.mu.Lock()
	if s.identity == nil {
		s.mu.Unlock()
		return models.Booking{}, ErrNotAuthenticated
	}
	if s.activeBooking != nil {
		s.mu.Unlock()
		return models.Booking{}, ErrActiveBookingExists
	}
	b := models.Booking{
		ID:       "booking-" + newID(),
		Offer:    o,
		Customer: *s.identity,
		BookedAt: time.Now(),
		Status:   models.BookingEnRoute,
	}
	s.activeBooking = &b
	s.nav = append(s.nav, models.ScreenBooking)
	s.mu.Unlock()

	j := models.Job{Booking: b, Status: models.JobPending}
	s.deps.Jobs.Push(j)
	if s.deps.Notifier != nil {
		s.deps.Notifier.BroadcastJob(j)
	}
	s.publish(models.BookingEvent{Type: models.EventBookingCreated, BookingID: b.ID, OfferID: o.ID, CustomerID: b.Customer.ID, At: b.BookedAt})
	observability.BookingsCreated.Inc()

	if s.deps.Countdown != nil {
		id := b.ID
		s.deps.Countdown.Schedule(id, o.ETAMinutes,
			func() { s.handleArrival(id) },
			func() { s.handleAutoComplete(id) },
		)
	}
	return b, nil
}

// CompleteBooking terminally completes the active booking: a random energy
// quantity is drawn, the final cost derived from the offer's unit price,
// and the booking moves to the front of the history.
func (s *Session) CompleteBooking() (models.Booking, error) {
	s.mu.Lock()
	if s.activeBooking == nil {
		s.mu.Unlock()
		return models.Booking{}, ErrNoActiveBooking
	}
	b := *s.activeBooking
	if !b.Status.CanTransition(models.BookingCompleted) {
		s.mu.Unlock()
		return models.Booking{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, models.BookingCompleted)
	}
	b.Status = models.BookingCompleted
	b.KWhCharged = round2(mrand.Float64()*10 + 5)
	b.FinalCost = b.KWhCharged * b.Offer.PricePerKWh
	s.history = append([]models.Booking{b}, s.history...)
	s.activeBooking = nil
	s.nav = append(s.nav, models.ScreenHome)
	s.mu.Unlock()

	s.cancelCountdown(b.ID)
	observability.BookingsCompleted.Inc()
	s.publish(models.BookingEvent{Type: models.EventBookingCompleted, BookingID: b.ID, OfferID: b.Offer.ID, CustomerID: b.Customer.ID, At: time.Now(), KWhCharged: b.KWhCharged, FinalCost: b.FinalCost})
	if s.deps.Notifier != nil {
		s.deps.Notifier.NotifyCustomer(s.id, models.EventBookingCompleted, b)
	}
	return b, nil
}

// CancelBooking terminally cancels the active booking, withdraws its
// pending job from the provider queue, and kills the countdown so no stale
// completion can fire afterwards.
func (s *Session) CancelBooking() (models.Booking, error) {
	s.mu.Lock()
	if s.activeBooking == nil {
		s.mu.Unlock()
		return models.Booking{}, ErrNoActiveBooking
	}
	b := *s.activeBooking
	if !b.Status.CanTransition(models.BookingCancelled) {
		s.mu.Unlock()
		return models.Booking{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, models.BookingCancelled)
	}
	b.Status = models.BookingCancelled
	s.history = append([]models.Booking{b}, s.history...)
	s.activeBooking = nil
	s.nav = append(s.nav, models.ScreenHome)
	s.mu.Unlock()

	s.cancelCountdown(b.ID)
	s.deps.Jobs.Remove(b.ID)
	observability.BookingsCancelled.Inc()
	s.publish(models.BookingEvent{Type: models.EventBookingCancelled, BookingID: b.ID, OfferID: b.Offer.ID, CustomerID: b.Customer.ID, At: time.Now()})
	if s.deps.Notifier != nil {
		s.deps.Notifier.NotifyCustomer(s.id, models.EventBookingCancelled, b)
	}
	return b, nil
}

// RateBooking records a 1-5 rating on a completed booking. The first
// rating wins; later attempts are rejected.
func (s *Session) RateBooking(bookingID string, rating int) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.history {
		if s.history[i].ID != bookingID {
			continue
		}
		if s.history[i].Rating != 0 {
			return ErrAlreadyRated
		}
		s.history[i].Rating = rating
		observability.RatingsRecorded.Inc()
		return nil
	}
	return ErrBookingNotFound
}

func (s *Session) ActiveBooking() (models.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeBooking == nil {
		return models.Booking{}, false
	}
	return *s.activeBooking, true
}

// History lists terminal bookings, most recent first.
func (s *Session) History() []models.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Booking, len(s.history))
	copy(out, s.history)
	return out
}

// --- provider lifecycle ---

// ToggleAvailability flips the provider's availability flag and returns
// the new value. The queue keeps filling while unavailable; jobs are just
// not surfaced.
func (s *Session) ToggleAvailability() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.available = !s.available
	return s.available
}

func (s *Session) Available() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.available
}

// PendingJobs surfaces the shared queue, but only to available providers.
func (s *Session) PendingJobs() []models.Job {
	s.mu.Lock()
	available := s.available
	s.mu.Unlock()
	if !available {
		return nil
	}
	return s.deps.Jobs.Pending()
}

// AcceptJob claims a pending job from the shared queue. A provider holds
// at most one active job.
func (s *Session) AcceptJob(bookingID string) (models.Job, error) {
	s.mu.Lock()
	if s.activeJob != nil {
		s.mu.Unlock()
		return models.Job{}, ErrJobAlreadyActive
	}
	j, ok := s.deps.Jobs.Take(bookingID)
	if !ok {
		s.mu.Unlock()
		return models.Job{}, ErrJobNotFound
	}
	j.Status = models.JobAccepted
	s.activeJob = &j
	s.mu.Unlock()

	observability.JobsAccepted.Inc()
	s.publish(models.BookingEvent{Type: models.EventBookingAccepted, BookingID: j.Booking.ID, OfferID: j.Booking.Offer.ID, CustomerID: j.Booking.Customer.ID, At: time.Now()})
	return j, nil
}

// ArriveAtJob advances the active job to arrived and tells the customer.
func (s *Session) ArriveAtJob() (models.Job, error) {
	s.mu.Lock()
	if s.activeJob == nil {
		s.mu.Unlock()
		return models.Job{}, ErrNoActiveJob
	}
	if !s.activeJob.Status.CanTransition(models.JobArrived) {
		status := s.activeJob.Status
		s.mu.Unlock()
		return models.Job{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, status, models.JobArrived)
	}
	s.activeJob.Status = models.JobArrived
	j := *s.activeJob
	s.mu.Unlock()

	s.publish(models.BookingEvent{Type: models.EventBookingArrived, BookingID: j.Booking.ID, OfferID: j.Booking.Offer.ID, CustomerID: j.Booking.Customer.ID, At: time.Now()})
	if owner := s.bookingOwner(j.Booking.ID); owner != nil && s.deps.Notifier != nil {
		s.deps.Notifier.NotifyCustomer(owner.id, models.EventBookingArrived, j.Booking)
	}
	return j, nil
}

// CompleteJob finishes the active job and completes the booking it mirrors
// through the booking's owning session.
func (s *Session) CompleteJob() (models.Booking, error) {
	s.mu.Lock()
	if s.activeJob == nil {
		s.mu.Unlock()
		return models.Booking{}, ErrNoActiveJob
	}
	if !s.activeJob.Status.CanTransition(models.JobCompleted) {
		status := s.activeJob.Status
		s.mu.Unlock()
		return models.Booking{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, status, models.JobCompleted)
	}
	bookingID := s.activeJob.Booking.ID
	s.activeJob = nil
	s.mu.Unlock()

	owner := s.bookingOwner(bookingID)
	if owner == nil {
		return models.Booking{}, ErrNoActiveBooking
	}
	return owner.CompleteBooking()
}

func (s *Session) ActiveJob() (models.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeJob == nil {
		return models.Job{}, false
	}
	return *s.activeJob, true
}

// --- admin roster ---

// AddProvider builds a complete offer from partial admin input.
func (s *Session) AddProvider(in offers.AddInput) (models.Offer, error) {
	if err := s.requireAdmin(); err != nil {
		return models.Offer{}, err
	}
	return s.deps.Catalog.Add(in), nil
}

// UpdateProvider replaces the offer with the same identifier.
func (s *Session) UpdateProvider(o models.Offer) error {
	if err := s.requireAdmin(); err != nil {
		return err
	}
	return s.deps.Catalog.Update(o)
}

// Users exposes the full identity roster to admin listing screens.
func (s *Session) Users() ([]models.Identity, error) {
	if err := s.requireAdmin(); err != nil {
		return nil, err
	}
	return s.deps.Roster.All(), nil
}

func (s *Session) requireAdmin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return ErrNotAuthenticated
	}
	if s.identity.Role != models.RoleAdmin {
		return ErrForbidden
	}
	return nil
}

// --- countdown callbacks ---

func (s *Session) handleArrival(bookingID string) {
	s.mu.Lock()
	if s.activeBooking == nil || s.activeBooking.ID != bookingID {
		s.mu.Unlock()
		return
	}
	b := *s.activeBooking
	s.mu.Unlock()

	s.publish(models.BookingEvent{Type: models.EventBookingArrived, BookingID: b.ID, OfferID: b.Offer.ID, CustomerID: b.Customer.ID, At: time.Now()})
	if s.deps.Notifier != nil {
		s.deps.Notifier.NotifyCustomer(s.id, models.EventBookingArrived, b)
	}
}

func (s *Session) handleAutoComplete(bookingID string) {
	s.mu.Lock()
	stale := s.activeBooking == nil || s.activeBooking.ID != bookingID
	s.mu.Unlock()
	if stale {
		return
	}
	if _, err := s.CompleteBooking(); err != nil && s.deps.Logger != nil {
		s.deps.Logger.Warn("auto-complete failed", "booking_id", bookingID, "error", err)
	}
}

// --- helpers ---

func (s *Session) cancelCountdown(bookingID string) {
	if s.deps.Countdown != nil {
		s.deps.Countdown.Cancel(bookingID)
	}
}

func (s *Session) publish(ev models.BookingEvent) {
	if s.deps.Events == nil {
		return
	}
	if err := s.deps.Events.PublishBookingEvent(ev); err != nil && s.deps.Logger != nil {
		s.deps.Logger.Warn("event publish failed", "type", ev.Type, "booking_id", ev.BookingID, "error", err)
	}
}

func (s *Session) bookingOwner(bookingID string) *Session {
	if s.owners != nil {
		if o := s.owners.ownerOf(bookingID); o != nil {
			return o
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeBooking != nil && s.activeBooking.ID == bookingID {
		return s
	}
	return nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func newID() string { b := make([]byte, 8); _, _ = rand.Read(b); return hex.EncodeToString(b) }
