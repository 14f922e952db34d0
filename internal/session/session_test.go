package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/gatiyaan/internal/jobs"
	"github.com/example/gatiyaan/internal/models"
	"github.com/example/gatiyaan/internal/offers"
	"github.com/example/gatiyaan/internal/roster"
	"github.com/example/gatiyaan/internal/sched"
)

type recordedEvents struct{ events []models.BookingEvent }

func (r *recordedEvents) PublishBookingEvent(ev models.BookingEvent) error {
	r.events = append(r.events, ev)
	return nil
}

// testDeps uses a countdown so slow it never fires during a test run.
func testDeps(t *testing.T) Deps {
	t.Helper()
	catalog := offers.NewCatalog(nil)
	catalog.Seed(context.Background(), nil, 3) // fallback fleet
	return Deps{
		Roster:    roster.NewSeeded(),
		Catalog:   catalog,
		Jobs:      jobs.NewQueue(),
		Countdown: sched.New(time.Hour, time.Hour),
	}
}

func login(t *testing.T, s *Session, phone string) models.Identity {
	t.Helper()
	id, err := s.Login(phone, "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return id
}

func firstOffer(t *testing.T, s *Session) models.Offer {
	t.Helper()
	all := s.deps.Catalog.List()
	if len(all) == 0 {
		t.Fatal("catalog empty")
	}
	return all[0]
}

func TestNavigationHistoryNeverEmpty(t *testing.T) {
	s := New(testDeps(t))
	s.NavigateTo(models.ScreenSignIn)
	s.NavigateTo(models.ScreenSignUp)
	for i := 0; i < 10; i++ {
		s.NavigateBack()
	}
	if s.CurrentScreen() != models.ScreenWelcome {
		t.Fatalf("expected welcome after draining history, got %s", s.CurrentScreen())
	}
	if s.CanGoBack() {
		t.Fatal("cannot go back past the last entry")
	}
}

func TestNavigateBackPopsOne(t *testing.T) {
	s := New(testDeps(t))
	s.NavigateTo(models.ScreenSignIn)
	if !s.NavigateBack() {
		t.Fatal("expected pop")
	}
	if s.NavigateBack() {
		t.Fatal("expected no-op at depth one")
	}
}

func TestLoginResetsHistoryToRoleHome(t *testing.T) {
	s := New(testDeps(t))
	s.NavigateTo(models.ScreenSignIn)
	login(t, s, "9876543210")
	if got := s.NavHistory(); len(got) != 1 || got[0] != models.ScreenHome {
		t.Fatalf("expected single customer home entry, got %v", got)
	}

	login(t, s, "8765432109")
	if s.CurrentScreen() != models.ScreenProviderDashboard {
		t.Fatalf("expected provider dashboard, got %s", s.CurrentScreen())
	}
}

func TestAdminPhoneWinsOverRoleHint(t *testing.T) {
	s := New(testDeps(t))
	id, err := s.Login("0000000000", models.RoleCustomer)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if id.Role != models.RoleAdmin {
		t.Fatalf("expected admin, got %s", id.Role)
	}
	if s.CurrentScreen() != models.ScreenAdminDashboard {
		t.Fatalf("expected admin dashboard, got %s", s.CurrentScreen())
	}
}

func TestLogoutThenLoginResolvesSameIdentity(t *testing.T) {
	s := New(testDeps(t))
	first := login(t, s, "5559990000")
	s.Logout()
	if s.Authenticated() {
		t.Fatal("expected unauthenticated after logout")
	}
	if got := s.NavHistory(); len(got) != 1 || got[0] != models.ScreenWelcome {
		t.Fatalf("logout must reset nav to welcome, got %v", got)
	}
	second := login(t, s, "5559990000")
	if first.ID != second.ID {
		t.Fatalf("identity resolution must be idempotent: %s vs %s", first.ID, second.ID)
	}
}

func TestLoginEmptyPhone(t *testing.T) {
	s := New(testDeps(t))
	if _, err := s.Login("   ", ""); !errors.Is(err, ErrInvalidPhone) {
		t.Fatalf("expected ErrInvalidPhone, got %v", err)
	}
}

func TestSelectOfferNavigatesToDetail(t *testing.T) {
	s := New(testDeps(t))
	login(t, s, "9876543210")
	o := firstOffer(t, s)
	got, err := s.SelectOffer(o.ID)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if got.ID != o.ID {
		t.Fatalf("selected wrong offer %s", got.ID)
	}
	if s.CurrentScreen() != models.ScreenVanDetail {
		t.Fatalf("expected van detail, got %s", s.CurrentScreen())
	}
	if _, err := s.SelectOffer("missing"); !errors.Is(err, ErrOfferNotFound) {
		t.Fatalf("expected ErrOfferNotFound, got %v", err)
	}
}

func TestCreateBookingRequiresAuth(t *testing.T) {
	s := New(testDeps(t))
	o := firstOffer(t, s)
	if _, err := s.CreateBooking(o.ID); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestBookingLifecycleCompletes(t *testing.T) {
	deps := testDeps(t)
	events := &recordedEvents{}
	deps.Events = events
	s := New(deps)
	login(t, s, "9876543210")
	o := firstOffer(t, s)

	b, err := s.CreateBooking(o.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.Status != models.BookingEnRoute {
		t.Fatalf("expected en-route, got %s", b.Status)
	}
	if s.CurrentScreen() != models.ScreenBooking {
		t.Fatalf("expected booking screen, got %s", s.CurrentScreen())
	}
	if deps.Jobs.Len() != 1 {
		t.Fatalf("expected one pending job, got %d", deps.Jobs.Len())
	}
	if _, err := s.CreateBooking(o.ID); !errors.Is(err, ErrActiveBookingExists) {
		t.Fatalf("expected ErrActiveBookingExists, got %v", err)
	}

	done, err := s.CompleteBooking()
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != models.BookingCompleted {
		t.Fatalf("expected completed, got %s", done.Status)
	}
	if done.KWhCharged < 5 || done.KWhCharged >= 15 {
		t.Fatalf("kWh out of range: %f", done.KWhCharged)
	}
	if done.FinalCost != done.KWhCharged*o.PricePerKWh {
		t.Fatalf("finalCost %f != kWh %f * price %f", done.FinalCost, done.KWhCharged, o.PricePerKWh)
	}
	if _, ok := s.ActiveBooking(); ok {
		t.Fatal("active booking must be cleared")
	}
	hist := s.History()
	if len(hist) != 1 || hist[0].ID != b.ID {
		t.Fatalf("expected one history entry for %s, got %+v", b.ID, hist)
	}
	if s.CurrentScreen() != models.ScreenHome {
		t.Fatalf("expected home, got %s", s.CurrentScreen())
	}
	if len(events.events) != 2 || events.events[0].Type != models.EventBookingCreated || events.events[1].Type != models.EventBookingCompleted {
		t.Fatalf("unexpected events %+v", events.events)
	}
}

func TestCompleteWithoutBooking(t *testing.T) {
	s := New(testDeps(t))
	login(t, s, "9876543210")
	if _, err := s.CompleteBooking(); !errors.Is(err, ErrNoActiveBooking) {
		t.Fatalf("expected ErrNoActiveBooking, got %v", err)
	}
}

func TestCancelBookingRemovesPendingJob(t *testing.T) {
	deps := testDeps(t)
	s := New(deps)
	login(t, s, "9876543210")
	o := firstOffer(t, s)
	b, err := s.CreateBooking(o.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	cancelled, err := s.CancelBooking()
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != models.BookingCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
	if deps.Jobs.Len() != 0 {
		t.Fatalf("pending job must be withdrawn, queue has %d", deps.Jobs.Len())
	}
	hist := s.History()
	if len(hist) != 1 || hist[0].ID != b.ID || hist[0].Status != models.BookingCancelled {
		t.Fatalf("expected one cancelled history entry, got %+v", hist)
	}
	if deps.Countdown.Active(b.ID) {
		t.Fatal("cancel must tear down the countdown")
	}
}

func TestRateBookingFirstWriteWins(t *testing.T) {
	s := New(testDeps(t))
	login(t, s, "9876543210")
	o := firstOffer(t, s)
	b, _ := s.CreateBooking(o.ID)
	if _, err := s.CompleteBooking(); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if err := s.RateBooking(b.ID, 0); !errors.Is(err, ErrInvalidRating) {
		t.Fatalf("expected ErrInvalidRating for 0, got %v", err)
	}
	if err := s.RateBooking(b.ID, 6); !errors.Is(err, ErrInvalidRating) {
		t.Fatalf("expected ErrInvalidRating for 6, got %v", err)
	}
	if err := s.RateBooking(b.ID, 4); err != nil {
		t.Fatalf("rate: %v", err)
	}
	if err := s.RateBooking(b.ID, 2); !errors.Is(err, ErrAlreadyRated) {
		t.Fatalf("expected ErrAlreadyRated, got %v", err)
	}
	if got := s.History()[0].Rating; got != 4 {
		t.Fatalf("first rating must stand, got %d", got)
	}
	if err := s.RateBooking("missing", 3); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("expected ErrBookingNotFound, got %v", err)
	}
}

func TestProviderAvailabilityGatesQueue(t *testing.T) {
	deps := testDeps(t)
	customer := New(deps)
	login(t, customer, "9876543210")
	o := firstOffer(t, customer)
	if _, err := customer.CreateBooking(o.ID); err != nil {
		t.Fatalf("create: %v", err)
	}

	provider := New(deps)
	login(t, provider, "8765432109")
	if got := provider.PendingJobs(); got != nil {
		t.Fatalf("unavailable provider must see no jobs, got %d", len(got))
	}
	if !provider.ToggleAvailability() {
		t.Fatal("expected available after toggle")
	}
	if got := provider.PendingJobs(); len(got) != 1 {
		t.Fatalf("expected one surfaced job, got %d", len(got))
	}
}

func TestProviderJobLifecycle(t *testing.T) {
	deps := testDeps(t)
	m := NewManager(deps)
	customer := m.Open()
	login(t, customer, "9876543210")
	o := firstOffer(t, customer)
	b, err := customer.CreateBooking(o.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	provider := m.Open()
	login(t, provider, "8765432109")
	provider.ToggleAvailability()

	j, err := provider.AcceptJob(b.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if j.Status != models.JobAccepted {
		t.Fatalf("expected accepted, got %s", j.Status)
	}
	if deps.Jobs.Len() != 0 {
		t.Fatal("accepted job must leave the queue")
	}
	if _, err := provider.AcceptJob(b.ID); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound on re-accept, got %v", err)
	}

	// completion requires arrival first
	if _, err := provider.CompleteJob(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition before arrival, got %v", err)
	}
	if _, err := provider.ArriveAtJob(); err != nil {
		t.Fatalf("arrive: %v", err)
	}
	done, err := provider.CompleteJob()
	if err != nil {
		t.Fatalf("complete job: %v", err)
	}
	if done.Status != models.BookingCompleted {
		t.Fatalf("expected completed booking, got %s", done.Status)
	}
	if done.FinalCost != done.KWhCharged*o.PricePerKWh {
		t.Fatalf("finalCost %f != kWh*price", done.FinalCost)
	}
	if _, ok := provider.ActiveJob(); ok {
		t.Fatal("active job must be cleared")
	}
	if _, ok := customer.ActiveBooking(); ok {
		t.Fatal("owning session's booking must be cleared")
	}
	if len(customer.History()) != 1 {
		t.Fatalf("owner history expected 1, got %d", len(customer.History()))
	}
}

func TestAcceptSecondJobRejected(t *testing.T) {
	deps := testDeps(t)
	m := NewManager(deps)

	c1 := m.Open()
	login(t, c1, "9876543210")
	b1, _ := c1.CreateBooking(firstOffer(t, c1).ID)
	c2 := m.Open()
	login(t, c2, "5551230000")
	b2, _ := c2.CreateBooking(firstOffer(t, c2).ID)

	p := m.Open()
	login(t, p, "8765432109")
	p.ToggleAvailability()
	if _, err := p.AcceptJob(b1.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := p.AcceptJob(b2.ID); !errors.Is(err, ErrJobAlreadyActive) {
		t.Fatalf("expected ErrJobAlreadyActive, got %v", err)
	}
}

func TestArriveWithoutJob(t *testing.T) {
	s := New(testDeps(t))
	login(t, s, "8765432109")
	if _, err := s.ArriveAtJob(); !errors.Is(err, ErrNoActiveJob) {
		t.Fatalf("expected ErrNoActiveJob, got %v", err)
	}
	if _, err := s.CompleteJob(); !errors.Is(err, ErrNoActiveJob) {
		t.Fatalf("expected ErrNoActiveJob, got %v", err)
	}
}

func TestAdminRosterOps(t *testing.T) {
	s := New(testDeps(t))
	login(t, s, "9876543210")
	if _, err := s.AddProvider(offers.AddInput{PartnerName: "X"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("customer must not add providers, got %v", err)
	}

	login(t, s, "0000000000")
	added, err := s.AddProvider(offers.AddInput{PartnerName: "GreenJolt", VanModel: "Tata Ace EV", PricePerKWh: 21, CapacityKWh: 35})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	added.PricePerKWh = 33
	if err := s.UpdateProvider(added); err != nil {
		t.Fatalf("update: %v", err)
	}
	count := 0
	for _, o := range s.deps.Catalog.List() {
		if o.ID == added.ID {
			count++
			if o.PricePerKWh != 33 {
				t.Fatalf("expected updated price, got %f", o.PricePerKWh)
			}
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one entry, got %d", count)
	}

	users, err := s.Users()
	if err != nil {
		t.Fatalf("users: %v", err)
	}
	if len(users) < 3 {
		t.Fatalf("expected seeded roster, got %d", len(users))
	}
}

func TestCountdownAutoCompletesBooking(t *testing.T) {
	deps := testDeps(t)
	deps.Countdown = sched.New(2*time.Millisecond, 2*time.Millisecond)
	s := New(deps)
	login(t, s, "9876543210")
	o := firstOffer(t, s)
	if _, err := s.CreateBooking(o.ID); err != nil {
		t.Fatalf("create: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := s.ActiveBooking(); !ok {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	hist := s.History()
	if len(hist) != 1 || hist[0].Status != models.BookingCompleted {
		t.Fatalf("expected auto-completed booking, got %+v", hist)
	}
}

func TestCancelledBookingNeverAutoCompletes(t *testing.T) {
	deps := testDeps(t)
	deps.Countdown = sched.New(20*time.Millisecond, 20*time.Millisecond)
	s := New(deps)
	login(t, s, "9876543210")
	o := firstOffer(t, s)
	if _, err := s.CreateBooking(o.ID); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CancelBooking(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	hist := s.History()
	if len(hist) != 1 || hist[0].Status != models.BookingCancelled {
		t.Fatalf("stale completion must not fire, got %+v", hist)
	}
}

func TestManagerLifecycle(t *testing.T) {
	m := NewManager(testDeps(t))
	s := m.Open()
	if got, ok := m.Get(s.ID()); !ok || got != s {
		t.Fatal("expected to resolve open session")
	}
	m.Close(s.ID())
	if _, ok := m.Get(s.ID()); ok {
		t.Fatal("closed session must be gone")
	}
	m.Close(s.ID()) // double close is harmless
}
