package models

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleProvider, RoleAdmin:
		return true
	}
	return false
}

// HomeScreen is the single screen a freshly logged-in session lands on.
func (r Role) HomeScreen() Screen {
	switch r {
	case RoleAdmin:
		return ScreenAdminDashboard
	case RoleProvider:
		return ScreenProviderDashboard
	default:
		return ScreenHome
	}
}

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func (t Theme) Valid() bool { return t == ThemeLight || t == ThemeDark }

type Coord struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Role  Role   `json:"role"`
}

type OfferStatus string

const (
	OfferApproved OfferStatus = "approved"
	OfferPending  OfferStatus = "pending"
)

// Offer is a mobile charging-van listing available for booking.
type Offer struct {
	ID          string      `json:"id"`
	PartnerName string      `json:"partner_name"`
	VanModel    string      `json:"van_model"`
	Rating      float64     `json:"rating"` // 0..5
	ETAMinutes  int         `json:"eta_minutes"`
	PricePerKWh float64     `json:"price_per_kwh"`
	CapacityKWh int         `json:"capacity_kwh"`
	Pos         Coord       `json:"pos"`
	Status      OfferStatus `json:"status"`
}

type BookingStatus string

const (
	BookingEnRoute   BookingStatus = "en-route"
	BookingCharging  BookingStatus = "charging"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingEnRoute:  {BookingCharging, BookingCompleted, BookingCancelled},
	BookingCharging: {BookingCompleted, BookingCancelled},
}

func (s BookingStatus) CanTransition(to BookingStatus) bool {
	for _, next := range bookingTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s BookingStatus) Terminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

// Booking is one charging engagement between a customer and an Offer.
// The offer and customer are copied at creation time so later roster or
// catalog edits do not rewrite past bookings.
type Booking struct {
	ID         string        `json:"id"`
	Offer      Offer         `json:"offer"`
	Customer   Identity      `json:"customer"`
	BookedAt   time.Time     `json:"booked_at"`
	Status     BookingStatus `json:"status"`
	KWhCharged float64       `json:"kwh_charged,omitempty"`
	FinalCost  float64       `json:"final_cost,omitempty"`
	Rating     int           `json:"rating,omitempty"` // 0 = unrated
}

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobAccepted  JobStatus = "accepted"
	JobArrived   JobStatus = "arrived"
	JobCompleted JobStatus = "completed"
)

var jobTransitions = map[JobStatus]JobStatus{
	JobPending:  JobAccepted,
	JobAccepted: JobArrived,
	JobArrived:  JobCompleted,
}

func (s JobStatus) CanTransition(to JobStatus) bool { return jobTransitions[s] == to }

// Job is the provider-facing counterpart of a Booking.
type Job struct {
	Booking Booking   `json:"booking"`
	Status  JobStatus `json:"status"`
}

// BookingEvent is the lifecycle record published to the event stream.
type BookingEvent struct {
	Type       string    `json:"type"`
	BookingID  string    `json:"booking_id"`
	OfferID    string    `json:"offer_id"`
	CustomerID string    `json:"customer_id"`
	At         time.Time `json:"at"`
	KWhCharged float64   `json:"kwh_charged,omitempty"`
	FinalCost  float64   `json:"final_cost,omitempty"`
}

const (
	EventBookingCreated   = "created"
	EventBookingAccepted  = "accepted"
	EventBookingArrived   = "arrived"
	EventBookingCompleted = "completed"
	EventBookingCancelled = "cancelled"
)
