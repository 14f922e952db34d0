package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/example/gatiyaan/internal/models"
	"github.com/example/gatiyaan/internal/offers"
	"github.com/example/gatiyaan/internal/session"
)

const sessionHeader = "X-Session-Token"

// --- sessions ---

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	sess := s.manager.Open()
	writeJSON(w, http.StatusCreated, map[string]any{
		"token":  sess.ID(),
		"screen": sess.CurrentScreen(),
	})
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.manager.Close(sess.ID())
	s.wsreg.Remove(sess.ID())
	w.WriteHeader(http.StatusNoContent)
}

// --- auth ---

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Phone string      `json:"phone"`
		Role  models.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ident, err := sess.Login(req.Phone, req.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"identity": ident,
		"screen":   sess.CurrentScreen(),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.Logout()
	writeJSON(w, http.StatusOK, map[string]any{"screen": sess.CurrentScreen()})
}

// --- navigation ---

func (s *Server) handleNavState(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"screen":      sess.CurrentScreen(),
		"can_go_back": sess.CanGoBack(),
		"history":     sess.NavHistory(),
	})
}

func (s *Server) handleNavigateTo(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Screen models.Screen `json:"screen"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Screen == "" {
		http.Error(w, "screen required", http.StatusBadRequest)
		return
	}
	sess.NavigateTo(req.Screen)
	writeJSON(w, http.StatusOK, map[string]any{"screen": sess.CurrentScreen()})
}

func (s *Server) handleNavigateBack(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	popped := sess.NavigateBack()
	writeJSON(w, http.StatusOK, map[string]any{
		"popped":      popped,
		"screen":      sess.CurrentScreen(),
		"can_go_back": sess.CanGoBack(),
	})
}

// --- offers ---

func (s *Server) handleListOffers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("lat") != "" && q.Get("lng") != "" {
		lat, err1 := strconv.ParseFloat(q.Get("lat"), 64)
		lng, err2 := strconv.ParseFloat(q.Get("lng"), 64)
		if err1 != nil || err2 != nil {
			http.Error(w, "invalid coordinates", http.StatusBadRequest)
			return
		}
		limit := 10
		if v := q.Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}
		writeJSON(w, http.StatusOK, s.catalog.Nearby(lat, lng, limit))
		return
	}
	if q.Get("sort") == "best" {
		writeJSON(w, http.StatusOK, s.catalog.Rank())
		return
	}
	writeJSON(w, http.StatusOK, s.catalog.List())
}

func (s *Server) handleSelectOffer(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	o, err := sess.SelectOffer(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"offer": o, "screen": sess.CurrentScreen()})
}

// --- customer bookings ---

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req struct {
		OfferID string `json:"offer_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OfferID == "" {
		http.Error(w, "offer_id required", http.StatusBadRequest)
		return
	}
	b, err := sess.CreateBooking(req.OfferID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) handleActiveBooking(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	b, ok := sess.ActiveBooking()
	if !ok {
		writeError(w, session.ErrNoActiveBooking)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleCompleteBooking(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	b, err := sess.CompleteBooking()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	b, err := sess.CancelBooking()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleBookingHistory(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.History())
}

func (s *Server) handleRateBooking(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Rating int `json:"rating"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := sess.RateBooking(mux.Vars(r)["id"], req.Rating); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- provider ---

func (s *Server) handleToggleAvailability(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"available": sess.ToggleAvailability()})
}

func (s *Server) handlePendingJobs(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	jobsList := sess.PendingJobs()
	if jobsList == nil {
		jobsList = []models.Job{}
	}
	writeJSON(w, http.StatusOK, jobsList)
}

func (s *Server) handleAcceptJob(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	j, err := sess.AcceptJob(mux.Vars(r)["booking_id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

func (s *Server) handleArriveAtJob(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	j, err := sess.ArriveAtJob()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

func (s *Server) handleCompleteJob(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	b, err := sess.CompleteJob()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// --- admin ---

func (s *Server) handleAdminListProviders(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.session(w, r); !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.catalog.List())
}

func (s *Server) handleAdminAddProvider(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var in offers.AddInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	o, err := sess.AddProvider(in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (s *Server) handleAdminUpdateProvider(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var o models.Offer
	if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	o.ID = mux.Vars(r)["id"]
	if err := sess.UpdateProvider(o); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	users, err := sess.Users()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// --- theme ---

func (s *Server) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"theme": s.theme.Current()})
}

func (s *Server) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"theme": s.theme.Toggle(r.Context())})
}

// --- websockets ---

var upgrader = websocket.Upgrader{}

func (s *Server) handleCustomerWS(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.wsSession(w, r)
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "upgrade failed", http.StatusBadRequest)
		return
	}
	s.wsreg.AddCustomer(sess.ID(), conn)
}

func (s *Server) handleProviderWS(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.wsSession(w, r)
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "upgrade failed", http.StatusBadRequest)
		return
	}
	s.wsreg.AddProvider(sess.ID(), conn)
}

// --- helpers ---

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	token := r.Header.Get(sessionHeader)
	if token == "" {
		http.Error(w, "missing session token", http.StatusUnauthorized)
		return nil, false
	}
	sess, ok := s.manager.Get(token)
	if !ok {
		http.Error(w, "unknown session", http.StatusUnauthorized)
		return nil, false
	}
	return sess, true
}

// wsSession also accepts the token as a query parameter because browser
// websocket clients cannot set headers.
func (s *Server) wsSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	token := r.Header.Get(sessionHeader)
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		http.Error(w, "missing session token", http.StatusUnauthorized)
		return nil, false
	}
	sess, ok := s.manager.Get(token)
	if !ok {
		http.Error(w, "unknown session", http.StatusUnauthorized)
		return nil, false
	}
	return sess, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFor(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, session.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, session.ErrOfferNotFound),
		errors.Is(err, session.ErrBookingNotFound),
		errors.Is(err, session.ErrJobNotFound),
		errors.Is(err, session.ErrNoActiveBooking),
		errors.Is(err, session.ErrNoActiveJob),
		errors.Is(err, offers.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrActiveBookingExists),
		errors.Is(err, session.ErrJobAlreadyActive),
		errors.Is(err, session.ErrAlreadyRated),
		errors.Is(err, session.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, session.ErrInvalidRating),
		errors.Is(err, session.ErrInvalidPhone):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
