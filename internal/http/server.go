package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/gatiyaan/internal/config"
	"github.com/example/gatiyaan/internal/dispatch"
	"github.com/example/gatiyaan/internal/geo"
	"github.com/example/gatiyaan/internal/ingest"
	"github.com/example/gatiyaan/internal/jobs"
	"github.com/example/gatiyaan/internal/models"
	"github.com/example/gatiyaan/internal/offers"
	"github.com/example/gatiyaan/internal/roster"
	"github.com/example/gatiyaan/internal/sched"
	"github.com/example/gatiyaan/internal/session"
	"github.com/example/gatiyaan/internal/theme"
)

type Server struct {
	cfg     config.ServerConfig
	logger  *slog.Logger
	manager *session.Manager
	catalog *offers.Catalog
	theme   *theme.Service
	kafka   *ingest.KafkaProducer
	wsreg   *dispatch.WSRegistry
	mux     *mux.Router
}

// New wires the full service from config: in-memory collaborators by
// default, Redis/Kafka/GenAI/FCM when configured.
func New(cfg config.ServerConfig, logger *slog.Logger) *Server {
	ctx := context.Background()

	var locator geo.Locator
	if cfg.RedisAddr != "" {
		locator = geo.NewRedisGeo(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisGeoKey)
	} else {
		locator = geo.NewIndex()
	}

	catalog := offers.NewCatalog(locator)
	var src offers.Source
	if cfg.GenAIAPIKey != "" {
		client := offers.NewGenAIClient(cfg.GenAIAPIKey)
		client.Model = cfg.GenAIModel
		if cfg.GenAIEndpoint != "" {
			client.Endpoint = cfg.GenAIEndpoint
		}
		src = client
	}
	n, fallback := catalog.Seed(ctx, src, cfg.OfferSeedCount)
	logger.Info("offer catalog seeded", "offers", n, "fallback", fallback)

	var themeStore theme.Store
	if cfg.RedisAddr != "" {
		themeStore = theme.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.ThemeKey)
	} else {
		themeStore = theme.NewMemory()
	}
	themeSvc := theme.NewService(ctx, themeStore, models.Theme(cfg.DefaultTheme), logger)

	var kafka *ingest.KafkaProducer
	if len(cfg.KafkaBrokers) > 0 {
		kafka = ingest.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	}

	wsreg := dispatch.NewWSRegistry(logger)
	notifier := &dispatch.Notifier{WS: wsreg}
	if cfg.FCMEndpoint != "" {
		notifier.FCM = dispatch.NewFCMDispatcher(cfg.FCMEndpoint, cfg.FCMKey)
	}

	deps := session.Deps{
		Roster:    roster.NewSeeded(),
		Catalog:   catalog,
		Jobs:      jobs.NewQueue(),
		Countdown: sched.New(cfg.MinuteUnit, cfg.CompleteDelay),
		Notifier:  notifier,
		Logger:    logger,
	}
	if kafka != nil {
		deps.Events = kafka
	}

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		manager: session.NewManager(deps),
		catalog: catalog,
		theme:   themeSvc,
		kafka:   kafka,
		wsreg:   wsreg,
		mux:     mux.NewRouter(),
	}
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.mux.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/sessions", s.handleOpenSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleCloseSession).Methods("DELETE")

	api.HandleFunc("/auth/login", s.handleLogin).Methods("POST")
	api.HandleFunc("/auth/logout", s.handleLogout).Methods("POST")

	api.HandleFunc("/nav", s.handleNavState).Methods("GET")
	api.HandleFunc("/nav", s.handleNavigateTo).Methods("POST")
	api.HandleFunc("/nav/back", s.handleNavigateBack).Methods("POST")

	api.HandleFunc("/offers", s.handleListOffers).Methods("GET")
	api.HandleFunc("/offers/{id}/select", s.handleSelectOffer).Methods("POST")

	api.HandleFunc("/bookings", s.handleCreateBooking).Methods("POST")
	api.HandleFunc("/bookings/active", s.handleActiveBooking).Methods("GET")
	api.HandleFunc("/bookings/active/complete", s.handleCompleteBooking).Methods("POST")
	api.HandleFunc("/bookings/active/cancel", s.handleCancelBooking).Methods("POST")
	api.HandleFunc("/bookings/history", s.handleBookingHistory).Methods("GET")
	api.HandleFunc("/bookings/{id}/rating", s.handleRateBooking).Methods("POST")

	api.HandleFunc("/provider/availability", s.handleToggleAvailability).Methods("POST")
	api.HandleFunc("/provider/jobs", s.handlePendingJobs).Methods("GET")
	api.HandleFunc("/provider/jobs/{booking_id}/accept", s.handleAcceptJob).Methods("POST")
	api.HandleFunc("/provider/jobs/active/arrive", s.handleArriveAtJob).Methods("POST")
	api.HandleFunc("/provider/jobs/active/complete", s.handleCompleteJob).Methods("POST")

	api.HandleFunc("/admin/providers", s.handleAdminListProviders).Methods("GET")
	api.HandleFunc("/admin/providers", s.handleAdminAddProvider).Methods("POST")
	api.HandleFunc("/admin/providers/{id}", s.handleAdminUpdateProvider).Methods("PUT")
	api.HandleFunc("/admin/users", s.handleAdminListUsers).Methods("GET")

	api.HandleFunc("/theme", s.handleGetTheme).Methods("GET")
	api.HandleFunc("/theme/toggle", s.handleToggleTheme).Methods("POST")

	s.mux.HandleFunc("/ws/customer", s.handleCustomerWS)
	s.mux.HandleFunc("/ws/provider", s.handleProviderWS)

	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) }).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

// Shutdown releases external producers.
func (s *Server) Shutdown() {
	if s.kafka != nil {
		_ = s.kafka.Close()
	}
}
