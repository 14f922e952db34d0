package theme

import (
	"context"
	"log/slog"
	"sync"

	"github.com/example/gatiyaan/internal/models"
)

// Store persists the single light/dark preference. Get returns an empty
// theme when nothing has been saved yet.
type Store interface {
	Get(ctx context.Context) (models.Theme, error)
	Set(ctx context.Context, t models.Theme) error
}

type Memory struct {
	mu sync.Mutex
	t  models.Theme
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Get(ctx context.Context) (models.Theme, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.t, nil
}

func (m *Memory) Set(ctx context.Context, t models.Theme) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.t = t
	return nil
}

// Service resolves the preference once at startup and keeps the current
// value in memory; every toggle is written through to the store.
type Service struct {
	store  Store
	logger *slog.Logger

	mu      sync.Mutex
	current models.Theme
}

// NewService reads the saved preference, falling back to the OS-level
// default and finally to light.
func NewService(ctx context.Context, store Store, osDefault models.Theme, logger *slog.Logger) *Service {
	s := &Service{store: store, logger: logger}
	s.current = resolve(ctx, store, osDefault, logger)
	return s
}

func resolve(ctx context.Context, store Store, osDefault models.Theme, logger *slog.Logger) models.Theme {
	if store != nil {
		saved, err := store.Get(ctx)
		if err != nil {
			if logger != nil {
				logger.Warn("theme read failed", "error", err)
			}
		} else if saved.Valid() {
			return saved
		}
	}
	if osDefault.Valid() {
		return osDefault
	}
	return models.ThemeLight
}

func (s *Service) Current() models.Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Toggle flips the theme and writes it through. A store failure keeps the
// in-memory value so the client still sees the flip.
func (s *Service) Toggle(ctx context.Context) models.Theme {
	s.mu.Lock()
	if s.current == models.ThemeDark {
		s.current = models.ThemeLight
	} else {
		s.current = models.ThemeDark
	}
	next := s.current
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Set(ctx, next); err != nil && s.logger != nil {
			s.logger.Warn("theme write failed", "error", err, "theme", next)
		}
	}
	return next
}
