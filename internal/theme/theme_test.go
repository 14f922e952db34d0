package theme

import (
	"context"
	"errors"
	"testing"

	"github.com/example/gatiyaan/internal/models"
)

type brokenStore struct{}

func (brokenStore) Get(ctx context.Context) (models.Theme, error) { return "", errors.New("down") }
func (brokenStore) Set(ctx context.Context, t models.Theme) error { return errors.New("down") }

func TestResolvePrecedence(t *testing.T) {
	ctx := context.Background()

	saved := NewMemory()
	_ = saved.Set(ctx, models.ThemeDark)
	if got := NewService(ctx, saved, models.ThemeLight, nil).Current(); got != models.ThemeDark {
		t.Fatalf("saved value must win, got %s", got)
	}

	if got := NewService(ctx, NewMemory(), models.ThemeDark, nil).Current(); got != models.ThemeDark {
		t.Fatalf("os default must win when nothing saved, got %s", got)
	}

	if got := NewService(ctx, NewMemory(), "", nil).Current(); got != models.ThemeLight {
		t.Fatalf("light is the final fallback, got %s", got)
	}
}

func TestToggleWritesThrough(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	svc := NewService(ctx, store, "", nil)

	if got := svc.Toggle(ctx); got != models.ThemeDark {
		t.Fatalf("expected dark after first toggle, got %s", got)
	}
	if saved, _ := store.Get(ctx); saved != models.ThemeDark {
		t.Fatalf("toggle must persist, store has %q", saved)
	}
	if got := svc.Toggle(ctx); got != models.ThemeLight {
		t.Fatalf("expected light after second toggle, got %s", got)
	}
}

func TestToggleSurvivesStoreFailure(t *testing.T) {
	ctx := context.Background()
	svc := NewService(ctx, brokenStore{}, "", nil)
	if got := svc.Toggle(ctx); got != models.ThemeDark {
		t.Fatalf("in-memory flip must stand, got %s", got)
	}
}
