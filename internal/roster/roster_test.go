package roster

import (
	"testing"

	"github.com/example/gatiyaan/internal/models"
)

func TestFindOrCreateIsIdempotent(t *testing.T) {
	r := NewSeeded()
	first := r.FindOrCreate("5551112222", models.RoleCustomer)
	second := r.FindOrCreate("5551112222", models.RoleProvider)
	if first.ID != second.ID {
		t.Fatalf("expected same identity, got %s and %s", first.ID, second.ID)
	}
	if second.Role != models.RoleCustomer {
		t.Fatalf("existing identity role must not change, got %s", second.Role)
	}
}

func TestAdminPhoneOverridesHint(t *testing.T) {
	r := NewSeeded()
	id := r.FindOrCreate(AdminPhone, models.RoleCustomer)
	if id.Role != models.RoleAdmin {
		t.Fatalf("expected admin role, got %s", id.Role)
	}
	if id.ID != "admin-001" {
		t.Fatalf("expected seeded admin identity, got %s", id.ID)
	}
}

func TestInvalidHintDefaultsToCustomer(t *testing.T) {
	r := New()
	id := r.FindOrCreate("5553334444", models.Role("wizard"))
	if id.Role != models.RoleCustomer {
		t.Fatalf("expected customer fallback, got %s", id.Role)
	}
	if len(r.All()) != 1 {
		t.Fatalf("expected roster of 1, got %d", len(r.All()))
	}
}
