package roster

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"sync"

	"github.com/example/gatiyaan/internal/models"
)

// AdminPhone maps unconditionally to the administrator identity,
// regardless of any role hint passed at login.
const AdminPhone = "0000000000"

// Roster is the in-memory identity registry. Lookups are by phone number;
// unknown phones get a freshly synthesized identity (found-or-created).
type Roster struct {
	mu         sync.RWMutex
	identities []models.Identity
}

func New(seed ...models.Identity) *Roster {
	r := &Roster{}
	r.identities = append(r.identities, seed...)
	return r
}

// NewSeeded returns a roster preloaded with the demo identities the mobile
// client ships with.
func NewSeeded() *Roster {
	return New(
		models.Identity{ID: "admin-001", Name: "Admin", Phone: AdminPhone, Role: models.RoleAdmin},
		models.Identity{ID: "provider-1", Name: "Suresh Kumar", Phone: "8765432109", Role: models.RoleProvider},
		models.Identity{ID: "user-1", Name: "Rohan Sharma", Phone: "9876543210", Role: models.RoleCustomer},
	)
}

// FindOrCreate resolves a phone number to an identity. The admin phone wins
// over any hint; an unknown phone creates a new identity with the hinted
// role (customer when the hint is empty or invalid).
func (r *Roster) FindOrCreate(phone string, hint models.Role) models.Identity {
	phone = strings.TrimSpace(phone)
	if !hint.Valid() {
		hint = models.RoleCustomer
	}
	if phone == AdminPhone {
		hint = models.RoleAdmin
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.identities {
		if id.Phone == phone {
			return id
		}
	}
	created := models.Identity{
		ID:    "user-" + newID(),
		Name:  "New User",
		Phone: phone,
		Role:  hint,
	}
	r.identities = append(r.identities, created)
	return created
}

// All returns a snapshot of every known identity.
func (r *Roster) All() []models.Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Identity, len(r.identities))
	copy(out, r.identities)
	return out
}

func newID() string { b := make([]byte, 8); _, _ = rand.Read(b); return hex.EncodeToString(b) }
