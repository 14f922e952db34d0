package offers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	mrand "math/rand"
	"sort"
	"sync"

	"github.com/example/gatiyaan/internal/eta"
	"github.com/example/gatiyaan/internal/geo"
	"github.com/example/gatiyaan/internal/models"
	"github.com/example/gatiyaan/internal/observability"
)

// Reference point the fleet operates around (Bengaluru city centre).
const (
	RefLat = 12.9716
	RefLng = 77.5946
)

var ErrNotFound = errors.New("offer not found")

// AddInput is the partial offer an admin submits; the catalog synthesizes
// the rest (id, position, rating, approval).
type AddInput struct {
	PartnerName string  `json:"partner_name"`
	VanModel    string  `json:"van_model"`
	ETAMinutes  int     `json:"eta_minutes"`
	PricePerKWh float64 `json:"price_per_kwh"`
	CapacityKWh int     `json:"capacity_kwh"`
}

// Catalog holds every known offer, newest first. Offers are never deleted,
// only status-flagged.
type Catalog struct {
	mu      sync.RWMutex
	offers  []models.Offer
	locator geo.Locator
}

func NewCatalog(locator geo.Locator) *Catalog {
	if locator == nil {
		locator = geo.NewIndex()
	}
	return &Catalog{locator: locator}
}

// Seed populates the catalog from the generative source. Any failure, a
// nil source, or an empty result falls back to the built-in sample fleet;
// the fallback is a hard contract, not best-effort degradation.
func (c *Catalog) Seed(ctx context.Context, src Source, n int) (int, bool) {
	var (
		seeded   []models.Offer
		fallback bool
	)
	if src != nil {
		if generated, err := src.Generate(ctx, n); err == nil && len(generated) > 0 {
			seeded = generated
		}
	}
	if seeded == nil {
		seeded = Fallback()
		fallback = true
		observability.OfferSourceFallbacks.Inc()
	}

	c.mu.Lock()
	c.offers = seeded
	c.mu.Unlock()
	for _, o := range seeded {
		c.locator.Upsert(o)
	}
	return len(seeded), fallback
}

func (c *Catalog) List() []models.Offer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Offer, len(c.offers))
	copy(out, c.offers)
	return out
}

func (c *Catalog) Get(id string) (models.Offer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, o := range c.offers {
		if o.ID == id {
			return o, true
		}
	}
	return models.Offer{}, false
}

// Add builds a complete offer from partial admin input and prepends it.
// New partners start approved with a maximal rating, positioned near the
// reference point; a missing ETA is estimated from that position.
func (c *Catalog) Add(in AddInput) models.Offer {
	o := models.Offer{
		ID:          "van-" + newID(),
		PartnerName: in.PartnerName,
		VanModel:    in.VanModel,
		Rating:      5.0,
		ETAMinutes:  in.ETAMinutes,
		PricePerKWh: in.PricePerKWh,
		CapacityKWh: in.CapacityKWh,
		Pos:         jitter(0.1),
		Status:      models.OfferApproved,
	}
	if o.ETAMinutes <= 0 {
		o.ETAMinutes = eta.EstimateMinutes(o.Pos.Lat, o.Pos.Lng, RefLat, RefLng, 0)
	}

	c.mu.Lock()
	c.offers = append([]models.Offer{o}, c.offers...)
	c.mu.Unlock()
	c.locator.Upsert(o)
	return o
}

// Update replaces the offer with the same ID.
func (c *Catalog) Update(o models.Offer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.offers {
		if c.offers[i].ID == o.ID {
			c.offers[i] = o
			c.locator.Upsert(o)
			return nil
		}
	}
	return ErrNotFound
}

// Nearby lists approved offers around a point, closest first.
func (c *Catalog) Nearby(lat, lng float64, limit int) []models.Offer {
	return c.locator.Nearby(lat, lng, limit)
}

// Rank orders approved offers best-first by a blend of ETA and rating.
func (c *Catalog) Rank() []models.Offer {
	c.mu.RLock()
	out := make([]models.Offer, 0, len(c.offers))
	for _, o := range c.offers {
		if o.Status == models.OfferApproved {
			out = append(out, o)
		}
	}
	c.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return score(out[i]) < score(out[j]) })
	return out
}

// score = w1*eta + w2*(5 - rating), lower is better
func score(o models.Offer) float64 {
	return float64(o.ETAMinutes)*60 + 30.0*(5.0-o.Rating)
}

func jitter(scale float64) models.Coord {
	return models.Coord{
		Lat: RefLat + (mrand.Float64()-0.5)*scale,
		Lng: RefLng + (mrand.Float64()-0.5)*scale,
	}
}

func newID() string { b := make([]byte, 8); _, _ = rand.Read(b); return hex.EncodeToString(b) }
