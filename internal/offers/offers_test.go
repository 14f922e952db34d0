package offers

import (
	"context"
	"errors"
	"testing"

	"github.com/example/gatiyaan/internal/models"
)

type failingSource struct{}

func (failingSource) Generate(ctx context.Context, n int) ([]models.Offer, error) {
	return nil, errors.New("boom")
}

type fixedSource struct{ offers []models.Offer }

func (f fixedSource) Generate(ctx context.Context, n int) ([]models.Offer, error) {
	return f.offers, nil
}

func TestSeedFallsBackOnSourceError(t *testing.T) {
	c := NewCatalog(nil)
	n, fallback := c.Seed(context.Background(), failingSource{}, 5)
	if !fallback {
		t.Fatal("expected fallback")
	}
	if n != 3 {
		t.Fatalf("expected 3 fallback offers, got %d", n)
	}
	if got := c.List(); got[0].PartnerName != "ChargeUp Now" {
		t.Fatalf("unexpected first offer %q", got[0].PartnerName)
	}
}

func TestSeedFallsBackOnNilSource(t *testing.T) {
	c := NewCatalog(nil)
	if _, fallback := c.Seed(context.Background(), nil, 5); !fallback {
		t.Fatal("expected fallback with nil source")
	}
}

func TestSeedUsesSourceWhenHealthy(t *testing.T) {
	c := NewCatalog(nil)
	src := fixedSource{offers: []models.Offer{{ID: "g1", PartnerName: "VoltVans", Status: models.OfferApproved}}}
	n, fallback := c.Seed(context.Background(), src, 1)
	if fallback || n != 1 {
		t.Fatalf("expected generated seed, got n=%d fallback=%v", n, fallback)
	}
}

func TestAddSynthesizesCompleteOffer(t *testing.T) {
	c := NewCatalog(nil)
	o := c.Add(AddInput{PartnerName: "GreenJolt", VanModel: "Tata Ace EV", PricePerKWh: 21, CapacityKWh: 35})
	if o.ID == "" {
		t.Fatal("expected synthesized id")
	}
	if o.Rating != 5.0 {
		t.Fatalf("expected default rating 5.0, got %f", o.Rating)
	}
	if o.Status != models.OfferApproved {
		t.Fatalf("expected approved, got %s", o.Status)
	}
	if o.ETAMinutes < 1 {
		t.Fatalf("expected estimated ETA, got %d", o.ETAMinutes)
	}
	if o.Pos.Lat == 0 || o.Pos.Lng == 0 {
		t.Fatal("expected randomized position")
	}
	if got := c.List(); got[0].ID != o.ID {
		t.Fatal("new offer must be prepended")
	}
}

func TestUpdateReplacesExactlyOne(t *testing.T) {
	c := NewCatalog(nil)
	o := c.Add(AddInput{PartnerName: "GreenJolt", VanModel: "Tata Ace EV", PricePerKWh: 21})
	o.PricePerKWh = 30
	if err := c.Update(o); err != nil {
		t.Fatalf("update: %v", err)
	}
	count := 0
	for _, got := range c.List() {
		if got.ID == o.ID {
			count++
			if got.PricePerKWh != 30 {
				t.Fatalf("expected updated price, got %f", got.PricePerKWh)
			}
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one entry, got %d", count)
	}
}

func TestUpdateUnknownOffer(t *testing.T) {
	c := NewCatalog(nil)
	if err := c.Update(models.Offer{ID: "nope"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDecodeOffers(t *testing.T) {
	raw := []byte(` [{"partnerName":"VoltVans","vanModel":"Tata Ace EV","rating":4.7,"etaMinutes":10,"pricePerKWh":19.5,"capacityKWh":28}] `)
	got, err := decodeOffers(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 offer, got %d", len(got))
	}
	o := got[0]
	if o.PartnerName != "VoltVans" || o.PricePerKWh != 19.5 || o.ETAMinutes != 10 {
		t.Fatalf("bad decode: %+v", o)
	}
	if o.ID == "" || o.Status != models.OfferApproved {
		t.Fatalf("expected decorated offer, got %+v", o)
	}
}

func TestDecodeOffersMalformed(t *testing.T) {
	if _, err := decodeOffers([]byte("not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestRankPrefersFasterAndBetterRated(t *testing.T) {
	c := NewCatalog(nil)
	c.Seed(context.Background(), fixedSource{offers: []models.Offer{
		{ID: "slow", ETAMinutes: 25, Rating: 4.6, Status: models.OfferApproved},
		{ID: "fast", ETAMinutes: 8, Rating: 4.9, Status: models.OfferApproved},
		{ID: "hidden", ETAMinutes: 1, Rating: 5, Status: models.OfferPending},
	}}, 3)
	ranked := c.Rank()
	if len(ranked) != 2 {
		t.Fatalf("pending offers must be excluded, got %d", len(ranked))
	}
	if ranked[0].ID != "fast" {
		t.Fatalf("expected fast first, got %s", ranked[0].ID)
	}
}
