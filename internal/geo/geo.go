package geo

import (
	"math"
	"sync"

	"github.com/example/gatiyaan/internal/models"
)

// Locator is the minimal interface the offer catalog needs to answer
// "which vans are near this point".
type Locator interface {
	Nearby(lat, lng float64, limit int) []models.Offer
	Upsert(o models.Offer)
}

type Index struct {
	mu     sync.RWMutex
	offers map[string]models.Offer
}

func NewIndex() *Index {
	return &Index{offers: make(map[string]models.Offer)}
}

func (g *Index) Upsert(o models.Offer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.offers[o.ID] = o
}

// naive scan; fine at catalog scale, swap for geo-hash if the fleet grows
func (g *Index) Nearby(lat, lng float64, limit int) []models.Offer {
	g.mu.RLock()
	defer g.mu.RUnlock()
	type pair struct {
		o    models.Offer
		dist float64
	}
	arr := make([]pair, 0, len(g.offers))
	for _, o := range g.offers {
		if o.Status != models.OfferApproved {
			continue
		}
		dist := Haversine(lat, lng, o.Pos.Lat, o.Pos.Lng)
		arr = append(arr, pair{o, dist})
	}
	n := limit
	if n > len(arr) {
		n = len(arr)
	}
	// partial selection sort for top-N
	for i := 0; i < n; i++ {
		minIdx := i
		for j := i + 1; j < len(arr); j++ {
			if arr[j].dist < arr[minIdx].dist {
				minIdx = j
			}
		}
		arr[i], arr[minIdx] = arr[minIdx], arr[i]
	}
	out := make([]models.Offer, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, arr[i].o)
	}
	return out
}

// Haversine distance in meters
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	const R = 6371000.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}
