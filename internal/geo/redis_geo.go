package geo

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/example/gatiyaan/internal/models"
)

// RedisGeo implements Locator using Redis GEO commands, with a metadata
// hash per offer so Nearby can rebuild the full listing.
type RedisGeo struct {
	client *redis.Client
	key    string
	ctx    context.Context
}

func NewRedisGeo(addr, password, key string) *RedisGeo {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisGeo{client: c, key: key, ctx: context.Background()}
}

func (r *RedisGeo) Upsert(o models.Offer) {
	_, _ = r.client.GeoAdd(r.ctx, r.key, &redis.GeoLocation{Longitude: o.Pos.Lng, Latitude: o.Pos.Lat, Name: o.ID}).Result()
	_ = r.client.HSet(r.ctx, metaKey(o.ID), map[string]interface{}{
		"partner_name":  o.PartnerName,
		"van_model":     o.VanModel,
		"rating":        strconv.FormatFloat(o.Rating, 'f', -1, 64),
		"eta_minutes":   strconv.Itoa(o.ETAMinutes),
		"price_per_kwh": strconv.FormatFloat(o.PricePerKWh, 'f', -1, 64),
		"capacity_kwh":  strconv.Itoa(o.CapacityKWh),
		"status":        string(o.Status),
	}).Err()
}

func (r *RedisGeo) Nearby(lat, lng float64, limit int) []models.Offer {
	res, err := r.client.GeoRadius(r.ctx, r.key, lng, lat, &redis.GeoRadiusQuery{Radius: 50000, Unit: "m", WithCoord: true, WithDist: true, Count: limit, Sort: "ASC"}).Result()
	if err != nil {
		return nil
	}
	out := make([]models.Offer, 0, len(res))
	for _, g := range res {
		o := models.Offer{ID: g.Name}
		o.Pos.Lat = g.Latitude
		o.Pos.Lng = g.Longitude
		if m, err := r.client.HGetAll(r.ctx, metaKey(g.Name)).Result(); err == nil {
			o.PartnerName = m["partner_name"]
			o.VanModel = m["van_model"]
			if f, err := strconv.ParseFloat(m["rating"], 64); err == nil {
				o.Rating = f
			}
			if n, err := strconv.Atoi(m["eta_minutes"]); err == nil {
				o.ETAMinutes = n
			}
			if f, err := strconv.ParseFloat(m["price_per_kwh"], 64); err == nil {
				o.PricePerKWh = f
			}
			if n, err := strconv.Atoi(m["capacity_kwh"]); err == nil {
				o.CapacityKWh = n
			}
			o.Status = models.OfferStatus(m["status"])
		}
		if o.Status != models.OfferApproved {
			continue
		}
		out = append(out, o)
	}
	return out
}

func metaKey(id string) string { return "offer:meta:" + id }
