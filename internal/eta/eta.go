package eta

import "math"

// Naive ETA: distance / speed_mps. Good enough for synthesized offers;
// a routing engine would replace this in a real deployment.
func EstimateSeconds(fromLat, fromLng, toLat, toLng, speedMps float64) float64 {
	if speedMps <= 0 {
		speedMps = 8.0 // ~28.8 km/h default city speed
	}
	d := haversine(fromLat, fromLng, toLat, toLng)
	return d / speedMps
}

// EstimateMinutes rounds up to a whole minute, with a floor of one minute
// so a zero ETA never reaches the countdown scheduler.
func EstimateMinutes(fromLat, fromLng, toLat, toLng, speedMps float64) int {
	sec := EstimateSeconds(fromLat, fromLng, toLat, toLng, speedMps)
	m := int(math.Ceil(sec / 60))
	if m < 1 {
		m = 1
	}
	return m
}

// local haversine to avoid importing geo from a leaf package
func haversine(lat1, lng1, lat2, lng2 float64) float64 {
	const R = 6371000.0
	toRad := func(deg float64) float64 { return deg * math.Pi / 180.0 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}
