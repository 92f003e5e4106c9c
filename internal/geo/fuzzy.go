// Package geo derives the obfuscated coordinates disclosed to participants
// and provides great-circle distance math.
package geo

import (
	"hash/fnv"
	"math"
	"math/rand"
)

const earthRadiusMeters = 6371000

// FuzzyPoint returns the obfuscated coordinate for a spot.
//
// The point is a pure function of (seed, lat, lng, radiusMeters): the RNG is
// seeded from a hash of the spot's stable identity, so repeated calls always
// return the identical coordinate. Clients redraw the obfuscation circle on
// every clue request and a shifting circle would break that contract.
//
// The radial distance is drawn with sqrt of a uniform sample so the points
// are uniformly distributed over the disk rather than clustered near the
// center. The resulting point is always within radiusMeters of the true
// location.
func FuzzyPoint(seed string, lat, lng float64, radiusMeters int) (float64, float64) {
	h := fnv.New64a()
	h.Write([]byte(seed))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	distance := float64(radiusMeters) * math.Sqrt(rng.Float64())
	angle := rng.Float64() * 2 * math.Pi

	latOffset := distance * math.Cos(angle) / earthRadiusMeters * (180 / math.Pi)
	lngOffset := distance * math.Sin(angle) / (earthRadiusMeters * math.Cos(lat*math.Pi/180)) * (180 / math.Pi)

	fuzzyLat := lat + latOffset
	fuzzyLng := lng + lngOffset

	fuzzyLat = math.Max(-90, math.Min(90, fuzzyLat))
	fuzzyLng = math.Mod(fuzzyLng+180, 360)
	if fuzzyLng < 0 {
		fuzzyLng += 360
	}
	fuzzyLng -= 180

	return fuzzyLat, fuzzyLng
}

// Haversine returns the great-circle distance in meters between two
// coordinates.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	const degToRad = math.Pi / 180

	phi1 := lat1 * degToRad
	phi2 := lat2 * degToRad
	dPhi := (lat2 - lat1) * degToRad
	dLambda := (lng2 - lng1) * degToRad

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// ValidCoordinates reports whether lat/lng fall in their valid ranges.
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
