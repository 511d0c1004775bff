// Package geo holds the pure coordinate math used for scoring guesses.
package geo

import "math"

// AnswerRadiusMeters is the game's correct-answer contract: a guess within
// this great-circle distance of the true site counts as correct.
const AnswerRadiusMeters = 100

const earthRadiusMeters = 6371000

// DistanceMeters returns the haversine distance between two WGS84 lat/lng
// points in degrees, rounded to the nearest meter.
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	φ1 := lat1 * math.Pi / 180.0
	φ2 := lat2 * math.Pi / 180.0
	dφ := (lat2 - lat1) * math.Pi / 180.0
	dλ := (lng2 - lng1) * math.Pi / 180.0

	sinDφ := math.Sin(dφ / 2)
	sinDλ := math.Sin(dλ / 2)

	a := sinDφ*sinDφ + math.Cos(φ1)*math.Cos(φ2)*sinDλ*sinDλ
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return math.Round(earthRadiusMeters * c)
}

// IsWithinRadius reports whether the guess lies within radius meters of the
// true site. Pass AnswerRadiusMeters for the standard correctness check.
func IsWithinRadius(trueLat, trueLng, guessLat, guessLng, radius float64) bool {
	return DistanceMeters(trueLat, trueLng, guessLat, guessLng) <= radius
}
