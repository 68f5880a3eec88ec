package geo

import (
	"math"
	"sort"
)

const (
	// Earth radius in kilometers
	EarthRadiusKm = 6371.0
)

// Haversine calculates the great-circle distance between two points
// Returns distance in kilometers
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	// Convert to radians
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLng := (lng2 - lng1) * math.Pi / 180

	// Haversine formula
	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// Candidate is a location considered for radius membership.
type Candidate struct {
	ID        string
	Latitude  float64
	Longitude float64
}

// HasCoordinates reports whether the candidate has been geocoded.
// 0,0 is the "missing" sentinel, never a real coordinate.
func (c Candidate) HasCoordinates() bool {
	return c.Latitude != 0 || c.Longitude != 0
}

// FindWithinRadius returns the IDs of candidates within radiusKm of the
// centre. Candidates without coordinates are excluded unconditionally.
// The result is unordered; callers needing distance-sorted output use
// DistancesWithinRadius.
func FindWithinRadius(centreLat, centreLng, radiusKm float64, candidates []Candidate) []string {
	ids := make([]string, 0)
	for _, c := range candidates {
		if !c.HasCoordinates() {
			continue
		}
		if Haversine(centreLat, centreLng, c.Latitude, c.Longitude) <= radiusKm {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// Distance pairs a candidate ID with its computed distance from a centre.
type Distance struct {
	ID         string
	DistanceKm float64
}

// DistancesWithinRadius returns candidates within radiusKm sorted ascending
// by distance, capped to max results (0 means no cap). Ties keep the original
// candidate order.
func DistancesWithinRadius(centreLat, centreLng, radiusKm float64, candidates []Candidate, max int) []Distance {
	result := make([]Distance, 0)
	for _, c := range candidates {
		if !c.HasCoordinates() {
			continue
		}
		d := Haversine(centreLat, centreLng, c.Latitude, c.Longitude)
		if d <= radiusKm {
			result = append(result, Distance{ID: c.ID, DistanceKm: d})
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].DistanceKm < result[j].DistanceKm
	})

	if max > 0 && len(result) > max {
		result = result[:max]
	}
	return result
}
