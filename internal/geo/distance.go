// Package geo provides the spatial primitives of zone formation: great-circle
// distances and the department to region mapping.
package geo

import "math"

// earthRadiusKm is the mean Earth radius used for great-circle distances.
const earthRadiusKm = 6371.0

// Point is a WGS84 coordinate pair in decimal degrees.
type Point struct {
	Lat float64
	Lon float64
}

// HaversineKm returns the great-circle distance in kilometers between two
// points. NaN or out-of-range coordinates propagate into the result;
// validating inputs is the caller's job.
func HaversineKm(a, b Point) float64 {
	sinLat := math.Sin(radians(b.Lat-a.Lat) / 2)
	sinLon := math.Sin(radians(b.Lon-a.Lon) / 2)

	h := sinLat*sinLat + math.Cos(radians(a.Lat))*math.Cos(radians(b.Lat))*sinLon*sinLon

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// Nearest scans all centers in one pass and returns the index of the one
// closest to p along with the distance to it. Returns (-1, NaN) when centers
// is empty.
func Nearest(p Point, centers []Point) (int, float64) {
	if len(centers) == 0 {
		return -1, math.NaN()
	}

	idx := 0
	best := HaversineKm(p, centers[0])
	for i := 1; i < len(centers); i++ {
		if d := HaversineKm(p, centers[i]); d < best {
			idx, best = i, d
		}
	}
	return idx, best
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
