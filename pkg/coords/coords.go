// Package coords extracts candidate coordinates from free-form analysis text
// and refines them: range validation, near-duplicate removal, distances and
// multi-image consensus.
package coords

import (
	"fmt"
	"math"

	"github.com/samber/lo"
)

// Point is a WGS84 coordinate pair in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the point is inside the WGS84 range.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

func (p Point) String() string {
	return fmt.Sprintf("%.6f, %.6f", p.Lat, p.Lon)
}

// Candidate is one possible location for an image, with the origin of the
// estimate attached.
type Candidate struct {
	Point
	Label      string  `json:"label"`                // Primary, Alternative 1, ...
	Source     string  `json:"source"`               // exif, vision, geocode, wikipedia
	Confidence float64 `json:"confidence,omitempty"` // 0..1
	Address    string  `json:"address,omitempty"`
}

const earthRadiusKm = 6371.0

// Distance returns the haversine great-circle distance between two points in
// kilometers.
func Distance(a, b Point) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// DistancePair describes the separation between two candidates.
type DistancePair struct {
	From  string  `json:"from"`
	To    string  `json:"to"`
	Km    float64 `json:"distance_km"`
	Miles float64 `json:"distance_miles"`
}

// PairwiseDistances returns the distance between every pair of candidates,
// rounded to two decimals as in the exported reports.
func PairwiseDistances(cands []Candidate) []DistancePair {
	if len(cands) < 2 {
		return nil
	}
	var out []DistancePair
	for i := 0; i < len(cands); i++ {
		for j := i + 1; j < len(cands); j++ {
			km := Distance(cands[i].Point, cands[j].Point)
			out = append(out, DistancePair{
				From:  cands[i].Label,
				To:    cands[j].Label,
				Km:    math.Round(km*100) / 100,
				Miles: math.Round(km*0.621371*100) / 100,
			})
		}
	}
	return out
}

// Dedupe removes candidates that fall within epsilonMeters of an earlier
// candidate. Order is preserved, so the primary estimate survives.
func Dedupe(cands []Candidate, epsilonMeters float64) []Candidate {
	var kept []Candidate
	for _, c := range cands {
		dup := lo.ContainsBy(kept, func(k Candidate) bool {
			return Distance(c.Point, k.Point)*1000 < epsilonMeters
		})
		if !dup {
			kept = append(kept, c)
		}
	}
	return kept
}

// Consensus combines per-image estimates into one location. Points are
// clustered by pairwise distance; the largest cluster wins and its arithmetic
// mean is returned. ok is false when no two points agree within radiusKm and
// there is more than one point to choose from.
func Consensus(points []Point, radiusKm float64) (Point, bool) {
	switch len(points) {
	case 0:
		return Point{}, false
	case 1:
		return points[0], true
	}

	best := -1
	var cluster []Point
	for _, p := range points {
		members := lo.Filter(points, func(q Point, _ int) bool {
			return Distance(p, q) <= radiusKm
		})
		if len(members) > best {
			best = len(members)
			cluster = members
		}
	}
	if best < 2 {
		return Point{}, false
	}
	return Center(cluster), true
}

// Center returns the arithmetic mean of the points. Adequate for the small
// separations consensus operates on; no need for spherical averaging.
func Center(points []Point) Point {
	var lat, lon float64
	for _, p := range points {
		lat += p.Lat
		lon += p.Lon
	}
	n := float64(len(points))
	return Point{Lat: lat / n, Lon: lon / n}
}
