package utils

import (
	"fmt"
	"math"
)

const earthRadiusKm = 6371

// Point represents a geographical point
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// InvalidCoordinateError reports a latitude or longitude outside the
// valid range.
type InvalidCoordinateError struct {
	Field string
	Value float64
}

func (e *InvalidCoordinateError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Value)
}

// ValidatePoint checks that a point's latitude is within [-90, 90] and
// longitude within [-180, 180].
func ValidatePoint(p Point) error {
	if math.IsNaN(p.Lat) || p.Lat < -90 || p.Lat > 90 {
		return &InvalidCoordinateError{Field: "latitude", Value: p.Lat}
	}
	if math.IsNaN(p.Lng) || p.Lng < -180 || p.Lng > 180 {
		return &InvalidCoordinateError{Field: "longitude", Value: p.Lng}
	}
	return nil
}

// HaversineDistance calculates the great-circle distance between two points
// on Earth. Returns distance in kilometers.
func HaversineDistance(a, b Point) float64 {
	lat1Rad := a.Lat * math.Pi / 180
	lng1Rad := a.Lng * math.Pi / 180
	lat2Rad := b.Lat * math.Pi / 180
	lng2Rad := b.Lng * math.Pi / 180

	dlat := lat2Rad - lat1Rad
	dlng := lng2Rad - lng1Rad

	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dlng/2)*math.Sin(dlng/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// WithinRadius reports whether b lies within radiusKm of a along the
// great circle. Either point carrying out-of-range coordinates is an error.
func WithinRadius(a, b Point, radiusKm float64) (bool, error) {
	if err := ValidatePoint(a); err != nil {
		return false, err
	}
	if err := ValidatePoint(b); err != nil {
		return false, err
	}
	return HaversineDistance(a, b) <= radiusKm, nil
}

// BoundingBox represents a rectangular area
type BoundingBox struct {
	NorthEast Point `json:"northEast"`
	SouthWest Point `json:"southWest"`
}

// GetBoundingBox creates a bounding box around a center point. Used as a
// cheap prefilter before the exact haversine check.
func GetBoundingBox(center Point, radiusKm float64) BoundingBox {
	angularDistance := radiusKm / earthRadiusKm

	latMin := center.Lat - (angularDistance * 180 / math.Pi)
	latMax := center.Lat + (angularDistance * 180 / math.Pi)

	lngMin := center.Lng - (angularDistance * 180 / math.Pi / math.Cos(center.Lat*math.Pi/180))
	lngMax := center.Lng + (angularDistance * 180 / math.Pi / math.Cos(center.Lat*math.Pi/180))

	return BoundingBox{
		NorthEast: Point{Lat: latMax, Lng: lngMax},
		SouthWest: Point{Lat: latMin, Lng: lngMin},
	}
}

// IsPointInBoundingBox checks if a point is within a bounding box
func IsPointInBoundingBox(point Point, bbox BoundingBox) bool {
	return point.Lat >= bbox.SouthWest.Lat &&
		point.Lat <= bbox.NorthEast.Lat &&
		point.Lng >= bbox.SouthWest.Lng &&
		point.Lng <= bbox.NorthEast.Lng
}
