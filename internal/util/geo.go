package util

import (
	"fmt"
	"math"

	"geoclaim/internal/errs"
	"geoclaim/internal/model"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// EarthRadiusKm is the mean Earth radius used for all distance calculations.
const EarthRadiusKm = 6371.0

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// DistanceKm returns the great-circle distance between a and b using the haversine formula.
func DistanceKm(a, b model.GeoPoint) float64 {
	return HaversineDistance(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

// HaversineDistance returns the distance in kilometres between two lat/lng pairs given in degrees.
func HaversineDistance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lng2 - lng1)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(radians(lat1))*math.Cos(radians(lat2))*sinLon*sinLon
	// rounding can push h just outside [0, 1] near antipodes
	h = math.Min(1, math.Max(0, h))

	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// ValidatePoint checks latitude is within [-90, 90] and longitude within [-180, 180].
func ValidatePoint(p model.GeoPoint) error {
	if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) {
		return fmt.Errorf("%w: NaN coordinate", errs.ErrInvalidCoordinates)
	}
	if !s2.LatLngFromDegrees(p.Latitude, p.Longitude).IsValid() {
		return fmt.Errorf("%w: (%f, %f) out of range", errs.ErrInvalidCoordinates, p.Latitude, p.Longitude)
	}
	return nil
}

// MoveToward returns the point distanceKm along the great circle from start to end.
// If distanceKm reaches or exceeds the remaining distance, end is returned.
func MoveToward(start, end model.GeoPoint, distanceKm float64) model.GeoPoint {
	startPoint := s2.PointFromLatLng(s2.LatLngFromDegrees(start.Latitude, start.Longitude))
	endPoint := s2.PointFromLatLng(s2.LatLngFromDegrees(end.Latitude, end.Longitude))

	totalAngle := s1.Angle(s2.ChordAngleBetweenPoints(startPoint, endPoint).Angle())
	totalKm := totalAngle.Radians() * EarthRadiusKm

	if distanceKm >= totalKm {
		return end
	}
	if distanceKm <= 0 {
		return start
	}

	newLatLng := s2.LatLngFromPoint(s2.Interpolate(distanceKm/totalKm, startPoint, endPoint))
	return model.GeoPoint{Latitude: newLatLng.Lat.Degrees(), Longitude: newLatLng.Lng.Degrees()}
}

// BoundsAround returns the lat/lng box enclosing a circle of radiusKm around p.
// The box is an over-approximation and is only meant as a prefilter.
func BoundsAround(p model.GeoPoint, radiusKm float64) (minLat, minLng, maxLat, maxLng float64) {
	dLat := radiusKm / EarthRadiusKm * 180 / math.Pi
	cosLat := math.Cos(radians(p.Latitude))
	dLng := 180.0
	if cosLat > 1e-9 {
		dLng = math.Min(180, dLat/cosLat)
	}
	return p.Latitude - dLat, p.Longitude - dLng, p.Latitude + dLat, p.Longitude + dLng
}
