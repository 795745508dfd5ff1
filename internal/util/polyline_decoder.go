package util

import "geoclaim/internal/model"

// DecodePolyline converts an encoded polyline string to a slice of points.
// Implementation based on Google's Encoded Polyline Algorithm Format,
// precision 1e-5 (the Google Maps standard).
func DecodePolyline(encoded string) []model.GeoPoint {
	return DecodePolylineWithPrecision(encoded, 1e-5)
}

// DecodePolylineWithPrecision decodes a polyline with a custom precision factor.
// GraphHopper routes use 1e-6.
func DecodePolylineWithPrecision(encoded string, precision float64) []model.GeoPoint {
	var points []model.GeoPoint
	index, lat, lng := 0, 0, 0

	for index < len(encoded) {
		dLat, next, ok := decodeValue(encoded, index)
		if !ok {
			return points
		}
		index = next
		lat += dLat

		dLng, next, ok := decodeValue(encoded, index)
		if !ok {
			return points
		}
		index = next
		lng += dLng

		points = append(points, model.GeoPoint{
			Latitude:  float64(lat) * precision,
			Longitude: float64(lng) * precision,
		})
	}

	return points
}

// decodeValue reads one zig-zag encoded delta starting at index.
func decodeValue(encoded string, index int) (int, int, bool) {
	shift, result := 0, 0
	for {
		if index >= len(encoded) {
			return 0, index, false
		}
		b := int(encoded[index]) - 63
		index++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}

	if result&1 != 0 {
		return ^(result >> 1), index, true
	}
	return result >> 1, index, true
}
