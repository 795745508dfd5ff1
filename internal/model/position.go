package model

import "time"

// UserPosition is a single fix delivered by a location provider.
type UserPosition struct {
	Point     GeoPoint  `json:"point"`
	AccuracyM float64   `json:"accuracy_m"`
	Timestamp time.Time `json:"timestamp"`
}
