package util

import (
	"encoding/base64"

	"github.com/google/uuid"
)

// ShortUUID returns a random UUID encoded as 22 URL-safe symbols.
func ShortUUID() string {
	u := uuid.New()
	return base64.RawURLEncoding.EncodeToString(u[:])
}
