package claim

import (
	"fmt"
	"strings"

	"geoclaim/internal/errs"
)

const (
	payloadURLPrefix = "geoclaim://item/"
	payloadPrefix    = "geoclaim:"
)

// ParsePayload extracts the item ID from a scanned code. Accepted forms are
// "geoclaim://item/<id>", "geoclaim:<id>" and a bare "<id>".
func ParsePayload(raw string) (string, error) {
	p := strings.TrimSpace(raw)
	if p == "" {
		return "", fmt.Errorf("%w: empty code", errs.ErrInvalidPayload)
	}

	if rest, ok := strings.CutPrefix(p, payloadURLPrefix); ok {
		p = rest
	} else if rest, ok := strings.CutPrefix(p, payloadPrefix); ok {
		p = rest
	}

	p = strings.TrimSuffix(p, "/")
	if p == "" || strings.ContainsAny(p, "/ \t\n") {
		return "", fmt.Errorf("%w: malformed code %q", errs.ErrInvalidPayload, raw)
	}
	return p, nil
}

// FormatPayload renders the code printed at an item's location.
func FormatPayload(itemID string) string {
	return payloadURLPrefix + itemID
}
