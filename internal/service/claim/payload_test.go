package claim

import (
	"testing"

	"geoclaim/internal/errs"

	"github.com/stretchr/testify/require"
)

func TestParsePayload(t *testing.T) {
	valid := map[string]string{
		"geoclaim://item/abc":  "abc",
		"geoclaim://item/abc/": "abc",
		"geoclaim:abc":         "abc",
		"  abc \n":             "abc",
		FormatPayload("x-1"):   "x-1",
	}
	for raw, want := range valid {
		got, err := ParsePayload(raw)
		require.NoError(t, err, raw)
		require.Equal(t, want, got, raw)
	}

	for _, raw := range []string{"", "   ", "geoclaim://item/", "geoclaim:", "a/b", "two words"} {
		_, err := ParsePayload(raw)
		require.ErrorIs(t, err, errs.ErrInvalidPayload, raw)
	}
}
