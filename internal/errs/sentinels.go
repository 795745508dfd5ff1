// Package errs contains sentinel errors shared by the engine, services and API.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange means the item is beyond its claim radius or has expired.
	ErrOutOfRange = errors.New("out of range")

	// ErrInvalidPayload means the scanned code is empty or does not reference the session's item.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrInvalidTransition means the session state does not accept the event.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrVerificationFailed is the parent of every VerificationError.
	ErrVerificationFailed = errors.New("verification failed")

	// ErrClaimInProgress means another session of the same user already holds the item.
	ErrClaimInProgress = errors.New("claim already in progress")

	// ErrSessionExpired means the session outlived its TTL before scanning began.
	ErrSessionExpired = errors.New("session expired")

	// ErrNoPosition means no position fix is known for the user.
	ErrNoPosition = errors.New("no position")

	ErrNotFound = errors.New("not found")

	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// FailureReason classifies a rejected verification.
type FailureReason string

const (
	ReasonNone           FailureReason = ""
	ReasonAlreadyClaimed FailureReason = "already_claimed"
	ReasonExpired        FailureReason = "expired"
	ReasonNetworkError   FailureReason = "network_error"
	ReasonUnknown        FailureReason = "unknown"
)

// VerificationError carries the reason a verifier rejected a claim.
type VerificationError struct {
	Reason FailureReason
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("verification failed: %s", e.Reason)
}

func (e *VerificationError) Unwrap() error { return ErrVerificationFailed }

// Verification builds a VerificationError, normalising an empty reason to ReasonUnknown.
func Verification(reason FailureReason) error {
	if reason == ReasonNone {
		reason = ReasonUnknown
	}
	return &VerificationError{Reason: reason}
}

// ReasonOf extracts the failure reason from err. Errors that are not
// VerificationErrors map to ReasonUnknown, nil maps to ReasonNone.
func ReasonOf(err error) FailureReason {
	if err == nil {
		return ReasonNone
	}
	var ve *VerificationError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	return ReasonUnknown
}
