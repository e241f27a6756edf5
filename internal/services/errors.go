// Package services holds the lead intake workflow and the helpers around it.
// This file centralizes service-level errors so handlers can translate them
// into response codes in one place.
package services

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMalformedBody indicates the request body is not a JSON object.
	ErrMalformedBody = errors.New("request body is not a JSON object")

	// ErrValidation is returned when required fields are too short or a field
	// carries the wrong JSON type. No field-level detail reaches the client.
	ErrValidation = errors.New("validation failed")

	// ErrBadEmail is returned when the contact looks like an email address
	// (contains "@") but is not shaped like one.
	ErrBadEmail = errors.New("contact is not a valid email address")

	// ErrNoDelivery is returned when no delivery channel accepted the lead.
	ErrNoDelivery = errors.New("no delivery channel succeeded")

	// ErrFallbackDisabled is returned when no chat fallback phone is configured.
	ErrFallbackDisabled = errors.New("chat fallback not configured")
)

// RateLimitedError reports a rejected submission and when its window resets.
type RateLimitedError struct {
	ResetAt time.Time
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited until %s", e.ResetAt.UTC().Format(time.RFC3339))
}
