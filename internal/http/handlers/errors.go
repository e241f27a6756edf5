// Package handlers defines the error codes returned in the "error" field of
// the response envelope. Clients branch on these codes; the HTTP status
// alone is not always specific enough (400 covers both validation_failed and
// bad_email).
package handlers

const (
	ErrCodeServer           = "server_error"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeBadRequest       = "bad_request"
	ErrCodeBodyTooLarge     = "body_too_large"

	// Lead intake:
	ErrCodeValidation    = "validation_failed"
	ErrCodeBadEmail      = "bad_email"
	ErrCodeRateLimited   = "rate_limited"
	ErrCodeNoDelivery    = "no_delivery"
	ErrCodeNotConfigured = "not_configured"
)

// noDeliveryHint tells the operator which settings enable delivery.
const noDeliveryHint = "Configure TELEGRAM_* or SMTP_* env vars."
