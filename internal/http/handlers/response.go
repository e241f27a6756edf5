// Package handlers provides HTTP handler implementations for the public API
// and the page fallback.
//
// This file defines the response helpers shared by all endpoints. Every JSON
// response carries an "ok" flag; failures add a stable, machine-readable
// "error" code and, for some codes, extra fields:
//
//	HTTP/1.1 429 Too Many Requests
//	{ "ok": false, "error": "rate_limited", "resetAt": 1767225600000 }
//
//	HTTP/1.1 200 OK
//	{ "ok": true, "delivered": { "telegram": true, "email": false } }
//
// fail() centralizes error logging so 5xx responses are logged once with the
// request-scoped logger.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bitx-studio/landing-backend/internal/http/middleware"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Always false.
	OK bool `json:"ok" example:"false"`
	// Stable, machine-readable code (see errors.go constants)
	Error string `json:"error" example:"validation_failed"`
	// Epoch milliseconds at which a rate-limit window resets
	ResetAt int64 `json:"resetAt,omitempty" example:"1767225600000"`
	// Operator guidance, e.g. which settings enable delivery
	Hint string `json:"hint,omitempty" example:"Configure TELEGRAM_* or SMTP_* env vars."`
}

// fail aborts the request with the error envelope. Server errors (>=500) are
// logged with cause using the request-scoped logger; cause never reaches the
// client.
func fail(c *gin.Context, status int, code string, cause error) {
	failWith(c, status, ErrorResponse{Error: code}, cause)
}

// failWith is fail with a fully specified envelope.
func failWith(c *gin.Context, status int, resp ErrorResponse, cause error) {
	resp.OK = false
	if status >= http.StatusInternalServerError {
		ev := middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", resp.Error)
		if cause != nil {
			ev = ev.Err(cause)
		}
		ev.Msg("api error")
	}
	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for router-level fallbacks.
func Fail(c *gin.Context, status int, code string) { fail(c, status, code, nil) }

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
