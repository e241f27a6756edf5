// Lead intake HTTP handler.
//
// POST /api/lead accepts the landing contact form as a JSON object. The body
// is decoded field by field in the service layer, so it is read raw here
// rather than bound to a struct.
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a receipt exists for
// (client scope, key), the handler answers with the recorded outcome, sets
// `Idempotency-Replayed: true` and delivers nothing.
package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bitx-studio/landing-backend/internal/domain"
	"github.com/bitx-studio/landing-backend/internal/http/middleware"
	"github.com/bitx-studio/landing-backend/internal/services"
)

// HeaderIdempotencyReplayed marks a response served from a stored receipt.
const HeaderIdempotencyReplayed = "Idempotency-Replayed"

//
// DTOs
//

// LeadRequest documents the accepted payload. Every field is optional at the
// JSON level; minimum lengths are enforced after trimming.
type LeadRequest struct {
	Name        string            `json:"name" example:"Aida"`
	Contact     string            `json:"contact" example:"aida@example.com"`
	Message     string            `json:"message" example:"We need a booking app for our clinic."`
	Timeline    string            `json:"timeline,omitempty" example:"2-3 months"`
	Budget      string            `json:"budget,omitempty" example:"$10k"`
	ProjectType string            `json:"projectType,omitempty" enums:"web,mobile,both" example:"mobile"`
	HP          string            `json:"hp,omitempty" example:""`
	UTM         map[string]string `json:"utm,omitempty"`
	Attribution map[string]string `json:"attribution,omitempty"`
	ClientID    string            `json:"clientId,omitempty" example:"3f1c2a9e-7d4b-4e55-9a41-0c5b8e2f9d10"`
	Locale      string            `json:"locale,omitempty" enums:"ru,en" example:"en"`
}

// LeadResponse reports per-channel delivery.
type LeadResponse struct {
	OK        bool             `json:"ok" example:"true"`
	Delivered domain.Delivered `json:"delivered"`
}

//
// Handlers
//

// SubmitLead godoc
// @ID          submitLead
// @Summary     Submit a lead
// @Description Validates the contact form and forwards it to the configured chat bot and email channels.
// @Description A filled honeypot is answered with success and nothing is delivered.
// @Description Supports idempotent retries via the Idempotency-Key header.
// @Tags        Leads
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string                 false "Idempotency key for safe retries (UUID recommended)"
// @Param       body             body    handlers.LeadRequest   true  "Lead payload"
//
// @Success     200  {object}  handlers.LeadResponse   "Delivered to at least one channel"
// @Failure     400  {object}  handlers.ErrorResponse  "validation_failed or bad_email"
// @Failure     413  {object}  handlers.ErrorResponse  "Body too large"
// @Failure     429  {object}  handlers.ErrorResponse  "rate_limited, with resetAt"
// @Failure     500  {object}  handlers.ErrorResponse  "server_error"
// @Failure     501  {object}  handlers.ErrorResponse  "no_delivery, with hint"
// @Router      /api/lead [post]
func (h *Handlers) SubmitLead(c *gin.Context) {
	ctx := c.Request.Context()

	// Idempotency (replay path).
	idemKey, hasKey := middleware.GetIdempotencyKey(c)
	scope := middleware.GetIdempotencyScope(c)
	if hasKey && middleware.IsReplay(c) && h.receipts != nil {
		if rec, err := h.receipts.Get(ctx, scope, idemKey, h.now()); err == nil && rec != nil {
			c.Header(HeaderIdempotencyReplayed, "true")
			ok(c, rec.Status, LeadResponse{OK: true, Delivered: rec.Delivered()})
			return
		}
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, http.StatusRequestEntityTooLarge, ErrCodeBodyTooLarge, nil)
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeServer, err)
		return
	}

	form, err := services.ParseLeadForm(body)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeServer, err)
		return
	}

	delivered, err := h.leadSvc.Submit(ctx, form, middleware.ClientIP(c.Request))
	if err != nil {
		h.failSubmit(c, err)
		return
	}

	// Idempotency (store path) – best effort, only for real deliveries.
	if hasKey && h.receipts != nil && delivered.Any() {
		if err := h.receipts.Create(ctx, scope, idemKey, http.StatusOK, delivered, h.ttl); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("store lead receipt")
		}
	}

	ok(c, http.StatusOK, LeadResponse{OK: true, Delivered: delivered})
}

// failSubmit maps service errors onto the envelope.
func (h *Handlers) failSubmit(c *gin.Context, err error) {
	var limited *services.RateLimitedError
	switch {
	case errors.As(err, &limited):
		c.Header("Retry-After", retryAfter(limited.ResetAt, h.now()))
		failWith(c, http.StatusTooManyRequests, ErrorResponse{
			Error:   ErrCodeRateLimited,
			ResetAt: limited.ResetAt.UnixMilli(),
		}, nil)
	case errors.Is(err, services.ErrBadEmail):
		fail(c, http.StatusBadRequest, ErrCodeBadEmail, nil)
	case errors.Is(err, services.ErrValidation):
		fail(c, http.StatusBadRequest, ErrCodeValidation, nil)
	case errors.Is(err, services.ErrNoDelivery):
		failWith(c, http.StatusNotImplemented, ErrorResponse{
			Error: ErrCodeNoDelivery,
			Hint:  noDeliveryHint,
		}, err)
	default:
		fail(c, http.StatusInternalServerError, ErrCodeServer, err)
	}
}

// retryAfter renders the whole seconds until resetAt, at least 1.
func retryAfter(resetAt, now time.Time) string {
	secs := int(resetAt.Sub(now).Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
