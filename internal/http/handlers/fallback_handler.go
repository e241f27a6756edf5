// Chat fallback HTTP handler.
//
// POST /api/lead/fallback turns whatever the visitor has typed into a
// prefilled WhatsApp link. The page offers it when automatic delivery fails
// or as a direct contact option.
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bitx-studio/landing-backend/internal/http/middleware"
	"github.com/bitx-studio/landing-backend/internal/services"
)

// FallbackResponse carries the prefilled link and the text it encodes.
type FallbackResponse struct {
	OK   bool   `json:"ok" example:"true"`
	URL  string `json:"url" example:"https://wa.me/79000000000?text=Hello"`
	Text string `json:"text" example:"Hello BITX! I’d like a project estimate."`
}

// LeadFallback godoc
// @ID          leadFallback
// @Summary     Build a WhatsApp fallback link
// @Description Renders the partially filled form as a localized chat draft and returns a wa.me link.
// @Description Accepts the same payload as /api/lead; nothing is validated beyond field types.
// @Tags        Leads
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.LeadRequest  true  "Draft payload"
//
// @Success     200  {object}  handlers.FallbackResponse
// @Failure     400  {object}  handlers.ErrorResponse  "bad_request or validation_failed"
// @Failure     404  {object}  handlers.ErrorResponse  "not_configured"
// @Router      /api/lead/fallback [post]
func (h *Handlers) LeadFallback(c *gin.Context) {
	if h.fallback == nil || !h.fallback.Enabled() {
		fail(c, http.StatusNotFound, ErrCodeNotConfigured, nil)
		return
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
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, nil)
		return
	}
	lead, err := form.Lead("")
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeValidation, nil)
		return
	}

	link, text, err := h.fallback.Link(lead.Locale, services.Draft{
		Name:        lead.Name,
		Contact:     lead.Contact,
		Message:     lead.Message,
		Timeline:    lead.Timeline,
		Budget:      lead.Budget,
		ProjectType: lead.ProjectType,
		UTM:         lead.UTM,
	})
	switch {
	case errors.Is(err, services.ErrFallbackDisabled):
		fail(c, http.StatusNotFound, ErrCodeNotConfigured, nil)
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeServer, err)
		return
	}

	middleware.LoggerFrom(c).Debug().Str("locale", lead.Locale.String()).Msg("fallback link built")
	ok(c, http.StatusOK, FallbackResponse{OK: true, URL: link, Text: text})
}
