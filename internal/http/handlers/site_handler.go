// Site context HTTP handler.
//
// GET /api/site tells page scripts what the server knows: supported locales
// with their native names, the visitor's saved locale, the analytics id (its
// presence turns client-side tracking on) and contact options.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language/display"

	"github.com/bitx-studio/landing-backend/internal/domain"
	"github.com/bitx-studio/landing-backend/internal/tracking"
)

// SiteLocale is one supported locale.
type SiteLocale struct {
	Code string `json:"code" example:"ru"`
	// Name is the locale's name in its own language.
	Name string `json:"name" example:"русский"`
}

// SiteResponse is the payload of GET /api/site.
type SiteResponse struct {
	OK            bool         `json:"ok" example:"true"`
	Locales       []SiteLocale `json:"locales"`
	DefaultLocale string       `json:"defaultLocale" example:"ru"`
	// Locale is the visitor's saved locale, empty when none is set.
	Locale       string `json:"locale,omitempty" example:"en"`
	AnalyticsID  string `json:"analyticsId,omitempty" example:"G-XXXXXXXXXX"`
	ContactEmail string `json:"contactEmail,omitempty" example:"hello@bitx.example"`
	// WhatsApp reports whether POST /api/lead/fallback is available.
	WhatsApp bool `json:"whatsapp" example:"true"`
}

// Site godoc
// @ID          getSite
// @Summary     Site context
// @Description Locales, analytics id and contact options for page scripts.
// @Tags        Site
// @Produce     json
// @Success     200  {object}  handlers.SiteResponse
// @Router      /api/site [get]
func (h *Handlers) Site(c *gin.Context) {
	locales := make([]SiteLocale, 0, len(domain.Locales))
	for _, l := range domain.Locales {
		locales = append(locales, SiteLocale{Code: l.String(), Name: display.Self.Name(l.Tag())})
	}

	resp := SiteResponse{
		OK:            true,
		Locales:       locales,
		DefaultLocale: h.site.DefaultLocale.String(),
		AnalyticsID:   h.site.AnalyticsID,
		ContactEmail:  h.site.ContactEmail,
		WhatsApp:      h.fallback != nil && h.fallback.Enabled(),
	}
	if l, ok := domain.ParseLocale(tracking.ReadCookie(c.Request, tracking.LocaleCookie)); ok {
		resp.Locale = l.String()
	}
	ok(c, http.StatusOK, resp)
}
