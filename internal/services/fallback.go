package services

import (
	"strings"

	"github.com/bitx-studio/landing-backend/internal/domain"
	"github.com/bitx-studio/landing-backend/internal/tracking"
)

// Draft is whatever the visitor has typed so far. Every field is optional.
type Draft struct {
	Name        string
	Contact     string
	Message     string
	Timeline    string
	Budget      string
	ProjectType domain.ProjectType
	UTM         domain.Pairs
}

type draftLabels struct {
	greeting, projectType, name, contact, message, timeline, budget string
}

func labelsFor(l domain.Locale, brand string) draftLabels {
	if l == domain.LocaleEN {
		return draftLabels{
			greeting:    "Hello " + brand + "! I’d like a project estimate.",
			projectType: "Project type",
			name:        "Name",
			contact:     "Contact",
			message:     "Request",
			timeline:    "Timeline",
			budget:      "Budget",
		}
	}
	return draftLabels{
		greeting:    "Здравствуйте, " + brand + "! Хочу оценку проекта.",
		projectType: "Тип проекта",
		name:        "Имя",
		contact:     "Контакт",
		message:     "Задача",
		timeline:    "Сроки",
		budget:      "Бюджет",
	}
}

// DraftText renders a localized, prefilled chat message from d.
func DraftText(brand string, l domain.Locale, d Draft) string {
	if brand == "" {
		brand = DefaultBrand
	}
	lb := labelsFor(l, brand)
	lines := []string{lb.greeting}
	add := func(label, v string) {
		if v = strings.TrimSpace(v); v != "" {
			lines = append(lines, label+": "+v)
		}
	}
	add(lb.projectType, d.ProjectType.Label())
	add(lb.name, clean(d.Name, MaxName))
	add(lb.contact, clean(d.Contact, MaxContact))
	add(lb.message, clean(d.Message, MaxMessage))
	add(lb.timeline, clean(d.Timeline, MaxTimeline))
	add(lb.budget, clean(d.Budget, MaxBudget))
	add("UTM", d.UTM.Join("&"))
	return strings.Join(lines, "\n")
}

// WhatsAppLink builds a wa.me deep link for phone (non-digits are dropped)
// prefilled with text.
func WhatsAppLink(phone, text string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return "https://wa.me/" + b.String() + "?text=" + tracking.EncodeComponent(text)
}

// FallbackService builds manual-contact links offered when automatic
// delivery fails or is unavailable.
type FallbackService struct {
	Phone string
	Brand string
}

// Enabled reports whether a fallback phone is configured.
func (s *FallbackService) Enabled() bool {
	return s != nil && strings.TrimSpace(s.Phone) != ""
}

// Link returns the prefilled chat link and the text it carries.
func (s *FallbackService) Link(l domain.Locale, d Draft) (link, text string, err error) {
	if !s.Enabled() {
		return "", "", ErrFallbackDisabled
	}
	text = DraftText(s.Brand, l, d)
	return WhatsAppLink(s.Phone, text), text, nil
}
