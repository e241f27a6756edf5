package services

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/bitx-studio/landing-backend/internal/domain"
)

func TestDraftText_Localized(t *testing.T) {
	d := Draft{
		Name:        " Alice ",
		Message:     "Need a site",
		ProjectType: domain.ProjectBoth,
		UTM:         domain.Pairs{{Key: "utm_source", Value: "google"}},
	}

	en := DraftText("", domain.LocaleEN, d)
	wantEN := "Hello BITX! I’d like a project estimate.\nProject type: Web + Mobile\nName: Alice\nRequest: Need a site\nUTM: utm_source=google"
	if en != wantEN {
		t.Fatalf("en:\n%s", en)
	}

	ru := DraftText("", domain.LocaleRU, Draft{Contact: "@alice"})
	wantRU := "Здравствуйте, BITX! Хочу оценку проекта.\nКонтакт: @alice"
	if ru != wantRU {
		t.Fatalf("ru:\n%s", ru)
	}
}

func TestWhatsAppLink(t *testing.T) {
	link := WhatsAppLink("+7 (999) 123-45-67", "Hi there & more")
	if !strings.HasPrefix(link, "https://wa.me/79991234567?text=") {
		t.Fatalf("link = %q", link)
	}
	if strings.Contains(link, "+") || strings.Contains(link, " ") {
		t.Fatalf("text must be component-encoded: %q", link)
	}
	u, err := url.Parse(link)
	if err != nil {
		t.Fatal(err)
	}
	if got := u.Query().Get("text"); got != "Hi there & more" {
		t.Fatalf("decoded text = %q", got)
	}
}

func TestFallbackService(t *testing.T) {
	var nilSvc *FallbackService
	if nilSvc.Enabled() {
		t.Fatalf("nil service must be disabled")
	}
	if _, _, err := (&FallbackService{Phone: "  "}).Link(domain.LocaleRU, Draft{}); !errors.Is(err, ErrFallbackDisabled) {
		t.Fatalf("err = %v", err)
	}

	svc := &FallbackService{Phone: "+1 555 0100", Brand: "ACME"}
	link, text, err := svc.Link(domain.LocaleEN, Draft{})
	if err != nil {
		t.Fatal(err)
	}
	if text != "Hello ACME! I’d like a project estimate." {
		t.Fatalf("text = %q", text)
	}
	if !strings.HasPrefix(link, "https://wa.me/15550100?text=Hello%20ACME") {
		t.Fatalf("link = %q", link)
	}
}
