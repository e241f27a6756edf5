package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/bitx-studio/landing-backend/internal/tracking"
)

func TestClientIP(t *testing.T) {
	cases := []struct {
		name string
		xff  string
		real string
		want string
	}{
		{"first forwarded entry", "198.51.100.1, 10.0.0.1", "10.0.0.9", "198.51.100.1"},
		{"trimmed", "  203.0.113.5 ", "", "203.0.113.5"},
		{"empty first entry falls back", " , 10.0.0.1", "192.0.2.4", "192.0.2.4"},
		{"real ip", "", "192.0.2.4", "192.0.2.4"},
		{"unknown", "", "", UnknownIP},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/lead", nil)
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.real != "" {
				req.Header.Set("X-Real-IP", tc.real)
			}
			if got := ClientIP(req); got != tc.want {
				t.Fatalf("ClientIP = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestClientScope(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/api/lead", nil)
	c.Request.Header.Set("X-Real-IP", "192.0.2.4")
	if got := ClientScope(c); got != "ip:192.0.2.4" {
		t.Fatalf("scope without cookie = %q", got)
	}

	c.Request.AddCookie(&http.Cookie{Name: tracking.ClientIDCookie, Value: "abc"})
	if got := ClientScope(c); got != "cid:abc" {
		t.Fatalf("scope with cookie = %q", got)
	}
}
