package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newMetricsRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.GET("/api/site", func(c *gin.Context) { c.String(http.StatusOK, "site") })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.NoRoute(func(c *gin.Context) {
		if _, ok := c.GetQuery("missing"); ok {
			c.Status(http.StatusNotFound)
			return
		}
		c.String(http.StatusOK, "<html></html>")
	})
	return r
}

func TestMetrics_RouteLabels(t *testing.T) {
	r := newMetricsRouter()

	tests := []struct {
		target     string
		wantPath   string
		wantStatus string
	}{
		{"/api/site", "/api/site", "200"},
		{"/health", "/health", "204"},
		{"/en/services/mobile", pageRouteLabel, "200"},
		{"/ru?missing=1", pageRouteLabel, "404"},
		{"/wp-login.php", unmatchedRouteLabel, "200"},
		{"/.env?missing=1", unmatchedRouteLabel, "404"},
	}
	for _, tc := range tests {
		t.Run(tc.target, func(t *testing.T) {
			before := testutil.ToFloat64(httpReqs.WithLabelValues("GET", tc.wantPath, tc.wantStatus))

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.target, nil))

			after := testutil.ToFloat64(httpReqs.WithLabelValues("GET", tc.wantPath, tc.wantStatus))
			if after != before+1 {
				t.Fatalf("http_requests_total{path=%q,status=%s} = %v, want %v", tc.wantPath, tc.wantStatus, after, before+1)
			}
		})
	}

	if n := testutil.ToFloat64(httpInflight); n != 0 {
		t.Fatalf("in-flight = %v after all requests finished", n)
	}
}

func TestMetrics_PageViewsByLocale(t *testing.T) {
	r := newMetricsRouter()
	en := testutil.ToFloat64(pageViews.WithLabelValues("en"))
	ru := testutil.ToFloat64(pageViews.WithLabelValues("ru"))

	for _, target := range []string{"/en", "/en/about", "/ru?missing=1", "/api/site", "/favicon.ico"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/ru", nil))

	if got := testutil.ToFloat64(pageViews.WithLabelValues("en")); got != en+2 {
		t.Fatalf("en page views = %v, want %v", got, en+2)
	}
	// A 404 and a POST are not views.
	if got := testutil.ToFloat64(pageViews.WithLabelValues("ru")); got != ru {
		t.Fatalf("ru page views = %v, want %v", got, ru)
	}
}
