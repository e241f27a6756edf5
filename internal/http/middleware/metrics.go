// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file holds the Prometheus HTTP instrumentation. Labels stay bounded:
// the path label is the registered route, pages served through NoRoute
// collapse to "/:locale/*" and every other unrouted request to "unmatched",
// so scanners probing random URLs never mint new series.
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bitx-studio/landing-backend/internal/tracking"
)

const (
	pageRouteLabel      = "/:locale/*"
	unmatchedRouteLabel = "unmatched"
)

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		},
		[]string{"method", "path", "status"},
	)

	// Status is left out to keep the histogram small.
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpInflight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_requests_inflight",
		Help: "HTTP requests currently being served.",
	})

	// Pages and JSON envelopes are small; built bundles are the upper end.
	httpRespSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response body size in bytes.",
			Buckets: prometheus.ExponentialBuckets(128, 4, 8), // 128B..2MiB
		},
		[]string{"method", "path"},
	)

	pageViews = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "landing_page_views_total",
			Help: "Localized pages served successfully, by locale.",
		},
		[]string{"locale"},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, httpRespSize, pageViews)
}

// Metrics instruments every request with the collectors above and counts
// successful localized page views. Mount /metrics next to it:
//
//	r.Use(middleware.Metrics())
//	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		method := c.Request.Method
		path, locale := routeLabel(c)
		status := c.Writer.Status()

		httpReqs.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		if size := c.Writer.Size(); size >= 0 {
			httpRespSize.WithLabelValues(method, path).Observe(float64(size))
		}
		if locale != "" && method == http.MethodGet && status == http.StatusOK {
			pageViews.WithLabelValues(locale).Inc()
		}
	}
}

// routeLabel returns the path label and, for unrouted localized pages, the
// page locale.
func routeLabel(c *gin.Context) (path, locale string) {
	if p := c.FullPath(); p != "" {
		return p, ""
	}
	if l, ok := tracking.LocaleFromPath(c.Request.URL.Path); ok {
		return pageRouteLabel, l.String()
	}
	return unmatchedRouteLabel, ""
}
