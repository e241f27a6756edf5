// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file carries request correlation and panic handling. RequestID tags
// each request with an id that shows up in the X-Request-ID response header
// and on every log line. Recovery turns panics into the JSON 500 envelope.
// LoggerFrom gives handlers the request-scoped logger. Mount them as
// RequestID, RedactingLogger, Recovery.
package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	requestIDKey    = "requestID"
	requestIDHeader = "X-Request-ID"
	loggerKey       = "logger"

	// maxRequestIDLength bounds an id supplied by the client or a proxy.
	maxRequestIDLength = 128
)

// RequestID reuses an incoming X-Request-ID of sane length or mints a UUID,
// then echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" || len(rid) > maxRequestIDLength {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// GetRequestID returns the id set by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// Recovery logs a panic with its stack and answers
// {"ok":false,"error":"server_error"} when nothing was written yet. If the
// response had already started it only marks the status.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			rid := GetRequestID(c)
			LoggerFrom(c).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Str("request_id", rid).
				Msg("panic recovered")

			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.Header(requestIDHeader, rid)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "server_error"})
		}()
		c.Next()
	}
}

// LoggerFrom returns the logger RedactingLogger attached, falling back to
// the global logger. The result is never nil.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if lg, ok := c.Value(loggerKey).(*zerolog.Logger); ok {
		return lg
	}
	l := log.With().Logger()
	return &l
}

// attachLogger stores lg on the Gin context and the request context, so
// services reached through c.Request.Context() log with the same fields.
func attachLogger(c *gin.Context, lg zerolog.Logger) {
	c.Set(loggerKey, &lg)
	c.Request = c.Request.WithContext(lg.WithContext(c.Request.Context()))
}
