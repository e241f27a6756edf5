// Package sysutil holds process-level helpers shared by the server and its
// packages: log level setup, env flag parsing and context logger lookup.
package sysutil

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetLogLevel sets the global zerolog level from LOG_LEVEL.
func SetLogLevel(lvl string) {
	zerolog.SetGlobalLevel(ParseLevel(lvl))
}

// ParseLevel maps a LOG_LEVEL value to a zerolog level. Matching ignores case
// and surrounding space, "warning" is accepted for warn, and anything empty
// or unknown means info.
func ParseLevel(lvl string) zerolog.Level {
	lvl = strings.ToLower(strings.TrimSpace(lvl))
	if lvl == "warning" {
		lvl = "warn"
	}
	l, err := zerolog.ParseLevel(lvl)
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

// IsTruthy reports whether an env flag is set. Besides strconv.ParseBool
// spellings it accepts yes, y and on.
func IsTruthy(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case "yes", "y", "on":
		return true
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

// Logger returns the logger attached to ctx by the HTTP layer, or the global
// logger when ctx carries none.
func Logger(ctx context.Context) *zerolog.Logger {
	if lg := zerolog.Ctx(ctx); lg.GetLevel() != zerolog.Disabled {
		return lg
	}
	return &log.Logger
}
