// Package config handles application configuration via environment variables
package config

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"dumpsift/internal/platform/logger"
	pstr "dumpsift/internal/platform/strings"

	"github.com/rs/zerolog"
)

// Conf is a namespaced view over environment variables (e.g., "EXTRACT_", "FILTER1_")
// Use New() for global access, or Prefix("EXTRACT_") for module scopes.
type Conf struct {
	prefix string
	log    *logger.Logger
}

// New creates a root Conf (no prefix)
func New() Conf { return Conf{} }

// WithLogger returns a copy that reports invalid values through l
func (c Conf) WithLogger(l logger.Logger) Conf {
	c.log = &l
	return c
}

// Prefix creates a child Conf with an additional prefix, e.g. cfg.Prefix("EXTRACT_")
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p, log: c.log} }

// key composes the fully-qualified env var name
func (c Conf) key(k string) string { return c.prefix + k }

// logger falls back to a discarding logger
func (c Conf) logger() *logger.Logger {
	if c.log != nil {
		return c.log
	}
	l := zerolog.New(io.Discard)
	return &l
}

// lookup returns the trimmed value for key
func (c Conf) lookup(key string) string { return strings.TrimSpace(os.Getenv(c.key(key))) }

// MayString returns the value or def if missing/empty
func (c Conf) MayString(key, def string) string {
	v := c.lookup(key)
	if v == "" {
		return def
	}
	return v
}

// MayInt returns the value or def if missing/empty; logs and returns def if invalid
func (c Conf) MayInt(key string, def int) int {
	return int(c.MayInt64(key, int64(def)))
}

// MayInt64 returns the value or def if missing/empty; logs and returns def if invalid
func (c Conf) MayInt64(key string, def int64) int64 {
	s := c.lookup(key)
	if s == "" {
		return def
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}
	c.logger().Warn().Str("key", c.key(key)).Str("value", s).Int64("default", def).Msg("invalid int; using default")
	return def
}

// MayBool returns the value or def if missing/empty; logs and returns def if invalid
func (c Conf) MayBool(key string, def bool) bool {
	s := c.lookup(key)
	if s == "" {
		return def
	}
	if v, err := strconv.ParseBool(s); err == nil {
		return v
	}
	c.logger().Warn().Str("key", c.key(key)).Str("value", s).Bool("default", def).Msg("invalid bool; using default")
	return def
}

// MayCSV returns a slice of strings from a comma-separated env var; def if missing/empty
func (c Conf) MayCSV(key string, def []string) []string {
	s := c.lookup(key)
	if s == "" {
		return def
	}
	out := pstr.Compact(strings.Split(s, ","))
	if len(out) == 0 {
		return def
	}
	return out
}

// MayLocation resolves an IANA zone name ("UTC", "Local", "Europe/Berlin"); logs and returns def if unknown
func (c Conf) MayLocation(key string, def *time.Location) *time.Location {
	s := c.lookup(key)
	if s == "" {
		return def
	}
	loc, err := time.LoadLocation(s)
	if err != nil {
		c.logger().Warn().Err(err).Str("key", c.key(key)).Str("value", s).Str("default", def.String()).
			Msg("invalid time zone; using default")
		return def
	}
	return loc
}
