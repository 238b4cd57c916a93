package config // log level parsing

import (
	"strings"

	"github.com/labstack/gommon/log"
)

// ParseLogLevel maps LOG_LEVEL values onto the echo logger levels.
// Unknown values fall back to INFO.
func ParseLogLevel(s string) log.Lvl {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}
