package config // package config loads application configuration from environment variables

import (
	"errors"
	"io/fs"
	"log"

	"github.com/joho/godotenv"
)

// DefaultAddr is the loopback address the greeter binds when APP_ADDR is unset.
const DefaultAddr = "127.0.0.1:8080"

// Config holds the runtime configuration of the greeter server.  Everything
// beyond Addr is optional: an empty environment yields a server with no
// rate limiting, no response cache and no event publishing.
type Config struct {
	Env       string // application environment (e.g. "dev", "prod")
	Addr      string // host:port to bind the HTTP listener
	LogLevel  string // debug, info, warn or error
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Events    EventsConfig
}

// Load reads configuration values from environment variables and returns a
// Config.  Unset variables fall back to defaults; nothing is required.
func Load() Config {
	return Config{
		Env:       envStr("APP_ENV", "dev"),
		Addr:      envStr("APP_ADDR", DefaultAddr),
		LogLevel:  envStr("LOG_LEVEL", "info"),
		RateLimit: LoadRateLimitConfig(),
		Cache:     LoadCacheConfig(),
		Events:    LoadEventsConfig(),
	}
}

// LoadDotenv loads variables from the given files (".env" when none are
// given) without overriding variables that are already set.  A missing file
// is not an error.
func LoadDotenv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
		log.Printf("config: loaded %s", p)
	}
	return nil
}
