package config // auditor process settings: listen address, MySQL and RabbitMQ

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// DefaultAuditorAddr is where the auditor serves its read API.
const DefaultAuditorAddr = "127.0.0.1:8081"

// ErrMissingEnv is wrapped by LoadAuditor when required variables are unset.
var ErrMissingEnv = errors.New("missing required env var")

// DBConfig holds the MySQL connection settings used by the auditor.
type DBConfig struct {
	User string // database username
	Pass string // database password (optional)
	Host string // database host address
	Port string // database port number
	Name string // database name
}

// AuditorConfig is the configuration of cmd/auditor.
type AuditorConfig struct {
	Addr     string
	LogLevel string
	DB       DBConfig
	Events   EventsConfig
}

// LoadAuditor reads the auditor configuration.  DB_USER, DB_HOST, DB_PORT,
// DB_NAME and RABBITMQ_URL are required; all missing names are reported at once.
func LoadAuditor() (AuditorConfig, error) {
	cfg := AuditorConfig{
		Addr:     envStr("AUDITOR_ADDR", DefaultAuditorAddr),
		LogLevel: envStr("LOG_LEVEL", "info"),
		DB: DBConfig{
			User: strings.TrimSpace(os.Getenv("DB_USER")),
			Pass: os.Getenv("DB_PASS"),
			Host: strings.TrimSpace(os.Getenv("DB_HOST")),
			Port: strings.TrimSpace(os.Getenv("DB_PORT")),
			Name: strings.TrimSpace(os.Getenv("DB_NAME")),
		},
		Events: LoadEventsConfig(),
	}

	var missing []string
	for _, kv := range []struct{ key, val string }{
		{"DB_USER", cfg.DB.User},
		{"DB_HOST", cfg.DB.Host},
		{"DB_PORT", cfg.DB.Port},
		{"DB_NAME", cfg.DB.Name},
		{"RABBITMQ_URL", cfg.Events.URL},
	} {
		if kv.val == "" {
			missing = append(missing, kv.key)
		}
	}
	if len(missing) > 0 {
		return cfg, fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}
	return cfg, nil
}
