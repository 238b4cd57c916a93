package config // redis connection settings and client construction

// Redis backs the rate limiter and the response cache.  It is optional:
// when no address is configured, or the server does not answer a ping,
// NewRedisClient returns nil and both middleware become pass-through.

import (
	"context"
	"crypto/tls"
	"log"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisAddr resolves the Redis address from REDIS_HOST+REDIS_PORT or
// REDIS_ADDR.  It returns "" when neither is set.
func RedisAddr() string {
	host := strings.TrimSpace(os.Getenv("REDIS_HOST"))
	port := strings.TrimSpace(os.Getenv("REDIS_PORT"))
	if host != "" && port != "" {
		return host + ":" + port
	}
	return firstEnv("REDIS_ADDR")
}

// NewRedisClient instantiates a Redis client using environment variables.
// Supported variables are:
//
//	REDIS_HOST and REDIS_PORT – hostname and port of the Redis server
//	REDIS_ADDR – host:port shorthand, used when host/port are not both set
//	REDIS_PASSWORD – optional password
//	REDIS_DB – database number (default 0)
//	REDIS_TLS – enable TLS when "true" or "1"
func NewRedisClient(ctx context.Context) *redis.Client {
	addr := RedisAddr()
	if addr == "" {
		return nil
	}
	var tlsConf *tls.Config
	if envBool("REDIS_TLS", false) {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      addr,
		Password:  os.Getenv("REDIS_PASSWORD"),
		DB:        envInt("REDIS_DB", 0),
		TLSConfig: tlsConf,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("redis: ping %s failed: %v; rate limit and cache disabled", addr, err)
		_ = client.Close()
		return nil
	}
	return client
}
