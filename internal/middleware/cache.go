package middleware // middleware holds the redis response cache

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/greeter/internal/config"
)

// bodyRecorder tees the response to the client and keeps up to limit bytes.
type bodyRecorder struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	limit  int
}

func (r *bodyRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	room := len(b)
	if r.limit > 0 {
		room = min(room, r.limit-r.buf.Len())
	}
	if room > 0 {
		r.buf.Write(b[:room])
	}
	return r.ResponseWriter.Write(b)
}

// truncated reports whether the response outgrew the recording limit.
func (r *bodyRecorder) truncated(written int64) bool {
	return int64(r.buf.Len()) < written
}

// cacheKeyFrom hashes the parts of the request selected by KeyStrategy.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	var parts []string
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
		parts = []string{"route", c.Path()}
	case "method_route":
		parts = []string{"method", r.Method, "route", c.Path()}
	case "method_route_query":
		parts = []string{"method", r.Method, "route", c.Path(), "q", r.URL.RawQuery}
	default: // "route_query"
		parts = []string{"route", c.Path(), "q", r.URL.RawQuery}
	}
	sum := sha1.Sum([]byte(strings.Join(parts, ":")))
	return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdr, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8, 8+len(hdr)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdr)))
	out = append(out, hdr...)
	return append(out, body...), nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(bs) < 8 {
		return 0, nil, nil, false
	}
	status = int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := uint64(binary.BigEndian.Uint32(bs[4:8]))
	if 8+hlen > uint64(len(bs)) {
		return 0, nil, nil, false
	}
	header = make(http.Header)
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
			return 0, nil, nil, false
		}
	}
	return status, header, bs[8+hlen:], true
}

// replay writes a cached payload to the client.
func replay(c echo.Context, status int, header http.Header, body []byte) error {
	dst := c.Response().Header()
	for k, vals := range header {
		if skipOnReplay(k) {
			continue
		}
		for _, v := range vals {
			dst.Add(k, v)
		}
	}
	dst.Set("X-Cache", "HIT")
	c.Response().WriteHeader(status)
	if len(body) > 0 {
		_, err := c.Response().Write(body)
		return err
	}
	return nil
}

// skipOnReplay lists headers that belong to the live request, not the cached
// representation.
func skipOnReplay(k string) bool {
	k = http.CanonicalHeaderKey(k)
	switch k {
	case echo.HeaderContentLength, echo.HeaderXRequestID, "X-Cache", "Retry-After":
		return true
	}
	return strings.HasPrefix(k, "X-Ratelimit-")
}

// NewRedisCache caches successful responses for the configured methods,
// headers included, so a hit is indistinguishable from a miss apart from
// X-Cache.  With no client, or when disabled, it is a pass-through.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passThrough
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}
			key := cacheKeyFrom(cfg, c)

			if bs, err := rdb.Get(c.Request().Context(), key).Bytes(); err == nil {
				if status, hdr, body, ok := decodePayload(bs); ok {
					return replay(c, status, hdr, body)
				}
			} else if !errors.Is(err, redis.Nil) {
				c.Logger().Warnf("[cache] redis get key=%s: %v", key, err)
			}

			rec := &bodyRecorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
			c.Response().Writer = rec
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if rec.status != http.StatusOK || rec.truncated(c.Response().Size) {
				return nil
			}
			payload, err := encodePayload(rec.status, c.Response().Header().Clone(), rec.buf.Bytes())
			if err != nil {
				return nil
			}
			// the request context may already be cancelled once the client has the body
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := rdb.Set(ctx, key, payload, ttl).Err(); err != nil {
				c.Logger().Warnf("[cache] redis set key=%s: %v", key, err)
			}
			return nil
		}
	}
}
