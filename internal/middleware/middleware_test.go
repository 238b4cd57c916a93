package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/greeter/internal/config"
	"github.com/iliyamo/greeter/internal/queue"
)

type chanPublisher struct {
	mu     sync.Mutex
	events chan queue.GreetingIssuedEvent
	err    error
}

func newChanPublisher() *chanPublisher {
	return &chanPublisher{events: make(chan queue.GreetingIssuedEvent, 8)}
}

func (p *chanPublisher) Publish(_ context.Context, ev queue.GreetingIssuedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events <- ev
	return p.err
}

func serve(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestGreetingEventsPublishesOnSuccess(t *testing.T) {
	pub := newChanPublisher()
	e := echo.New()
	e.Use(echomw.RequestID())
	e.GET("/", func(c echo.Context) error { return c.String(http.StatusOK, "hi") }, GreetingEvents(pub))

	rec := serve(e, http.MethodGet, "/?x=1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	select {
	case ev := <-pub.events:
		assert.Equal(t, "/", ev.Route)
		assert.Equal(t, http.MethodGet, ev.Method)
		assert.Equal(t, http.StatusOK, ev.Status)
		assert.Equal(t, rec.Header().Get(echo.HeaderXRequestID), ev.RequestID)
		assert.NoError(t, ev.Validate())
	case <-time.After(2 * time.Second):
		t.Fatal("no event published")
	}
}

func TestGreetingEventsSkipsFailures(t *testing.T) {
	pub := newChanPublisher()
	e := echo.New()
	e.POST("/data", func(c echo.Context) error {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}, GreetingEvents(pub))
	e.POST("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusInternalServerError)
	}, GreetingEvents(pub))

	assert.Equal(t, http.StatusBadRequest, serve(e, http.MethodPost, "/data", "{").Code)
	assert.Equal(t, http.StatusInternalServerError, serve(e, http.MethodPost, "/boom", "").Code)

	select {
	case ev := <-pub.events:
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestGreetingEventsPublishErrorDoesNotAffectResponse(t *testing.T) {
	pub := newChanPublisher()
	pub.err = errors.New("broker down")
	e := echo.New()
	e.GET("/", func(c echo.Context) error { return c.String(http.StatusOK, "hi") }, GreetingEvents(pub))

	rec := serve(e, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hi", rec.Body.String())
	<-pub.events
}

func TestMiddlewarePassThroughWithoutBackends(t *testing.T) {
	e := echo.New()
	e.Use(NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil))
	e.GET("/", func(c echo.Context) error { return c.String(http.StatusOK, "hi") },
		NewRedisCache(config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}}, nil),
		GreetingEvents(nil),
	)
	for i := 0; i < 3; i++ {
		rec := serve(e, http.MethodGet, "/", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-Cache"))
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestEncodeDecodePayload(t *testing.T) {
	hdr := http.Header{"Content-Type": {"text/plain; charset=UTF-8"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte("Hello from the server!"))
	require.NoError(t, err)

	status, gotHdr, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, hdr, gotHdr)
	assert.Equal(t, "Hello from the server!", string(body))

	_, _, _, ok = decodePayload(bs[:7])
	assert.False(t, ok)
	_, _, _, ok = decodePayload(bs[:10])
	assert.False(t, ok, "header length beyond buffer")
}

func TestReplaySkipsLiveHeaders(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.Response().Header().Set(echo.HeaderXRequestID, "live")

	cached := http.Header{
		"Content-Type":          {"text/plain"},
		"Content-Length":        {"5"},
		"X-Request-Id":          {"stale"},
		"X-Cache":               {"MISS"},
		"X-Ratelimit-Remaining": {"3"},
	}
	require.NoError(t, replay(c, http.StatusOK, cached, []byte("hello")))
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, []string{"live"}, rec.Header().Values(echo.HeaderXRequestID))
	assert.Empty(t, rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
	assert.Equal(t, "hello", rec.Body.String())
}

func TestBodyRecorderLimit(t *testing.T) {
	inner := httptest.NewRecorder()
	r := &bodyRecorder{ResponseWriter: inner, status: http.StatusOK, limit: 4}
	n, err := r.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hell", r.buf.String())
	assert.Equal(t, "hello", inner.Body.String())
	assert.True(t, r.truncated(5))
	assert.False(t, r.truncated(4))
}

func TestCacheKeyFrom(t *testing.T) {
	e := echo.New()
	key := func(strategy, method, target string) string {
		c := e.NewContext(httptest.NewRequest(method, target, nil), httptest.NewRecorder())
		c.SetPath("/")
		return cacheKeyFrom(config.CacheConfig{Prefix: "p", KeyStrategy: strategy}, c)
	}
	assert.True(t, strings.HasPrefix(key("route_query", http.MethodGet, "/"), "p:"))
	assert.NotEqual(t, key("route_query", http.MethodGet, "/?a=1"), key("route_query", http.MethodGet, "/?a=2"))
	assert.Equal(t, key("route", http.MethodGet, "/?a=1"), key("route", http.MethodGet, "/?a=2"))
	assert.NotEqual(t, key("method_route", http.MethodGet, "/"), key("method_route", http.MethodHead, "/"))
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/data", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/data")

	tests := map[string]string{
		"ip":       "rl:ip:10.0.0.7",
		"route":    "rl:route:POST /data",
		"ip_route": "rl:ip:10.0.0.7:route:POST /data",
		"bogus":    "rl:ip:10.0.0.7:route:POST /data",
	}
	for strategy, want := range tests {
		got := buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: strategy}, c)
		assert.Equal(t, want, got, strategy)
	}
}

func TestParseBucketResult(t *testing.T) {
	res, ok := parseBucketResult([]interface{}{int64(0), int64(0), int64(1500)})
	require.True(t, ok)
	assert.False(t, res.allowed)
	assert.Equal(t, 1500*time.Millisecond, res.retry)
	assert.Equal(t, 2, retryAfterSeconds(res.retry))

	res, ok = parseBucketResult([]interface{}{int64(1), "4", int64(0)})
	require.True(t, ok)
	assert.True(t, res.allowed)
	assert.Equal(t, int64(4), res.remaining)

	_, ok = parseBucketResult("nope")
	assert.False(t, ok)
}
