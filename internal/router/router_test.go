package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/greeter/internal/config"
	"github.com/iliyamo/greeter/internal/handler"
	"github.com/iliyamo/greeter/internal/model"
	"github.com/iliyamo/greeter/internal/queue"
)

func do(e *echo.Echo, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

var jsonHeader = map[string]string{echo.HeaderContentType: echo.MIMEApplicationJSON}

func TestGreetIgnoresRequest(t *testing.T) {
	e := New(config.Config{}, Deps{})
	cases := []struct {
		target string
		body   string
		header map[string]string
	}{
		{"/", "", nil},
		{"/?name=x&age=3", "", nil},
		{"/", `{"name":"Ada","age":30}`, jsonHeader},
		{"/", "garbage", map[string]string{"Accept": "application/xml", "X-Anything": "1"}},
	}
	for _, tc := range cases {
		rec := do(e, http.MethodGet, tc.target, tc.body, tc.header)
		assert.Equal(t, http.StatusOK, rec.Code, tc.target)
		assert.Equal(t, handler.Greeting, rec.Body.String())
		assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	}
}

func TestCreatePersonFormatsMessage(t *testing.T) {
	e := New(config.Config{}, Deps{})
	cases := []struct {
		name string
		age  uint64
	}{
		{"Ada", 30},
		{"", 0},
		{"Grace Hopper", 85},
		{"名前 \"quoted\"", 4294967295},
	}
	for _, tc := range cases {
		payload, err := json.Marshal(map[string]any{"name": tc.name, "age": tc.age})
		require.NoError(t, err)
		rec := do(e, http.MethodPost, "/data", string(payload), jsonHeader)
		require.Equal(t, http.StatusOK, rec.Code, string(payload))

		var got map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, map[string]string{
			"message": fmt.Sprintf("Hello %s, you are %d years old.", tc.name, tc.age),
		}, got)
	}
}

func TestCreatePersonRejects(t *testing.T) {
	e := New(config.Config{}, Deps{})
	cases := []struct {
		name   string
		body   string
		header map[string]string
	}{
		{"missing age", `{"name":"Ada"}`, jsonHeader},
		{"negative age", `{"name":"Ada","age":-1}`, jsonHeader},
		{"string age", `{"name":"Ada","age":"30"}`, jsonHeader},
		{"overflow", `{"name":"Ada","age":4294967296}`, jsonHeader},
		{"plain text", `name=Ada age=30`, map[string]string{echo.HeaderContentType: echo.MIMETextPlain}},
		{"empty", ``, jsonHeader},
		{"xml", `<p><Name>Ada</Name><Age>30</Age></p>`, map[string]string{echo.HeaderContentType: echo.MIMEApplicationXML}},
		{"form", `name=Ada&age=30`, map[string]string{echo.HeaderContentType: echo.MIMEApplicationForm}},
		{"trailing text", `{"name":"Ada","age":30} trailing`, jsonHeader},
		{"two objects", `{"name":"Ada","age":30}{"x":1}`, jsonHeader},
		{"upper-case keys", `{"NAME":"Ada","AGE":30}`, jsonHeader},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(e, http.MethodPost, "/data", tc.body, tc.header)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error":"invalid body"`)
		})
	}
}

func TestUnmatchedRoutes(t *testing.T) {
	e := New(config.Config{}, Deps{})
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/nope", "", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(e, http.MethodGet, "/data", "", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(e, http.MethodPost, "/", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/healthz", "", nil).Code)
}

type chanPublisher chan queue.GreetingIssuedEvent

func (p chanPublisher) Publish(_ context.Context, ev queue.GreetingIssuedEvent) error {
	p <- ev
	return nil
}

func TestGreetingEventsWired(t *testing.T) {
	pub := make(chanPublisher, 4)
	e := New(config.Config{}, Deps{Events: pub})

	require.Equal(t, http.StatusOK, do(e, http.MethodPost, "/data", `{"name":"Ada","age":30}`, jsonHeader).Code)
	require.Equal(t, http.StatusBadRequest, do(e, http.MethodPost, "/data", `{}`, jsonHeader).Code)
	require.Equal(t, http.StatusOK, do(e, http.MethodGet, "/healthz", "", nil).Code)

	select {
	case ev := <-pub:
		assert.Equal(t, "/data", ev.Route)
		assert.Equal(t, http.MethodPost, ev.Method)
	case <-time.After(2 * time.Second):
		t.Fatal("no event published")
	}
	select {
	case ev := <-pub:
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

type staticReader struct{}

func (staticReader) Recent(context.Context, int) ([]model.GreetingEvent, error) {
	return []model.GreetingEvent{{ID: "e1", Route: "/", Method: "GET", Status: 200}}, nil
}

func (staticReader) CountByRoute(context.Context) ([]model.RouteCount, error) {
	return []model.RouteCount{{Route: "/", Method: "GET", Count: 1}}, nil
}

func TestAuditorRoutes(t *testing.T) {
	e := NewAuditor("error", handler.NewEventsHandler(staticReader{}))
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/v1/events", "", nil).Code)
	rec := do(e, http.MethodGet, "/v1/events/stats", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodPost, "/data", "", nil).Code)
}
