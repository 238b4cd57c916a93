package handler // auditor read endpoints over stored greeting events

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/greeter/internal/model"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

// EventReader is the read side of the auditor's event store.
type EventReader interface {
	Recent(ctx context.Context, limit int) ([]model.GreetingEvent, error)
	CountByRoute(ctx context.Context) ([]model.RouteCount, error)
}

// EventsHandler serves the auditor's read API.
type EventsHandler struct {
	Events EventReader
}

// NewEventsHandler panics on a nil reader.
func NewEventsHandler(r EventReader) *EventsHandler {
	if r == nil {
		panic("nil event reader passed to NewEventsHandler")
	}
	return &EventsHandler{Events: r}
}

// ListEvents handles GET /v1/events?limit=N, newest first.
func (h *EventsHandler) ListEvents(c echo.Context) error {
	limit := defaultEventLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit must be a positive integer"})
		}
		limit = min(n, maxEventLimit)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	events, err := h.Events.Recent(ctx, limit)
	if err != nil {
		c.Logger().Errorf("[events] list: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if events == nil {
		events = []model.GreetingEvent{}
	}
	return c.JSON(http.StatusOK, echo.Map{"events": events, "count": len(events)})
}

// Stats handles GET /v1/events/stats.
func (h *EventsHandler) Stats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	counts, err := h.Events.CountByRoute(ctx)
	if err != nil {
		c.Logger().Errorf("[events] stats: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	var total uint64
	for _, rc := range counts {
		total += rc.Count
	}
	if counts == nil {
		counts = []model.RouteCount{}
	}
	return c.JSON(http.StatusOK, echo.Map{"routes": counts, "total": total})
}
