package middleware // greeting event publishing after successful responses

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/greeter/internal/queue"
)

// EventPublisher is satisfied by service.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.GreetingIssuedEvent) error
}

const publishTimeout = 3 * time.Second

// GreetingEvents publishes a GreetingIssuedEvent after the wrapped handler
// answered with a 2xx status.  Publishing happens off the request goroutine
// and its failures never reach the client.  A nil publisher disables it.
func GreetingEvents(pub EventPublisher) echo.MiddlewareFunc {
	if pub == nil {
		return passThrough
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := next(c); err != nil {
				return err
			}
			status := c.Response().Status
			if status < 200 || status > 299 {
				return nil
			}
			ev := queue.NewGreetingIssuedEvent(
				c.Request().Method,
				c.Path(),
				status,
				c.Response().Header().Get(echo.HeaderXRequestID),
			)
			logger := c.Logger()
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
				defer cancel()
				if err := pub.Publish(ctx, ev); err != nil {
					logger.Warnf("[events] publish %s %s: %v", ev.Method, ev.Route, err)
				}
			}()
			return nil
		}
	}
}
