package handler // handler defines the HTTP handlers of the greeter and the auditor

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Greeting is the body of GET /.
const Greeting = "Hello from the server!"

// Greet answers every GET / with the constant greeting, whatever the query,
// headers or body.
func Greet(c echo.Context) error {
	return c.String(http.StatusOK, Greeting)
}
