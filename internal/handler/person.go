package handler // POST /data

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/greeter/internal/model"
)

// messageResp is the success body of POST /data.
type messageResp struct {
	Message string `json:"message"`
}

// CreatePerson handles POST /data.  The body must be a JSON object with a
// string "name" and a non-negative integer "age"; anything else is a 400.
// The payload is neither stored nor logged.
func CreatePerson(c echo.Context) error {
	p, err := model.DecodePerson(c)
	if derr := (*model.DecodeError)(nil); errors.As(err, &derr) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body", "details": derr.Reason()})
	}
	return c.JSON(http.StatusOK, messageResp{Message: p.Greeting()})
}
