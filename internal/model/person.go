// Package model holds the request and read-side types shared by handlers,
// the event pipeline and the auditor's repository.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/labstack/echo/v4"
)

// Person is the payload accepted by POST /data.  It only lives for the
// duration of one request.
type Person struct {
	Name string
	Age  uint32
}

// Greeting formats the reply for p with literal substitution of both fields.
func (p Person) Greeting() string {
	return fmt.Sprintf("Hello %s, you are %d years old.", p.Name, p.Age)
}

// personBody is the wire shape.  Pointers let validation distinguish a
// missing field from an empty name or an age of zero.
type personBody struct {
	Name *string `json:"name" validate:"required"`
	Age  *uint32 `json:"age" validate:"required"`
}

// DecodeStage tells at which step decoding a request body failed.
type DecodeStage string

const (
	StageBind     DecodeStage = "bind"     // body unreadable, not JSON, or wrong JSON types
	StageValidate DecodeStage = "validate" // well-formed JSON missing required fields
)

var (
	ErrNotJSON       = errors.New("content type must be application/json")
	ErrTrailingData  = errors.New("unexpected data after JSON object")
	ErrMalformedJSON = errors.New("malformed JSON")
)

// DecodeError is the failure half of DecodePerson.
type DecodeError struct {
	Stage DecodeStage
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode person (%s): %v", e.Stage, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Reason is a client-facing description of the failure.
func (e *DecodeError) Reason() string { return e.Err.Error() }

func bindError(err error) error { return &DecodeError{Stage: StageBind, Err: err} }

// DecodePerson reads a single JSON object from the request body and
// validates it.  It returns either a Person or a *DecodeError, never both.
// Keys match exactly and nothing may follow the object.  The echo instance
// must have a Validator registered.
func DecodePerson(c echo.Context) (Person, error) {
	req := c.Request()
	if !strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		return Person{}, bindError(ErrNotJSON)
	}

	// an empty body falls through to validation as an object with no keys
	var raw map[string]json.RawMessage
	dec := json.NewDecoder(req.Body)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return Person{}, bindError(fmt.Errorf("%w: %v", ErrMalformedJSON, err))
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return Person{}, bindError(ErrTrailingData)
	}

	var body personBody
	if err := decodeField(raw, "name", &body.Name); err != nil {
		return Person{}, bindError(err)
	}
	if err := decodeField(raw, "age", &body.Age); err != nil {
		return Person{}, bindError(err)
	}
	if err := c.Validate(&body); err != nil {
		return Person{}, &DecodeError{Stage: StageValidate, Err: err}
	}
	return Person{Name: *body.Name, Age: *body.Age}, nil
}

// decodeField unmarshals raw[key] into dst when the exact key is present.
func decodeField(raw map[string]json.RawMessage, key string, dst any) error {
	v, ok := raw[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return fmt.Errorf("field %s: %w", key, err)
	}
	return nil
}
