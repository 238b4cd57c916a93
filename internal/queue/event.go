// Package queue defines message payloads exchanged over the message broker
// and the consumer that drains them.
package queue

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidEvent marks a message that decoded but is missing required fields.
var ErrInvalidEvent = errors.New("invalid greeting event")

// GreetingIssuedEvent is published after a greeting route answered with a
// 2xx status.  It deliberately carries no request payload: the name and age
// sent to POST /data never leave the handler.
type GreetingIssuedEvent struct {
	ID        string `json:"id"`
	Route     string `json:"route"`
	Method    string `json:"method"`
	Status    int    `json:"status"`
	RequestID string `json:"request_id,omitempty"`
	IssuedAt  string `json:"issued_at"`
}

// NewGreetingIssuedEvent stamps a fresh id and the current UTC time.
func NewGreetingIssuedEvent(method, route string, status int, requestID string) GreetingIssuedEvent {
	return GreetingIssuedEvent{
		ID:        uuid.NewString(),
		Route:     route,
		Method:    method,
		Status:    status,
		RequestID: requestID,
		IssuedAt:  time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// Validate checks the fields the auditor relies on.
func (ev GreetingIssuedEvent) Validate() error {
	if _, err := uuid.Parse(ev.ID); err != nil {
		return errors.Join(ErrInvalidEvent, err)
	}
	if ev.Route == "" || ev.Method == "" {
		return errors.Join(ErrInvalidEvent, errors.New("route and method are required"))
	}
	if _, err := ev.IssuedTime(); err != nil {
		return errors.Join(ErrInvalidEvent, err)
	}
	return nil
}

// IssuedTime parses IssuedAt.
func (ev GreetingIssuedEvent) IssuedTime() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, ev.IssuedAt)
}
