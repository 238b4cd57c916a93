package model // read-side rows of the auditor

import "time"

// GreetingEvent is a row of the `greeting_events` table kept by the
// auditor.  It records that a greeting route answered, never what was sent.
//
// Fields:
//
//	ID         – event id assigned by the publisher (UUID string).
//	Route      – matched route path, e.g. "/data".
//	Method     – HTTP method of the request.
//	Status     – HTTP status returned to the client.
//	RequestID  – X-Request-Id of the request, may be empty.
//	IssuedAt   – when the greeter answered.
//	ReceivedAt – when the auditor stored the event.
type GreetingEvent struct {
	ID         string    `json:"id"`
	Route      string    `json:"route"`
	Method     string    `json:"method"`
	Status     int       `json:"status"`
	RequestID  string    `json:"request_id,omitempty"`
	IssuedAt   time.Time `json:"issued_at"`
	ReceivedAt time.Time `json:"received_at"`
}

// RouteCount aggregates events per route and method.
type RouteCount struct {
	Route  string `json:"route"`
	Method string `json:"method"`
	Count  uint64 `json:"count"`
}
