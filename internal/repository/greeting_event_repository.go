package repository // MySQL persistence of greeting events

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/greeter/internal/model"
	"github.com/iliyamo/greeter/internal/queue"
)

const createGreetingEvents = `CREATE TABLE IF NOT EXISTS greeting_events (
	id          CHAR(36)          NOT NULL PRIMARY KEY,
	route       VARCHAR(255)      NOT NULL,
	method      VARCHAR(16)       NOT NULL,
	status      SMALLINT UNSIGNED NOT NULL,
	request_id  VARCHAR(64)       NOT NULL DEFAULT '',
	issued_at   DATETIME(6)       NOT NULL,
	received_at DATETIME(6)       NOT NULL,
	INDEX idx_greeting_events_issued (issued_at),
	INDEX idx_greeting_events_route (route, method)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// GreetingEventRepo stores greeting events received by the auditor.  It
// satisfies queue.EventSink and handler.EventReader.
type GreetingEventRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewGreetingEventRepo(db *sql.DB) *GreetingEventRepo {
	return &GreetingEventRepo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// EnsureSchema creates the greeting_events table when it does not exist.
func (r *GreetingEventRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createGreetingEvents); err != nil {
		return fmt.Errorf("create greeting_events: %w", err)
	}
	return nil
}

// Record inserts ev.  Redelivered events share an id and are ignored, so
// recording is idempotent.
func (r *GreetingEventRepo) Record(ctx context.Context, ev queue.GreetingIssuedEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	issued, _ := ev.IssuedTime()
	_, err := r.db.ExecContext(ctx,
		"INSERT IGNORE INTO greeting_events (id, route, method, status, request_id, issued_at, received_at) VALUES (?,?,?,?,?,?,?)",
		ev.ID, ev.Route, ev.Method, ev.Status, ev.RequestID, issued.UTC(), r.now())
	return err
}

// Recent returns up to limit events, newest first.
func (r *GreetingEventRepo) Recent(ctx context.Context, limit int) ([]model.GreetingEvent, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, route, method, status, request_id, issued_at, received_at FROM greeting_events ORDER BY issued_at DESC, id DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.GreetingEvent
	for rows.Next() {
		var ev model.GreetingEvent
		if err := rows.Scan(&ev.ID, &ev.Route, &ev.Method, &ev.Status, &ev.RequestID, &ev.IssuedAt, &ev.ReceivedAt); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// CountByRoute aggregates stored events per route and method.
func (r *GreetingEventRepo) CountByRoute(ctx context.Context) ([]model.RouteCount, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT route, method, COUNT(*) FROM greeting_events GROUP BY route, method ORDER BY route, method")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RouteCount
	for rows.Next() {
		var rc model.RouteCount
		if err := rows.Scan(&rc.Route, &rc.Method, &rc.Count); err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}
