// Package auditx records authorization decisions made by the guard
// pipeline. Sinks are intentionally fire-and-forget: auditing must never
// block or fail a navigation.
package auditx

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/trialgate/pkg/idx"
)

// Event is a single recorded authorization decision.
type Event struct {
	ID        idx.ID    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Guard     string    `json:"guard"`
	Route     string    `json:"route"`
	UserID    string    `json:"user_id,omitempty"`
	Role      string    `json:"role,omitempty"`
	Allowed   bool      `json:"allowed"`
	Reason    string    `json:"reason,omitempty"`
}

// Sink receives emitted audit events.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoopSink drops audit events.
type NoopSink struct{}

func (NoopSink) Emit(context.Context, Event) {}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	mu     sync.Mutex
	writer io.Writer
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{writer: w}
}

func (s *JSONWriterSink) Emit(_ context.Context, event Event) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}

// SlogSink logs audit events through a structured logger.
type SlogSink struct {
	Logger *slog.Logger
}

func (s SlogSink) Emit(_ context.Context, event Event) {
	if s.Logger == nil {
		return
	}
	s.Logger.Info("authorization decision",
		"audit_id", event.ID.String(),
		"guard", event.Guard,
		"route", event.Route,
		"user_id", event.UserID,
		"role", event.Role,
		"allowed", event.Allowed,
		"reason", event.Reason,
	)
}

// NewEvent stamps an event with a ULID and the given timestamp.
func NewEvent(now time.Time, guard, route, userID, role string, allowed bool, reason string) Event {
	return Event{
		ID:        idx.NewAt(now.UTC()),
		Timestamp: now.UTC(),
		Guard:     guard,
		Route:     route,
		UserID:    userID,
		Role:      role,
		Allowed:   allowed,
		Reason:    reason,
	}
}
