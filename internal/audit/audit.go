// Package audit records lifecycle events with before and after snapshots.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
)

type Action string

const (
	ActionCreate     Action = "create"
	ActionApprove    Action = "approve"
	ActionReject     Action = "reject"
	ActionCancel     Action = "cancel"
	ActionReschedule Action = "reschedule"
	ActionCheckIn    Action = "check_in"
	ActionAutoCancel Action = "auto_cancel"
	ActionPurge      Action = "purge"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
)

// Entry is one audit record. ActorID is empty for system-initiated changes.
type Entry struct {
	Action     Action
	EntityType string
	EntityID   string
	ActorID    string
	Before     json.RawMessage
	After      json.RawMessage
	Message    string
	CreatedAt  time.Time
}

// Sink accepts audit entries.
type Sink interface {
	Record(ctx context.Context, e Entry) error
}

// Snapshot marshals v for use as Entry.Before or Entry.After. A nil value or
// a marshal failure yields nil.
func Snapshot(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

// LogSink writes entries to a zap logger.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Record(_ context.Context, e Entry) error {
	s.logger.Info("audit",
		zap.String("action", string(e.Action)),
		zap.String("entity_type", e.EntityType),
		zap.String("entity_id", e.EntityID),
		zap.String("actor_id", e.ActorID),
		zap.String("message", e.Message),
	)
	return nil
}

type multi []Sink

// Multi fans an entry out to every sink, joining their errors.
func Multi(sinks ...Sink) Sink {
	return multi(sinks)
}

func (m multi) Record(ctx context.Context, e Entry) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
