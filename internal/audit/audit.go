// Package audit appends an append-only trail of enrollment and attendance
// actions. Entries flow through the queue so request latency never waits on
// the audit write.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/cockroachdb/errors"

	"eventra/internal/queue"
)

// MessageType tags audit messages on the queue.
const MessageType = "audit"

// Entry is one recorded action.
type Entry struct {
	ActorID  string `json:"actor_id"`
	Action   string `json:"action"`
	EntityID string `json:"entity_id"`
	Detail   string `json:"detail,omitempty"`
}

// Publish puts an entry on the queue. Best effort from the caller's side;
// callers log and continue on failure.
func Publish(ctx context.Context, q queue.Queue, e Entry) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return q.Publish(ctx, queue.Message{Type: MessageType, Body: body})
}

// Recorder writes entries to the audit_log table.
type Recorder struct {
	db *sql.DB
}

// NewRecorder creates a recorder.
func NewRecorder(db *sql.DB) *Recorder {
	return &Recorder{db: db}
}

// Record appends one entry.
func (r *Recorder) Record(ctx context.Context, e Entry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_log (actor_id, action, entity_id, detail)
		VALUES ($1,$2,$3,$4)
	`, e.ActorID, e.Action, e.EntityID, e.Detail)
	return errors.Wrap(err, "record audit entry")
}

// Decode parses a queue message body into an entry.
func Decode(msg queue.Message) (Entry, error) {
	var e Entry
	if err := json.Unmarshal(msg.Body, &e); err != nil {
		return Entry{}, errors.Wrap(err, "decode audit entry")
	}
	return e, nil
}
