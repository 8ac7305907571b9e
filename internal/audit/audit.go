// Package audit captures key registration and account actions as events.
// Events are transport-agnostic so sinks can fan out.
package audit

import (
	"context"
	"time"
)

type Action string

const (
	ActionCheckPerformed  Action = "check_performed"
	ActionSignupCompleted Action = "signup_completed"
	ActionSignupConflict  Action = "signup_conflict"
	ActionLoginSucceeded  Action = "login_succeeded"
	ActionLoginFailed     Action = "login_failed"
	ActionAccountCreated  Action = "account_created"
	ActionAccountUpdated  Action = "account_updated"
	ActionAccountDeleted  Action = "account_deleted"
)

// Event is emitted from domain logic. Identifiers are carried verbatim;
// secrets never appear here.
type Event struct {
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	ActorKind string    `json:"actor_kind,omitempty"`
	RecordID  string    `json:"record_id,omitempty"`
	Token     string    `json:"token,omitempty"`
	PrimaryID string    `json:"primary_id,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	ClientIP  string    `json:"client_ip,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

// Publisher delivers events to a sink. Publish must not block the caller
// beyond the context deadline and failures must not affect the operation
// that emitted the event.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Nop discards all events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
