package audit

import (
	"context"
	"time"
)

// Actions recorded against the ledger. Read paths are not audited.
const (
	ActionIssue      = "credential.issue"
	ActionRevoke     = "credential.revoke"
	ActionRegister   = "university.register"
	ActionConnect    = "session.connect"
	ActionDisconnect = "session.disconnect"
)

// Event captures a ledger-mutating or session action. It is
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string
	Timestamp time.Time
	Actor     string
	Action    string
	Subject   string
	TokenID   string
	TxHash    string
	Detail    string
}

// Store persists audit events. Implementations must be safe for
// concurrent use.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByActor(ctx context.Context, actor string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
