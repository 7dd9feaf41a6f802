package activity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DecisionEntry models the persisted row in authz_decisions.
type DecisionEntry struct {
	bun.BaseModel `bun:"table:authz_decisions"`

	ID            uuid.UUID      `bun:"id,pk,type:uuid"`
	ActorID       uuid.UUID      `bun:"actor_id,type:uuid,nullzero"`
	Role          string         `bun:"role,notnull"`
	Operation     string         `bun:"operation,notnull"`
	Resource      string         `bun:"resource,notnull"`
	State         string         `bun:"state,notnull"`
	RequiredRoles []string       `bun:"required_roles,type:jsonb"`
	Fault         string         `bun:"fault"`
	Candidates    int            `bun:"candidates"`
	Visible       int            `bun:"visible"`
	Draft         map[string]any `bun:"draft,type:jsonb"`
	OccurredAt    time.Time      `bun:"occurred_at"`
}
