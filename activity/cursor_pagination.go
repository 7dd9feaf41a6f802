package activity

import (
	"github.com/goliatone/go-campus-authz/pkg/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ApplyCursorPagination applies cursor pagination using occurred_at/id
// ordering. Results are ordered by occurred_at DESC, id DESC, and filtered to
// decisions older than the supplied cursor.
func ApplyCursorPagination(q *bun.SelectQuery, cursor *types.DecisionCursor, limit int) *bun.SelectQuery {
	if q == nil {
		return nil
	}
	q = q.OrderExpr("occurred_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if cursor == nil || cursor.OccurredAt.IsZero() {
		return q
	}
	if cursor.ID == uuid.Nil {
		return q.Where("occurred_at < ?", cursor.OccurredAt)
	}
	return q.Where("(occurred_at < ?) OR (occurred_at = ? AND id < ?)", cursor.OccurredAt, cursor.OccurredAt, cursor.ID)
}
