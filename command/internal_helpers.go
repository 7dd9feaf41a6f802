package command

import (
	"context"
	"time"

	"github.com/goliatone/go-campus-authz/pkg/types"
	"github.com/google/uuid"
)

func safeClock(clock types.Clock) types.Clock {
	if clock != nil {
		return clock
	}
	return types.SystemClock{}
}

func safeLogger(logger types.Logger) types.Logger {
	if logger != nil {
		return logger
	}
	return types.NopLogger{}
}

func now(clock types.Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.Now()
}

func emitDeleteHook(ctx context.Context, hooks types.Hooks, event types.DeleteEvent) {
	if hooks.AfterDelete == nil {
		return
	}
	hooks.AfterDelete(ctx, event)
}

func validateTarget(actor types.ActorRef, resource types.ResourceType) error {
	switch {
	case actor.ID == uuid.Nil:
		return ErrActorRequired
	case resource == "":
		return ErrResourceRequired
	default:
		return nil
	}
}

// mergeRecord applies a partial draft over the stored row. A ref set to
// uuid.Nil in the patch clears the relation.
func mergeRecord(existing, patch types.Record) types.Record {
	merged := existing.Clone()
	for ref, id := range patch.Refs {
		if merged.Refs == nil {
			merged.Refs = make(map[string]uuid.UUID, len(patch.Refs))
		}
		if id == uuid.Nil {
			delete(merged.Refs, ref)
			continue
		}
		merged.Refs[ref] = id
	}
	for key, value := range patch.Attrs {
		if merged.Attrs == nil {
			merged.Attrs = make(map[string]any, len(patch.Attrs))
		}
		merged.Attrs[key] = value
	}
	return merged
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func recordIDs(rows []types.Record) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ID)
	}
	return out
}
