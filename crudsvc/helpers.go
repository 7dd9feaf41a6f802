package crudsvc

import (
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-campus-authz/pkg/types"
	"github.com/goliatone/go-crud"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

func queryUUID(ctx crud.Context, key string) uuid.UUID {
	raw := strings.TrimSpace(ctx.Query(key))
	if raw == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func queryInt(ctx crud.Context, key string, def int) int {
	if value := ctx.Query(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return def
}

func queryTime(ctx crud.Context, key string) *time.Time {
	raw := strings.TrimSpace(ctx.Query(key))
	if raw == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &parsed
}

// queryStringSlice accepts both repeated keys and comma separated values.
func queryStringSlice(ctx crud.Context, key string) []string {
	values := ctx.QueryValues(key)
	if len(values) == 0 {
		if raw := ctx.Query(key); raw != "" {
			values = []string{raw}
		}
	}
	var result []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				result = append(result, part)
			}
		}
	}
	return result
}

// queryRefs collects "<ref>_id" query parameters into a ref filter.
func queryRefs(ctx crud.Context, refs []string) map[string]uuid.UUID {
	var out map[string]uuid.UUID
	for _, ref := range refs {
		id := queryUUID(ctx, ref+"_id")
		if id == uuid.Nil {
			continue
		}
		if out == nil {
			out = make(map[string]uuid.UUID, len(refs))
		}
		out[ref] = id
	}
	return out
}

func parseDecisionStates(ctx crud.Context, key string) []types.DecisionState {
	values := queryStringSlice(ctx, key)
	if len(values) == 0 {
		return nil
	}
	states := make([]types.DecisionState, 0, len(values))
	for _, value := range values {
		states = append(states, types.DecisionState(strings.ToLower(value)))
	}
	return states
}

func parseRecordID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, goerrors.New("invalid record id", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}
	return id, nil
}
