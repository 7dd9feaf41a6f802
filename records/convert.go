package records

import (
	"fmt"

	"github.com/goliatone/go-campus-authz/pkg/types"
	"github.com/google/uuid"
)

// parseID accepts the representations drivers hand back for uuid columns.
func parseID(raw any) (uuid.UUID, error) {
	switch v := raw.(type) {
	case nil:
		return uuid.Nil, nil
	case uuid.UUID:
		return v, nil
	case string:
		if v == "" {
			return uuid.Nil, nil
		}
		return uuid.Parse(v)
	case []byte:
		if len(v) == 16 {
			return uuid.FromBytes(v)
		}
		if len(v) == 0 {
			return uuid.Nil, nil
		}
		return uuid.ParseBytes(v)
	default:
		return uuid.Nil, fmt.Errorf("records: unsupported id value %T", raw)
	}
}

func toRecord(table Table, row map[string]any) (types.Record, error) {
	id, err := parseID(row["id"])
	if err != nil {
		return types.Record{}, err
	}
	rec := types.Record{
		Type: table.Resource,
		ID:   id,
		Refs: make(map[string]uuid.UUID, len(table.Refs)),
	}
	for _, ref := range table.Refs {
		value, err := parseID(row[RefColumn(ref)])
		if err != nil {
			return types.Record{}, fmt.Errorf("records: %s.%s: %w", table.Name, RefColumn(ref), err)
		}
		if value != uuid.Nil {
			rec.Refs[ref] = value
		}
	}
	if len(table.Attrs) > 0 {
		rec.Attrs = make(map[string]any, len(table.Attrs))
		for _, attr := range table.Attrs {
			value, ok := row[attr]
			if !ok {
				continue
			}
			if raw, isBytes := value.([]byte); isBytes {
				value = string(raw)
			}
			rec.Attrs[attr] = value
		}
	}
	return rec, nil
}

// toValues maps rec onto table columns. Refs absent from rec are written as
// NULL; attrs absent from rec are left out.
func toValues(table Table, rec types.Record) map[string]interface{} {
	values := make(map[string]interface{}, 1+len(table.Refs)+len(table.Attrs))
	values["id"] = rec.ID.String()
	for _, ref := range table.Refs {
		if id := rec.Ref(ref); id != uuid.Nil {
			values[RefColumn(ref)] = id.String()
		} else {
			values[RefColumn(ref)] = nil
		}
	}
	for _, attr := range table.Attrs {
		if value, ok := rec.Attrs[attr]; ok {
			values[attr] = value
		}
	}
	return values
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

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
