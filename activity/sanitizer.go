package activity

import (
	"sync"

	"github.com/goliatone/go-campus-authz/pkg/types"
	"github.com/goliatone/go-masker"
)

// SanitizerConfig controls the masker used for draft sanitization.
type SanitizerConfig struct {
	Masker *masker.Masker
}

var defaultMaskerOnce sync.Once

// DefaultMasker returns the shared masker with the draft denylist registered.
func DefaultMasker() *masker.Masker {
	defaultMaskerOnce.Do(func() {
		if masker.Default == nil {
			return
		}
		registerDefaultMaskFields(masker.Default)
	})
	return masker.Default
}

// SanitizeEvent masks sensitive values in the draft payload of a decision.
// A draft that cannot be masked is dropped.
func SanitizeEvent(mask *masker.Masker, event types.DecisionEvent) types.DecisionEvent {
	event.Draft = sanitizeDraft(mask, event.Draft)
	return event
}

// SanitizeRecords masks the drafts of every record in the slice.
func SanitizeRecords(mask *masker.Masker, records []types.DecisionRecord) []types.DecisionRecord {
	if len(records) == 0 {
		return records
	}
	out := make([]types.DecisionRecord, 0, len(records))
	for _, record := range records {
		record.DecisionEvent = SanitizeEvent(mask, record.DecisionEvent)
		out = append(out, record)
	}
	return out
}

func sanitizeDraft(mask *masker.Masker, draft map[string]any) map[string]any {
	if len(draft) == 0 {
		return draft
	}
	if mask == nil {
		mask = DefaultMasker()
	}
	if mask == nil {
		return map[string]any{}
	}
	masked, err := mask.Mask(cloneMap(draft))
	if err != nil {
		return map[string]any{}
	}
	if out, ok := masked.(map[string]any); ok {
		return out
	}
	return map[string]any{}
}

func registerDefaultMaskFields(mask *masker.Masker) {
	if mask == nil {
		return
	}
	for _, field := range []string{
		"password",
		"secret",
		"token",
		"iban",
		"account_number",
		"national_id",
	} {
		mask.RegisterMaskField(field, "filled4")
	}
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return map[string]any{}
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
