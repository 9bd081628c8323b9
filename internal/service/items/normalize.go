package items

import (
	"fmt"
	"time"
)

func strField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func nestedMap(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	if nested, ok := m[key].(map[string]any); ok {
		return nested
	}
	return nil
}

func timeField(m map[string]any, key string) *time.Time {
	raw := strField(m, key)
	if raw == "" {
		return nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &ts
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// itemID makes the canonical id unique across record kinds within one fetch
// result: raw identifiers from different collections may collide.
func itemID(rawID, kind string) string {
	if rawID == "" {
		rawID = "unknown"
	}
	return rawID + "_" + kind
}

// placeholderName is the last-resort display name; a record is never dropped
// for lack of a discoverable name.
func placeholderName(kind, rawID string) string {
	if rawID == "" {
		rawID = "Unknown"
	}
	return fmt.Sprintf("%s %s", kind, rawID)
}
