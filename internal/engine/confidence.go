package engine

import "math"

// Score derives the confidence percentage from a profile's sources map.
//
// This is a breadth-of-coverage metric, not a statistical confidence: every
// source counts toward the total, and a source counts as found when its
// value is non-empty and does not carry an explicit found=false flag. It
// rewards how many sources returned something, not correctness or agreement.
func Score(sources map[string]any) float64 {
	var total, found int
	for _, value := range sources {
		total++
		if isFoundValue(value) {
			found++
		}
	}

	if total == 0 {
		return 0.0
	}

	// Round to one decimal place.
	return math.Round(float64(found)/float64(total)*1000) / 10
}

// isFoundValue reports whether a source value counts as a positive result.
func isFoundValue(v any) bool {
	if isEmptyValue(v) {
		return false
	}
	// An explicit found flag overrides non-emptiness.
	if m, ok := v.(map[string]any); ok {
		if flag, ok := m["found"]; ok {
			if b, ok := flag.(bool); ok && !b {
				return false
			}
		}
	}
	return true
}

// isEmptyValue reports whether a payload carries no data.
// It understands the JSON-shaped values produced by normalizePayload.
func isEmptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case bool:
		return !val
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	default:
		return false
	}
}
