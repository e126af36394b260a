package engine

import (
	"encoding/json"
	"fmt"

	"github.com/Nyx-Off/RavenTrace/internal/model"
	"github.com/Nyx-Off/RavenTrace/internal/provider"
)

// Aggregate merges probe outcomes into a profile.
//
// Every registered probe appears in the sources map: probes that failed or
// found nothing contribute an empty value of their declared shape, so
// downstream consumers can tell "queried but not found" apart from "never
// queried". Email profiles additionally lift breach records to the top-level
// breaches list.
//
// Merge problems never abort aggregation: a payload that cannot be merged is
// replaced by an empty value and reported via the profile's error field.
func Aggregate(q model.Query, probes []provider.Probe, outcomes []model.ProviderOutcome) *model.Profile {
	profile := model.NewProfile(q)

	shapes := make(map[string]provider.Shape, len(probes))
	for _, p := range probes {
		shapes[p.Name()] = p.Shape()
		// Pre-fill with typed empties so absent outcomes still show up.
		profile.Sources[p.Name()] = emptyValue(p.Shape())
	}

	for _, outcome := range outcomes {
		if outcome.Status != model.StatusSuccess {
			continue
		}

		merged, err := normalizePayload(outcome.Payload, shapes[outcome.Provider])
		if err != nil {
			profile.Error = fmt.Sprintf("failed to merge %s result: %v", outcome.Provider, err)
			continue
		}
		profile.Sources[outcome.Provider] = merged
	}

	if q.Kind == model.KindEmail {
		if breaches, ok := profile.Sources["breaches"].([]any); ok && len(breaches) > 0 {
			profile.Breaches = breaches
		}
	}

	return profile
}

// normalizePayload coerces a probe payload into its JSON-equivalent form
// (maps, slices, strings, float64 numbers). This keeps fresh profiles deeply
// equal to profiles that round-tripped through the cache, and guarantees the
// scorer only ever sees JSON-shaped values.
func normalizePayload(payload any, shape provider.Shape) (any, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("unserializable payload: %w", err)
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}

	// Shape check: a list probe must merge as a list, an object probe as an
	// object. Anything else is a malformed provider response.
	switch shape {
	case provider.ShapeList:
		if _, ok := v.([]any); !ok {
			return nil, fmt.Errorf("expected list payload, got %T", v)
		}
	case provider.ShapeObject:
		if _, ok := v.(map[string]any); !ok {
			return nil, fmt.Errorf("expected object payload, got %T", v)
		}
	}

	return v, nil
}

// emptyValue returns the typed empty entry for a shape.
func emptyValue(shape provider.Shape) any {
	if shape == provider.ShapeList {
		return []any{}
	}
	return map[string]any{}
}
