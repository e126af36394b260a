package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Nyx-Off/RavenTrace/internal/model"
)

// Writer defines the interface for report output.
// Implementations render an aggregated profile in various formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or network
// connections with the same API.
type Writer interface {
	// Write outputs the profile to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(profile *model.Profile) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write profiles, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the profile to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(profile *model.Profile) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(profile)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// sortedSourceNames returns the profile's provider names in stable order.
// Map iteration order would otherwise make report output nondeterministic.
func sortedSourceNames(profile *model.Profile) []string {
	names := make([]string, 0, len(profile.Sources))
	for name := range profile.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// sourceFound reports whether a provider payload carries data.
// Empty containers count as not found, and an object that carries an
// explicit "found": false flag counts as not found regardless of what
// other fields it holds.
func sourceFound(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case []any:
		return len(v) > 0
	case map[string]any:
		if len(v) == 0 {
			return false
		}
		if flag, ok := v["found"].(bool); ok && !flag {
			return false
		}
		return true
	default:
		return true
	}
}

// sourceSummary renders a short single-line description of a payload for
// human-readable output.
func sourceSummary(value any) string {
	switch v := value.(type) {
	case nil:
		return "no data"
	case []any:
		if len(v) == 0 {
			return "no data"
		}
		return fmt.Sprintf("%d entries", len(v))
	case map[string]any:
		if len(v) == 0 {
			return "no data"
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, v[k]))
		}
		return truncateString(strings.Join(parts, ", "), 120)
	default:
		return truncateString(fmt.Sprintf("%v", v), 120)
	}
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
