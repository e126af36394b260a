package report

import (
	"encoding/json"
	"io"

	"github.com/Nyx-Off/RavenTrace/internal/model"
)

// JSONWriter outputs profiles in JSON format.
// This format is designed for tool integration and programmatic processing.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library because:
// 1. It's part of the standard library (no extra dependencies)
// 2. It's sufficient for our needs
// 3. It provides consistent behavior across Go versions
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = ""
		w.indentString = "  "
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter:   newBaseWriter(output),
		indent:       false,
		indentPrefix: "",
		indentString: "",
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the profile in JSON format.
func (w *JSONWriter) Write(profile *model.Profile) (int, error) {
	return w.writeJSON(profile)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}

// JSONReport wraps a profile with tool metadata.
//
// Design decision: We wrap the profile rather than adding a version field
// to model.Profile because this keeps output-specific fields out of the
// core data structure (and out of the cache).
type JSONReport struct {
	// Version is the RavenTrace version that generated this report.
	Version string `json:"version"`

	// Profile is the aggregated search result.
	Profile *model.Profile `json:"profile"`
}

// FullJSONWriter outputs profiles wrapped with tool metadata.
type FullJSONWriter struct {
	*JSONWriter

	// version is the RavenTrace version string.
	version string
}

// NewFullJSONWriter creates a writer for profiles with metadata.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs the profile wrapped with metadata.
func (w *FullJSONWriter) Write(profile *model.Profile) (int, error) {
	return w.writeJSON(&JSONReport{
		Version: w.version,
		Profile: profile,
	})
}
