package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/Nyx-Off/RavenTrace/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sources with no findings are shown.
	showEmpty bool

	// verbose enables per-source payload detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show sources that found nothing.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with payload details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the profile in human-readable format.
func (w *SimpleWriter) Write(profile *model.Profile) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, profile)
	w.writeSources(&sb, profile)
	w.writeBreaches(&sb, profile)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with query information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, profile *model.Profile) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        RAVENTRACE PROFILE\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Query:      %s\n", profile.Query.Raw))
	sb.WriteString(fmt.Sprintf("Kind:       %s\n", profile.Query.Kind))
	if profile.Query.Normalized != profile.Query.Raw {
		sb.WriteString(fmt.Sprintf("Normalized: %s\n", profile.Query.Normalized))
	}
	sb.WriteString(fmt.Sprintf("Date:       %s\n", profile.Timestamp.Format("2006-01-02 15:04:05 MST")))

	switch {
	case profile.FromCache:
		sb.WriteString("Source:     cache\n")
	default:
		sb.WriteString(fmt.Sprintf("Source:     live (%.1fs)\n", profile.ElapsedSeconds))
	}

	if profile.Error != "" {
		sb.WriteString(fmt.Sprintf("Warning:    %s\n", profile.Error))
	}

	sb.WriteString(fmt.Sprintf("Confidence: %.1f%%\n", profile.Confidence))
	sb.WriteString("\n")
}

// writeSources writes the per-provider results section.
func (w *SimpleWriter) writeSources(sb *strings.Builder, profile *model.Profile) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SOURCES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(profile.Sources) == 0 {
		sb.WriteString("  No providers queried\n\n")
		return
	}

	for _, name := range sortedSourceNames(profile) {
		value := profile.Sources[name]
		found := sourceFound(value)

		if !found && !w.showEmpty {
			continue
		}

		marker := "-"
		if found {
			marker = "+"
		}
		sb.WriteString(fmt.Sprintf("  [%s] %s\n", marker, name))

		if found && w.verbose {
			sb.WriteString(fmt.Sprintf("      %s\n", sourceSummary(value)))
		}
	}
	sb.WriteString("\n")
}

// writeBreaches writes the breach exposure section for email queries.
func (w *SimpleWriter) writeBreaches(sb *strings.Builder, profile *model.Profile) {
	if len(profile.Breaches) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("BREACH EXPOSURE (%d)\n", len(profile.Breaches)))
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, breach := range profile.Breaches {
		entry, ok := breach.(map[string]any)
		if !ok {
			sb.WriteString(fmt.Sprintf("  * %v\n", breach))
			continue
		}

		name, _ := entry["breach_name"].(string)
		if name == "" {
			name, _ = entry["name"].(string)
		}
		date, _ := entry["date"].(string)

		switch {
		case name != "" && date != "":
			sb.WriteString(fmt.Sprintf("  * %s (%s)\n", name, date))
		case name != "":
			sb.WriteString(fmt.Sprintf("  * %s\n", name))
		default:
			sb.WriteString(fmt.Sprintf("  * %s\n", sourceSummary(breach)))
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by RavenTrace\n")
	sb.WriteString("https://github.com/Nyx-Off/RavenTrace\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
