package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/Nyx-Off/RavenTrace/internal/model"
)

// MarkdownWriter outputs profiles in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the profile in Markdown format.
func (w *MarkdownWriter) Write(profile *model.Profile) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, profile)
	w.writeSummary(md, profile)
	w.writeSources(md, profile)
	w.writeBreaches(md, profile)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with query information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, profile *model.Profile) {
	md.H1("RavenTrace Profile")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Query", "`" + profile.Query.Raw + "`"},
			{"Kind", profile.Query.Kind.String()},
			{"Normalized", "`" + profile.Query.Normalized + "`"},
			{"Date", profile.Timestamp.Format("2006-01-02 15:04:05 MST")},
			{"Source", w.getSourceText(profile)},
			{"Confidence", fmt.Sprintf("%.1f%%", profile.Confidence)},
		},
	})
	md.PlainText("")
}

// getSourceText returns the origin text based on profile state.
func (w *MarkdownWriter) getSourceText(profile *model.Profile) string {
	if profile.FromCache {
		return "♻️ Cache"
	}
	return fmt.Sprintf("🔍 Live (%.1fs)", profile.ElapsedSeconds)
}

// writeSummary writes the coverage summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, profile *model.Profile) {
	md.H2("Coverage Summary")
	md.PlainText("")

	var found, empty int
	for _, name := range sortedSourceNames(profile) {
		if sourceFound(profile.Sources[name]) {
			found++
		} else {
			empty++
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Result", "Count"},
		Rows: [][]string{
			{"🟢 Found", strconv.Itoa(found)},
			{"⚪ Nothing", strconv.Itoa(empty)},
			{"**Total**", "**" + strconv.Itoa(found+empty) + "**"},
		},
	})
	md.PlainText("")

	if found > 0 {
		w.writePieChart(md, found, empty)
	}

	w.writeAlert(md, profile, found)
}

// writePieChart writes a mermaid pie chart for coverage distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, found, empty int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Source Coverage"),
		piechart.WithShowData(true),
	)

	if found > 0 {
		chart.LabelAndIntValue("Found", uint64(found))
	}
	if empty > 0 {
		chart.LabelAndIntValue("Nothing", uint64(empty))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on what the probes found.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, profile *model.Profile, found int) {
	switch {
	case len(profile.Breaches) > 0:
		md.Cautionf(
			"This identity appears in %d known data breach(es). Associated credentials should be considered compromised.",
			len(profile.Breaches),
		)
	case profile.Confidence >= 50:
		md.Warningf(
			"Substantial online footprint: %d source(s) returned data for this query.",
			found,
		)
	case found > 0:
		md.Notef("Limited online footprint: %d source(s) returned data.", found)
	default:
		md.Tip("No online presence found for this query.")
	}
	md.PlainText("")
}

// writeSources writes the per-provider results section.
func (w *MarkdownWriter) writeSources(md *markdown.Markdown, profile *model.Profile) {
	md.H2("Sources")
	md.PlainText("")

	if len(profile.Sources) == 0 {
		md.PlainText("No providers queried.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(profile.Sources))
	for _, name := range sortedSourceNames(profile) {
		value := profile.Sources[name]

		status := "⚪ Nothing"
		summary := "-"
		if sourceFound(value) {
			status = "🟢 Found"
			summary = truncateString(sourceSummary(value), 80)
		}

		rows = append(rows, []string{name, status, summary})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Provider", "Status", "Details"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeBreaches writes the breach exposure section for email queries.
func (w *MarkdownWriter) writeBreaches(md *markdown.Markdown, profile *model.Profile) {
	if len(profile.Breaches) == 0 {
		return
	}

	md.H2("Breach Exposure")
	md.PlainText("")

	rows := make([][]string, 0, len(profile.Breaches))
	for _, breach := range profile.Breaches {
		entry, ok := breach.(map[string]any)
		if !ok {
			rows = append(rows, []string{fmt.Sprintf("%v", breach), "-", "-"})
			continue
		}

		name, _ := entry["breach_name"].(string)
		if name == "" {
			name, _ = entry["name"].(string)
		}
		if name == "" {
			name = "-"
		}
		date, _ := entry["date"].(string)
		if date == "" {
			date = "-"
		}
		source, _ := entry["source"].(string)
		if source == "" {
			source = "-"
		}

		rows = append(rows, []string{name, date, source})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Breach", "Date", "Source"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [RavenTrace](https://github.com/Nyx-Off/RavenTrace)*")
}
