package gce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ReportPayload is the JSON shape of an exported report.
type ReportPayload struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Bundle      RunBundle         `json:"bundle"`
	Verdict     Verdict           `json:"verdict"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// BuildPayload assembles the payload for a report export.
func BuildPayload(bundle RunBundle, verdict Verdict, metadata map[string]string) ReportPayload {
	return ReportPayload{
		GeneratedAt: time.Now().UTC(),
		Bundle:      bundle,
		Verdict:     verdict,
		Metadata:    metadata,
	}
}

// VerdictToJSON serialises a verdict with its bundle and optional
// metadata as indented JSON.
func VerdictToJSON(bundle RunBundle, verdict Verdict, metadata map[string]string) (string, error) {
	data, err := json.MarshalIndent(BuildPayload(bundle, verdict, metadata), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize report payload: %w", err)
	}
	return string(data), nil
}

// DefaultReportTitle is used when an export request carries no title.
const DefaultReportTitle = "Guardrail One-Pager"

// RenderTextReport renders the plain-text one-pager.
func RenderTextReport(bundle RunBundle, verdict Verdict, title string) string {
	if title == "" {
		title = DefaultReportTitle
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n", title, strings.Repeat("=", len([]rune(title))))
	fmt.Fprintf(&b, "Rule: %s (θ=%g)\n", bundle.Rule, bundle.Theta)
	fmt.Fprintf(&b, "Objective: %s\n", bundle.Objective)
	fmt.Fprintf(&b, "Label: %s (CC=%.2f)\n", verdict.Label, verdict.CC)
	b.WriteString("\nRecommendation\n")
	if verdict.Recommendation != "" {
		b.WriteString(verdict.Recommendation)
	} else {
		b.WriteString("No recommendation available.")
	}
	b.WriteString("\n\n")
	writeNumberedSection(&b, "Next Tests", verdict.NextTests)
	b.WriteString("\n")
	writeNumberedSection(&b, "Checklist", verdict.Checklist)

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeNumberedSection(b *strings.Builder, header string, items []string) {
	b.WriteString(header)
	b.WriteString("\n")
	if len(items) == 0 {
		b.WriteString("(none)\n")
		return
	}
	for i, item := range items {
		fmt.Fprintf(b, "%d. %s\n", i+1, item)
	}
}

// RenderMarkdownReport renders the one-pager as Markdown.
func RenderMarkdownReport(bundle RunBundle, verdict Verdict, title string) string {
	if title == "" {
		title = DefaultReportTitle
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "- **Rule**: %s (θ=%g)\n", bundle.Rule, bundle.Theta)
	fmt.Fprintf(&b, "- **Objective**: %s\n", bundle.Objective)
	fmt.Fprintf(&b, "- **Label**: %s (CC=%.2f)\n", verdict.Label, verdict.CC)
	if len(bundle.Patterns) > 0 {
		fmt.Fprintf(&b, "- **Patterns**: %s\n", strings.Join(bundle.Patterns, ", "))
	}
	b.WriteString("\n## Recommendation\n\n")
	if verdict.Recommendation != "" {
		b.WriteString(verdict.Recommendation)
	} else {
		b.WriteString("No recommendation available.")
	}
	b.WriteString("\n\n## Next Tests\n\n")
	writeBulletSection(&b, verdict.NextTests)
	b.WriteString("\n## Checklist\n\n")
	writeBulletSection(&b, verdict.Checklist)

	return b.String()
}

func writeBulletSection(b *strings.Builder, items []string) {
	if len(items) == 0 {
		b.WriteString("_(none)_\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}

func renderReport(run *Run, format ReportFormat, title string) (content string, contentType, ext string, err error) {
	switch format {
	case ReportFormatText, "":
		return RenderTextReport(run.Bundle, run.Verdict, title), "text/plain; charset=utf-8", "txt", nil
	case ReportFormatMarkdown:
		return RenderMarkdownReport(run.Bundle, run.Verdict, title), "text/markdown; charset=utf-8", "md", nil
	case ReportFormatJSON:
		content, err = VerdictToJSON(run.Bundle, run.Verdict, map[string]string{
			"run_id":  run.ID.String(),
			"backend": run.Backend,
		})
		return content, "application/json", "json", err
	}
	return "", "", "", fmt.Errorf("unsupported report format %q", format)
}

// ExportReport renders a stored run as a one-pager and uploads it to the
// selected report store under "<run-id>/one_pager.<ext>".
func (s *service) ExportReport(ctx context.Context, req ExportReportRequest) (*ExportedReport, error) {
	run, err := s.GetRun(ctx, req.RunID)
	if err != nil {
		return nil, err
	}

	content, contentType, ext, err := renderReport(run, req.Format, req.Title)
	if err != nil {
		return nil, err
	}

	storeName := req.Store
	if storeName == "" {
		storeName = s.defaultStore
	}
	store, err := s.GetReportStore(storeName)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/one_pager.%s", run.ID, ext)
	if err := store.Upload(ctx, key, bytes.NewReader([]byte(content))); err != nil {
		return nil, &StoreError{Store: storeName, Key: key, Op: "upload", Err: err}
	}

	exported := &ExportedReport{
		Key:         key,
		Store:       storeName,
		ContentType: contentType,
	}

	// URL access is best effort: memory and bare fs stores do not serve
	// URLs and that is fine for local use.
	if url, err := store.GetDownloadURL(ctx, key); err == nil && url != "" {
		exported.DownloadURL = url
	}

	return exported, nil
}
