package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/colinfo/colinfo/internal/ingest"
)

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	Version     string            `json:"version"`
	GeneratedAt time.Time         `json:"generated_at"`
	Source      string            `json:"source"`
	Schema      string            `json:"schema"`
	Rows        int               `json:"rows"`
	Columns     []string          `json:"columns"`
	Coerced     []ingest.Coercion `json:"coerced"`
	Skipped     []string          `json:"skipped,omitempty"`
	Target      *TargetSummary    `json:"target,omitempty"`
}

// TargetSummary describes where the normalized table was written.
type TargetSummary struct {
	Database   string `json:"database"`
	Collection string `json:"collection"`
	Documents  int64  `json:"documents"`
}

// New builds a report from an ingestion result.
func New(sourcePath, schemaPath string, res *ingest.Result) *IngestReport {
	return &IngestReport{
		Version:     "1",
		GeneratedAt: time.Now(),
		Source:      sourcePath,
		Schema:      schemaPath,
		Rows:        res.Table.Len(),
		Columns:     res.Table.Columns(),
		Coerced:     res.Applied,
		Skipped:     res.Skipped,
	}
}

// WriteJSON writes the report as JSON.
func WriteJSON(report *IngestReport, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadJSON reads a report from a JSON file.
func ReadJSON(path string) (*IngestReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	r := &IngestReport{}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("parsing report: %w", err)
	}
	return r, nil
}

// FormatText renders the report as human-readable text.
func FormatText(report *IngestReport) string {
	var b strings.Builder

	b.WriteString("=== Ingestion Report ===\n")
	b.WriteString(fmt.Sprintf("Generated: %s\n", report.GeneratedAt.Format(time.RFC3339)))
	b.WriteString(fmt.Sprintf("Source:    %s\n", report.Source))
	b.WriteString(fmt.Sprintf("Schema:    %s\n", report.Schema))
	b.WriteString(fmt.Sprintf("Rows:      %d\n", report.Rows))
	b.WriteString(fmt.Sprintf("Columns:   %d\n\n", len(report.Columns)))

	b.WriteString("Coerced:\n")
	if len(report.Coerced) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, c := range report.Coerced {
		flag := ""
		if c.Flag {
			flag = " (flag)"
		}
		b.WriteString(fmt.Sprintf("  %s -> %s%s\n", c.Column, c.Type, flag))
	}

	if len(report.Skipped) > 0 {
		b.WriteString(fmt.Sprintf("\nNot in source: %s\n", strings.Join(report.Skipped, ", ")))
	}

	if report.Target != nil {
		b.WriteString(fmt.Sprintf("\nWrote %d documents to %s.%s\n",
			report.Target.Documents, report.Target.Database, report.Target.Collection))
	}

	return b.String()
}
