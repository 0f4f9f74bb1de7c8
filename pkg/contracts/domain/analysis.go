package domain

import (
	"time"
)

// FileKind is the shape detected for an uploaded file.
type FileKind string

const (
	FileKindGas        FileKind = "gas"
	FileKindProduction FileKind = "production"
	FileKindUnknown    FileKind = "unknown"
)

// Severity classifies a FileIssue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// FileIssue is a problem found while ingesting a file. Errors mean the file
// was skipped; warnings mean individual rows were excluded.
type FileIssue struct {
	File     string   `json:"file"`
	Row      int      `json:"row,omitempty"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// FileReport summarises how one input file was handled.
type FileReport struct {
	Name      string      `json:"name"`
	Kind      FileKind    `json:"kind"`
	FurnaceID string      `json:"furnace_id,omitempty"`
	Rows      int         `json:"rows"`
	Accepted  int         `json:"accepted"`
	Skipped   bool        `json:"skipped"`
	Issues    []FileIssue `json:"issues,omitempty"`
}

// AnalysisResult is the complete output of one pipeline run.
type AnalysisResult struct {
	RunID            string                 `json:"run_id"`
	GeneratedAt      time.Time              `json:"generated_at"`
	NothingToAnalyze bool                   `json:"nothing_to_analyze"`
	Notice           string                 `json:"notice,omitempty"`
	Files            []FileReport           `json:"files"`
	Daily            []AllocatedDailyRecord `json:"daily"`
	Weekly           []PeriodRecord         `json:"weekly"`
	Monthly          []PeriodRecord         `json:"monthly"`
	Remainders       []Remainder            `json:"remainders"`
}

// Issues flattens the issues of every file report.
func (r *AnalysisResult) Issues() []FileIssue {
	var issues []FileIssue
	for _, f := range r.Files {
		issues = append(issues, f.Issues...)
	}
	return issues
}

// Furnaces returns the furnace ids present in the daily table, in table order.
func (r *AnalysisResult) Furnaces() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, d := range r.Daily {
		if !seen[d.FurnaceID] {
			seen[d.FurnaceID] = true
			ids = append(ids, d.FurnaceID)
		}
	}
	return ids
}
