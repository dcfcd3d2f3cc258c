// Package report summarizes the run log.
package report

import (
	"encoding/json"
	"fmt"
	htmltemplate "html/template"
	"io"
	"text/template"
	"time"

	"github.com/FranksOps/seoscribe/internal/storage"
)

// Summary contains aggregated figures over a set of runs.
type Summary struct {
	TotalRuns      int            `json:"total_runs"`
	Succeeded      int            `json:"succeeded"`
	Failed         int            `json:"failed"`
	FailuresByKind map[string]int `json:"failures_by_kind"`
	RunsByTrigger  map[string]int `json:"runs_by_trigger"`
	RunsByKeyword  map[string]int `json:"runs_by_keyword"`
	// Averages cover successful runs only.
	AvgDuration           time.Duration `json:"avg_duration"`
	AvgCompetitorHeadings float64       `json:"avg_competitor_headings"`
	AvgDraftBytes         float64       `json:"avg_draft_bytes"`
	MissingPlaceholders   int           `json:"missing_placeholders"`
	StartTime             time.Time     `json:"start_time"`
	EndTime               time.Time     `json:"end_time"`
	Span                  time.Duration `json:"span"`
}

// GenerateSummary aggregates records. MissingPlaceholders counts successful
// drafts without a single affiliate placeholder.
func GenerateSummary(records []*storage.RunRecord) Summary {
	s := Summary{
		FailuresByKind: make(map[string]int),
		RunsByTrigger:  make(map[string]int),
		RunsByKeyword:  make(map[string]int),
	}

	if len(records) == 0 {
		return s
	}

	s.StartTime = records[0].CreatedAt
	s.EndTime = records[0].CreatedAt

	var totalDuration time.Duration
	var totalHeadings, totalBytes int

	for _, r := range records {
		s.TotalRuns++
		s.RunsByTrigger[r.Trigger]++
		s.RunsByKeyword[r.Keyword]++

		if r.Status == storage.StatusOK {
			s.Succeeded++
			totalDuration += r.Duration
			totalHeadings += r.CompetitorHeadings
			totalBytes += r.DraftBytes
			if r.AffiliatePlaceholders == 0 {
				s.MissingPlaceholders++
			}
		} else {
			s.Failed++
			s.FailuresByKind[r.FailureKind]++
		}

		if r.CreatedAt.Before(s.StartTime) {
			s.StartTime = r.CreatedAt
		}
		if r.CreatedAt.After(s.EndTime) {
			s.EndTime = r.CreatedAt
		}
	}

	if s.Succeeded > 0 {
		s.AvgDuration = totalDuration / time.Duration(s.Succeeded)
		s.AvgCompetitorHeadings = float64(totalHeadings) / float64(s.Succeeded)
		s.AvgDraftBytes = float64(totalBytes) / float64(s.Succeeded)
	}

	s.Span = s.EndTime.Sub(s.StartTime)
	return s
}

// WriteJSON writes the summary to the provided writer in JSON format.
func WriteJSON(w io.Writer, summary Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	return nil
}

const textTmpl = `seoscribe Run Summary
---------------------
Time:          {{.StartTime.Format "2006-01-02 15:04:05"}} - {{.EndTime.Format "2006-01-02 15:04:05"}}
Span:          {{.Span}}
Runs:          {{.TotalRuns}} ({{.Succeeded}} ok, {{.Failed}} failed)
Avg Duration:  {{.AvgDuration}}
Avg Headings:  {{printf "%.1f" .AvgCompetitorHeadings}}
Avg Draft:     {{printf "%.0f" .AvgDraftBytes}} bytes
No Affiliate:  {{.MissingPlaceholders}}

Failures:
{{- range $kind, $count := .FailuresByKind}}
  {{$kind}}: {{$count}}
{{- else}}
  None
{{- end}}

Triggers:
{{- range $trigger, $count := .RunsByTrigger}}
  {{$trigger}}: {{$count}}
{{- else}}
  None
{{- end}}

Keywords:
{{- range $kw, $count := .RunsByKeyword}}
  {{$kw}}: {{$count}}
{{- else}}
  None
{{- end}}
`

var textReport = template.Must(template.New("textReport").Parse(textTmpl))

// WriteText writes a human-readable text summary to the provided writer.
func WriteText(w io.Writer, summary Summary) error {
	if err := textReport.Execute(w, summary); err != nil {
		return fmt.Errorf("rendering text report: %w", err)
	}
	return nil
}

const htmlTmpl = `<!DOCTYPE html>
<html>
<head>
<title>seoscribe Run Report</title>
<style>
  body { font-family: sans-serif; margin: 40px; color: #333; }
  h1 { border-bottom: 2px solid #ccc; padding-bottom: 10px; }
  .stat-card { display: inline-block; padding: 20px; margin: 10px 10px 10px 0; background: #f4f4f4; border-radius: 5px; min-width: 150px; }
  .stat-val { font-size: 24px; font-weight: bold; }
  .bad { color: red; }
  table { border-collapse: collapse; margin-top: 10px; }
  th, td { padding: 8px 12px; border: 1px solid #ccc; text-align: left; }
  th { background: #eaeaea; }
</style>
</head>
<body>
  <h1>seoscribe Run Report</h1>
  <p><strong>Time:</strong> {{.StartTime.Format "2006-01-02 15:04:05"}} to {{.EndTime.Format "2006-01-02 15:04:05"}} ({{.Span}})</p>

  <div class="stat-card">
    <div>Runs</div>
    <div class="stat-val">{{.TotalRuns}}</div>
  </div>
  <div class="stat-card">
    <div>Failed</div>
    <div class="stat-val{{if gt .Failed 0}} bad{{end}}">{{.Failed}}</div>
  </div>
  <div class="stat-card">
    <div>Avg Duration</div>
    <div class="stat-val">{{.AvgDuration}}</div>
  </div>
  <div class="stat-card">
    <div>Avg Headings</div>
    <div class="stat-val">{{printf "%.1f" .AvgCompetitorHeadings}}</div>
  </div>

  <h3>Failures By Kind</h3>
  <table>
    <tr><th>Kind</th><th>Count</th></tr>
    {{- range $kind, $count := .FailuresByKind}}
    <tr><td>{{$kind}}</td><td>{{$count}}</td></tr>
    {{- else}}
    <tr><td colspan="2">None</td></tr>
    {{- end}}
  </table>

  <h3>Keywords</h3>
  <table>
    <tr><th>Keyword</th><th>Runs</th></tr>
    {{- range $kw, $count := .RunsByKeyword}}
    <tr><td>{{$kw}}</td><td>{{$count}}</td></tr>
    {{- else}}
    <tr><td colspan="2">None</td></tr>
    {{- end}}
  </table>
</body>
</html>
`

var htmlReport = htmltemplate.Must(htmltemplate.New("htmlReport").Parse(htmlTmpl))

// WriteHTML writes a basic HTML report to the provided writer.
func WriteHTML(w io.Writer, summary Summary) error {
	if err := htmlReport.Execute(w, summary); err != nil {
		return fmt.Errorf("rendering html report: %w", err)
	}
	return nil
}
