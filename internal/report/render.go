package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

const markdownTemplate = `# Weekly Competitive Signal Report

- Week: {{.WeekStart.Format "2006-01-02"}} to {{.WeekEnd.Format "2006-01-02"}}
- Generated: {{.GeneratedAt.Format "2006-01-02T15:04:05Z"}}

## Snapshot Changes

- Pricing changes: {{.PricingChanges}}
- Documentation changes: {{.DocsChanges}}
{{range .Changes}}
- [{{.Kind}}] {{.CompanyID}}: {{.URL}} ({{.CapturedAt.Format "2006-01-02 15:04"}})
{{- end}}

## Community Signals

{{- if .SignalVolume}}
{{range $source, $count := .SignalVolume}}
- {{$source}}: {{$count}}
{{- end}}
{{- else}}

No signals captured this week.
{{- end}}

Average sentiment: {{.SentimentLabel}}

## Key Events

{{- if .KeyEvents}}
{{range .KeyEvents}}
- {{.EventDate.Format "2006-01-02"}} {{.CompanyID}}: {{.EventType}}{{if .Notes.Valid}} - {{.Notes.String}}{{end}}
{{- end}}
{{- else}}

No events recorded this week.
{{- end}}
`

var reportTmpl = template.Must(template.New("weekly").Parse(markdownTemplate))

// render writes the markdown artifact for the report. The path is derived
// from the week start only, so regenerating a week overwrites its file.
func (g *Generator) render(rpt *Report) (string, error) {
	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, rpt); err != nil {
		return "", fmt.Errorf("failed to render weekly report: %w", err)
	}

	name := fmt.Sprintf("weekly_%s.md", rpt.WeekStart.Format("2006-01-02"))
	path := filepath.Join(g.reportsDir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write weekly report %s: %w", path, err)
	}
	return path, nil
}
