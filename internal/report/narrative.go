package report

import (
	"bytes"
	"fmt"
	"os"
	"text/template"
	"time"

	"github.com/purviewops/sit-compare/internal/analysis"
	"github.com/purviewops/sit-compare/internal/schema"
)

// The narrative document interpolates the computed numbers into fixed prose,
// chosen by which combination of methods is present. The prose describes
// whatever the data shows, including below-target agreement.

type methodLine struct {
	Label      string
	Records    int
	Files      int
	Categories int
	Sites      int
}

type pairLine struct {
	Candidate string
	Reference string
	Precision string
	Recall    string
	TP        int
	FP        int
	FN        int
	BelowPar  bool
}

type narrativeData struct {
	GeneratedAt string
	Methods     []methodLine
	Pairs       []pairLine
	Anomalies   []schema.CategoryVarianceRecord
	HighCount   int
	CommonFiles int
	Coverage    []string
	Body        string
}

const narrativeShell = `# Cross-method discovery comparison

Generated {{.GeneratedAt}}.

## Methods compared
{{range .Methods}}
- **{{.Label}}**: {{.Records}} detection records across {{.Files}} unique files, {{.Categories}} categories, {{.Sites}} sites.
{{- end}}

{{.Body}}

## Agreement
{{range .Pairs}}
Treating the {{.Reference}} as ground truth, the {{.Candidate}} reached {{.Precision}}% precision and {{.Recall}}% recall ({{.TP}} files confirmed, {{.FP}} unconfirmed, {{.FN}} missed).
{{- if .BelowPar}} This is below the 80% agreement mark and the delta section lists the disagreeing files.{{end}}
{{end}}
All methods agree on {{.CommonFiles}} files.
{{- range .Coverage}} {{.}}{{end}}

## Variance anomalies
{{if .Anomalies}}{{len .Anomalies}} categories exceed the 20% variance threshold ({{.HighCount}} high severity):
{{range .Anomalies}}
- **{{.Category}}** ({{.Severity}}, {{printf "%.2f" .VariancePct}}%): {{.Interpretation}}.
{{- end}}
{{else}}No category varies by more than 20% across methods; per-category counts are consistent.
{{end}}`

const bodyPatternVsEngine = `## Reading this comparison

Two independent approaches scanned the same estate: a pattern-based scan and an official classification-engine export. The classification engine is treated as the reference; disagreements point at pattern definitions that over- or under-match.`

const bodyThreeWay = `## Reading this comparison

Three result sets are compared: one pattern-based scan and two classification-engine exports. The engine exports should track each other closely, so engine-vs-engine disagreement is itself a finding; the pattern scan is measured against each engine export independently.`

const bodyEngineOnly = `## Reading this comparison

Both result sets come from the classification engine. Any disagreement between them is unexpected and usually traces to differing export windows or scopes rather than detection quality.`

// writeNarrative renders the markdown document for this run.
func (r *Report) writeNarrative(path string) error {
	tmpl, err := template.New("narrative").Parse(narrativeShell)
	if err != nil {
		return fmt.Errorf("parse narrative template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, r.narrativeData()); err != nil {
		return fmt.Errorf("execute narrative template: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write narrative: %w", err)
	}
	return nil
}

func (r *Report) narrativeData() narrativeData {
	d := narrativeData{
		GeneratedAt: r.Meta.GeneratedAt.UTC().Format(time.RFC3339),
		Anomalies:   r.Anomalies,
		Body:        r.narrativeBody(),
	}

	for _, set := range r.Sets {
		d.Methods = append(d.Methods, methodLine{
			Label:      analysis.MethodLabel(set.Method),
			Records:    len(set.Records),
			Files:      len(set.FileSet()),
			Categories: set.UniqueCategoryCount(),
			Sites:      len(set.SiteSet()),
		})
	}

	for _, p := range r.Pairs {
		d.Pairs = append(d.Pairs, pairLine{
			Candidate: analysis.MethodLabel(p.Candidate),
			Reference: analysis.MethodLabel(p.Reference),
			Precision: formatPct(p.Precision),
			Recall:    formatPct(p.Recall),
			TP:        len(p.TruePositives),
			FP:        len(p.FalsePositives),
			FN:        len(p.FalseNegatives),
			BelowPar:  p.Precision < 80 || p.Recall < 80,
		})
	}

	for _, a := range r.Anomalies {
		if a.Severity == schema.SeverityHigh {
			d.HighCount++
		}
	}

	if r.Overlap != nil {
		d.CommonFiles = r.Overlap.CommonFiles
		for _, method := range schema.SortedKeys(r.Overlap.CoveragePct) {
			d.Coverage = append(d.Coverage, fmt.Sprintf("That is %s%% of what the %s found.",
				formatPct(r.Overlap.CoveragePct[method]), analysis.MethodLabel(method)))
		}
	}
	return d
}

// narrativeBody picks the prose template for the method combination present.
func (r *Report) narrativeBody() string {
	hasPattern := false
	engines := 0
	for _, set := range r.Sets {
		switch set.Method {
		case schema.MethodPattern:
			hasPattern = true
		case schema.MethodClassification, schema.MethodClassificationAlt:
			engines++
		}
	}

	switch {
	case hasPattern && engines >= 2:
		return bodyThreeWay
	case hasPattern:
		return bodyPatternVsEngine
	default:
		return bodyEngineOnly
	}
}
