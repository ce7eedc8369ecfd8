package report

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"

	"github.com/purviewops/sit-compare/internal/analysis"
	"github.com/purviewops/sit-compare/internal/schema"
	"github.com/purviewops/sit-compare/pkg/utils"
)

// deltaSampleCap bounds the file lists in the delta section so a large
// disagreement does not flood the report.
const deltaSampleCap = 50

// Recommendation thresholds: a pair whose FP (or FN) share of its side's
// file set exceeds this fraction earns tuning advice in the delta section.
const recommendThreshold = 0.20

// Meta is the run metadata printed at the top of the executive summary.
type Meta struct {
	Tool           string
	Version        string
	GeneratedAt    time.Time
	Allowlist      string
	TaxonomySource string
}

// Report assembles every computed section for one analysis run.
type Report struct {
	Meta       Meta
	Sets       []*schema.MethodResultSet
	Pairs      []*schema.ComparisonPair
	Sites      []schema.SiteDistributionEntry
	Categories []schema.CategoryDistributionEntry
	Anomalies  []schema.CategoryVarianceRecord
	Overlap    *schema.OverlapSummary
}

// WriteAll writes the tabular sections (and optionally the narrative
// document) into dir and returns the paths written.
func (r *Report) WriteAll(dir string, narrative bool) ([]string, error) {
	sections := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{"executive_summary.csv", []string{"Section", "Item", "Value"}, r.executiveRows()},
		{"site_comparison.csv", r.siteHeader(), r.siteRows()},
		{"category_analysis.csv", r.categoryHeader(), r.categoryRows()},
		{"delta_analysis.csv", []string{"Pair", "Classification", "FileName"}, r.deltaRows()},
	}

	var written []string
	for _, s := range sections {
		path := filepath.Join(dir, s.name)
		if err := utils.WriteCSV(path, s.header, s.rows); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	// Machine-readable companion carrying every computed section.
	jsonPath := filepath.Join(dir, "report.json")
	if err := utils.WriteJSON(jsonPath, r); err != nil {
		return written, err
	}
	written = append(written, jsonPath)

	if narrative {
		path := filepath.Join(dir, "narrative.md")
		if err := r.writeNarrative(path); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	log.Infof("report written: %d files in %s", len(written), dir)
	return written, nil
}

// ---------- Executive summary ----------

func (r *Report) executiveRows() [][]string {
	rows := [][]string{
		{"Run", "Tool", r.Meta.Tool + " " + r.Meta.Version},
		{"Run", "GeneratedAt", r.Meta.GeneratedAt.UTC().Format(time.RFC3339)},
		{"Run", "AllowList", r.Meta.Allowlist},
		{"Run", "TaxonomySource", r.Meta.TaxonomySource},
		{"Run", "MethodsLoaded", strconv.Itoa(len(r.Sets))},
	}

	for _, set := range r.Sets {
		label := analysis.MethodLabel(set.Method)
		rows = append(rows,
			[]string{label, "SourcePath", set.SourcePath},
			[]string{label, "Records", strconv.Itoa(len(set.Records))},
			[]string{label, "UniqueFiles", strconv.Itoa(len(set.FileSet()))},
			[]string{label, "UniqueCategories", strconv.Itoa(set.UniqueCategoryCount())},
			[]string{label, "SitesTouched", strconv.Itoa(len(set.SiteSet()))},
			[]string{label, "SkippedRows", strconv.Itoa(set.SkippedRows)},
			[]string{label, "BadTimestamps", strconv.Itoa(set.BadTimestamps)},
			[]string{label, "FilteredByAllowList", strconv.Itoa(set.FilteredRecords)},
			[]string{label, "DisabledCategoriesSeen", strings.Join(set.DisabledCategories, "; ")},
		)
	}

	for _, p := range r.Pairs {
		label := pairLabel(p)
		rows = append(rows,
			[]string{label, "Precision", formatPct(p.Precision)},
			[]string{label, "Recall", formatPct(p.Recall)},
			[]string{label, "Accuracy", formatPct(p.Accuracy)},
			[]string{label, "TruePositives", strconv.Itoa(len(p.TruePositives))},
			[]string{label, "FalsePositives", strconv.Itoa(len(p.FalsePositives))},
			[]string{label, "FalseNegatives", strconv.Itoa(len(p.FalseNegatives))},
		)
	}

	if r.Overlap != nil {
		rows = append(rows, []string{"Overlap", "CommonFiles", strconv.Itoa(r.Overlap.CommonFiles)})
		for _, method := range schema.SortedKeys(r.Overlap.CoveragePct) {
			rows = append(rows, []string{
				"Overlap",
				"Coverage: " + analysis.MethodLabel(method),
				formatPct(r.Overlap.CoveragePct[method]),
			})
		}
	}

	rows = append(rows, []string{"Anomalies", "AboveThreshold", strconv.Itoa(len(r.Anomalies))})
	for _, a := range r.Anomalies {
		rows = append(rows, []string{
			"Anomalies",
			a.Category,
			fmt.Sprintf("%s (%s variance): %s", string(a.Severity), formatPct(a.VariancePct)+"%", a.Interpretation),
		})
	}
	return rows
}

// ---------- Site comparison ----------

func (r *Report) siteHeader() []string {
	header := []string{"Site"}
	for _, set := range r.Sets {
		header = append(header, analysis.MethodLabel(set.Method))
	}
	return append(header, "CommonFiles")
}

func (r *Report) siteRows() [][]string {
	rows := make([][]string, 0, len(r.Sites))
	for _, e := range r.Sites {
		row := []string{e.Site}
		for _, set := range r.Sets {
			row = append(row, strconv.Itoa(e.Counts[set.Method]))
		}
		rows = append(rows, append(row, strconv.Itoa(e.CommonFiles)))
	}
	return rows
}

// ---------- Category analysis ----------

func (r *Report) categoryHeader() []string {
	header := []string{"Category"}
	for _, set := range r.Sets {
		label := analysis.MethodLabel(set.Method)
		header = append(header, label+": detections", label+": files")
	}
	return append(header, "Total", "Agreement %")
}

func (r *Report) categoryRows() [][]string {
	rows := make([][]string, 0, len(r.Categories))
	for _, e := range r.Categories {
		row := []string{e.Category}
		for _, set := range r.Sets {
			row = append(row,
				strconv.Itoa(e.Counts[set.Method]),
				strconv.Itoa(e.FileCounts[set.Method]))
		}
		rows = append(rows, append(row, strconv.Itoa(e.TotalCount), formatPct(e.AgreementPct)))
	}
	return rows
}

// ---------- Delta analysis ----------

func (r *Report) deltaRows() [][]string {
	var rows [][]string
	for _, p := range r.Pairs {
		label := pairLabel(p)
		for _, f := range capped(p.TruePositives) {
			rows = append(rows, []string{label, "TruePositive", f})
		}
		for _, f := range capped(p.FalsePositives) {
			rows = append(rows, []string{label, "FalsePositive", f})
		}
		for _, f := range capped(p.FalseNegatives) {
			rows = append(rows, []string{label, "FalseNegative", f})
		}
		for _, rec := range recommendations(p) {
			rows = append(rows, []string{label, "Recommendation", rec})
		}
	}
	return rows
}

func capped(files []string) []string {
	if len(files) > deltaSampleCap {
		return files[:deltaSampleCap]
	}
	return files
}

// recommendations derives tuning advice mechanically from the FP/FN shares.
// Thresholds only; no new judgment is synthesized.
func recommendations(p *schema.ComparisonPair) []string {
	var out []string
	if p.CandidateFiles > 0 && float64(len(p.FalsePositives)) > recommendThreshold*float64(p.CandidateFiles) {
		out = append(out, fmt.Sprintf(
			"%d of %d %s files are unconfirmed by %s; tighten pattern definitions or add contextual validation",
			len(p.FalsePositives), p.CandidateFiles,
			analysis.MethodLabel(p.Candidate), analysis.MethodLabel(p.Reference)))
	}
	if p.ReferenceFiles > 0 && float64(len(p.FalseNegatives)) > recommendThreshold*float64(p.ReferenceFiles) {
		out = append(out, fmt.Sprintf(
			"%d of %d %s files are missed by %s; extend pattern coverage for the categories involved",
			len(p.FalseNegatives), p.ReferenceFiles,
			analysis.MethodLabel(p.Reference), analysis.MethodLabel(p.Candidate)))
	}
	if len(out) == 0 {
		out = append(out, "methods agree closely on this pair; no tuning recommended")
	}
	return out
}

// ---------- helpers ----------

func pairLabel(p *schema.ComparisonPair) string {
	return analysis.MethodLabel(p.Candidate) + " vs " + analysis.MethodLabel(p.Reference)
}

func formatPct(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
