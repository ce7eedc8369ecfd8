package report

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/purviewops/sit-compare/internal/analysis"
	"github.com/purviewops/sit-compare/internal/schema"
)

func sampleSet(method string, files ...string) *schema.MethodResultSet {
	set := &schema.MethodResultSet{Method: method, SourcePath: method + ".csv", LoadedAt: time.Now()}
	for _, f := range files {
		set.Records = append(set.Records, schema.DetectionRecord{
			FileName:       f,
			SiteName:       "Finance",
			CategoryName:   "SSN",
			DetectionCount: 1,
			Method:         method,
		})
	}
	return set
}

func sampleReport(sets ...*schema.MethodResultSet) *Report {
	pairs := []*schema.ComparisonPair{analysis.Compare(sets[0], sets[1])}
	return &Report{
		Meta: Meta{
			Tool:           "sitcompare",
			Version:        "test",
			GeneratedAt:    time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC),
			Allowlist:      "all categories enabled",
			TaxonomySource: "cache",
		},
		Sets:       sets,
		Pairs:      pairs,
		Sites:      analysis.AggregateSites(sets),
		Categories: analysis.AggregateCategories(sets, 15),
		Anomalies:  analysis.DetectAnomalies(sets),
		Overlap:    analysis.Overlap(sets),
	}
}

func TestWriteAll_ProducesEverySection(t *testing.T) {
	rep := sampleReport(
		sampleSet(schema.MethodPattern, "a.docx", "b.docx"),
		sampleSet(schema.MethodClassification, "b.docx", "c.docx"),
	)

	dir := t.TempDir()
	written, err := rep.WriteAll(dir, true)
	require.NoError(t, err)
	require.Len(t, written, 6)

	for _, name := range []string{
		"executive_summary.csv", "site_comparison.csv",
		"category_analysis.csv", "delta_analysis.csv",
		"report.json", "narrative.md",
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestWriteAll_WithoutNarrative(t *testing.T) {
	rep := sampleReport(
		sampleSet(schema.MethodPattern, "a.docx"),
		sampleSet(schema.MethodClassification, "a.docx"),
	)

	dir := t.TempDir()
	written, err := rep.WriteAll(dir, false)
	require.NoError(t, err)
	assert.Len(t, written, 5)
	_, err = os.Stat(filepath.Join(dir, "narrative.md"))
	assert.True(t, os.IsNotExist(err))
}

func TestDeltaRows_SampleCap(t *testing.T) {
	var candFiles []string
	for i := 0; i < deltaSampleCap+25; i++ {
		candFiles = append(candFiles, fmt.Sprintf("fp-%03d.docx", i))
	}
	rep := sampleReport(
		sampleSet(schema.MethodPattern, candFiles...),
		sampleSet(schema.MethodClassification, "other.docx"),
	)

	fp := 0
	for _, row := range rep.deltaRows() {
		if row[1] == "FalsePositive" {
			fp++
		}
	}
	assert.Equal(t, deltaSampleCap, fp)
}

func TestDeltaRows_RecommendationsFromDisagreement(t *testing.T) {
	// Heavy false-positive share triggers the tuning recommendation.
	rep := sampleReport(
		sampleSet(schema.MethodPattern, "a", "b", "c", "d", "e"),
		sampleSet(schema.MethodClassification, "a"),
	)

	var recs []string
	for _, row := range rep.deltaRows() {
		if row[1] == "Recommendation" {
			recs = append(recs, row[2])
		}
	}
	require.NotEmpty(t, recs)
	assert.Contains(t, recs[0], "tighten pattern definitions")
}

func TestNarrative_TemplatePerMethodCombination(t *testing.T) {
	readNarrative := func(t *testing.T, rep *Report) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "narrative.md")
		require.NoError(t, rep.writeNarrative(path))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		return string(data)
	}

	patternVsEngine := readNarrative(t, sampleReport(
		sampleSet(schema.MethodPattern, "a"),
		sampleSet(schema.MethodClassification, "a"),
	))
	assert.Contains(t, patternVsEngine, "The classification engine is treated as the reference")

	engineOnly := readNarrative(t, sampleReport(
		sampleSet(schema.MethodClassification, "a"),
		sampleSet(schema.MethodClassificationAlt, "a"),
	))
	assert.Contains(t, engineOnly, "Both result sets come from the classification engine")

	threeWay := readNarrative(t, sampleReport(
		sampleSet(schema.MethodPattern, "a"),
		sampleSet(schema.MethodClassification, "a"),
		sampleSet(schema.MethodClassificationAlt, "a"),
	))
	assert.Contains(t, threeWay, "Three result sets are compared")
}
