package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/purviewops/sit-compare/internal/schema"
)

func record(method, site, file, category string, count int) schema.DetectionRecord {
	return schema.DetectionRecord{
		FileName:       file,
		SiteName:       site,
		CategoryName:   category,
		DetectionCount: count,
		Method:         method,
	}
}

func TestAggregateSites(t *testing.T) {
	pattern := &schema.MethodResultSet{Method: schema.MethodPattern, Records: []schema.DetectionRecord{
		record(schema.MethodPattern, "Finance", "a.docx", "SSN", 2),
		record(schema.MethodPattern, "Finance", "b.docx", "SSN", 1),
		record(schema.MethodPattern, "HR", "c.docx", "SSN", 1),
	}}
	engine := &schema.MethodResultSet{Method: schema.MethodClassification, Records: []schema.DetectionRecord{
		record(schema.MethodClassification, "Finance", "b.docx", "SSN", 4),
	}}

	entries := AggregateSites([]*schema.MethodResultSet{pattern, engine})
	require.Len(t, entries, 2)

	finance := entries[0]
	assert.Equal(t, "Finance", finance.Site)
	assert.Equal(t, 3, finance.Counts[schema.MethodPattern])
	assert.Equal(t, 4, finance.Counts[schema.MethodClassification])
	assert.Equal(t, 1, finance.CommonFiles) // only b.docx seen by both

	hr := entries[1]
	assert.Equal(t, "HR", hr.Site)
	assert.Equal(t, 1, hr.Counts[schema.MethodPattern])
	assert.Zero(t, hr.Counts[schema.MethodClassification])
}

func TestAggregateCategories_TopN(t *testing.T) {
	pattern := &schema.MethodResultSet{Method: schema.MethodPattern, Records: []schema.DetectionRecord{
		record(schema.MethodPattern, "Finance", "a.docx", "SSN", 10),
		record(schema.MethodPattern, "Finance", "a.docx", "Passport Number", 5),
		record(schema.MethodPattern, "Finance", "a.docx", "Credit Card Number", 1),
	}}
	engine := &schema.MethodResultSet{Method: schema.MethodClassification, Records: []schema.DetectionRecord{
		record(schema.MethodClassification, "Finance", "a.docx", "SSN", 8),
	}}

	entries := AggregateCategories([]*schema.MethodResultSet{pattern, engine}, 2)
	require.Len(t, entries, 2)

	assert.Equal(t, "SSN", entries[0].Category)
	assert.Equal(t, 18, entries[0].TotalCount)
	assert.Equal(t, 10, entries[0].Counts[schema.MethodPattern])
	assert.Equal(t, 8, entries[0].Counts[schema.MethodClassification])
	assert.Equal(t, 1, entries[0].FileCounts[schema.MethodPattern])
	assert.Equal(t, 100.0, entries[0].AgreementPct) // same single file on both sides

	assert.Equal(t, "Passport Number", entries[1].Category)
}

func TestOverlap(t *testing.T) {
	pattern := &schema.MethodResultSet{Method: schema.MethodPattern, Records: []schema.DetectionRecord{
		record(schema.MethodPattern, "Finance", "w.docx", "SSN", 1),
		record(schema.MethodPattern, "Finance", "x.docx", "SSN", 1),
		record(schema.MethodPattern, "Finance", "y.docx", "SSN", 1),
		record(schema.MethodPattern, "Finance", "z.docx", "SSN", 1),
	}}
	engine := &schema.MethodResultSet{Method: schema.MethodClassification, Records: []schema.DetectionRecord{
		record(schema.MethodClassification, "Finance", "x.docx", "SSN", 1),
		record(schema.MethodClassification, "Finance", "y.docx", "SSN", 1),
	}}

	overlap := Overlap([]*schema.MethodResultSet{pattern, engine})
	assert.Equal(t, 2, overlap.CommonFiles)
	assert.Equal(t, 50.0, overlap.CoveragePct[schema.MethodPattern])
	assert.Equal(t, 100.0, overlap.CoveragePct[schema.MethodClassification])
}
