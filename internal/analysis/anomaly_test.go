package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/purviewops/sit-compare/internal/schema"
)

func countedSet(method string, counts map[string]int) *schema.MethodResultSet {
	set := &schema.MethodResultSet{Method: method}
	for cat, n := range counts {
		set.Records = append(set.Records, schema.DetectionRecord{
			FileName:       "f-" + cat,
			CategoryName:   cat,
			DetectionCount: n,
			Method:         method,
		})
	}
	return set
}

func TestDetectAnomalies_HighVariance(t *testing.T) {
	sets := []*schema.MethodResultSet{
		countedSet(schema.MethodPattern, map[string]int{"SSN": 100}),
		countedSet(schema.MethodClassification, map[string]int{"SSN": 40}),
	}

	anomalies := DetectAnomalies(sets)
	require.Len(t, anomalies, 1)

	a := anomalies[0]
	assert.Equal(t, "SSN", a.Category)
	assert.Equal(t, 60.0, a.VariancePct)
	assert.Equal(t, schema.SeverityHigh, a.Severity)
	assert.Equal(t, schema.MethodPattern, a.MaxMethod)
	assert.Equal(t, schema.MethodClassification, a.MinMethod)
	assert.Contains(t, a.Interpretation, "over-detects")
}

func TestDetectAnomalies_VarianceIsSymmetric(t *testing.T) {
	forward := DetectAnomalies([]*schema.MethodResultSet{
		countedSet(schema.MethodPattern, map[string]int{"SSN": 10}),
		countedSet(schema.MethodClassification, map[string]int{"SSN": 20}),
	})
	backward := DetectAnomalies([]*schema.MethodResultSet{
		countedSet(schema.MethodPattern, map[string]int{"SSN": 20}),
		countedSet(schema.MethodClassification, map[string]int{"SSN": 10}),
	})

	require.Len(t, forward, 1)
	require.Len(t, backward, 1)
	assert.Equal(t, forward[0].VariancePct, backward[0].VariancePct)
	assert.Equal(t, 50.0, forward[0].VariancePct)
}

func TestDetectAnomalies_IdenticalCountsReportNothing(t *testing.T) {
	counts := map[string]int{"SSN": 5, "Passport Number": 3, "Credit Card Number": 8}
	sets := []*schema.MethodResultSet{
		countedSet(schema.MethodClassification, counts),
		countedSet(schema.MethodClassificationAlt, counts),
	}
	assert.Empty(t, DetectAnomalies(sets))
}

func TestDetectAnomalies_SingleMethodCategoriesIgnored(t *testing.T) {
	sets := []*schema.MethodResultSet{
		countedSet(schema.MethodPattern, map[string]int{"SSN": 100, "Only Pattern": 50}),
		countedSet(schema.MethodClassification, map[string]int{"SSN": 100}),
	}
	assert.Empty(t, DetectAnomalies(sets))
}

func TestDetectAnomalies_Direction(t *testing.T) {
	underDetect := DetectAnomalies([]*schema.MethodResultSet{
		countedSet(schema.MethodPattern, map[string]int{"SSN": 30}),
		countedSet(schema.MethodClassification, map[string]int{"SSN": 100}),
	})
	require.Len(t, underDetect, 1)
	assert.Contains(t, underDetect[0].Interpretation, "under-detects")

	engines := DetectAnomalies([]*schema.MethodResultSet{
		countedSet(schema.MethodClassification, map[string]int{"SSN": 100}),
		countedSet(schema.MethodClassificationAlt, map[string]int{"SSN": 30}),
	})
	require.Len(t, engines, 1)
	assert.Contains(t, engines[0].Interpretation, "unexpected")
}

func TestDetectAnomalies_RankedBySeverityThenMagnitude(t *testing.T) {
	sets := []*schema.MethodResultSet{
		countedSet(schema.MethodPattern, map[string]int{"A": 100, "B": 100, "C": 100}),
		countedSet(schema.MethodClassification, map[string]int{"A": 70, "B": 30, "C": 55}),
	}
	anomalies := DetectAnomalies(sets)
	require.Len(t, anomalies, 3)
	assert.Equal(t, "B", anomalies[0].Category) // 70% High
	assert.Equal(t, "C", anomalies[1].Category) // 45% Medium
	assert.Equal(t, "A", anomalies[2].Category) // 30% Low
}

func TestSeverityFor_Thresholds(t *testing.T) {
	assert.Equal(t, schema.SeverityNone, SeverityFor(0))
	assert.Equal(t, schema.SeverityNone, SeverityFor(20))
	assert.Equal(t, schema.SeverityLow, SeverityFor(20.01))
	assert.Equal(t, schema.SeverityLow, SeverityFor(35))
	assert.Equal(t, schema.SeverityMedium, SeverityFor(35.01))
	assert.Equal(t, schema.SeverityMedium, SeverityFor(50))
	assert.Equal(t, schema.SeverityHigh, SeverityFor(50.01))
	assert.Equal(t, schema.SeverityHigh, SeverityFor(100))
}
