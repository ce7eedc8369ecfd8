package analysis

import "github.com/purviewops/sit-compare/internal/schema"

// severityRules is the single ranked threshold table for per-category
// variance, consumed by both the anomaly detector and the report composer.
// A variance must exceed the threshold strictly to earn the severity.
var severityRules = []struct {
	Threshold float64
	Level     schema.Severity
}{
	{50, schema.SeverityHigh},
	{35, schema.SeverityMedium},
	{20, schema.SeverityLow},
}

// SeverityFor maps a variance percentage onto its severity tier.
// Variances at or below 20% are not considered anomalous.
func SeverityFor(variancePct float64) schema.Severity {
	for _, rule := range severityRules {
		if variancePct > rule.Threshold {
			return rule.Level
		}
	}
	return schema.SeverityNone
}

var severityRank = map[schema.Severity]int{
	schema.SeverityHigh:   3,
	schema.SeverityMedium: 2,
	schema.SeverityLow:    1,
	schema.SeverityNone:   0,
}
