package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/purviewops/sit-compare/internal/schema"
)

// DetectAnomalies flags categories whose detection counts vary significantly
// across methods. Read-only over the loaded result sets; returns records
// above the lowest variance threshold, ranked by severity then magnitude.
func DetectAnomalies(sets []*schema.MethodResultSet) []schema.CategoryVarianceRecord {
	perCategory := map[string]map[string]int{}
	for _, set := range sets {
		for cat, n := range set.CategoryCounts() {
			if perCategory[cat] == nil {
				perCategory[cat] = map[string]int{}
			}
			perCategory[cat][set.Method] += n
		}
	}

	var out []schema.CategoryVarianceRecord
	for cat, counts := range perCategory {
		if len(counts) < 2 {
			continue
		}

		maxMethod, minMethod := "", ""
		maxCount, minCount := 0, math.MaxInt
		for _, method := range schema.SortedKeys(counts) {
			n := counts[method]
			if n > maxCount {
				maxCount, maxMethod = n, method
			}
			if n < minCount {
				minCount, minMethod = n, method
			}
		}

		variance := pct(maxCount-minCount, maxCount)
		severity := SeverityFor(variance)
		if severity == schema.SeverityNone {
			continue
		}

		out = append(out, schema.CategoryVarianceRecord{
			Category:       cat,
			Counts:         counts,
			MaxMethod:      maxMethod,
			MinMethod:      minMethod,
			MaxCount:       maxCount,
			MinCount:       minCount,
			VariancePct:    variance,
			Severity:       severity,
			Interpretation: interpretVariance(maxMethod, minMethod),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if severityRank[out[i].Severity] != severityRank[out[j].Severity] {
			return severityRank[out[i].Severity] > severityRank[out[j].Severity]
		}
		if out[i].VariancePct != out[j].VariancePct {
			return out[i].VariancePct > out[j].VariancePct
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// interpretVariance explains which method over- or under-detects, keyed off
// the method pairing holding the max and min counts.
func interpretVariance(maxMethod, minMethod string) string {
	switch {
	case maxMethod == schema.MethodPattern:
		return fmt.Sprintf("%s over-detects relative to %s; pattern matching may count matches the classification engine rejects on context",
			MethodLabel(maxMethod), MethodLabel(minMethod))
	case minMethod == schema.MethodPattern:
		return fmt.Sprintf("%s under-detects relative to %s; the pattern set may be missing variants the classification engine recognizes",
			MethodLabel(minMethod), MethodLabel(maxMethod))
	default:
		return fmt.Sprintf("%s and %s disagree although both come from the classification engine; unexpected, worth investigating the export windows and scopes",
			MethodLabel(maxMethod), MethodLabel(minMethod))
	}
}

// MethodLabel is the human-readable name for a method identifier, shared
// with the report composer.
func MethodLabel(method string) string {
	switch method {
	case schema.MethodPattern:
		return "pattern-based scan"
	case schema.MethodClassification:
		return "classification export"
	case schema.MethodClassificationAlt:
		return "alternate classification export"
	default:
		return method
	}
}
