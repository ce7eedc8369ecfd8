package analysis

import (
	"math"
	"sort"

	"github.com/purviewops/sit-compare/internal/schema"
)

// Compare computes file-level agreement between two methods. File-name sets
// are used rather than record sets: a file carrying several category
// detections still counts once. The reference side is conventionally the
// higher-fidelity method, treated as ground truth for precision/recall.
func Compare(candidate, reference *schema.MethodResultSet) *schema.ComparisonPair {
	candFiles := candidate.FileSet()
	refFiles := reference.FileSet()

	var tp, fp, fn []string
	for f := range candFiles {
		if _, ok := refFiles[f]; ok {
			tp = append(tp, f)
		} else {
			fp = append(fp, f)
		}
	}
	for f := range refFiles {
		if _, ok := candFiles[f]; !ok {
			fn = append(fn, f)
		}
	}
	sort.Strings(tp)
	sort.Strings(fp)
	sort.Strings(fn)

	precision := pct(len(tp), len(candFiles))
	return &schema.ComparisonPair{
		Candidate:      candidate.Method,
		Reference:      reference.Method,
		CandidateFiles: len(candFiles),
		ReferenceFiles: len(refFiles),
		TruePositives:  tp,
		FalsePositives: fp,
		FalseNegatives: fn,
		Precision:      precision,
		Recall:         pct(len(tp), len(refFiles)),
		Accuracy:       precision,
	}
}

// pct returns num/den as a percentage rounded to two decimals, 0 when the
// denominator is 0.
func pct(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return math.Round(float64(num)/float64(den)*10000) / 100
}
