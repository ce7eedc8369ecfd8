package schema

import (
	"sort"
	"time"
)

// Method identifiers for the supported detection approaches.
const (
	MethodPattern           = "pattern"
	MethodClassification    = "classification"
	MethodClassificationAlt = "classification-alt"
)

// Confidence is the detection confidence reported (or synthesized) per record.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// Severity ranks how strongly a per-category variance deviates across methods.
type Severity string

const (
	SeverityNone   Severity = "None"
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// DetectionRecord is one detected occurrence of a sensitive-information
// category in one file, as seen by one method. CategoryName is always a
// resolved canonical name, never a raw GUID.
type DetectionRecord struct {
	FileName       string     `json:"fileName"`
	SiteName       string     `json:"siteName"`
	LibraryName    string     `json:"libraryName"`
	FileURL        string     `json:"fileUrl"`
	CategoryName   string     `json:"categoryName"`
	DetectionCount int        `json:"detectionCount"`
	Confidence     Confidence `json:"confidenceLevel"`
	Method         string     `json:"detectionMethod"`
	CreatedAt      time.Time  `json:"createdAt"`
	ScannedAt      time.Time  `json:"scannedAt"`
}

// MethodResultSet groups all records loaded from one method's export.
type MethodResultSet struct {
	Method     string            `json:"method"`
	SourcePath string            `json:"sourcePath"`
	LoadedAt   time.Time         `json:"loadedAt"`
	Records    []DetectionRecord `json:"records"`

	// Transparency counters: rows that failed to parse, records whose
	// category was disabled by the allow-list, and the distinct disabled
	// categories that were present in the raw data anyway.
	SkippedRows        int      `json:"skippedRows"`
	BadTimestamps      int      `json:"badTimestamps"`
	FilteredRecords    int      `json:"filteredRecords"`
	DisabledCategories []string `json:"disabledCategories"`
}

// FileSet returns the set of unique file names in the result set.
func (m *MethodResultSet) FileSet() map[string]struct{} {
	files := make(map[string]struct{}, len(m.Records))
	for _, r := range m.Records {
		files[r.FileName] = struct{}{}
	}
	return files
}

// CategoryCounts returns total detection counts keyed by category name.
func (m *MethodResultSet) CategoryCounts() map[string]int {
	counts := make(map[string]int)
	for _, r := range m.Records {
		counts[r.CategoryName] += r.DetectionCount
	}
	return counts
}

// SiteSet returns the set of distinct site names in the result set.
func (m *MethodResultSet) SiteSet() map[string]struct{} {
	sites := make(map[string]struct{})
	for _, r := range m.Records {
		sites[r.SiteName] = struct{}{}
	}
	return sites
}

// UniqueCategoryCount returns the number of distinct categories detected.
func (m *MethodResultSet) UniqueCategoryCount() int {
	return len(m.CategoryCounts())
}

// ComparisonPair holds set-based agreement metrics between two methods.
// The reference side is conventionally the higher-fidelity method, but the
// computation itself does not privilege either side.
type ComparisonPair struct {
	Candidate string `json:"candidate"`
	Reference string `json:"reference"`

	CandidateFiles int `json:"candidateFiles"`
	ReferenceFiles int `json:"referenceFiles"`

	TruePositives  []string `json:"truePositives"`
	FalsePositives []string `json:"falsePositives"`
	FalseNegatives []string `json:"falseNegatives"`

	// Percentages in [0,100]. Accuracy is intentionally an alias of
	// Precision: the exports carry no universe of scanned-but-clean files,
	// so true negatives are unobservable.
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	Accuracy  float64 `json:"accuracy"`
}

// CategoryVarianceRecord describes cross-method disagreement for one category.
type CategoryVarianceRecord struct {
	Category       string         `json:"category"`
	Counts         map[string]int `json:"counts"`
	MaxMethod      string         `json:"maxMethod"`
	MinMethod      string         `json:"minMethod"`
	MaxCount       int            `json:"maxCount"`
	MinCount       int            `json:"minCount"`
	VariancePct    float64        `json:"variancePct"`
	Severity       Severity       `json:"severity"`
	Interpretation string         `json:"interpretation"`
}

// SiteDistributionEntry is the per-site rollup across all methods.
type SiteDistributionEntry struct {
	Site        string         `json:"site"`
	Counts      map[string]int `json:"counts"`
	CommonFiles int            `json:"commonFiles"`
}

// CategoryDistributionEntry is the per-category rollup across all methods.
type CategoryDistributionEntry struct {
	Category     string         `json:"category"`
	Counts       map[string]int `json:"counts"`
	FileCounts   map[string]int `json:"fileCounts"`
	TotalCount   int            `json:"totalCount"`
	AgreementPct float64        `json:"agreementPct"`
}

// OverlapSummary is the N-way intersection of unique files across methods.
type OverlapSummary struct {
	CommonFiles int `json:"commonFiles"`
	// CoveragePct maps method → intersection size as a percentage of that
	// method's unique files.
	CoveragePct map[string]float64 `json:"coveragePct"`
}

// SortedKeys returns map keys in stable order, for deterministic output.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
