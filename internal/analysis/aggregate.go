package analysis

import (
	"sort"

	"github.com/purviewops/sit-compare/internal/schema"
)

// AggregateSites groups all records by site, with per-method detection
// counts and the number of files common to every method seen at that site.
func AggregateSites(sets []*schema.MethodResultSet) []schema.SiteDistributionEntry {
	counts := map[string]map[string]int{}
	files := map[string]map[string]map[string]struct{}{}

	for _, set := range sets {
		for _, r := range set.Records {
			if counts[r.SiteName] == nil {
				counts[r.SiteName] = map[string]int{}
				files[r.SiteName] = map[string]map[string]struct{}{}
			}
			counts[r.SiteName][set.Method] += r.DetectionCount
			if files[r.SiteName][set.Method] == nil {
				files[r.SiteName][set.Method] = map[string]struct{}{}
			}
			files[r.SiteName][set.Method][r.FileName] = struct{}{}
		}
	}

	entries := make([]schema.SiteDistributionEntry, 0, len(counts))
	for _, site := range schema.SortedKeys(counts) {
		entries = append(entries, schema.SiteDistributionEntry{
			Site:        site,
			Counts:      counts[site],
			CommonFiles: intersectionSize(mapValues(files[site])),
		})
	}
	return entries
}

// AggregateCategories groups all records by category name and keeps the
// topN categories by total detection volume. The anomaly detector covers
// every category separately; this limit is for report readability only.
func AggregateCategories(sets []*schema.MethodResultSet, topN int) []schema.CategoryDistributionEntry {
	counts := map[string]map[string]int{}
	files := map[string]map[string]map[string]struct{}{}

	for _, set := range sets {
		for _, r := range set.Records {
			if counts[r.CategoryName] == nil {
				counts[r.CategoryName] = map[string]int{}
				files[r.CategoryName] = map[string]map[string]struct{}{}
			}
			counts[r.CategoryName][set.Method] += r.DetectionCount
			if files[r.CategoryName][set.Method] == nil {
				files[r.CategoryName][set.Method] = map[string]struct{}{}
			}
			files[r.CategoryName][set.Method][r.FileName] = struct{}{}
		}
	}

	entries := make([]schema.CategoryDistributionEntry, 0, len(counts))
	for cat, perMethod := range counts {
		total := 0
		for _, n := range perMethod {
			total += n
		}
		fileCounts := map[string]int{}
		for method, fs := range files[cat] {
			fileCounts[method] = len(fs)
		}
		entries = append(entries, schema.CategoryDistributionEntry{
			Category:     cat,
			Counts:       perMethod,
			FileCounts:   fileCounts,
			TotalCount:   total,
			AgreementPct: agreementPct(mapValues(files[cat])),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalCount != entries[j].TotalCount {
			return entries[i].TotalCount > entries[j].TotalCount
		}
		return entries[i].Category < entries[j].Category
	})
	if topN > 0 && len(entries) > topN {
		entries = entries[:topN]
	}
	return entries
}

// Overlap computes the N-way intersection of unique files across every
// loaded method, with each method's coverage of that intersection.
func Overlap(sets []*schema.MethodResultSet) *schema.OverlapSummary {
	fileSets := make([]map[string]struct{}, 0, len(sets))
	for _, set := range sets {
		fileSets = append(fileSets, set.FileSet())
	}
	common := intersectionSize(fileSets)

	coverage := map[string]float64{}
	for i, set := range sets {
		coverage[set.Method] = pct(common, len(fileSets[i]))
	}
	return &schema.OverlapSummary{CommonFiles: common, CoveragePct: coverage}
}

// intersectionSize counts members present in every set. Empty input yields 0.
func intersectionSize(sets []map[string]struct{}) int {
	if len(sets) == 0 {
		return 0
	}
	n := 0
	for member := range sets[0] {
		inAll := true
		for _, other := range sets[1:] {
			if _, ok := other[member]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			n++
		}
	}
	return n
}

// agreementPct is intersection over union across the given file sets,
// as a percentage.
func agreementPct(sets []map[string]struct{}) float64 {
	if len(sets) < 2 {
		return 100
	}
	union := map[string]struct{}{}
	for _, s := range sets {
		for member := range s {
			union[member] = struct{}{}
		}
	}
	return pct(intersectionSize(sets), len(union))
}

func mapValues(m map[string]map[string]struct{}) []map[string]struct{} {
	out := make([]map[string]struct{}, 0, len(m))
	for _, method := range schema.SortedKeys(m) {
		out = append(out, m[method])
	}
	return out
}
