package loaders

import (
	"strconv"
	"time"

	"github.com/apex/log"

	"github.com/purviewops/sit-compare/internal/schema"
)

// LoadPatternExport normalizes the pattern-based scan export. The format is
// pre-expanded: one row is already one category detection in one file, with
// the category name given directly.
func LoadPatternExport(path string, cfg Config) (*schema.MethodResultSet, error) {
	header, rows, badRows, err := readRows(path)
	if err != nil {
		return nil, err
	}

	set := &schema.MethodResultSet{
		Method:      schema.MethodPattern,
		SourcePath:  path,
		LoadedAt:    time.Now(),
		SkippedRows: badRows,
	}
	disabledSeen := map[string]struct{}{}

	for i, row := range rows {
		fileName := field(row, header, "FileName")
		category := field(row, header, "SIT_Type")
		if fileName == "" || category == "" {
			set.SkippedRows++
			log.Warnf("pattern export row %d skipped: missing FileName or SIT_Type", i+2)
			continue
		}

		count := 1
		if raw := field(row, header, "DetectionCount"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				set.SkippedRows++
				log.Warnf("pattern export row %d skipped: bad DetectionCount %q", i+2, raw)
				continue
			}
			count = n
		}

		site := field(row, header, "SiteName")
		if site == "" {
			site = "Unknown"
		}

		created, createdOK := parseTime(field(row, header, "Created"))
		scanned, scannedOK := parseTime(field(row, header, "Scanned"))
		if !createdOK {
			set.BadTimestamps++
		}
		if !scannedOK {
			set.BadTimestamps++
		}

		rec := schema.DetectionRecord{
			FileName:       fileName,
			SiteName:       site,
			LibraryName:    field(row, header, "LibraryName"),
			FileURL:        field(row, header, "FileURL"),
			CategoryName:   category,
			DetectionCount: count,
			Confidence:     parseConfidence(field(row, header, "ConfidenceLevel")),
			Method:         schema.MethodPattern,
			CreatedAt:      created,
			ScannedAt:      scanned,
		}
		filterRecord(set, rec, cfg, disabledSeen)
	}

	if set.BadTimestamps > 0 {
		log.Warnf("pattern export: %d timestamps unparseable, left zero", set.BadTimestamps)
	}
	set.DisabledCategories = schema.SortedKeys(disabledSeen)
	return set, nil
}

func parseConfidence(s string) schema.Confidence {
	switch s {
	case "High", "high":
		return schema.ConfidenceHigh
	case "Low", "low":
		return schema.ConfidenceLow
	default:
		return schema.ConfidenceMedium
	}
}
