package loaders

import (
	"path"
	"strings"
	"time"

	"github.com/apex/log"

	"github.com/purviewops/sit-compare/internal/schema"
)

// sitDelimiter joins the GUID list in the classification engine's
// "Sensitive type" field. A GUID repeated in the list means multiple
// instances of that category were found in the file.
const sitDelimiter = "$#,#&"

// LoadClassificationExport normalizes a classification-engine export. One
// row is one file; the "Sensitive type" field is expanded into one record
// per distinct enabled category, with repetition counted as DetectionCount.
func LoadClassificationExport(filePath, method string, cfg Config) (*schema.MethodResultSet, error) {
	header, rows, badRows, err := readRows(filePath)
	if err != nil {
		return nil, err
	}

	set := &schema.MethodResultSet{
		Method:      method,
		SourcePath:  filePath,
		LoadedAt:    time.Now(),
		SkippedRows: badRows,
	}
	disabledSeen := map[string]struct{}{}

	for i, row := range rows {
		targetPath := field(row, header, "Target path")
		rawTypes := field(row, header, "Sensitive type")
		if targetPath == "" || rawTypes == "" {
			set.SkippedRows++
			log.Warnf("%s export row %d skipped: missing Target path or Sensitive type", method, i+2)
			continue
		}

		docLink := field(row, header, "SPO document link")
		compound := field(row, header, "Compound path")
		dataSource := field(row, header, "Data source")

		fileName := path.Base(strings.ReplaceAll(targetPath, "\\", "/"))
		site := ExtractSiteName(docLink, compound, dataSource, targetPath)
		created, createdOK := parseTime(field(row, header, "Created"))
		if !createdOK {
			set.BadTimestamps++
		}

		// Count occurrences per identifier, then resolve and filter once
		// per distinct identifier in the row.
		counts := map[string]int{}
		var order []string
		for _, id := range strings.Split(rawTypes, sitDelimiter) {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if counts[id] == 0 {
				order = append(order, id)
			}
			counts[id]++
		}
		if len(order) == 0 {
			set.SkippedRows++
			log.Warnf("%s export row %d skipped: empty Sensitive type list", method, i+2)
			continue
		}

		for _, id := range order {
			rec := schema.DetectionRecord{
				FileName:       fileName,
				SiteName:       site,
				LibraryName:    extractLibraryName(docLink),
				FileURL:        docLink,
				CategoryName:   cfg.Resolver.Resolve(id),
				DetectionCount: counts[id],
				Confidence:     schema.ConfidenceHigh,
				Method:         method,
				CreatedAt:      created,
				ScannedAt:      set.LoadedAt,
			}
			filterRecord(set, rec, cfg, disabledSeen)
		}
	}

	if set.BadTimestamps > 0 {
		log.Warnf("%s export: %d timestamps unparseable, left zero", method, set.BadTimestamps)
	}
	set.DisabledCategories = schema.SortedKeys(disabledSeen)
	return set, nil
}

// extractLibraryName pulls the document library segment that follows the
// /sites/<name>/ part of an SPO document link.
func extractLibraryName(docLink string) string {
	m := sitePattern.FindStringIndex(docLink)
	if m == nil {
		return ""
	}
	rest := strings.TrimPrefix(docLink[m[1]:], "/")
	if i := strings.IndexByte(rest, '/'); i > 0 {
		return rest[:i]
	}
	return ""
}
