package loaders

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apex/log"

	"github.com/purviewops/sit-compare/internal/config"
	"github.com/purviewops/sit-compare/internal/schema"
	"github.com/purviewops/sit-compare/internal/taxonomy"
)

// ErrInsufficientMethods aborts the run: comparison needs at least two
// usable method result sets.
var ErrInsufficientMethods = errors.New("fewer than 2 methods have usable data")

// Config carries the allow-list and taxonomy resolver through every adapter
// call, so no loader reads ambient state.
type Config struct {
	Allow    *config.Allowlist
	Resolver *taxonomy.Resolver
}

// MethodInput names one method's export file.
type MethodInput struct {
	Method string
	Path   string
}

// LoadAll loads every input through its format adapter. A missing or
// unreadable file drops that method only; the run aborts with
// ErrInsufficientMethods when fewer than two methods survive.
func LoadAll(inputs []MethodInput, cfg Config) ([]*schema.MethodResultSet, error) {
	var sets []*schema.MethodResultSet
	var failed []string

	for _, in := range inputs {
		set, err := loadOne(in, cfg)
		if err != nil {
			log.Warnf("method %s dropped: %v", in.Method, err)
			failed = append(failed, fmt.Sprintf("%s (%s)", in.Method, in.Path))
			continue
		}
		log.Infof("method %s: %d records from %s (%d rows skipped, %d filtered by allow-list)",
			set.Method, len(set.Records), set.SourcePath, set.SkippedRows, set.FilteredRecords)
		sets = append(sets, set)
	}

	if len(sets) < 2 {
		if len(failed) > 0 {
			return nil, fmt.Errorf("%w: missing or unreadable inputs: %s",
				ErrInsufficientMethods, strings.Join(failed, ", "))
		}
		return nil, ErrInsufficientMethods
	}
	return sets, nil
}

func loadOne(in MethodInput, cfg Config) (*schema.MethodResultSet, error) {
	switch in.Method {
	case schema.MethodPattern:
		return LoadPatternExport(in.Path, cfg)
	case schema.MethodClassification, schema.MethodClassificationAlt:
		return LoadClassificationExport(in.Path, in.Method, cfg)
	default:
		return nil, fmt.Errorf("unknown method %q", in.Method)
	}
}

// readRows opens a CSV export and returns its header index, data rows and
// the count of rows the CSV layer could not parse. A bad row is skipped with
// a warning; it never aborts the method. Rows may be ragged; adapters
// validate the fields they need.
func readRows(path string) (map[string]int, [][]string, int, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("open export: %w", err)
	}
	defer fh.Close()

	r := csv.NewReader(fh)
	r.FieldsPerRecord = -1

	headerRow, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, 0, errors.New("export is empty")
		}
		return nil, nil, 0, fmt.Errorf("parse export header: %w", err)
	}

	var rows [][]string
	badRows := 0
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			badRows++
			log.Warnf("%s line %d unparseable, skipped: %v", filepath.Base(path), parseErr.Line, err)
			continue
		}
		if err != nil {
			return nil, nil, 0, fmt.Errorf("parse export: %w", err)
		}
		rows = append(rows, row)
	}

	header := make(map[string]int, len(headerRow))
	for i, name := range headerRow {
		header[strings.TrimSpace(name)] = i
	}
	return header, rows, badRows, nil
}

func field(row []string, header map[string]int, name string) string {
	i, ok := header[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseTime accepts the timestamp layouts seen across the exports. The
// second return is false only for a non-empty value no layout matched, so
// callers can count timestamp quality without treating blanks as bad.
func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, true
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"1/2/2006 15:04",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// filterRecord applies the allow-list to one normalized record. Disabled
// records are counted and their category remembered, never silently dropped.
func filterRecord(set *schema.MethodResultSet, rec schema.DetectionRecord, cfg Config, disabledSeen map[string]struct{}) {
	if !cfg.Allow.Enabled(rec.CategoryName) {
		set.FilteredRecords++
		disabledSeen[rec.CategoryName] = struct{}{}
		return
	}
	set.Records = append(set.Records, rec)
}
