package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/purviewops/sit-compare/internal/analysis"
	"github.com/purviewops/sit-compare/internal/config"
	"github.com/purviewops/sit-compare/internal/loaders"
	"github.com/purviewops/sit-compare/internal/report"
	"github.com/purviewops/sit-compare/internal/schema"
	"github.com/purviewops/sit-compare/internal/taxonomy"
	"github.com/purviewops/sit-compare/pkg/utils"
)

// Default export file names looked up inside --input-dir.
var defaultInputs = map[string]string{
	schema.MethodPattern:           "pattern_scan_results.csv",
	schema.MethodClassification:    "classification_export.csv",
	schema.MethodClassificationAlt: "classification_export_alt.csv",
}

var methodOrder = []string{
	schema.MethodPattern,
	schema.MethodClassification,
	schema.MethodClassificationAlt,
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "analyze",
		Short:   "Compare detection exports from two or three scanning methods",
		Example: "sitcompare analyze --input-dir ./exports --allowlist ./sit_config.json --narrative",
		RunE:    runAnalyze,
	}

	cmd.Flags().String("pattern", "", "Pattern-based scan export (CSV)")
	cmd.Flags().String("classification", "", "Classification-engine export (CSV)")
	cmd.Flags().String("classification-alt", "", "Second classification-engine export (CSV)")
	cmd.Flags().String("input-dir", "", "Directory holding the default-named exports")
	cmd.Flags().StringSlice("exclude", nil, "Methods to exclude (pattern, classification, classification-alt)")
	cmd.Flags().String("allowlist", "", "Sensitive-info-type allow-list document (JSON or YAML)")
	cmd.Flags().String("taxonomy-cache", "./taxonomy_cache.json", "Category taxonomy cache file")
	cmd.Flags().String("taxonomy-url", "", "Live taxonomy endpoint (optional; cache is the fallback)")
	cmd.Flags().Bool("narrative", false, "Also emit the narrative markdown document")
	cmd.Flags().Int("top-categories", 15, "Categories shown in the category analysis section")

	for _, name := range []string{
		"pattern", "classification", "classification-alt", "input-dir",
		"exclude", "allowlist", "taxonomy-cache", "taxonomy-url",
		"narrative", "top-categories",
	} {
		_ = viper.BindPFlag("analyze."+name, cmd.Flags().Lookup(name))
	}
	return cmd
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	started := time.Now()

	inputs, err := resolveInputs()
	if err != nil {
		return err
	}

	cfg := loaders.Config{
		Allow: config.Load(viper.GetString("analyze.allowlist")),
		Resolver: taxonomy.NewResolver(taxonomy.Options{
			LiveURL:   viper.GetString("analyze.taxonomy-url"),
			CachePath: viper.GetString("analyze.taxonomy-cache"),
		}),
	}

	fmt.Printf("🚀 Loading %d detection exports\n", len(inputs))
	sets, err := loaders.LoadAll(inputs, cfg)
	if err != nil {
		if errors.Is(err, loaders.ErrInsufficientMethods) {
			color.New(color.FgRed, color.Bold).Fprintln(cmd.ErrOrStderr(), "Analysis aborted: need at least two usable methods")
		}
		return err
	}

	pairs := buildPairs(sets)
	rep := &report.Report{
		Meta: report.Meta{
			Tool:           "sitcompare",
			Version:        Version,
			GeneratedAt:    started,
			Allowlist:      cfg.Allow.String(),
			TaxonomySource: cfg.Resolver.Source(),
		},
		Sets:       sets,
		Pairs:      pairs,
		Sites:      analysis.AggregateSites(sets),
		Categories: analysis.AggregateCategories(sets, viper.GetInt("analyze.top-categories")),
		Anomalies:  analysis.DetectAnomalies(sets),
		Overlap:    analysis.Overlap(sets),
	}

	labels := make([]string, 0, len(sets))
	for _, set := range sets {
		labels = append(labels, set.Method)
	}
	outDir, err := utils.NewRunDir(viper.GetString("output"), strings.Join(labels, "+"), started)
	if err != nil {
		return err
	}
	written, err := rep.WriteAll(outDir, viper.GetBool("analyze.narrative"))
	if err != nil {
		return err
	}

	printSummary(rep, written)
	return nil
}

// resolveInputs turns the flag surface into concrete method inputs: explicit
// override paths win, then default file names inside --input-dir.
func resolveInputs() ([]loaders.MethodInput, error) {
	excluded := map[string]struct{}{}
	for _, m := range viper.GetStringSlice("analyze.exclude") {
		excluded[m] = struct{}{}
	}
	inputDir := viper.GetString("analyze.input-dir")

	var inputs []loaders.MethodInput
	for _, method := range methodOrder {
		if _, skip := excluded[method]; skip {
			continue
		}
		path := viper.GetString("analyze." + method)
		if path == "" && inputDir != "" {
			path = filepath.Join(inputDir, defaultInputs[method])
		}
		if path == "" {
			continue
		}
		inputs = append(inputs, loaders.MethodInput{Method: method, Path: path})
	}

	if len(inputs) < 2 {
		return nil, errors.New("need at least two method inputs: give --input-dir or two of --pattern/--classification/--classification-alt")
	}
	return inputs, nil
}

// buildPairs selects the comparisons to run. The pattern-based scan is the
// lower-fidelity candidate and is measured against every classification
// export; two classification exports are additionally compared against each
// other, since their disagreement is itself worth surfacing.
func buildPairs(sets []*schema.MethodResultSet) []*schema.ComparisonPair {
	byMethod := map[string]*schema.MethodResultSet{}
	for _, set := range sets {
		byMethod[set.Method] = set
	}

	var pairs []*schema.ComparisonPair
	if pattern, ok := byMethod[schema.MethodPattern]; ok {
		for _, ref := range []string{schema.MethodClassification, schema.MethodClassificationAlt} {
			if engine, ok := byMethod[ref]; ok {
				pairs = append(pairs, analysis.Compare(pattern, engine))
			}
		}
	}
	if a, ok := byMethod[schema.MethodClassification]; ok {
		if b, ok := byMethod[schema.MethodClassificationAlt]; ok {
			pairs = append(pairs, analysis.Compare(a, b))
		}
	}
	return pairs
}

func printSummary(rep *report.Report, written []string) {
	green := color.New(color.FgGreen, color.Bold)
	yellow := color.New(color.FgYellow)

	green.Printf("✅ Analysis complete: %d methods compared\n", len(rep.Sets))
	for _, p := range rep.Pairs {
		fmt.Printf("   %s vs %s: precision %.2f%%, recall %.2f%%\n",
			analysis.MethodLabel(p.Candidate), analysis.MethodLabel(p.Reference),
			p.Precision, p.Recall)
	}

	high := 0
	for _, a := range rep.Anomalies {
		if a.Severity == schema.SeverityHigh {
			high++
		}
	}
	if len(rep.Anomalies) > 0 {
		yellow.Printf("⚠️  %d variance anomalies (%d high severity)\n", len(rep.Anomalies), high)
	}
	fmt.Printf("📝 Reports written to %s\n", filepath.Dir(written[0]))
}
