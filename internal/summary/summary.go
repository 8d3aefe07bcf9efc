// Package summary aggregates the final classification report into global and
// grouped category statistics, an HTML overview, and per-company JSON
// reports.
package summary

import (
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/verdant-labs/biodivminer/internal/oracle"
	"github.com/verdant-labs/biodivminer/internal/report"
)

// irrelevantCategories are excluded from every aggregate.
var irrelevantCategories = map[string]bool{
	oracle.CategoryNoRelevance: true,
	oracle.Unavailable:         true,
}

// CategoryCount is one aggregated line of a category summary.
type CategoryCount struct {
	Group          string // empty in the global summary
	Category       string
	Total          int
	Done           int
	Planned        int
	DonePercent    float64
	PlannedPercent float64
}

// GroupColumns are the report columns grouped summaries are built over.
var GroupColumns = []string{"Country", "Industry Classification", "Rating", "Primary Listing"}

// RelevantRows filters the report rows every aggregate is computed from.
func RelevantRows(rows []report.Row) []report.Row {
	var out []report.Row
	for _, r := range rows {
		if !irrelevantCategories[r.Category] {
			out = append(out, r)
		}
	}
	return out
}

// GlobalSummary counts statements per category, most frequent first.
func GlobalSummary(rows []report.Row) []CategoryCount {
	return aggregate(rows, func(report.Row) string { return "" })
}

// GroupedSummary counts statements per group value and category. Groups sort
// ascending, categories inside a group by count descending.
func GroupedSummary(rows []report.Row, column string) ([]CategoryCount, error) {
	key, err := groupKey(column)
	if err != nil {
		return nil, err
	}
	return aggregate(rows, key), nil
}

func groupKey(column string) (func(report.Row) string, error) {
	switch column {
	case "Country":
		return func(r report.Row) string { return r.Country }, nil
	case "Industry Classification":
		return func(r report.Row) string { return r.Industry }, nil
	case "Rating":
		return func(r report.Row) string { return r.Rating }, nil
	case "Primary Listing":
		return func(r report.Row) string { return r.PrimaryListing }, nil
	default:
		return nil, fmt.Errorf("unknown grouping column %q", column)
	}
}

func aggregate(rows []report.Row, key func(report.Row) string) []CategoryCount {
	type bucket struct {
		total, done, planned int
	}
	buckets := map[[2]string]*bucket{}
	for _, r := range rows {
		k := [2]string{key(r), r.Category}
		b := buckets[k]
		if b == nil {
			b = &bucket{}
			buckets[k] = b
		}
		b.total++
		switch r.Status {
		case oracle.StatusDone:
			b.done++
		case oracle.StatusPlanned:
			b.planned++
		}
	}

	out := make([]CategoryCount, 0, len(buckets))
	for k, b := range buckets {
		out = append(out, CategoryCount{
			Group:          k[0],
			Category:       k[1],
			Total:          b.total,
			Done:           b.done,
			Planned:        b.planned,
			DonePercent:    round2(float64(b.done) / float64(b.total) * 100),
			PlannedPercent: round2(float64(b.planned) / float64(b.total) * 100),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// WriteGlobalSummary writes the global category summary workbook and one
// grouped workbook per grouping column next to it.
func WriteGlobalSummary(reportPath, outPath string) error {
	rows, err := report.Read(reportPath)
	if err != nil {
		return err
	}
	relevant := RelevantRows(rows)
	log.Printf("summary: %d of %d report rows are relevant", len(relevant), len(rows))

	if err := writeCountsWorkbook(outPath, "", GlobalSummary(relevant)); err != nil {
		return err
	}
	log.Printf("summary: global summary written to %s", outPath)

	dir := filepath.Dir(outPath)
	for _, col := range GroupColumns {
		counts, err := GroupedSummary(relevant, col)
		if err != nil {
			return err
		}
		path := filepath.Join(dir, "global_summary_by_"+strings.ReplaceAll(col, " ", "_")+".xlsx")
		if err := writeCountsWorkbook(path, col, counts); err != nil {
			return err
		}
		log.Printf("summary: grouped summary written to %s", path)
	}
	return nil
}

func writeCountsWorkbook(path, groupColumn string, counts []CategoryCount) error {
	f := excelize.NewFile()
	defer f.Close()

	header := []any{"Category", "Total Statements", "Done", "Planned", "Done Percent", "Planned Percent"}
	if groupColumn != "" {
		header = append([]any{groupColumn}, header...)
	}
	if err := f.SetSheetRow("Sheet1", "A1", &header); err != nil {
		return err
	}
	for i, c := range counts {
		cells := []any{c.Category, c.Total, c.Done, c.Planned, c.DonePercent, c.PlannedPercent}
		if groupColumn != "" {
			cells = append([]any{c.Group}, cells...)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow("Sheet1", cell, &cells); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return report.SaveWorkbook(f, path)
}

func round2(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Round(v*10000) / 10000
}
