package summary

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/verdant-labs/biodivminer/internal/oracle"
	"github.com/verdant-labs/biodivminer/internal/report"
)

// CategoryStats is the per-category breakdown inside a company report.
type CategoryStats struct {
	Absolute       int     `json:"absolute"`
	PercentOfTotal float64 `json:"percent_of_total"`
	DoneAbsolute   int     `json:"done_absolute"`
	DonePercent    float64 `json:"done_percent"`
}

// CompanyMetrics are the company-level totals.
type CompanyMetrics struct {
	TotalRelevantStatements int                      `json:"total_relevant_statements"`
	TotalDone               int                      `json:"total_done"`
	TotalPlanned            int                      `json:"total_planned"`
	TotalDonePercent        float64                  `json:"total_done_percent"`
	TotalPlannedPercent     float64                  `json:"total_planned_percent"`
	ByCategory              map[string]CategoryStats `json:"by_category"`
}

// Ranking holds a company's percentile for one metric across all companies.
type Ranking struct {
	GlobalPercentile float64 `json:"global_percentile"`
}

// CompanyReport is the JSON document written per company.
type CompanyReport struct {
	CompanyName            string             `json:"company_name"`
	Country                string             `json:"country"`
	Rating                 string             `json:"rating"`
	PrimaryListing         string             `json:"primary_listing"`
	IndustryClassification string             `json:"industry_classification"`
	Rankings               map[string]Ranking `json:"rankings"`
	Metrics                CompanyMetrics     `json:"metrics"`
	AllFoundKeywords       []string           `json:"all_found_keywords"`
}

var rankedMetrics = []string{
	"total_relevant_statements",
	"total_done",
	"total_planned",
	"total_done_percent",
	"total_planned_percent",
}

// BuildCompanyReports computes one report per distinct company in the rows.
// Rows must already be filtered to relevant categories.
func BuildCompanyReports(rows []report.Row) []CompanyReport {
	byCompany := map[string][]report.Row{}
	var order []string
	for _, r := range rows {
		if _, seen := byCompany[r.Company]; !seen {
			order = append(order, r.Company)
		}
		byCompany[r.Company] = append(byCompany[r.Company], r)
	}

	categories := map[string]bool{}
	for _, r := range rows {
		categories[r.Category] = true
	}
	allCategories := make([]string, 0, len(categories))
	for c := range categories {
		allCategories = append(allCategories, c)
	}
	sort.Strings(allCategories)

	reports := make([]CompanyReport, 0, len(order))
	for _, company := range order {
		reports = append(reports, buildOne(company, byCompany[company], allCategories))
	}
	attachRankings(reports)
	return reports
}

func buildOne(company string, rows []report.Row, allCategories []string) CompanyReport {
	first := rows[0]
	m := CompanyMetrics{
		TotalRelevantStatements: len(rows),
		ByCategory:              map[string]CategoryStats{},
	}
	doneByCat := map[string]int{}
	absByCat := map[string]int{}
	keywords := map[string]bool{}
	for _, r := range rows {
		absByCat[r.Category]++
		switch r.Status {
		case oracle.StatusDone:
			m.TotalDone++
			doneByCat[r.Category]++
		case oracle.StatusPlanned:
			m.TotalPlanned++
		}
		for _, kw := range strings.Split(r.Keywords, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				keywords[kw] = true
			}
		}
	}
	m.TotalDonePercent = round4(float64(m.TotalDone) / float64(len(rows)))
	m.TotalPlannedPercent = round4(float64(m.TotalPlanned) / float64(len(rows)))

	for _, cat := range allCategories {
		abs := absByCat[cat]
		done := doneByCat[cat]
		stats := CategoryStats{Absolute: abs, DoneAbsolute: done}
		if len(rows) > 0 {
			stats.PercentOfTotal = round4(float64(abs) / float64(len(rows)))
		}
		if abs > 0 {
			stats.DonePercent = round4(float64(done) / float64(abs))
		}
		m.ByCategory[cat] = stats
	}

	allKeywords := make([]string, 0, len(keywords))
	for kw := range keywords {
		allKeywords = append(allKeywords, kw)
	}
	sort.Strings(allKeywords)

	return CompanyReport{
		CompanyName:            company,
		Country:                first.Country,
		Rating:                 first.Rating,
		PrimaryListing:         first.PrimaryListing,
		IndustryClassification: first.Industry,
		Rankings:               map[string]Ranking{},
		Metrics:                m,
		AllFoundKeywords:       allKeywords,
	}
}

// attachRankings fills each report's global percentile per ranked metric.
// Ties share the average of their ranks, scaled into (0, 1].
func attachRankings(reports []CompanyReport) {
	for _, metric := range rankedMetrics {
		values := make([]float64, len(reports))
		for i := range reports {
			values[i] = metricValue(reports[i].Metrics, metric)
		}
		percentiles := percentileRanks(values)
		for i := range reports {
			reports[i].Rankings[metric] = Ranking{GlobalPercentile: round4(percentiles[i])}
		}
	}
}

func metricValue(m CompanyMetrics, metric string) float64 {
	switch metric {
	case "total_relevant_statements":
		return float64(m.TotalRelevantStatements)
	case "total_done":
		return float64(m.TotalDone)
	case "total_planned":
		return float64(m.TotalPlanned)
	case "total_done_percent":
		return m.TotalDonePercent
	case "total_planned_percent":
		return m.TotalPlannedPercent
	}
	return 0
}

// percentileRanks implements average-rank percentiles: each value gets the
// mean 1-based rank of its ties divided by the number of values.
func percentileRanks(values []float64) []float64 {
	n := len(values)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	for i, v := range values {
		below, ties := 0, 0
		for _, w := range values {
			if w < v {
				below++
			} else if w == v {
				ties++
			}
		}
		avgRank := float64(below) + float64(ties+1)/2
		out[i] = avgRank / float64(n)
	}
	return out
}

var filenameJunk = regexp.MustCompile(`[\\/*?:"<>|]`)

// sanitizeFilename makes a company name safe as a file name.
func sanitizeFilename(name string) string {
	name = filenameJunk.ReplaceAllString(name, "")
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ReplaceAll(name, "&", "and")
}

// WriteCompanyReports writes one JSON file per company into outDir.
func WriteCompanyReports(reportPath, outDir string) error {
	rows, err := report.Read(reportPath)
	if err != nil {
		return err
	}
	reports := BuildCompanyReports(RelevantRows(rows))
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	for _, r := range reports {
		data, err := json.MarshalIndent(r, "", "    ")
		if err != nil {
			return fmt.Errorf("marshal %s: %w", r.CompanyName, err)
		}
		path := filepath.Join(outDir, sanitizeFilename(r.CompanyName)+".json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
	}
	log.Printf("summary: wrote %d company reports to %s", len(reports), outDir)
	return nil
}
