package summary

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/verdant-labs/biodivminer/internal/oracle"
	"github.com/verdant-labs/biodivminer/internal/report"
)

func sampleRows() []report.Row {
	return []report.Row{
		{Company: "Acme AG", Country: "Germany", Rating: "AA", Industry: "Chemicals", Category: "Research", Status: oracle.StatusDone, Keywords: "trees, wetland"},
		{Company: "Acme AG", Country: "Germany", Rating: "AA", Industry: "Chemicals", Category: "Research", Status: oracle.StatusPlanned, Keywords: "trees"},
		{Company: "Acme AG", Country: "Germany", Rating: "AA", Industry: "Chemicals", Category: "Pollution Control", Status: oracle.StatusDone},
		{Company: "Nordic Timber AB", Country: "Sweden", Rating: "BBB", Industry: "Forestry", Category: "Research", Status: oracle.StatusDone, Keywords: "species"},
		{Company: "Acme AG", Country: "Germany", Category: oracle.CategoryNoRelevance, Status: oracle.StatusDone},
		{Company: "Acme AG", Country: "Germany", Category: oracle.Unavailable, Status: oracle.Unavailable},
	}
}

func TestRelevantRowsFiltersCategories(t *testing.T) {
	got := RelevantRows(sampleRows())
	assert.Len(t, got, 4)
	for _, r := range got {
		assert.NotEqual(t, oracle.CategoryNoRelevance, r.Category)
		assert.NotEqual(t, oracle.Unavailable, r.Category)
	}
}

func TestGlobalSummary(t *testing.T) {
	counts := GlobalSummary(RelevantRows(sampleRows()))
	require.Len(t, counts, 2)

	assert.Equal(t, "Research", counts[0].Category, "most frequent category first")
	assert.Equal(t, 3, counts[0].Total)
	assert.Equal(t, 2, counts[0].Done)
	assert.Equal(t, 1, counts[0].Planned)
	assert.InDelta(t, 66.67, counts[0].DonePercent, 0.001)
	assert.InDelta(t, 33.33, counts[0].PlannedPercent, 0.001)

	assert.Equal(t, "Pollution Control", counts[1].Category)
	assert.Equal(t, 1, counts[1].Total)
}

func TestGroupedSummary(t *testing.T) {
	counts, err := GroupedSummary(RelevantRows(sampleRows()), "Country")
	require.NoError(t, err)
	require.Len(t, counts, 3)

	assert.Equal(t, "Germany", counts[0].Group)
	assert.Equal(t, "Research", counts[0].Category)
	assert.Equal(t, 2, counts[0].Total)
	assert.Equal(t, "Germany", counts[1].Group)
	assert.Equal(t, "Pollution Control", counts[1].Category)
	assert.Equal(t, "Sweden", counts[2].Group)

	_, err = GroupedSummary(nil, "Nope")
	assert.Error(t, err)
}

func TestWriteGlobalSummaryProducesWorkbooks(t *testing.T) {
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "report.xlsx")
	require.NoError(t, report.Write(reportPath, sampleRows()))

	outPath := filepath.Join(dir, "out", "global_summary.xlsx")
	require.NoError(t, WriteGlobalSummary(reportPath, outPath))

	f, err := excelize.OpenFile(outPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus two categories")
	assert.Equal(t, "Category", rows[0][0])
	assert.Equal(t, "Research", rows[1][0])

	for _, col := range GroupColumns {
		name := "global_summary_by_" + strings.ReplaceAll(col, " ", "_") + ".xlsx"
		_, err := os.Stat(filepath.Join(dir, "out", name))
		assert.NoError(t, err, name)
	}
}

func TestBuildCompanyReports(t *testing.T) {
	reports := BuildCompanyReports(RelevantRows(sampleRows()))
	require.Len(t, reports, 2)

	acme := reports[0]
	assert.Equal(t, "Acme AG", acme.CompanyName)
	assert.Equal(t, "Germany", acme.Country)
	assert.Equal(t, 3, acme.Metrics.TotalRelevantStatements)
	assert.Equal(t, 2, acme.Metrics.TotalDone)
	assert.Equal(t, 1, acme.Metrics.TotalPlanned)
	assert.InDelta(t, 0.6667, acme.Metrics.TotalDonePercent, 0.001)
	assert.Equal(t, []string{"trees", "wetland"}, acme.AllFoundKeywords)

	research := acme.Metrics.ByCategory["Research"]
	assert.Equal(t, 2, research.Absolute)
	assert.Equal(t, 1, research.DoneAbsolute)
	assert.InDelta(t, 0.6667, research.PercentOfTotal, 0.001)
	assert.InDelta(t, 0.5, research.DonePercent, 0.001)

	// Every company carries stats for every observed category.
	assert.Contains(t, reports[1].Metrics.ByCategory, "Pollution Control")
	assert.Equal(t, 0, reports[1].Metrics.ByCategory["Pollution Control"].Absolute)
}

func TestCompanyRankingsArePercentiles(t *testing.T) {
	reports := BuildCompanyReports(RelevantRows(sampleRows()))
	require.Len(t, reports, 2)

	// Acme has 3 statements, Nordic 1: ranks 2/2 and 1/2.
	assert.InDelta(t, 1.0, reports[0].Rankings["total_relevant_statements"].GlobalPercentile, 0.001)
	assert.InDelta(t, 0.5, reports[1].Rankings["total_relevant_statements"].GlobalPercentile, 0.001)
}

func TestPercentileRanksAverageTies(t *testing.T) {
	got := percentileRanks([]float64{1, 1, 2})
	assert.InDelta(t, 0.5, got[0], 0.001)
	assert.InDelta(t, 0.5, got[1], 0.001)
	assert.InDelta(t, 1.0, got[2], 0.001)
}

func TestWriteCompanyReports(t *testing.T) {
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "report.xlsx")
	require.NoError(t, report.Write(reportPath, sampleRows()))

	outDir := filepath.Join(dir, "companies")
	require.NoError(t, WriteCompanyReports(reportPath, outDir))

	data, err := os.ReadFile(filepath.Join(outDir, "Acme_AG.json"))
	require.NoError(t, err)
	var r CompanyReport
	require.NoError(t, json.Unmarshal(data, &r))
	assert.Equal(t, "Acme AG", r.CompanyName)
	assert.Equal(t, 3, r.Metrics.TotalRelevantStatements)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "AandB_Holdings", sanitizeFilename(`A&B /Holdings?`))
}

func TestOverviewMarkdownAndHTML(t *testing.T) {
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "report.xlsx")
	require.NoError(t, report.Write(reportPath, sampleRows()))

	outPath := filepath.Join(dir, "overview.html")
	require.NoError(t, WriteOverviewHTML(reportPath, outPath))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	html := string(data)
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, "Research")
	assert.Contains(t, html, "4 relevant statements")
}
