package pipeline

import (
	"os"
	"path/filepath"
)

// Layout maps the fixed workspace structure onto a root directory.
type Layout struct {
	Root string
}

func (l Layout) InputDir() string     { return filepath.Join(l.Root, "input") }
func (l Layout) RawDir() string       { return filepath.Join(l.Root, "passages", "raw") }
func (l Layout) RelevantDir() string  { return filepath.Join(l.Root, "passages", "relevant") }
func (l Layout) AnalysisDir() string  { return filepath.Join(l.Root, "analysis") }
func (l Layout) SummaryDir() string   { return filepath.Join(l.AnalysisDir(), "summary") }
func (l Layout) CompaniesDir() string { return filepath.Join(l.AnalysisDir(), "companies") }
func (l Layout) CheckpointPath() string {
	return filepath.Join(l.AnalysisDir(), "checkpoint.db")
}
func (l Layout) ReportPath() string {
	return filepath.Join(l.AnalysisDir(), "classification_report.xlsx")
}
func (l Layout) GlobalSummaryPath() string {
	return filepath.Join(l.SummaryDir(), "global_summary.xlsx")
}
func (l Layout) OverviewPath() string {
	return filepath.Join(l.SummaryDir(), "overview.html")
}
func (l Layout) RegistryPath() string {
	return filepath.Join(l.Root, "matching", "registry.xlsx")
}
func (l Layout) KeywordsPath() string {
	return filepath.Join(l.Root, "keywords.yaml")
}

// EnsureDirs creates every directory a run writes into.
func (l Layout) EnsureDirs() error {
	for _, dir := range []string{
		l.InputDir(), l.RawDir(), l.RelevantDir(),
		l.AnalysisDir(), l.SummaryDir(), l.CompaniesDir(),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}
