// Package pipeline wires the processing stages into the end-to-end run over
// a workspace directory: input hygiene, extraction, validation, cleanup,
// detail extraction, near-duplicate consolidation, classification, entity
// repair and summaries.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/verdant-labs/biodivminer/internal/classify"
	"github.com/verdant-labs/biodivminer/internal/cleanup"
	"github.com/verdant-labs/biodivminer/internal/dedupe"
	"github.com/verdant-labs/biodivminer/internal/details"
	"github.com/verdant-labs/biodivminer/internal/extract"
	"github.com/verdant-labs/biodivminer/internal/oracle"
	"github.com/verdant-labs/biodivminer/internal/registry"
	"github.com/verdant-labs/biodivminer/internal/resolve"
	"github.com/verdant-labs/biodivminer/internal/stageledger"
	"github.com/verdant-labs/biodivminer/internal/summary"
	"github.com/verdant-labs/biodivminer/internal/textproc"
	"github.com/verdant-labs/biodivminer/internal/validate"
)

// StageError marks which pipeline stage an error escaped from.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("stage %s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// Oracle bundles every model judgement the pipeline takes.
type Oracle interface {
	KeySentenceIndices(ctx context.Context, sentences []string) ([]int, error)
	ActionsAndMetrics(ctx context.Context, passage string) (oracle.Details, error)
	Classify(ctx context.Context, statement string) (string, error)
	Status(ctx context.Context, statement string) (string, error)
	Framework(ctx context.Context, statement string) (string, error)
}

// Pipeline runs the stages over one workspace.
type Pipeline struct {
	Layout    Layout
	Langs     *textproc.Registry
	Catalog   extract.Catalog
	Open      extract.Opener
	Oracle    Oracle
	Companies []registry.Company
}

// Run executes every stage in order. Each stage is internally resumable, so
// rerunning after a failure continues where the previous run stopped.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.Layout.EnsureDirs(); err != nil {
		return &StageError{Stage: "setup", Err: err}
	}
	ledger := stageledger.New(p.Layout.InputDir())
	if err := ledger.Init(); err != nil {
		return &StageError{Stage: "setup", Err: err}
	}

	if err := CleanReportFolder(p.Layout.InputDir(), p.Companies); err != nil {
		return &StageError{Stage: "input_hygiene", Err: err}
	}

	ex := &extract.Extractor{
		Ledger:  ledger,
		Langs:   p.Langs,
		Catalog: p.Catalog,
		Open:    p.Open,
		OutDir:  p.Layout.RawDir(),
	}
	if err := ex.Run(p.Layout.InputDir()); err != nil {
		return &StageError{Stage: extract.StageKey, Err: err}
	}

	english, ok := p.Langs.Language("en")
	if !ok {
		return &StageError{Stage: validate.StageKey, Err: fmt.Errorf("english tokenizer unavailable")}
	}
	v := &validate.Validator{
		Ledger: ledger,
		Oracle: p.Oracle,
		Split:  english.SplitSentences,
		OutDir: p.Layout.RelevantDir(),
	}
	if err := v.Run(ctx, p.Layout.RawDir()); err != nil {
		return &StageError{Stage: validate.StageKey, Err: err}
	}

	cl := &cleanup.Cleaner{Ledger: ledger}
	if err := cl.Run(p.Layout.RelevantDir()); err != nil {
		return &StageError{Stage: cleanup.StageKey, Err: err}
	}

	de := &details.Extractor{Ledger: ledger, Oracle: p.Oracle}
	if err := de.Run(ctx, p.Layout.RelevantDir()); err != nil {
		return &StageError{Stage: details.StageKey, Err: err}
	}

	dd := &dedupe.Consolidator{Ledger: ledger}
	if err := dd.Run(p.Layout.RelevantDir()); err != nil {
		return &StageError{Stage: dedupe.StageKey, Err: err}
	}

	if err := p.classifyAndRepair(ctx); err != nil {
		return err
	}
	return p.Summarize()
}

// classifyAndRepair runs statement classification and the entity repair pass.
func (p *Pipeline) classifyAndRepair(ctx context.Context) error {
	cp, err := classify.OpenCheckpoint(p.Layout.CheckpointPath())
	if err != nil {
		return &StageError{Stage: "classification", Err: err}
	}
	defer cp.Close()

	c := &classify.Classifier{
		Oracle:     p.Oracle,
		Checkpoint: cp,
		Companies:  p.Companies,
		ReportPath: p.Layout.ReportPath(),
	}
	if err := c.Run(ctx, p.Layout.RelevantDir()); err != nil {
		return &StageError{Stage: "classification", Err: err}
	}
	return p.Resolve()
}

// Resolve runs the phase-2 entity repair over the final report. It is
// idempotent and safe to rerun on its own.
func (p *Pipeline) Resolve() error {
	if _, err := os.Stat(p.Layout.ReportPath()); os.IsNotExist(err) {
		log.Printf("pipeline: no report at %s, nothing to resolve", p.Layout.ReportPath())
		return nil
	}
	if err := resolve.RepairReport(p.Layout.ReportPath(), p.Companies); err != nil {
		return &StageError{Stage: "entity_repair", Err: err}
	}
	return nil
}

// Summarize writes the global and grouped summaries, the HTML overview and
// the per-company JSON reports from the final report.
func (p *Pipeline) Summarize() error {
	if _, err := os.Stat(p.Layout.ReportPath()); os.IsNotExist(err) {
		log.Printf("pipeline: no report at %s, nothing to summarize", p.Layout.ReportPath())
		return nil
	}
	if err := summary.WriteGlobalSummary(p.Layout.ReportPath(), p.Layout.GlobalSummaryPath()); err != nil {
		return &StageError{Stage: "summary", Err: err}
	}
	if err := summary.WriteOverviewHTML(p.Layout.ReportPath(), p.Layout.OverviewPath()); err != nil {
		return &StageError{Stage: "summary", Err: err}
	}
	if err := summary.WriteCompanyReports(p.Layout.ReportPath(), p.Layout.CompaniesDir()); err != nil {
		return &StageError{Stage: "summary", Err: err}
	}
	return nil
}
