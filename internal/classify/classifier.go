// Package classify turns the extracted action and metric statements into the
// final tabular report: each statement is categorized, dated, checked for
// framework references, joined against the company registry, and filtered
// down to rows with actual biodiversity relevance.
package classify

import (
	"context"
	"fmt"
	"log"

	"github.com/verdant-labs/biodivminer/internal/oracle"
	"github.com/verdant-labs/biodivminer/internal/registry"
	"github.com/verdant-labs/biodivminer/internal/report"
	"github.com/verdant-labs/biodivminer/internal/resolve"
)

// StatementOracle provides the three judgements taken per statement.
type StatementOracle interface {
	Classify(ctx context.Context, statement string) (string, error)
	Status(ctx context.Context, statement string) (string, error)
	Framework(ctx context.Context, statement string) (string, error)
}

// Classifier runs the classification stage end to end.
type Classifier struct {
	Oracle     StatementOracle
	Checkpoint *Checkpoint
	Companies  []registry.Company
	ReportPath string
}

// Run classifies every statement found under inputDir and writes the final
// report. Statements already present in the checkpoint keep their stored
// verdict; a judgement that cannot be obtained is recorded as unavailable
// rather than dropped.
func (c *Classifier) Run(ctx context.Context, inputDir string) error {
	entries, err := FlattenEntries(inputDir)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		log.Printf("classify: no statements found under %s", inputDir)
		return nil
	}
	log.Printf("classify: %d statements to process", len(entries))

	verdicts := make(map[string]Verdict, len(entries))
	fresh := 0
	for _, e := range entries {
		if _, ok := verdicts[e.Statement]; ok {
			continue
		}
		v, found, err := c.Checkpoint.Get(e.Statement)
		if err != nil {
			return fmt.Errorf("read checkpoint: %w", err)
		}
		if !found {
			if v, err = c.judge(ctx, e.Statement); err != nil {
				return err
			}
			if err := c.Checkpoint.Put(e.Statement, v); err != nil {
				return fmt.Errorf("write checkpoint: %w", err)
			}
			fresh++
		}
		verdicts[e.Statement] = v
	}
	log.Printf("classify: %d fresh verdicts, %d from checkpoint", fresh, len(verdicts)-fresh)

	ix := resolve.BuildKeyIndex(c.Companies)
	var rows []report.Row
	dropped := 0
	for _, e := range entries {
		v := verdicts[e.Statement]
		if v.Category == oracle.CategoryNoRelevance {
			dropped++
			continue
		}
		row := report.Row{
			Source:    e.Source,
			Type:      e.Type,
			Statement: e.Statement,
			Status:    v.Status,
			Category:  v.Category,
			Framework: v.Framework,
			Keywords:  e.Keywords,
		}
		ix.Annotate(&row)
		rows = append(rows, row)
	}
	log.Printf("classify: dropped %d statements without biodiversity relevance, %d remain", dropped, len(rows))

	if err := report.Write(c.ReportPath, rows); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	log.Printf("classify: report written to %s", c.ReportPath)
	return nil
}

// judge takes all three judgements for one statement. A failed judgement is
// logged and recorded as unavailable; only context cancellation aborts.
func (c *Classifier) judge(ctx context.Context, statement string) (Verdict, error) {
	v := Verdict{
		Category:  oracle.Unavailable,
		Status:    oracle.Unavailable,
		Framework: oracle.Unavailable,
	}

	category, err := c.Oracle.Classify(ctx, statement)
	if err := c.tolerate(ctx, "classification", err); err != nil {
		return Verdict{}, err
	} else if category != "" {
		v.Category = category
	}

	status, err := c.Oracle.Status(ctx, statement)
	if err := c.tolerate(ctx, "status", err); err != nil {
		return Verdict{}, err
	} else if status != "" {
		v.Status = status
	}

	framework, err := c.Oracle.Framework(ctx, statement)
	if err := c.tolerate(ctx, "framework", err); err != nil {
		return Verdict{}, err
	} else if framework != "" {
		v.Framework = framework
	}
	return v, nil
}

func (c *Classifier) tolerate(ctx context.Context, name string, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	log.Printf("classify: %s unavailable: %v", name, err)
	return nil
}
