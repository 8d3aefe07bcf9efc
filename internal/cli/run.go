package cli

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/verdant-labs/biodivminer/internal/extract"
	"github.com/verdant-labs/biodivminer/internal/oracle"
	"github.com/verdant-labs/biodivminer/internal/pdftext"
	"github.com/verdant-labs/biodivminer/internal/pipeline"
	"github.com/verdant-labs/biodivminer/internal/registry"
	"github.com/verdant-labs/biodivminer/internal/textproc"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline over the workspace",
	Long: `Run all stages in order: input hygiene, passage extraction, validation,
cleanup, action/metric extraction, de-duplication, classification, entity
repair and summaries. Completed work is skipped on rerun.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := buildPipeline(true)
		if err != nil {
			return err
		}
		return p.Run(cmd.Context())
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Re-run entity repair over the classification report",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := buildPipeline(false)
		if err != nil {
			return err
		}
		return p.Resolve()
	},
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Rebuild summaries and company reports from the classification report",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := buildPipeline(false)
		if err != nil {
			return err
		}
		return p.Summarize()
	},
}

// buildPipeline assembles a pipeline from the configuration. The oracle and
// keyword catalog are only required for a full run.
func buildPipeline(full bool) (*pipeline.Pipeline, error) {
	layout := pipeline.Layout{Root: viper.GetString("workspace")}

	companies, err := registry.Load(layout.RegistryPath())
	if err != nil {
		return nil, fmt.Errorf("load company registry: %w", err)
	}
	log.Printf("cli: %d companies loaded from %s", len(companies), layout.RegistryPath())

	p := &pipeline.Pipeline{
		Layout:    layout,
		Companies: companies,
	}
	if !full {
		return p, nil
	}

	p.Catalog, err = extract.LoadCatalog(layout.KeywordsPath())
	if err != nil {
		return nil, err
	}
	p.Langs, err = textproc.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("build language registry: %w", err)
	}
	p.Open = pdftext.Open

	caller, err := oracle.NewCaller(oracle.Config{
		Provider: viper.GetString("provider"),
		Model:    viper.GetString("model"),
	})
	if err != nil {
		return nil, err
	}
	p.Oracle = oracle.NewClient(caller)
	return p, nil
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(summarizeCmd)
}
