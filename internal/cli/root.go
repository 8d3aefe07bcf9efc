// Package cli wires the pipeline into the biodivminer command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is stamped by the release build.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "biodivminer",
	Short: "Mine biodiversity actions and metrics out of corporate report PDFs",
	Long: `biodivminer runs a staged text-mining pipeline over a workspace of
corporate report PDFs: keyword-anchored passage extraction, model-assisted
validation and classification, entity resolution against a company registry,
and summary reporting.

Every stage records its progress, so an interrupted run picks up where it
stopped.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("biodivminer " + Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: <workspace>/biodivminer.yaml)")
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().String("provider", "anthropic", "model provider (anthropic or openai)")
	rootCmd.PersistentFlags().String("model", "", "model name override")

	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("provider", rootCmd.PersistentFlags().Lookup("provider"))
	_ = viper.BindPFlag("model", rootCmd.PersistentFlags().Lookup("model"))

	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(viper.GetString("workspace"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("biodivminer")
	}

	viper.SetEnvPrefix("BIODIVMINER")
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()
}
