// =============================================================================
// GSTR-2B to Tally Masters - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (tallymasters)
//   ├── processCmd   (tallymasters process)
//   ├── normalizeCmd (tallymasters normalize)
//   ├── mastersCmd   (tallymasters masters)
//   └── versionCmd   (tallymasters version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose, --company)
//   2. Binding flags and TALLYMASTERS_* variables as config overrides
//   3. Setting up logging
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/gstr2b-tally-masters/internal/config"
	"github.com/ginjaninja78/gstr2b-tally-masters/internal/logger"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// overrides holds env and flag overrides applied on top of the config file.
var overrides = config.NewOverrides()

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "tallymasters",
	Short: "GSTR-2B to Tally Masters - Derive Tally ledger masters from GSTR-2B reports",
	Long: `tallymasters reads GSTR-2B JSON reports (supplier-grouped B2B purchase
invoices), derives the deduplicated set of ledgers needed to post those
invoices in Tally, and writes them as a Tally "All Masters" XML import.

Derived ledgers:
  - Round Off (always)
  - One party ledger per supplier, under Sundry Creditors
  - Interstate Purchase N% and Input IGST N% per IGST rate
  - Local Purchase N%, Input CGST N/2% and Input SGST N/2% per local rate

Example Usage:
  tallymasters process                          # Process every report in the input directory
  tallymasters process --file r.json --out m.xml
  tallymasters normalize --in r.json --out invoices.json
  tallymasters masters --in invoices.json --out m.xml --company "My Co"`,

	SilenceUsage:  true,
	SilenceErrors: true,

	Run: func(cmd *cobra.Command, args []string) {
		// If no subcommand is provided, print the help message.
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	// ==========================================================================
	// PERSISTENT FLAGS
	// ==========================================================================

	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)

	rootCmd.PersistentFlags().String(
		"company",
		"",
		"Tally company to import into (overrides company_name)",
	)
	// BindPFlag only fails for a nil flag.
	_ = overrides.BindPFlag("company_name", rootCmd.PersistentFlags().Lookup("company"))
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// loadConfig loads the configuration, honoring --config, env and flags.
func loadConfig(cmd *cobra.Command) (*config.MainConfig, error) {
	explicit := cmd.Flags().Changed("config")
	cfg, err := config.Load(cfgFile, explicit, overrides)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// newLogger builds the run logger from the configuration.
func newLogger(cfg *config.MainConfig) (*zap.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: cfg.LogOutput,
	})
}
