// =============================================================================
// GSTR-2B to Tally Masters - Process Command
// =============================================================================
//
// This file defines the 'process' command, which is the main command for
// turning GSTR-2B reports into Tally masters documents.
//
// COMMAND USAGE:
//   tallymasters process [flags]
//
// FLAGS:
//   --file : Process a single report (local path or s3:// location)
//   --out  : Explicit output location for --file
//
// PROCESSING PIPELINE:
//   1. Load configuration
//   2. Discover *.json reports in the input directory
//   3. For each report (concurrently, up to max_concurrency):
//      a. Read and normalize the report
//      b. Derive the ledger set
//      c. Render and write the masters document
//      d. Archive the report
//   4. Print the summary and write the error/summary logs
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/gstr2b-tally-masters/internal/config"
	"github.com/ginjaninja78/gstr2b-tally-masters/internal/converter"
	"github.com/ginjaninja78/gstr2b-tally-masters/internal/storage"
	"github.com/ginjaninja78/gstr2b-tally-masters/internal/types"
	"github.com/ginjaninja78/gstr2b-tally-masters/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// filePath is the location of a single report to process.
var filePath string

// outPath is the explicit output location, only valid with --file.
var outPath string

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

// processCmd represents the 'process' command.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Derive Tally masters from GSTR-2B reports",
	Long: `The process command scans the input directory for GSTR-2B JSON reports and
writes one Tally "All Masters" import document per report.

Reports are processed concurrently. Each report gets its own ledger set, and
errors in one report do not affect the others.

On successful processing:
  - The masters XML is placed in the output directory
  - The invoices JSON and XLSX register are written next to it if enabled
  - The report is moved to the input archive if archiving is enabled

On error:
  - Nothing is written for that report
  - An error log is created in the output directory
  - The command exits with a non-zero status`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVar(
		&filePath,
		"file",
		"",
		"Process a single report instead of the input directory",
	)

	processCmd.Flags().StringVar(
		&outPath,
		"out",
		"",
		"Output location for the masters document (requires --file)",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runProcess loads configuration, processes the reports and reports the outcome.
func runProcess(cmd *cobra.Command) error {
	startTime := time.Now()

	if outPath != "" && filePath == "" {
		return fmt.Errorf("--out requires --file")
	}

	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	mainConfig, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := mainConfig.RequireCompany(); err != nil {
		return err
	}

	log, err := newLogger(mainConfig)
	if err != nil {
		return err
	}
	defer log.Sync()

	// =========================================================================
	// STEP 2: DISCOVER INPUT FILES
	// =========================================================================

	files := utils.NewFileManager(mainConfig.InputDir, mainConfig.OutputDir,
		mainConfig.InputArchiveDir, mainConfig.OutputArchiveDir)

	inputFiles := []string{filePath}
	if filePath == "" {
		inputFiles, err = files.DiscoverInputFiles("*.json")
		if err != nil {
			return fmt.Errorf("failed to discover input files: %w", err)
		}
	}

	if len(inputFiles) == 0 {
		fmt.Println("No reports found in the input directory.")
		return nil
	}

	log.Debug("discovered reports", zap.Int("count", len(inputFiles)))

	// =========================================================================
	// STEP 3: PROCESS FILES CONCURRENTLY
	// =========================================================================

	store := storage.NewRouter(mainConfig.S3)
	results := processAll(cmd.Context(), inputFiles, mainConfig, store, log)

	// =========================================================================
	// STEP 4: REPORT
	// =========================================================================

	return report(results, mainConfig, startTime, log)
}

// processAll runs one converter per report, at most max_concurrency at a
// time. Results are returned in input order.
func processAll(ctx context.Context, inputFiles []string, cfg *config.MainConfig, store storage.Store, log *zap.Logger) []converter.Result {
	if ctx == nil {
		ctx = context.Background()
	}

	results := make([]converter.Result, len(inputFiles))
	sem := make(chan struct{}, cfg.MaxConcurrency)
	var wg sync.WaitGroup

	for i, file := range inputFiles {
		wg.Add(1)
		go func(i int, file string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			conv := converter.New(file, cfg, store, log)
			if outPath != "" {
				conv.WithOutput(outPath)
			}
			results[i] = conv.Run(ctx)
		}(i, file)
	}

	wg.Wait()
	return results
}

// report prints the per-report outcome and totals, writes the error and
// summary logs, and returns an error if any report failed.
func report(results []converter.Result, cfg *config.MainConfig, startTime time.Time, log *zap.Logger) error {
	summary := utils.ProcessingSummary{
		StartTime:  startTime,
		TotalFiles: len(results),
	}
	var errorEntries []utils.ErrorLogEntry

	for _, result := range results {
		name := filepath.Base(result.FilePath)
		if result.Success {
			summary.SuccessfulFiles++
			summary.TotalInvoices += result.Stats.InvoicesProcessed
			summary.TotalLedgers += result.Stats.LedgersEmitted
			summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
				InputFile:   result.FilePath,
				OutputFile:  result.OutputFile,
				ArchivePath: result.ArchivePath,
				Invoices:    result.Stats.InvoicesProcessed,
				Suppliers:   result.Stats.Suppliers,
				Ledgers:     result.Stats.LedgersEmitted,
				ProcessTime: result.Stats.ProcessingTime,
			})
			fmt.Printf("  ✓ %s -> %s (%s)\n", name, result.OutputFile, result.Stats.Summary())
			continue
		}

		summary.FailedFiles++
		errorType := "unknown"
		if kind := types.KindOf(result.Error); kind != nil {
			errorType = kind.Error()
		}
		summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
			InputFile:    result.FilePath,
			ErrorMessage: result.Error.Error(),
			ErrorType:    errorType,
		})
		errorEntries = append(errorEntries, utils.NewErrorLogEntries(name, result.Error)...)
		fmt.Printf("  ✗ %s: %v\n", name, result.Error)
	}
	summary.EndTime = time.Now()

	fmt.Printf("processed %d invoice(s), emitted %d ledger(s)\n", summary.TotalInvoices, summary.TotalLedgers)

	logDir := localLogDir(cfg)
	if path, err := utils.WriteSummaryLog(summary, logDir); err != nil {
		log.Warn("failed to write summary log", zap.Error(err))
	} else {
		log.Debug("wrote summary log", zap.String("path", path))
	}

	if summary.FailedFiles == 0 {
		return nil
	}

	if path, err := utils.WriteErrorLog(errorEntries, logDir); err != nil {
		log.Warn("failed to write error log", zap.Error(err))
	} else {
		fmt.Printf("Errors have been logged to %s\n", path)
	}
	return fmt.Errorf("%d of %d report(s) failed", summary.FailedFiles, summary.TotalFiles)
}

// localLogDir is the output directory, or the input directory when outputs
// go to object storage.
func localLogDir(cfg *config.MainConfig) string {
	if storage.IsS3URI(cfg.OutputDir) {
		return cfg.InputDir
	}
	return cfg.OutputDir
}
