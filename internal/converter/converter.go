// =============================================================================
// GSTR-2B to Tally Masters - Converter Module
// =============================================================================
//
// This module contains the core conversion logic. It orchestrates the entire
// pipeline for a single report, from the authority JSON to the Tally masters
// import document.
//
// CONVERSION PIPELINE:
//   1. Read the report (local file or s3:// object)
//   2. Parse and normalize it into invoices
//   3. Derive the ledger set (one session per run)
//   4. Render every output document in memory
//   5. Write the outputs (all or nothing)
//   6. Archive the processed report and output
//
// CONCURRENCY:
//   Each report is processed by its own Converter with its own ledger
//   session. Converters share nothing but the store, so the CLI runs several
//   of them in parallel.
//
// =============================================================================

package converter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ginjaninja78/gstr2b-tally-masters/internal/config"
	"github.com/ginjaninja78/gstr2b-tally-masters/internal/invoice"
	"github.com/ginjaninja78/gstr2b-tally-masters/internal/ledger"
	"github.com/ginjaninja78/gstr2b-tally-masters/internal/register"
	"github.com/ginjaninja78/gstr2b-tally-masters/internal/report"
	"github.com/ginjaninja78/gstr2b-tally-masters/internal/storage"
	"github.com/ginjaninja78/gstr2b-tally-masters/internal/types"
	"github.com/ginjaninja78/gstr2b-tally-masters/internal/xmlwriter"
	"github.com/ginjaninja78/gstr2b-tally-masters/pkg/utils"
)

// Companion document suffixes.
const (
	InvoicesSuffix = "_invoices.json"
	RegisterSuffix = "_register.xlsx"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single report.
type Result struct {
	// FilePath is the location of the report that was processed.
	FilePath string

	// OutputFile is the location of the generated masters document.
	// This is empty if processing failed.
	OutputFile string

	// InvoicesFile and RegisterFile are set when those documents were written.
	InvoicesFile string
	RegisterFile string

	// ArchivePath is where the report was moved, if archiving is enabled.
	ArchivePath string

	// Success indicates whether the processing was successful.
	Success bool

	// Error contains the error if processing failed. It is a
	// *types.StageError wrapping one of the taxonomy sentinels.
	Error error

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// InvoicesProcessed is the number of normalized invoices.
	InvoicesProcessed int

	// Suppliers is the number of distinct supplier names.
	Suppliers int

	// LedgersEmitted is the number of ledgers in the masters document,
	// including Round Off.
	LedgersEmitted int

	// LedgersByKind breaks LedgersEmitted down by ledger kind.
	LedgersByKind map[ledger.Kind]int

	// ProcessingTime is the time taken to process the report.
	ProcessingTime time.Duration
}

// Summary is the one-line outcome printed after a successful run.
func (s ProcessingStats) Summary() string {
	return fmt.Sprintf("processed %d invoice(s), emitted %d ledger(s)", s.InvoicesProcessed, s.LedgersEmitted)
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter handles the conversion of a single report.
type Converter struct {
	// source is the location of the input report.
	source string

	// output overrides the generated output location when set.
	output string

	config *config.MainConfig
	store  storage.Store
	files  *utils.FileManager
	logger *zap.Logger
}

// New creates a new Converter instance.
//
// PARAMETERS:
//   - source: The location of the GSTR-2B report.
//   - cfg: The main application configuration.
//   - store: Where the report is read from and outputs are written to.
//   - logger: Structured logger; nil disables logging.
func New(source string, cfg *config.MainConfig, store storage.Store, logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}

	files := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir, cfg.OutputArchiveDir)
	files.ArchiveOnSuccess = cfg.ArchiveInputs

	return &Converter{
		source: source,
		config: cfg,
		store:  store,
		files:  files,
		logger: logger.With(zap.String("source", source)),
	}
}

// WithOutput sets an explicit location for the masters document. Companion
// documents are written next to it.
func (c *Converter) WithOutput(location string) *Converter {
	c.output = location
	return c
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// artifact is one rendered output document.
type artifact struct {
	location string
	data     []byte
}

// Run executes the pipeline for the report. Nothing is written unless every
// stage succeeds.
func (c *Converter) Run(ctx context.Context) Result {
	startTime := time.Now()
	result := Result{FilePath: c.source}

	c.logger.Info("processing report")

	// =========================================================================
	// STEP 1: READ
	// =========================================================================

	data, err := c.store.Read(ctx, c.source)
	if err != nil {
		return c.fail(result, types.StageRead, fmt.Errorf("%w: %w", types.ErrSourceUnavailable, err))
	}

	// =========================================================================
	// STEP 2: PARSE AND NORMALIZE
	// =========================================================================

	rep, err := report.Parse(data)
	if err != nil {
		return c.fail(result, types.StageNormalize, err)
	}
	invoices := report.Normalize(rep)
	c.logger.Debug("normalized report",
		zap.String("period", rep.ReturnPeriod),
		zap.Int("suppliers", len(rep.Suppliers)),
		zap.Int("invoices", len(invoices)))

	// =========================================================================
	// STEP 3: DERIVE LEDGERS
	// =========================================================================

	defs, stats := derive(invoices)
	c.logger.Debug("derived ledgers", zap.Int("ledgers", len(defs)))

	// =========================================================================
	// STEP 4: RENDER
	// =========================================================================

	outputs, err := c.render(rep.ReturnPeriod, invoices, defs)
	if err != nil {
		return c.fail(result, types.StageRender, err)
	}

	// =========================================================================
	// STEP 5: WRITE
	// =========================================================================

	if err := writeAll(ctx, c.store, outputs); err != nil {
		return c.fail(result, types.StageWrite, err)
	}

	result.OutputFile = outputs[0].location
	for _, out := range outputs[1:] {
		switch {
		case strings.HasSuffix(out.location, InvoicesSuffix):
			result.InvoicesFile = out.location
		case strings.HasSuffix(out.location, RegisterSuffix):
			result.RegisterFile = out.location
		}
	}

	// =========================================================================
	// STEP 6: ARCHIVE
	// =========================================================================
	// Archival problems are logged; the outputs are already in place.

	if c.config.ArchiveInputs {
		result.ArchivePath = c.archive(ctx, outputs[0])
	}

	result.Success = true
	stats.ProcessingTime = time.Since(startTime)
	result.Stats = stats

	c.logger.Info("wrote masters",
		zap.String("output", result.OutputFile),
		zap.Int("invoices", stats.InvoicesProcessed),
		zap.Int("ledgers", stats.LedgersEmitted),
		zap.Duration("elapsed", stats.ProcessingTime))

	return result
}

// fail records a stage failure on result.
func (c *Converter) fail(result Result, stage types.Stage, err error) Result {
	result.Error = types.NewStageError(stage, c.source, err)
	c.logger.Error("conversion failed", zap.String("stage", string(stage)), zap.Error(err))
	return result
}

// render builds the masters document and the configured companions.
// The masters document is always first.
func (c *Converter) render(period string, invoices []invoice.Invoice, defs []ledger.Definition) ([]artifact, error) {
	opts := xmlwriter.DefaultGenerateOptions(c.config.CompanyName)
	opts.Indent = c.config.Indent

	doc, err := xmlwriter.GenerateWithOptions(defs, opts)
	if err != nil {
		return nil, err
	}

	location := c.outputLocation(period)
	outputs := []artifact{{location: location, data: doc}}

	if c.config.WriteInvoices {
		data, err := invoice.Encode(invoices)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", types.ErrRenderFailure, err)
		}
		outputs = append(outputs, artifact{
			location: utils.CompanionFileName(location, InvoicesSuffix),
			data:     data,
		})
	}

	if c.config.WriteRegister {
		data, err := register.Bytes(invoices, defs)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", types.ErrRenderFailure, err)
		}
		outputs = append(outputs, artifact{
			location: utils.CompanionFileName(location, RegisterSuffix),
			data:     data,
		})
	}

	return outputs, nil
}

// outputLocation returns the explicit output or a generated name in the
// output directory.
func (c *Converter) outputLocation(period string) string {
	if c.output != "" {
		return c.output
	}
	name := utils.GenerateOutputFileName(c.config.OutputFormat, map[string]string{
		"source": utils.SourceName(c.source),
		"period": period,
	})
	return storage.Join(c.config.OutputDir, name)
}

// archive moves a local report to the input archive and stores a copy of
// the masters document in the output archive. It returns the report's
// archive path, or "" if it was not moved.
func (c *Converter) archive(ctx context.Context, masters artifact) string {
	archived := ""
	if storage.IsS3URI(c.source) {
		c.logger.Debug("leaving remote report in place")
	} else if path, err := c.files.ArchiveInputFile(c.source); err != nil {
		c.logger.Warn("failed to archive report", zap.Error(err))
	} else {
		archived = path
	}

	copyLocation := c.files.OutputArchivePath(masters.location)
	if err := c.store.Write(ctx, copyLocation, masters.data); err != nil {
		c.logger.Warn("failed to archive output", zap.String("output", masters.location), zap.Error(err))
	}

	return archived
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// derive runs one ledger session over invoices.
func derive(invoices []invoice.Invoice) ([]ledger.Definition, ProcessingStats) {
	session := ledger.NewSession()
	suppliers := make(map[string]struct{})
	for _, inv := range invoices {
		session.Apply(inv)
		suppliers[inv.SupplierName] = struct{}{}
	}

	set := session.Set()
	return set.Definitions(), ProcessingStats{
		InvoicesProcessed: session.Invoices(),
		Suppliers:         len(suppliers),
		LedgersEmitted:    set.Len(),
		LedgersByKind:     set.CountByKind(),
	}
}

// writeAll writes every artifact in order. If one write fails, the ones
// already written are deleted so the run leaves no partial output.
func writeAll(ctx context.Context, store storage.Store, outputs []artifact) error {
	for i, out := range outputs {
		if err := store.Write(ctx, out.location, out.data); err != nil {
			for _, written := range outputs[:i] {
				// The write error is the one reported.
				_ = store.Delete(ctx, written.location)
			}
			return fmt.Errorf("%w: %w", types.ErrRenderFailure, err)
		}
	}
	return nil
}
