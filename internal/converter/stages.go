package converter

import (
	"context"
	"fmt"
	"time"

	"github.com/ginjaninja78/gstr2b-tally-masters/internal/invoice"
	"github.com/ginjaninja78/gstr2b-tally-masters/internal/report"
	"github.com/ginjaninja78/gstr2b-tally-masters/internal/storage"
	"github.com/ginjaninja78/gstr2b-tally-masters/internal/types"
	"github.com/ginjaninja78/gstr2b-tally-masters/internal/xmlwriter"
)

// The two halves of the pipeline, run separately: a report is normalized to
// the intermediate invoices document, which can be reviewed or edited before
// the masters document is generated from it.

// NormalizeFile reads the report at in and writes its normalized invoices
// to out. It returns the number of invoices written.
func NormalizeFile(ctx context.Context, store storage.Store, in, out string) (int, error) {
	data, err := store.Read(ctx, in)
	if err != nil {
		return 0, types.NewStageError(types.StageRead, in, fmt.Errorf("%w: %w", types.ErrSourceUnavailable, err))
	}

	rep, err := report.Parse(data)
	if err != nil {
		return 0, types.NewStageError(types.StageNormalize, in, err)
	}
	invoices := report.Normalize(rep)

	encoded, err := invoice.Encode(invoices)
	if err != nil {
		return 0, types.NewStageError(types.StageRender, in, fmt.Errorf("%w: %w", types.ErrRenderFailure, err))
	}

	if err := writeAll(ctx, store, []artifact{{location: out, data: encoded}}); err != nil {
		return 0, types.NewStageError(types.StageWrite, in, err)
	}
	return len(invoices), nil
}

// MastersFile reads the intermediate invoices document at in, derives the
// ledger set and writes the masters document to out.
func MastersFile(ctx context.Context, store storage.Store, in, out string, opts xmlwriter.GenerateOptions) (ProcessingStats, error) {
	startTime := time.Now()

	data, err := store.Read(ctx, in)
	if err != nil {
		return ProcessingStats{}, types.NewStageError(types.StageRead, in, fmt.Errorf("%w: %w", types.ErrSourceUnavailable, err))
	}

	invoices, err := invoice.Decode(data)
	if err != nil {
		return ProcessingStats{}, types.NewStageError(types.StageNormalize, in, err)
	}

	defs, stats := derive(invoices)

	doc, err := xmlwriter.GenerateWithOptions(defs, opts)
	if err != nil {
		return ProcessingStats{}, types.NewStageError(types.StageRender, in, err)
	}

	if err := writeAll(ctx, store, []artifact{{location: out, data: doc}}); err != nil {
		return ProcessingStats{}, types.NewStageError(types.StageWrite, in, err)
	}

	stats.ProcessingTime = time.Since(startTime)
	return stats, nil
}
