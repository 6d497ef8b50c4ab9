package converter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ginjaninja78/gstr2b-tally-masters/internal/config"
	"github.com/ginjaninja78/gstr2b-tally-masters/internal/invoice"
	"github.com/ginjaninja78/gstr2b-tally-masters/internal/ledger"
	"github.com/ginjaninja78/gstr2b-tally-masters/internal/storage"
	"github.com/ginjaninja78/gstr2b-tally-masters/internal/types"
	"github.com/ginjaninja78/gstr2b-tally-masters/internal/xmlwriter"
)

const sampleReport = `{
  "data": {
    "rtnprd": "102025",
    "docdata": {
      "b2b": [
        {
          "trdnm": "Acme Traders",
          "ctin": "07AAACA1234A1Z5",
          "inv": [
            {"dt": "05-10-2025", "inum": "INV-1", "txval": 1000, "igst": 180, "val": 1180},
            {"dt": "09-10-2025", "inum": "INV-2", "txval": 500, "igst": 90, "val": 590}
          ]
        },
        {
          "trdnm": "Local Supplies",
          "ctin": "07BBBCB5678B1Z3",
          "inv": [
            {"dt": "12-10-2025", "inum": "LS/77", "txval": "1000.00", "cgst": 90, "sgst": 90, "val": 1180}
          ]
        }
      ]
    }
  }
}`

type fixture struct {
	dir    string
	source string
	cfg    *config.MainConfig
}

func newFixture(t *testing.T, report string) fixture {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.CompanyName = "Test Company"
	cfg.InputDir = filepath.Join(dir, "input")
	cfg.OutputDir = filepath.Join(dir, "output")
	cfg.InputArchiveDir = filepath.Join(dir, "input_archive")
	cfg.OutputArchiveDir = filepath.Join(dir, "output_archive")
	cfg.OutputFormat = "{source}_{period}.xml"
	require.NoError(t, os.MkdirAll(cfg.InputDir, 0755))

	source := filepath.Join(cfg.InputDir, "gstr2b.json")
	require.NoError(t, os.WriteFile(source, []byte(report), 0644))

	return fixture{dir: dir, source: source, cfg: cfg}
}

func outputFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRun_Success(t *testing.T) {
	f := newFixture(t, sampleReport)
	f.cfg.WriteInvoices = true
	f.cfg.WriteRegister = true

	result := New(f.source, f.cfg, storage.NewLocalStore(), zaptest.NewLogger(t)).Run(context.Background())
	require.NoError(t, result.Error)
	require.True(t, result.Success)

	assert.Equal(t, filepath.Join(f.cfg.OutputDir, "gstr2b_102025.xml"), result.OutputFile)
	assert.Equal(t, filepath.Join(f.cfg.OutputDir, "gstr2b_102025_invoices.json"), result.InvoicesFile)
	assert.Equal(t, filepath.Join(f.cfg.OutputDir, "gstr2b_102025_register.xlsx"), result.RegisterFile)
	assert.ElementsMatch(t, []string{
		"gstr2b_102025.xml", "gstr2b_102025_invoices.json", "gstr2b_102025_register.xlsx",
	}, outputFiles(t, f.cfg.OutputDir))

	stats := result.Stats
	assert.Equal(t, 3, stats.InvoicesProcessed)
	assert.Equal(t, 2, stats.Suppliers)
	assert.Equal(t, 8, stats.LedgersEmitted)
	assert.Equal(t, 1, stats.LedgersByKind[ledger.KindSeed])
	assert.Equal(t, 2, stats.LedgersByKind[ledger.KindParty])
	assert.Equal(t, 2, stats.LedgersByKind[ledger.KindPurchase])
	assert.Equal(t, 3, stats.LedgersByKind[ledger.KindTaxInput])
	assert.Equal(t, "processed 3 invoice(s), emitted 8 ledger(s)", stats.Summary())

	doc, err := os.ReadFile(result.OutputFile)
	require.NoError(t, err)
	text := string(doc)
	assert.Contains(t, text, "<SVCURRENTCOMPANY>Test Company</SVCURRENTCOMPANY>")
	assert.Equal(t, 8, strings.Count(text, "<TALLYMESSAGE "))
	for _, name := range []string{
		"Round Off", "Acme Traders", "Interstate Purchase 18%", "Input IGST 18%",
		"Local Supplies", "Local Purchase 18%", "Input CGST 9%", "Input SGST 9%",
	} {
		assert.Contains(t, text, "<NAME>"+name+"</NAME>")
	}

	data, err := os.ReadFile(result.InvoicesFile)
	require.NoError(t, err)
	invoices, err := invoice.Decode(data)
	require.NoError(t, err)
	require.Len(t, invoices, 3)
	assert.Equal(t, "LS/77", invoices[2].InvoiceNumber)

	// Archiving is off, the report stays put.
	assert.FileExists(t, f.source)
	assert.Empty(t, result.ArchivePath)
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name   string
		report string
		setup  func(f *fixture)
		stage  types.Stage
		kind   error
	}{
		{
			name:   "missing source",
			report: sampleReport,
			setup:  func(f *fixture) { require.NoError(t, os.Remove(f.source)) },
			stage:  types.StageRead,
			kind:   types.ErrSourceUnavailable,
		},
		{
			name:   "not json",
			report: "not json at all",
			stage:  types.StageNormalize,
			kind:   types.ErrMalformedSource,
		},
		{
			name:   "missing docdata",
			report: `{"data": {"rtnprd": "102025"}}`,
			stage:  types.StageNormalize,
			kind:   types.ErrMalformedSource,
		},
		{
			name:   "non-numeric amount",
			report: `{"data": {"docdata": {"b2b": [{"trdnm": "A", "inv": [{"txval": "abc"}]}]}}}`,
			stage:  types.StageNormalize,
			kind:   types.ErrInvalidFieldValue,
		},
		{
			name:   "unrenderable company",
			report: sampleReport,
			setup:  func(f *fixture) { f.cfg.CompanyName = "Bad\x01Co" },
			stage:  types.StageRender,
			kind:   types.ErrRenderFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.report)
			f.cfg.WriteInvoices = true
			if tt.setup != nil {
				tt.setup(&f)
			}

			result := New(f.source, f.cfg, storage.NewLocalStore(), nil).Run(context.Background())
			require.Error(t, result.Error)
			assert.False(t, result.Success)
			assert.Empty(t, result.OutputFile)
			assert.True(t, errors.Is(result.Error, tt.kind), "got %v", result.Error)
			assert.Equal(t, tt.stage, types.StageOf(result.Error))
			assert.Empty(t, outputFiles(t, f.cfg.OutputDir), "no partial output")
		})
	}
}

// failingStore fails every write whose location has the given suffix.
type failingStore struct {
	storage.Store
	suffix string
}

func (s *failingStore) Write(ctx context.Context, location string, data []byte) error {
	if strings.HasSuffix(location, s.suffix) {
		return errors.New("disk full")
	}
	return s.Store.Write(ctx, location, data)
}

func TestRun_WriteFailureRemovesEarlierOutputs(t *testing.T) {
	f := newFixture(t, sampleReport)
	f.cfg.WriteInvoices = true
	f.cfg.WriteRegister = true

	store := &failingStore{Store: storage.NewLocalStore(), suffix: RegisterSuffix}
	result := New(f.source, f.cfg, store, nil).Run(context.Background())

	require.Error(t, result.Error)
	assert.Equal(t, types.StageWrite, types.StageOf(result.Error))
	assert.True(t, errors.Is(result.Error, types.ErrRenderFailure))
	assert.Contains(t, result.Error.Error(), "disk full")
	assert.Empty(t, outputFiles(t, f.cfg.OutputDir))
	assert.FileExists(t, f.source)
}

func TestRun_ExplicitOutputAndArchive(t *testing.T) {
	f := newFixture(t, sampleReport)
	f.cfg.ArchiveInputs = true
	f.cfg.WriteInvoices = true
	out := filepath.Join(f.dir, "custom", "masters.xml")

	result := New(f.source, f.cfg, storage.NewLocalStore(), nil).WithOutput(out).Run(context.Background())
	require.NoError(t, result.Error)

	assert.Equal(t, out, result.OutputFile)
	assert.Equal(t, filepath.Join(f.dir, "custom", "masters_invoices.json"), result.InvoicesFile)
	assert.FileExists(t, out)

	assert.Equal(t, filepath.Join(f.cfg.InputArchiveDir, "gstr2b.json"), result.ArchivePath)
	assert.NoFileExists(t, f.source)
	assert.FileExists(t, result.ArchivePath)
	assert.FileExists(t, filepath.Join(f.cfg.OutputArchiveDir, "masters.xml"))
}

func TestRun_EmptyReportEmitsRoundOffOnly(t *testing.T) {
	f := newFixture(t, `{"data": {"rtnprd": "042024", "docdata": {}}}`)

	result := New(f.source, f.cfg, storage.NewLocalStore(), nil).Run(context.Background())
	require.NoError(t, result.Error)
	assert.Equal(t, "processed 0 invoice(s), emitted 1 ledger(s)", result.Stats.Summary())
}

func TestRun_ConcurrentRunsAreIndependent(t *testing.T) {
	f := newFixture(t, sampleReport)
	other := filepath.Join(f.cfg.InputDir, "other.json")
	require.NoError(t, os.WriteFile(other,
		[]byte(`{"data": {"docdata": {"b2b": [{"trdnm": "Solo", "inv": [{"txval": 100, "igst": 5}]}]}}}`), 0644))

	store := storage.NewLocalStore()
	var wg sync.WaitGroup
	results := make([]Result, 2)
	for i, src := range []string{f.source, other} {
		wg.Add(1)
		go func(i int, src string) {
			defer wg.Done()
			results[i] = New(src, f.cfg, store, nil).Run(context.Background())
		}(i, src)
	}
	wg.Wait()

	require.NoError(t, results[0].Error)
	require.NoError(t, results[1].Error)
	assert.Equal(t, 8, results[0].Stats.LedgersEmitted)
	assert.Equal(t, 4, results[1].Stats.LedgersEmitted)
}

func TestNormalizeThenMasters_MatchesSingleRun(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, sampleReport)
	store := storage.NewLocalStore()

	intermediate := filepath.Join(f.dir, "invoices.json")
	n, err := NormalizeFile(ctx, store, f.source, intermediate)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	masters := filepath.Join(f.dir, "masters.xml")
	stats, err := MastersFile(ctx, store, intermediate, masters, xmlwriter.DefaultGenerateOptions("Test Company"))
	require.NoError(t, err)
	assert.Equal(t, 3, stats.InvoicesProcessed)
	assert.Equal(t, 8, stats.LedgersEmitted)

	result := New(f.source, f.cfg, store, nil).Run(ctx)
	require.NoError(t, result.Error)

	twoStep, err := os.ReadFile(masters)
	require.NoError(t, err)
	oneStep, err := os.ReadFile(result.OutputFile)
	require.NoError(t, err)
	assert.Equal(t, string(oneStep), string(twoStep))
}

func TestStageFunctions_Errors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := storage.NewLocalStore()

	_, err := NormalizeFile(ctx, store, filepath.Join(dir, "missing.json"), filepath.Join(dir, "out.json"))
	assert.True(t, errors.Is(err, types.ErrSourceUnavailable))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[{"taxable_value": 10}]`), 0644))
	_, err = MastersFile(ctx, store, bad, filepath.Join(dir, "m.xml"), xmlwriter.DefaultGenerateOptions("Co"))
	assert.True(t, errors.Is(err, types.ErrInvalidFieldValue), "supplier_name is required")
	assert.Equal(t, types.StageNormalize, types.StageOf(err))
	assert.NoFileExists(t, filepath.Join(dir, "m.xml"))
}
