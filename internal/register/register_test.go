package register

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/gstr2b-tally-masters/internal/invoice"
	"github.com/ginjaninja78/gstr2b-tally-masters/internal/ledger"
)

func TestBytes_RoundTripsThroughExcelize(t *testing.T) {
	invoices := []invoice.Invoice{{
		SupplierName:  "Acme Traders",
		SupplierGSTIN: "29ABCDE1234F1Z5",
		Date:          "01-04-2024",
		InvoiceNumber: "INV-1",
		ReturnPeriod:  "042024",
		TaxableValue:  decimal.RequireFromString("1000.5"),
		IGSTAmount:    decimal.RequireFromString("180"),
		CGSTAmount:    decimal.Zero,
		SGSTAmount:    decimal.Zero,
		TotalValue:    decimal.RequireFromString("1180.5"),
	}}
	defs := ledger.Derive(invoices).Definitions()

	data, err := Bytes(invoices, defs)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{InvoicesSheet, LedgersSheet}, f.GetSheetList())

	rows, err := f.GetRows(InvoicesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Supplier", rows[0][0])
	assert.Equal(t, "Total", rows[0][9])
	assert.Equal(t, []string{
		"Acme Traders", "29ABCDE1234F1Z5", "01-04-2024", "INV-1", "042024",
		"1000.5", "180", "0", "0", "1180.5",
	}, rows[1])

	rows, err = f.GetRows(LedgersSheet)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"Name", "Kind", "Parent", "Bill-wise", "Tax Head", "Rate %"}, rows[0])
	assert.Equal(t, []string{"Round Off", "seed", "Indirect Expenses", "No"}, rows[1][:4])
	assert.Equal(t, []string{"Acme Traders", "party", "Sundry Creditors", "Yes"}, rows[2][:4])
	assert.Equal(t, "Interstate Purchase 18%", rows[3][0])
	assert.Equal(t, "18", rows[3][5])
	assert.Equal(t, []string{"Input IGST 18%", "tax input", "Duties & Taxes", "No", "Integrated Tax", "18"}, rows[4])
}

func TestBuild_Empty(t *testing.T) {
	f, err := Build(nil, nil)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(LedgersSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "header only")
}
