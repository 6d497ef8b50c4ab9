// =============================================================================
// GSTR-2B to Tally Masters - Invoice Register Workbook
// =============================================================================
//
// This module builds an XLSX register alongside the masters document so the
// derived ledgers can be reviewed against the invoices that produced them.
//
// WORKBOOK STRUCTURE:
//
//   Sheet "Invoices": one row per normalized invoice
//   | Supplier | GSTIN | Date | Invoice No | Return Period | Taxable | IGST | CGST | SGST | Total |
//
//   Sheet "Ledgers": one row per ledger, in output order
//   | Name | Kind | Parent | Bill-wise | Tax Head | Rate % |
//
// =============================================================================

package register

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/gstr2b-tally-masters/internal/invoice"
	"github.com/ginjaninja78/gstr2b-tally-masters/internal/ledger"
)

// Sheet names.
const (
	InvoicesSheet = "Invoices"
	LedgersSheet  = "Ledgers"
)

var (
	invoiceHeader = []interface{}{
		"Supplier", "GSTIN", "Date", "Invoice No", "Return Period",
		"Taxable", "IGST", "CGST", "SGST", "Total",
	}
	ledgerHeader = []interface{}{
		"Name", "Kind", "Parent", "Bill-wise", "Tax Head", "Rate %",
	}
)

// Build creates the register workbook. The caller owns the returned file
// and should Close it.
func Build(invoices []invoice.Invoice, defs []ledger.Definition) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", InvoicesSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(LedgersSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeInvoices(f, invoices, header); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeLedgers(f, defs, header); err != nil {
		f.Close()
		return nil, err
	}

	return f, nil
}

// Bytes builds the register and serializes it.
func Bytes(invoices []invoice.Invoice, defs []ledger.Definition) ([]byte, error) {
	f, err := Build(invoices, defs)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize register: %w", err)
	}
	return buf.Bytes(), nil
}

func writeInvoices(f *excelize.File, invoices []invoice.Invoice, header int) error {
	rows := make([][]interface{}, 0, len(invoices))
	for _, inv := range invoices {
		rows = append(rows, []interface{}{
			inv.SupplierName,
			inv.SupplierGSTIN,
			inv.Date,
			inv.InvoiceNumber,
			inv.ReturnPeriod,
			inv.TaxableValue.InexactFloat64(),
			inv.IGSTAmount.InexactFloat64(),
			inv.CGSTAmount.InexactFloat64(),
			inv.SGSTAmount.InexactFloat64(),
			inv.TotalValue.InexactFloat64(),
		})
	}
	return writeSheet(f, InvoicesSheet, invoiceHeader, rows, header)
}

func writeLedgers(f *excelize.File, defs []ledger.Definition, header int) error {
	rows := make([][]interface{}, 0, len(defs))
	for _, def := range defs {
		var rate interface{} = ""
		if def.Kind == ledger.KindPurchase || def.Kind == ledger.KindTaxInput {
			rate = def.Rate
		}
		billWise := "No"
		if def.BillWise() {
			billWise = "Yes"
		}
		rows = append(rows, []interface{}{
			def.Name,
			def.Kind.String(),
			string(def.Parent),
			billWise,
			string(def.TaxHead),
			rate,
		})
	}
	return writeSheet(f, LedgersSheet, ledgerHeader, rows, header)
}

// writeSheet writes a bold header row, the data rows below it, and freezes
// the header.
func writeSheet(f *excelize.File, sheet string, columns []interface{}, rows [][]interface{}, style int) error {
	if err := f.SetSheetRow(sheet, "A1", &columns); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}

	last, err := excelize.CoordinatesToCellName(len(columns), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
