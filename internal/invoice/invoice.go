// Package invoice holds the normalized purchase invoice record and the
// codec for the intermediate document that carries a list of them between
// the normalizer and the ledger engine.
package invoice

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/gstr2b-tally-masters/internal/types"
	"github.com/ginjaninja78/gstr2b-tally-masters/internal/validation"
)

// Invoice is one normalized invoice line of the authority report.
type Invoice struct {
	SupplierName  string
	SupplierGSTIN string
	Date          string
	InvoiceNumber string
	ReturnPeriod  string
	TaxableValue  decimal.Decimal
	IGSTAmount    decimal.Decimal
	CGSTAmount    decimal.Decimal
	SGSTAmount    decimal.Decimal
	TotalValue    decimal.Decimal
}

// record is the wire form of an Invoice with amounts as JSON numbers.
type record struct {
	SupplierName  string      `json:"supplier_name"`
	SupplierGSTIN string      `json:"supplier_gstin"`
	Date          string      `json:"date"`
	InvoiceNumber string      `json:"invoice_number"`
	ReturnPeriod  string      `json:"return_period"`
	TaxableValue  json.Number `json:"taxable_value"`
	IGSTAmount    json.Number `json:"igst_amount"`
	CGSTAmount    json.Number `json:"cgst_amount"`
	SGSTAmount    json.Number `json:"sgst_amount"`
	TotalValue    json.Number `json:"total_invoice_value"`
}

// Encode writes invoices as a JSON array indented by four spaces.
func Encode(invoices []Invoice) ([]byte, error) {
	records := make([]record, len(invoices))
	for i, inv := range invoices {
		records[i] = record{
			SupplierName:  inv.SupplierName,
			SupplierGSTIN: inv.SupplierGSTIN,
			Date:          inv.Date,
			InvoiceNumber: inv.InvoiceNumber,
			ReturnPeriod:  inv.ReturnPeriod,
			TaxableValue:  json.Number(inv.TaxableValue.String()),
			IGSTAmount:    json.Number(inv.IGSTAmount.String()),
			CGSTAmount:    json.Number(inv.CGSTAmount.String()),
			SGSTAmount:    json.Number(inv.SGSTAmount.String()),
			TotalValue:    json.Number(inv.TotalValue.String()),
		}
	}

	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encoding invoices: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode reads an intermediate document. supplier_name and taxable_value are
// required on every record; other amounts default to zero and other text
// fields to validation.NotAvailable.
func Decode(data []byte) ([]Invoice, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty invoice document", types.ErrMalformedSource)
	}

	var records []map[string]json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: invoice document is not a list of objects: %v", types.ErrMalformedSource, err)
	}

	var c validation.Collector
	invoices := make([]Invoice, 0, len(records))

	for i, rec := range records {
		loc := fmt.Sprintf("record %d", i+1)
		for _, key := range []string{"supplier_name", "taxable_value"} {
			if raw, ok := rec[key]; !ok || string(bytes.TrimSpace(raw)) == "null" {
				c.Add(loc, key, raw, "required field is missing", types.ErrInvalidFieldValue)
			}
		}

		invoices = append(invoices, Invoice{
			SupplierName:  c.Text(loc, "supplier_name", rec["supplier_name"]),
			SupplierGSTIN: c.Text(loc, "supplier_gstin", rec["supplier_gstin"]),
			Date:          c.Text(loc, "date", rec["date"]),
			InvoiceNumber: c.Text(loc, "invoice_number", rec["invoice_number"]),
			ReturnPeriod:  c.Text(loc, "return_period", rec["return_period"]),
			TaxableValue:  c.Amount(loc, "taxable_value", rec["taxable_value"]),
			IGSTAmount:    c.Amount(loc, "igst_amount", rec["igst_amount"]),
			CGSTAmount:    c.Amount(loc, "cgst_amount", rec["cgst_amount"]),
			SGSTAmount:    c.Amount(loc, "sgst_amount", rec["sgst_amount"]),
			TotalValue:    c.Amount(loc, "total_invoice_value", rec["total_invoice_value"]),
		})
	}

	if err := c.Err(); err != nil {
		return nil, err
	}
	return invoices, nil
}
