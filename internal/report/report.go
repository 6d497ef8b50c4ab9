// =============================================================================
// GSTR-2B to Tally Masters - Authority Report
// =============================================================================
//
// This module decodes the GSTR-2B return JSON issued by the tax authority and
// flattens its supplier-grouped B2B section into normalized invoices.
//
// INPUT STRUCTURE (only the keys read here):
//
//   {
//     "data": {
//       "rtnprd": "102025",
//       "docdata": {
//         "b2b": [
//           {
//             "trdnm": "Acme Traders",
//             "ctin":  "07AAACA1234A1Z5",
//             "inv": [
//               {"dt": "05-10-2025", "inum": "INV-1",
//                "txval": 1000, "igst": 180, "cgst": 0, "sgst": 0, "val": 1180}
//             ]
//           }
//         ]
//       }
//     }
//   }
//
// SHAPE RULES:
//   - "data" and "data.docdata" must be objects (MalformedSource otherwise)
//   - "b2b" and "inv" may be absent; absence means no invoices
//   - missing text leaves become "N/A", missing amounts become zero
//   - non-numeric amounts fail the whole parse (InvalidFieldValue)
//
// =============================================================================

package report

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/gstr2b-tally-masters/internal/types"
	"github.com/ginjaninja78/gstr2b-tally-masters/internal/validation"
)

// =============================================================================
// REPORT STRUCTURE
// =============================================================================

// Report is the decoded B2B part of a GSTR-2B return.
type Report struct {
	// ReturnPeriod is the filing period, e.g. "102025" (MMYYYY).
	ReturnPeriod string

	// Suppliers holds the supplier groups in document order.
	Suppliers []Supplier
}

// Supplier is one counterparty of the B2B section.
type Supplier struct {
	Name     string
	GSTIN    string
	Invoices []Entry
}

// Entry is one invoice as filed by the supplier.
type Entry struct {
	Date         string
	Number       string
	TaxableValue decimal.Decimal
	IGST         decimal.Decimal
	CGST         decimal.Decimal
	SGST         decimal.Decimal
	TotalValue   decimal.Decimal
}

// InvoiceCount returns the number of invoices across all suppliers.
func (r *Report) InvoiceCount() int {
	n := 0
	for _, s := range r.Suppliers {
		n += len(s.Invoices)
	}
	return n
}

// =============================================================================
// RAW JSON STRUCTURE
// =============================================================================

type rawRoot struct {
	Data json.RawMessage `json:"data"`
}

type rawData struct {
	ReturnPeriod json.RawMessage `json:"rtnprd"`
	DocData      json.RawMessage `json:"docdata"`
}

type rawDocData struct {
	B2B []rawSupplier `json:"b2b"`
}

type rawSupplier struct {
	TradeName json.RawMessage `json:"trdnm"`
	GSTIN     json.RawMessage `json:"ctin"`
	Invoices  []rawInvoice    `json:"inv"`
}

type rawInvoice struct {
	Date    json.RawMessage `json:"dt"`
	Number  json.RawMessage `json:"inum"`
	Taxable json.RawMessage `json:"txval"`
	IGST    json.RawMessage `json:"igst"`
	CGST    json.RawMessage `json:"cgst"`
	SGST    json.RawMessage `json:"sgst"`
	Value   json.RawMessage `json:"val"`
}

// =============================================================================
// PARSING
// =============================================================================

// Parse decodes a GSTR-2B document.
//
// RETURNS:
//   - The decoded report.
//   - An error wrapping types.ErrMalformedSource when the document shape is
//     wrong, or types.ErrInvalidFieldValue when an amount is not numeric.
func Parse(data []byte) (*Report, error) {
	var root rawRoot
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: report is not a JSON object: %v", types.ErrMalformedSource, err)
	}

	var body rawData
	if err := decodeObject(root.Data, "data", &body); err != nil {
		return nil, err
	}

	var docs rawDocData
	if err := decodeObject(body.DocData, "data.docdata", &docs); err != nil {
		return nil, err
	}

	var c validation.Collector
	report := &Report{
		ReturnPeriod: c.Text("data", "rtnprd", body.ReturnPeriod),
		Suppliers:    make([]Supplier, 0, len(docs.B2B)),
	}

	for i, rs := range docs.B2B {
		loc := fmt.Sprintf("b2b[%d]", i)
		supplier := Supplier{
			Name:     c.Text(loc, "trdnm", rs.TradeName),
			GSTIN:    c.Text(loc, "ctin", rs.GSTIN),
			Invoices: make([]Entry, 0, len(rs.Invoices)),
		}

		for j, ri := range rs.Invoices {
			invLoc := fmt.Sprintf("%s.inv[%d]", loc, j)
			supplier.Invoices = append(supplier.Invoices, Entry{
				Date:         c.Text(invLoc, "dt", ri.Date),
				Number:       c.Text(invLoc, "inum", ri.Number),
				TaxableValue: c.Amount(invLoc, "txval", ri.Taxable),
				IGST:         c.Amount(invLoc, "igst", ri.IGST),
				CGST:         c.Amount(invLoc, "cgst", ri.CGST),
				SGST:         c.Amount(invLoc, "sgst", ri.SGST),
				TotalValue:   c.Amount(invLoc, "val", ri.Value),
			})
		}

		report.Suppliers = append(report.Suppliers, supplier)
	}

	if err := c.Err(); err != nil {
		return nil, err
	}

	return report, nil
}

// decodeObject unmarshals a required nested object.
func decodeObject(raw json.RawMessage, path string, v interface{}) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return fmt.Errorf("%w: required path %q is missing", types.ErrMalformedSource, path)
	}
	if raw[0] != '{' {
		return fmt.Errorf("%w: %q is not an object", types.ErrMalformedSource, path)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %q has an unexpected shape: %v", types.ErrMalformedSource, path, err)
	}
	return nil
}
