package report

import "github.com/ginjaninja78/gstr2b-tally-masters/internal/invoice"

// Normalize flattens the report into one invoice per filed invoice, in
// document order. Every record carries its supplier's name and GSTIN and the
// report's return period. No deduplication or tax computation happens here.
func Normalize(r *Report) []invoice.Invoice {
	invoices := make([]invoice.Invoice, 0, r.InvoiceCount())

	for _, s := range r.Suppliers {
		for _, e := range s.Invoices {
			invoices = append(invoices, invoice.Invoice{
				SupplierName:  s.Name,
				SupplierGSTIN: s.GSTIN,
				Date:          e.Date,
				InvoiceNumber: e.Number,
				ReturnPeriod:  r.ReturnPeriod,
				TaxableValue:  e.TaxableValue,
				IGSTAmount:    e.IGST,
				CGSTAmount:    e.CGST,
				SGSTAmount:    e.SGST,
				TotalValue:    e.TotalValue,
			})
		}
	}

	return invoices
}
