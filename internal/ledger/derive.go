package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/gstr2b-tally-masters/internal/invoice"
)

var hundred = decimal.NewFromInt(100)

// Session derives ledgers for one run. It owns its Set; sessions share no
// state, so concurrent runs each use their own.
type Session struct {
	set      *Set
	invoices int
}

// NewSession returns a session whose set already holds the Round Off ledger.
func NewSession() *Session {
	s := &Session{set: NewSet()}
	s.set.Add(Seed())
	return s
}

// Apply adds the ledgers required by inv. Invoices must be applied in input
// order for the output order to be first-seen order.
func (s *Session) Apply(inv invoice.Invoice) {
	s.invoices++

	s.set.Add(Party(inv.SupplierName))

	if rate, ok := InterstateRate(inv); ok {
		s.set.Add(InterstatePurchase(rate))
		s.set.Add(InputIGST(rate))
	}

	if combined, half, ok := LocalRate(inv); ok {
		s.set.Add(LocalPurchase(combined))
		s.set.Add(InputCGST(half))
		s.set.Add(InputSGST(half))
	}
}

// Invoices returns how many invoices were applied.
func (s *Session) Invoices() int {
	return s.invoices
}

// Set returns the session's ledger set.
func (s *Session) Set() *Set {
	return s.set
}

// Derive runs a fresh session over invoices.
func Derive(invoices []invoice.Invoice) *Set {
	s := NewSession()
	for _, inv := range invoices {
		s.Apply(inv)
	}
	return s.Set()
}

// InterstateRate returns round(igst / taxable * 100) when both amounts are
// positive.
func InterstateRate(inv invoice.Invoice) (int64, bool) {
	if !inv.IGSTAmount.IsPositive() || !inv.TaxableValue.IsPositive() {
		return 0, false
	}
	return percent(inv.IGSTAmount, inv.TaxableValue), true
}

// LocalRate returns the combined CGST+SGST percentage and its floor half
// when CGST, SGST and the taxable value are all positive.
func LocalRate(inv invoice.Invoice) (combined, half int64, ok bool) {
	if !inv.CGSTAmount.IsPositive() || !inv.SGSTAmount.IsPositive() || !inv.TaxableValue.IsPositive() {
		return 0, 0, false
	}
	combined = percent(inv.CGSTAmount.Add(inv.SGSTAmount), inv.TaxableValue)
	return combined, combined / 2, true
}

// percent rounds tax/taxable*100 to a whole number, half away from zero.
// taxable must be positive.
func percent(tax, taxable decimal.Decimal) int64 {
	return tax.Mul(hundred).Div(taxable).Round(0).IntPart()
}
