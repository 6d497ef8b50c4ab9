// Package ledger derives the chart-of-accounts entries needed to import a
// batch of purchase invoices into Tally.
package ledger

import "fmt"

// Kind tags what a ledger is for. Rendering branches on it.
type Kind int

const (
	KindSeed Kind = iota
	KindParty
	KindPurchase
	KindTaxInput
)

func (k Kind) String() string {
	switch k {
	case KindSeed:
		return "seed"
	case KindParty:
		return "party"
	case KindPurchase:
		return "purchase"
	case KindTaxInput:
		return "tax input"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Group is a predefined Tally parent group.
type Group string

const (
	GroupIndirectExpenses Group = "Indirect Expenses"
	GroupSundryCreditors  Group = "Sundry Creditors"
	GroupPurchaseAccounts Group = "Purchase Accounts"
	GroupDutiesAndTaxes   Group = "Duties & Taxes"
)

// TaxHead is the GST duty head of a tax ledger.
type TaxHead string

const (
	TaxHeadIntegrated TaxHead = "Integrated Tax"
	TaxHeadCentral    TaxHead = "Central Tax"
	TaxHeadState      TaxHead = "State Tax"
)

// RoundOffName is the ledger seeded into every set.
const RoundOffName = "Round Off"

// Definition is one ledger to create. Definitions are values; once added to
// a Set they are never modified.
type Definition struct {
	Name    string
	Kind    Kind
	Parent  Group
	TaxHead TaxHead // set only for KindTaxInput
	Rate    int64   // whole percent, set for KindPurchase and KindTaxInput
}

// BillWise reports whether the ledger tracks balances bill by bill.
func (d Definition) BillWise() bool {
	return d.Parent == GroupSundryCreditors
}

// IsTaxLedger reports whether the ledger carries a GST classification.
func (d Definition) IsTaxLedger() bool {
	return d.Kind == KindTaxInput
}

// Seed returns the Round Off ledger.
func Seed() Definition {
	return Definition{Name: RoundOffName, Kind: KindSeed, Parent: GroupIndirectExpenses}
}

// Party returns the creditor ledger of a supplier.
func Party(supplier string) Definition {
	return Definition{Name: supplier, Kind: KindParty, Parent: GroupSundryCreditors}
}

// InterstatePurchase returns the purchase ledger for an IGST rate.
func InterstatePurchase(rate int64) Definition {
	return Definition{
		Name:   fmt.Sprintf("Interstate Purchase %d%%", rate),
		Kind:   KindPurchase,
		Parent: GroupPurchaseAccounts,
		Rate:   rate,
	}
}

// LocalPurchase returns the purchase ledger for a combined CGST+SGST rate.
func LocalPurchase(rate int64) Definition {
	return Definition{
		Name:   fmt.Sprintf("Local Purchase %d%%", rate),
		Kind:   KindPurchase,
		Parent: GroupPurchaseAccounts,
		Rate:   rate,
	}
}

// InputIGST returns the integrated tax input ledger for a rate.
func InputIGST(rate int64) Definition {
	return taxInput("Input IGST", TaxHeadIntegrated, rate)
}

// InputCGST returns the central tax input ledger for a rate.
func InputCGST(rate int64) Definition {
	return taxInput("Input CGST", TaxHeadCentral, rate)
}

// InputSGST returns the state tax input ledger for a rate.
func InputSGST(rate int64) Definition {
	return taxInput("Input SGST", TaxHeadState, rate)
}

func taxInput(prefix string, head TaxHead, rate int64) Definition {
	return Definition{
		Name:    fmt.Sprintf("%s %d%%", prefix, rate),
		Kind:    KindTaxInput,
		Parent:  GroupDutiesAndTaxes,
		TaxHead: head,
		Rate:    rate,
	}
}
