package matcher

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmdatafocus/gst_backend/config"
)

// MatchStatus is the confidence tier a matched pair was found on.
type MatchStatus string

const (
	MatchExact     MatchStatus = "Exact Match"
	MatchSuggested MatchStatus = "Suggested Match"
	MatchMismatch  MatchStatus = "Mismatch"
	MatchResidual  MatchStatus = "Residual Match"
)

// Invoice is the comparison shape shared by both sides: a purchase
// invoice from books or a supplier-reported inward supply.
type Invoice struct {
	ID            uint
	SupplierGstin string
	BillNumber    string
	BillDate      time.Time
	TaxableValue  decimal.Decimal
	IgstAmount    decimal.Decimal
	CgstAmount    decimal.Decimal
	SgstAmount    decimal.Decimal
	CessAmount    decimal.Decimal
}

// TotalTax is the summed tax used by amount comparators and by the
// residual tier's monthly pre-check.
func (inv *Invoice) TotalTax() decimal.Decimal {
	return inv.IgstAmount.Add(inv.CgstAmount).Add(inv.SgstAmount).Add(inv.CessAmount)
}

// SupplierPan collapses related GSTINs of one legal entity: the
// trailing state/checksum suffix is dropped.
func (inv *Invoice) SupplierPan() string {
	if len(inv.SupplierGstin) < 10 {
		return inv.SupplierGstin
	}
	return inv.SupplierGstin[:10]
}

// MatchResult links one purchase invoice to one inward supply.
type MatchResult struct {
	Purchase     *Invoice
	InwardSupply *Invoice
	MatchStatus  MatchStatus
}

type billComparator int

const (
	billExact billComparator = iota
	billFuzzy
	billIgnored
)

type amountComparator int

const (
	amountExact amountComparator = iota
	amountRounding
)

// rule is one tier of the cascade. Rules run strictly in order: every
// remaining pair is tested against a rule before the next rule starts,
// and a matched pair leaves both pools immediately.
type rule struct {
	status   MatchStatus
	bill     billComparator
	amount   amountComparator
	residual bool
}

var cascade = []rule{
	{status: MatchExact, bill: billExact, amount: amountExact},
	{status: MatchSuggested, bill: billFuzzy, amount: amountExact},
	{status: MatchSuggested, bill: billExact, amount: amountRounding},
	{status: MatchMismatch, bill: billFuzzy, amount: amountRounding},
	{status: MatchResidual, bill: billIgnored, amount: amountRounding, residual: true},
}

// Matcher pairs purchase invoices with inward supplies through a
// GSTIN-tier then PAN-tier rule cascade. An invoice matching no rule
// simply stays unmatched; that is normal output, not an error.
type Matcher struct {
	settings config.MatcherSettings
}

func New(settings config.MatcherSettings) *Matcher {
	return &Matcher{settings: settings}
}

// Match runs the full cascade. Returned results are exclusive both
// ways: no invoice on either side appears in more than one pair.
// Unmatched leftovers of both pools are returned for manual review.
func (m *Matcher) Match(purchases, supplies []*Invoice) (results []MatchResult, unmatchedPurchases, unmatchedSupplies []*Invoice) {
	matchedPurchases := make(map[*Invoice]bool)
	matchedSupplies := make(map[*Invoice]bool)

	keyFuncs := []func(*Invoice) string{
		func(inv *Invoice) string { return inv.SupplierGstin },
		func(inv *Invoice) string { return inv.SupplierPan() },
	}

	for _, keyOf := range keyFuncs {
		supplyGroups := make(map[string][]*Invoice)
		for _, supply := range supplies {
			if !matchedSupplies[supply] {
				supplyGroups[keyOf(supply)] = append(supplyGroups[keyOf(supply)], supply)
			}
		}

		for _, r := range cascade {
			for _, purchase := range purchases {
				if matchedPurchases[purchase] {
					continue
				}
				group := supplyGroups[keyOf(purchase)]
				for _, supply := range group {
					if matchedSupplies[supply] {
						continue
					}
					if !m.pairMatches(r, purchase, supply, purchases, supplies, matchedPurchases, matchedSupplies) {
						continue
					}
					results = append(results, MatchResult{
						Purchase:     purchase,
						InwardSupply: supply,
						MatchStatus:  r.status,
					})
					matchedPurchases[purchase] = true
					matchedSupplies[supply] = true
					break
				}
			}
		}
	}

	for _, purchase := range purchases {
		if !matchedPurchases[purchase] {
			unmatchedPurchases = append(unmatchedPurchases, purchase)
		}
	}
	for _, supply := range supplies {
		if !matchedSupplies[supply] {
			unmatchedSupplies = append(unmatchedSupplies, supply)
		}
	}
	return results, unmatchedPurchases, unmatchedSupplies
}

func (m *Matcher) pairMatches(r rule, purchase, supply *Invoice, purchases, supplies []*Invoice, matchedPurchases, matchedSupplies map[*Invoice]bool) bool {
	if r.residual && !m.monthlyTotalsAgree(purchase.BillDate, purchases, supplies, matchedPurchases, matchedSupplies) {
		return false
	}

	switch r.bill {
	case billExact:
		if CleanBillNumber(purchase.BillNumber) != CleanBillNumber(supply.BillNumber) {
			return false
		}
		if !purchase.BillDate.Equal(supply.BillDate) {
			return false
		}
	case billFuzzy:
		if !m.fuzzyBillMatch(purchase, supply) {
			return false
		}
	case billIgnored:
		if !sameMonth(purchase.BillDate, supply.BillDate) {
			return false
		}
	}

	switch r.amount {
	case amountExact:
		return purchase.TaxableValue.Equal(supply.TaxableValue) &&
			purchase.TotalTax().Equal(supply.TotalTax())
	default:
		return m.withinRounding(purchase.TaxableValue, supply.TaxableValue) &&
			m.withinRounding(purchase.TotalTax(), supply.TotalTax())
	}
}

// fuzzyBillMatch requires both the date window and the similarity
// threshold; neither alone is enough.
func (m *Matcher) fuzzyBillMatch(purchase, supply *Invoice) bool {
	days := purchase.BillDate.Sub(supply.BillDate).Hours() / 24
	if days < 0 {
		days = -days
	}
	if days > float64(m.settings.FuzzyDateWindowDays) {
		return false
	}

	a := CleanBillNumber(purchase.BillNumber)
	b := CleanBillNumber(supply.BillNumber)
	if a == "" || b == "" {
		return false
	}
	return PartialRatio(a, b) == 100 || Ratio(a, b) >= 90
}

func (m *Matcher) withinRounding(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(m.settings.RoundingTolerance)
}

// monthlyTotalsAgree gates the residual tier: bill-number-ignored
// matching is only attempted for months where both sides' remaining
// tax totals already nearly agree.
func (m *Matcher) monthlyTotalsAgree(month time.Time, purchases, supplies []*Invoice, matchedPurchases, matchedSupplies map[*Invoice]bool) bool {
	purchaseTotal := decimal.Zero
	for _, inv := range purchases {
		if !matchedPurchases[inv] && sameMonth(inv.BillDate, month) {
			purchaseTotal = purchaseTotal.Add(inv.TotalTax())
		}
	}
	supplyTotal := decimal.Zero
	for _, inv := range supplies {
		if !matchedSupplies[inv] && sameMonth(inv.BillDate, month) {
			supplyTotal = supplyTotal.Add(inv.TotalTax())
		}
	}
	return purchaseTotal.Sub(supplyTotal).Abs().LessThan(m.settings.ResidualMonthlyTolerance)
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
