package recon

import (
	"github.com/shopspring/decimal"

	"github.com/mmdatafocus/gst_backend/gstr"
)

// SummaryRow is one presentation-level rollup line.
type SummaryRow struct {
	Subcategory       gstr.Subcategory `json:"subcategory"`
	RecordCount       int              `json:"record_count"`
	TotalTaxableValue decimal.Decimal  `json:"total_taxable_value"`
	TotalIgstAmount   decimal.Decimal  `json:"total_igst_amount"`
	TotalCgstAmount   decimal.Decimal  `json:"total_cgst_amount"`
	TotalSgstAmount   decimal.Decimal  `json:"total_sgst_amount"`
	TotalCessAmount   decimal.Decimal  `json:"total_cess_amount"`
}

// GrandTotalLabel marks the final rollup line of a summary.
const GrandTotalLabel gstr.Subcategory = "Grand Total"

// Summarize rolls one side (books or gov) into per-subcategory totals
// in canonical order, followed by a grand-total line. Subcategories
// without rows are omitted.
func Summarize(data gstr.ReturnData) []SummaryRow {
	rows := make([]SummaryRow, 0, len(data)+1)
	grand := SummaryRow{Subcategory: GrandTotalLabel}

	for _, sub := range gstr.AllSubcategories {
		subData := data.Get(sub)
		if len(subData) == 0 {
			continue
		}
		line := SummaryRow{Subcategory: sub, RecordCount: len(subData)}
		for _, row := range subData {
			line.TotalTaxableValue = line.TotalTaxableValue.Add(row.Decimal(gstr.FieldTotalTaxableValue))
			line.TotalIgstAmount = line.TotalIgstAmount.Add(row.Decimal(gstr.FieldTotalIgstAmount))
			line.TotalCgstAmount = line.TotalCgstAmount.Add(row.Decimal(gstr.FieldTotalCgstAmount))
			line.TotalSgstAmount = line.TotalSgstAmount.Add(row.Decimal(gstr.FieldTotalSgstAmount))
			line.TotalCessAmount = line.TotalCessAmount.Add(row.Decimal(gstr.FieldTotalCessAmount))
		}
		rows = append(rows, line)

		grand.RecordCount += line.RecordCount
		grand.TotalTaxableValue = grand.TotalTaxableValue.Add(line.TotalTaxableValue)
		grand.TotalIgstAmount = grand.TotalIgstAmount.Add(line.TotalIgstAmount)
		grand.TotalCgstAmount = grand.TotalCgstAmount.Add(line.TotalCgstAmount)
		grand.TotalSgstAmount = grand.TotalSgstAmount.Add(line.TotalSgstAmount)
		grand.TotalCessAmount = grand.TotalCessAmount.Add(line.TotalCessAmount)
	}

	if len(rows) == 0 {
		return rows
	}
	return append(rows, grand)
}

// ReconSummaryRow counts reconciled outcomes per subcategory.
type ReconSummaryRow struct {
	Subcategory    gstr.Subcategory `json:"subcategory"`
	Mismatch       int              `json:"mismatch"`
	MissingInBooks int              `json:"missing_in_books"`
	MissingInGov   int              `json:"missing_in_gov"`
}

// SummarizeReconciliation rolls the reconciled map into per-subcategory
// status counts in canonical order.
func SummarizeReconciliation(data ReconciledData) []ReconSummaryRow {
	rows := make([]ReconSummaryRow, 0, len(data))
	for _, sub := range gstr.AllSubcategories {
		reconciled := data[sub]
		if len(reconciled) == 0 {
			continue
		}
		line := ReconSummaryRow{Subcategory: sub}
		for _, row := range reconciled {
			switch row.MatchStatus {
			case StatusMissingInBooks:
				line.MissingInBooks++
			case StatusMismatch:
				line.Mismatch++
			default:
				line.MissingInGov++
			}
		}
		rows = append(rows, line)
	}
	return rows
}
