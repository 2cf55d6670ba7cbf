package reports

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/mmdatafocus/gst_backend/gstr"
	"github.com/mmdatafocus/gst_backend/recon"
	"github.com/mmdatafocus/gst_backend/workflow"
)

var reconHeaders = []string{
	"Subcategory",
	"MatchStatus",
	"DocumentNumber",
	"DocumentDate",
	"CustomerGstin",
	"PlaceOfSupply",
	"BooksTaxableValue",
	"GovTaxableValue",
	"BooksTaxAmount",
	"GovTaxAmount",
	"Differences",
}

// ExportReconExcel streams the flattened reconciliation of one
// (gstin, period) as an xlsx attachment.
func ExportReconExcel(w http.ResponseWriter, r *http.Request, businessId, gstin, returnPeriod string) {

	data, err := workflow.FlattenedReconciliation(r.Context(), businessId, gstin, returnPeriod)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=reconciliation_%s_%s.xlsx", gstin, returnPeriod))
	if err := WriteReconWorkbook(w, data); err != nil {
		http.Error(w, "Failed to write file", http.StatusInternalServerError)
	}
}

// WriteReconWorkbook renders one worksheet, subcategories in canonical
// order, one row per reconciled discrepancy.
func WriteReconWorkbook(w io.Writer, data map[gstr.Subcategory][]*recon.ReconRow) error {

	f := excelize.NewFile()
	_, err := f.NewSheet("Sheet1")
	if err != nil {
		return err
	}

	for col, header := range reconHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		f.SetCellValue("Sheet1", cell, header)
	}

	rowNo := 2
	for _, sub := range gstr.AllSubcategories {
		for _, row := range data[sub] {
			for col, value := range reconCellValues(sub, row) {
				cell, err := excelize.CoordinatesToCellName(col+1, rowNo)
				if err != nil {
					return err
				}
				f.SetCellValue("Sheet1", cell, value)
			}
			rowNo++
		}
	}

	return f.Write(w)
}

// reconCellValues flattens one discrepancy into the export column
// order. Identity fields come from whichever side has the record.
func reconCellValues(sub gstr.Subcategory, row *recon.ReconRow) []interface{} {
	return []interface{}{
		string(sub),
		string(row.MatchStatus),
		sideString(row, gstr.FieldDocumentNumber),
		sideString(row, gstr.FieldDocumentDate),
		sideString(row, gstr.FieldCustomerGstin),
		sideString(row, gstr.FieldPlaceOfSupply),
		row.Books.Decimal(gstr.FieldTotalTaxableValue),
		row.Gov.Decimal(gstr.FieldTotalTaxableValue),
		taxAmount(row.Books),
		taxAmount(row.Gov),
		strings.Join(row.Differences, ", "),
	}
}

func sideString(row *recon.ReconRow, field string) string {
	if v := row.Books.String(field); v != "" {
		return v
	}
	return row.Gov.String(field)
}

func taxAmount(row gstr.Row) decimal.Decimal {
	return row.Decimal(gstr.FieldTotalIgstAmount).
		Add(row.Decimal(gstr.FieldTotalCgstAmount)).
		Add(row.Decimal(gstr.FieldTotalSgstAmount)).
		Add(row.Decimal(gstr.FieldTotalCessAmount))
}
