package reports

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmdatafocus/gst_backend/gstr"
	"github.com/mmdatafocus/gst_backend/recon"
)

func TestReconCellValues_IdentityFallsBackToGovSide(t *testing.T) {
	row := &recon.ReconRow{
		MatchStatus: recon.StatusMissingInBooks,
		Books:       gstr.Row{},
		Gov: gstr.Row{
			gstr.FieldDocumentNumber:    "SINV-19-01064",
			gstr.FieldCustomerGstin:     "29AABCT1332L1ZT",
			gstr.FieldTotalTaxableValue: decimal.NewFromInt(25000),
			gstr.FieldTotalIgstAmount:   decimal.NewFromInt(4500),
		},
	}

	values := reconCellValues(gstr.SubcategorySEZWP, row)
	if values[2] != "SINV-19-01064" {
		t.Fatalf("document number = %v", values[2])
	}
	if values[4] != "29AABCT1332L1ZT" {
		t.Fatalf("customer gstin = %v", values[4])
	}
	govTax, ok := values[9].(decimal.Decimal)
	if !ok || !govTax.Equal(decimal.NewFromInt(4500)) {
		t.Fatalf("gov tax = %v", values[9])
	}
}

func TestWriteReconWorkbook_ProducesWorkbook(t *testing.T) {
	data := map[gstr.Subcategory][]*recon.ReconRow{
		gstr.SubcategoryB2BRegular: {{
			MatchStatus: recon.StatusMismatch,
			Differences: []string{"Total Taxable Value"},
			Books: gstr.Row{
				gstr.FieldDocumentNumber:    "INV-01",
				gstr.FieldTotalTaxableValue: decimal.NewFromInt(1000),
			},
			Gov: gstr.Row{
				gstr.FieldDocumentNumber:    "INV-01",
				gstr.FieldTotalTaxableValue: decimal.NewFromInt(900),
			},
		}},
	}

	var buf bytes.Buffer
	if err := WriteReconWorkbook(&buf, data); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("empty workbook")
	}
}
