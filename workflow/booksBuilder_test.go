package workflow

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmdatafocus/gst_backend/gstr"
	"github.com/mmdatafocus/gst_backend/models"
)

const sellerGstin = "27AAPFU0939F1ZV"

func builderThreshold() decimal.Decimal {
	return decimal.NewFromInt(250000)
}

func salesInvoice(number string, details ...models.SalesInvoiceDetail) *models.SalesInvoice {
	return &models.SalesInvoice{
		InvoiceNumber: number,
		InvoiceDate:   time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC),
		PlaceOfSupply: "29",
		ReverseCharge: "N",
		DocumentType:  "Invoice",
		Details:       details,
	}
}

func TestAppendSalesInvoice_RegisteredSezWithPayment(t *testing.T) {
	inv := salesInvoice("SINV-01", models.SalesInvoiceDetail{
		TaxRate:      decimal.NewFromInt(18),
		TaxableValue: decimal.NewFromInt(25000),
		IgstAmount:   decimal.NewFromInt(4500),
	})
	inv.CustomerGstin = "29AABCT1332L1ZT"
	inv.InvoiceType = models.SalesInvoiceSEZWP
	inv.DocumentValue = decimal.NewFromInt(29500)

	books := make(gstr.ReturnData)
	if err := appendSalesInvoice(books, sellerGstin, inv, 2, builderThreshold()); err != nil {
		t.Fatalf("append: %v", err)
	}

	row := books.Get(gstr.SubcategorySEZWP)["SINV-01"]
	if row == nil {
		t.Fatal("row not placed under SEZ With Payment of Tax")
	}
	if got := row.String(gstr.FieldPlaceOfSupply); got != "29-Karnataka" {
		t.Fatalf("place of supply = %q", got)
	}
	if !row.Decimal(gstr.FieldTotalTaxableValue).Equal(decimal.NewFromInt(25000)) {
		t.Fatalf("taxable total = %s", row.Decimal(gstr.FieldTotalTaxableValue))
	}
	if !row.Decimal(gstr.FieldTotalIgstAmount).Equal(decimal.NewFromInt(4500)) {
		t.Fatalf("igst total = %s", row.Decimal(gstr.FieldTotalIgstAmount))
	}
}

func TestAppendSalesInvoice_LargeInterstateUnregisteredIsB2CL(t *testing.T) {
	inv := salesInvoice("SINV-02", models.SalesInvoiceDetail{
		TaxRate:      decimal.NewFromInt(18),
		TaxableValue: decimal.NewFromInt(300000),
		IgstAmount:   decimal.NewFromInt(54000),
	})
	inv.DocumentValue = decimal.NewFromInt(354000)

	books := make(gstr.ReturnData)
	if err := appendSalesInvoice(books, sellerGstin, inv, 2, builderThreshold()); err != nil {
		t.Fatalf("append: %v", err)
	}

	row := books.Get(gstr.SubcategoryB2CL)["SINV-02"]
	if row == nil {
		t.Fatal("row not placed under B2C (Large)")
	}
	if _, present := row[gstr.FieldCustomerGstin]; present {
		t.Fatal("b2cl row carries customer_gstin")
	}
	if len(books.Get(gstr.SubcategoryB2CS)) != 0 {
		t.Fatal("invoice also landed in B2C (Others)")
	}
}

func TestAppendSalesInvoice_SmallUnregisteredAggregatesIntoB2CS(t *testing.T) {
	books := make(gstr.ReturnData)
	for _, number := range []string{"SINV-03", "SINV-04"} {
		inv := salesInvoice(number, models.SalesInvoiceDetail{
			TaxRate:      decimal.NewFromInt(18),
			TaxableValue: decimal.NewFromInt(10000),
			IgstAmount:   decimal.NewFromInt(1800),
		})
		inv.DocumentValue = decimal.NewFromInt(11800)
		if err := appendSalesInvoice(books, sellerGstin, inv, 2, builderThreshold()); err != nil {
			t.Fatalf("append %s: %v", number, err)
		}
	}

	sub := books.Get(gstr.SubcategoryB2CS)
	if len(sub) != 1 {
		t.Fatalf("b2cs buckets = %d, want 1", len(sub))
	}
	row := sub["29-Karnataka - 18 - "]
	if row == nil {
		t.Fatalf("bucket key missing, have %v", sub)
	}
	if row.String(gstr.FieldSupplyType) != "INTER" {
		t.Fatalf("supply type = %q", row.String(gstr.FieldSupplyType))
	}
	if !row.Decimal(gstr.FieldTotalTaxableValue).Equal(decimal.NewFromInt(20000)) {
		t.Fatalf("aggregated taxable = %s", row.Decimal(gstr.FieldTotalTaxableValue))
	}
}

func TestAppendSalesInvoice_CreditNoteNegatesIntoCDNR(t *testing.T) {
	inv := salesInvoice("CN-01", models.SalesInvoiceDetail{
		TaxRate:      decimal.NewFromInt(18),
		TaxableValue: decimal.NewFromInt(1000),
		IgstAmount:   decimal.NewFromInt(180),
	})
	inv.CustomerGstin = "29AABCT1332L1ZT"
	inv.DocumentType = "Credit Note"
	inv.DocumentValue = decimal.NewFromInt(1180)

	books := make(gstr.ReturnData)
	if err := appendSalesInvoice(books, sellerGstin, inv, 2, builderThreshold()); err != nil {
		t.Fatalf("append: %v", err)
	}

	row := books.Get(gstr.SubcategoryCDNR)["CN-01"]
	if row == nil {
		t.Fatal("row not placed under Credit/Debit Notes (Registered)")
	}
	if !row.Decimal(gstr.FieldTotalTaxableValue).Equal(decimal.NewFromInt(-1000)) {
		t.Fatalf("taxable = %s, want -1000", row.Decimal(gstr.FieldTotalTaxableValue))
	}
	if !row.Decimal(gstr.FieldDocumentValue).Equal(decimal.NewFromInt(-1180)) {
		t.Fatalf("document value = %s, want -1180", row.Decimal(gstr.FieldDocumentValue))
	}
	items := row.Items()
	if len(items) != 1 || !items[0].Decimal(gstr.FieldIgstAmount).Equal(decimal.NewFromInt(-180)) {
		t.Fatalf("item igst = %v", items)
	}
}

func TestAppendSalesInvoice_UnknownDocumentTypeFails(t *testing.T) {
	inv := salesInvoice("SINV-05")
	inv.DocumentType = "Proforma"
	if err := appendSalesInvoice(make(gstr.ReturnData), sellerGstin, inv, 2, builderThreshold()); err == nil {
		t.Fatal("expected error for unknown document type")
	}
}
