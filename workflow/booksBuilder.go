package workflow

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmdatafocus/gst_backend/config"
	"github.com/mmdatafocus/gst_backend/gstr"
	"github.com/mmdatafocus/gst_backend/models"
	"github.com/mmdatafocus/gst_backend/utils"
)

// BuildBooksData assembles the books side of one GSTR-1 from the
// period's sales invoices. The blob is derived data: edits to invoices
// surface on the next rebuild, the stored blob is never patched in
// place.
func BuildBooksData(ctx context.Context, businessId, gstin, returnPeriod string) (gstr.ReturnData, error) {
	periodStart, err := utils.ParseReturnPeriod(returnPeriod)
	if err != nil {
		return nil, err
	}
	periodEnd := periodStart.AddDate(0, 1, 0)

	invoices, err := models.GetSalesInvoicesForPeriod(ctx, businessId, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}

	books := make(gstr.ReturnData)
	precision := config.GSTRoundingPrecision()
	threshold := config.GSTB2CLThreshold()
	for _, inv := range invoices {
		if err := appendSalesInvoice(books, gstin, inv, precision, threshold); err != nil {
			return nil, err
		}
	}
	return books, nil
}

// RebuildBooks regenerates and persists the books blob, which also
// drops any cached reconciliation.
func RebuildBooks(ctx context.Context, businessId, gstin, returnPeriod string) error {
	books, err := BuildBooksData(ctx, businessId, gstin, returnPeriod)
	if err != nil {
		return err
	}
	return SaveBooksData(ctx, businessId, gstin, returnPeriod, books)
}

func appendSalesInvoice(books gstr.ReturnData, sellerGstin string, inv *models.SalesInvoice, precision int32, b2clThreshold decimal.Decimal) error {
	registered := inv.CustomerGstin != ""

	switch inv.DocumentType {
	case "Credit Note", "Debit Note":
		sub := gstr.SubcategoryCDNUR
		if registered {
			sub = gstr.SubcategoryCDNR
		}
		row := documentRow(inv, precision)
		if inv.DocumentType == "Credit Note" {
			negateDocumentRow(row)
		}
		if !registered {
			row[gstr.FieldInvoiceType] = "B2CL"
		}
		putRow(books, sub, inv.InvoiceNumber, row)
		return nil
	case "Invoice":
		// fallthrough below
	default:
		return fmt.Errorf("invoice %s: unknown document type %q", inv.InvoiceNumber, inv.DocumentType)
	}

	if registered {
		sub, err := salesSubcategory(inv.InvoiceType, inv.ReverseCharge)
		if err != nil {
			return fmt.Errorf("invoice %s: %w", inv.InvoiceNumber, err)
		}
		putRow(books, sub, inv.InvoiceNumber, documentRow(inv, precision))
		return nil
	}

	interstate := len(sellerGstin) >= 2 && inv.PlaceOfSupply != sellerGstin[:2]
	if interstate && inv.DocumentValue.GreaterThan(b2clThreshold) {
		row := documentRow(inv, precision)
		delete(row, gstr.FieldCustomerGstin)
		delete(row, gstr.FieldReverseCharge)
		putRow(books, gstr.SubcategoryB2CL, inv.InvoiceNumber, row)
		return nil
	}

	appendB2CS(books, inv, interstate, precision)
	return nil
}

func salesSubcategory(invoiceType models.SalesInvoiceType, reverseCharge string) (gstr.Subcategory, error) {
	switch invoiceType {
	case models.SalesInvoiceRegular, "":
		if reverseCharge == "Y" {
			return gstr.SubcategoryB2BReverseCharge, nil
		}
		return gstr.SubcategoryB2BRegular, nil
	case models.SalesInvoiceSEZWP:
		return gstr.SubcategorySEZWP, nil
	case models.SalesInvoiceSEZWOP:
		return gstr.SubcategorySEZWOP, nil
	case models.SalesInvoiceDeemedExp:
		return gstr.SubcategoryDeemedExports, nil
	default:
		return "", fmt.Errorf("unknown invoice type %q", invoiceType)
	}
}

// documentRow builds a document-keyed row in the shape the codecs
// decode to, totals recomputed from the detail lines.
func documentRow(inv *models.SalesInvoice, precision int32) gstr.Row {
	items := make([]gstr.Row, 0, len(inv.Details))
	for i, d := range inv.Details {
		items = append(items, gstr.Row{
			gstr.FieldItemIndex:    decimal.NewFromInt(int64(i + 1)),
			gstr.FieldTaxRate:      d.TaxRate,
			gstr.FieldTaxableValue: d.TaxableValue,
			gstr.FieldIgstAmount:   d.IgstAmount,
			gstr.FieldCgstAmount:   d.CgstAmount,
			gstr.FieldSgstAmount:   d.SgstAmount,
			gstr.FieldCessAmount:   d.CessAmount,
		})
	}

	row := gstr.Row{
		gstr.FieldCustomerGstin:  inv.CustomerGstin,
		gstr.FieldCustomerName:   inv.CustomerName,
		gstr.FieldDocumentNumber: inv.InvoiceNumber,
		gstr.FieldDocumentDate:   inv.InvoiceDate.Format("2006-01-02"),
		gstr.FieldDocumentValue:  inv.DocumentValue,
		gstr.FieldDocumentType:   inv.DocumentType,
		gstr.FieldPlaceOfSupply:  gstr.ExpandPlaceOfSupply(inv.PlaceOfSupply),
		gstr.FieldReverseCharge:  inv.ReverseCharge,
		gstr.FieldItems:          items,
	}
	if len(items) == 0 {
		// header-only invoices carry their own totals
		row[gstr.FieldTotalTaxableValue] = inv.TaxableValue.Round(precision)
		row[gstr.FieldTotalIgstAmount] = inv.IgstAmount.Round(precision)
		row[gstr.FieldTotalCgstAmount] = inv.CgstAmount.Round(precision)
		row[gstr.FieldTotalSgstAmount] = inv.SgstAmount.Round(precision)
		row[gstr.FieldTotalCessAmount] = inv.CessAmount.Round(precision)
		return row
	}
	sums := map[string]string{
		gstr.FieldTotalTaxableValue: gstr.FieldTaxableValue,
		gstr.FieldTotalIgstAmount:   gstr.FieldIgstAmount,
		gstr.FieldTotalCgstAmount:   gstr.FieldCgstAmount,
		gstr.FieldTotalSgstAmount:   gstr.FieldSgstAmount,
		gstr.FieldTotalCessAmount:   gstr.FieldCessAmount,
	}
	for totalField, itemField := range sums {
		total := decimal.Zero
		for _, it := range items {
			total = total.Add(it.Decimal(itemField))
		}
		row[totalField] = total.Round(precision)
	}
	return row
}

func negateDocumentRow(row gstr.Row) {
	fields := []string{
		gstr.FieldDocumentValue,
		gstr.FieldTotalTaxableValue,
		gstr.FieldTotalIgstAmount,
		gstr.FieldTotalCgstAmount,
		gstr.FieldTotalSgstAmount,
		gstr.FieldTotalCessAmount,
	}
	for _, field := range fields {
		row[field] = row.Decimal(field).Neg()
	}
	itemFields := []string{
		gstr.FieldTaxableValue,
		gstr.FieldIgstAmount,
		gstr.FieldCgstAmount,
		gstr.FieldSgstAmount,
		gstr.FieldCessAmount,
	}
	for _, it := range row.Items() {
		for _, field := range itemFields {
			it[field] = it.Decimal(field).Neg()
		}
	}
}

// appendB2CS folds one unregistered invoice into the (pos, rate)
// buckets, one bucket per distinct detail rate.
func appendB2CS(books gstr.ReturnData, inv *models.SalesInvoice, interstate bool, precision int32) {
	supplyType := "INTRA"
	if interstate {
		supplyType = "INTER"
	}
	pos := gstr.ExpandPlaceOfSupply(inv.PlaceOfSupply)

	details := inv.Details
	if len(details) == 0 {
		details = []models.SalesInvoiceDetail{{
			TaxableValue: inv.TaxableValue,
			IgstAmount:   inv.IgstAmount,
			CgstAmount:   inv.CgstAmount,
			SgstAmount:   inv.SgstAmount,
			CessAmount:   inv.CessAmount,
		}}
	}

	sub := books[gstr.SubcategoryB2CS]
	if sub == nil {
		sub = make(gstr.SubcategoryData)
		books[gstr.SubcategoryB2CS] = sub
	}
	for _, d := range details {
		key := gstr.B2CSKey{PlaceOfSupply: pos, TaxRate: d.TaxRate}.String()
		row, ok := sub[key]
		if !ok {
			row = gstr.Row{
				gstr.FieldSupplyType:        supplyType,
				gstr.FieldPlaceOfSupply:     pos,
				gstr.FieldTaxRate:           d.TaxRate,
				gstr.FieldEcommerceGstin:    "",
				gstr.FieldTotalTaxableValue: decimal.Zero,
				gstr.FieldTotalIgstAmount:   decimal.Zero,
				gstr.FieldTotalCgstAmount:   decimal.Zero,
				gstr.FieldTotalSgstAmount:   decimal.Zero,
				gstr.FieldTotalCessAmount:   decimal.Zero,
			}
			sub[key] = row
		}
		row[gstr.FieldTotalTaxableValue] = row.Decimal(gstr.FieldTotalTaxableValue).Add(d.TaxableValue).Round(precision)
		row[gstr.FieldTotalIgstAmount] = row.Decimal(gstr.FieldTotalIgstAmount).Add(d.IgstAmount).Round(precision)
		row[gstr.FieldTotalCgstAmount] = row.Decimal(gstr.FieldTotalCgstAmount).Add(d.CgstAmount).Round(precision)
		row[gstr.FieldTotalSgstAmount] = row.Decimal(gstr.FieldTotalSgstAmount).Add(d.SgstAmount).Round(precision)
		row[gstr.FieldTotalCessAmount] = row.Decimal(gstr.FieldTotalCessAmount).Add(d.CessAmount).Round(precision)
	}
}

func putRow(books gstr.ReturnData, sub gstr.Subcategory, key string, row gstr.Row) {
	subData := books[sub]
	if subData == nil {
		subData = make(gstr.SubcategoryData)
		books[sub] = subData
	}
	subData[key] = row
}
