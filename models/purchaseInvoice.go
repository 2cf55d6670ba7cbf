package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmdatafocus/gst_backend/config"
	"github.com/mmdatafocus/gst_backend/matcher"
	"github.com/mmdatafocus/gst_backend/utils"
)

// PurchaseInvoice is one books-side purchase record. It is queried
// fresh per reconciliation run; the only persisted linkage to gov data
// is the match recorded on the inward-supply side.
type PurchaseInvoice struct {
	ID            int                     `gorm:"primary_key" json:"id"`
	BusinessId    string                  `gorm:"index;not null" json:"business_id" binding:"required"`
	SupplierGstin string                  `gorm:"index;size:15;not null" json:"supplier_gstin" binding:"required"`
	SupplierName  string                  `gorm:"size:255" json:"supplier_name"`
	BillNumber    string                  `gorm:"size:255;not null" json:"bill_number" binding:"required"`
	BillDate      time.Time               `gorm:"not null" json:"bill_date" binding:"required"`
	PlaceOfSupply string                  `gorm:"size:64" json:"place_of_supply"`
	ReverseCharge string                  `gorm:"size:1;default:'N'" json:"reverse_charge"`
	TaxableValue  decimal.Decimal         `gorm:"type:decimal(20,4);default:0" json:"taxable_value"`
	IgstAmount    decimal.Decimal         `gorm:"type:decimal(20,4);default:0" json:"igst_amount"`
	CgstAmount    decimal.Decimal         `gorm:"type:decimal(20,4);default:0" json:"cgst_amount"`
	SgstAmount    decimal.Decimal         `gorm:"type:decimal(20,4);default:0" json:"sgst_amount"`
	CessAmount    decimal.Decimal         `gorm:"type:decimal(20,4);default:0" json:"cess_amount"`
	DocumentValue decimal.Decimal         `gorm:"type:decimal(20,4);default:0" json:"document_value"`
	Details       []PurchaseInvoiceDetail `json:"details"`
	CreatedAt     time.Time               `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time               `gorm:"autoUpdateTime" json:"updated_at"`
}

type PurchaseInvoiceDetail struct {
	ID                int             `gorm:"primary_key" json:"id"`
	PurchaseInvoiceId int             `gorm:"index;not null" json:"purchase_invoice_id"`
	HsnCode           string          `gorm:"size:8" json:"hsn_code"`
	Description       string          `gorm:"size:255" json:"description"`
	TaxRate           decimal.Decimal `gorm:"type:decimal(8,2);default:0" json:"tax_rate"`
	TaxableValue      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"taxable_value"`
	IgstAmount        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"igst_amount"`
	CgstAmount        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cgst_amount"`
	SgstAmount        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sgst_amount"`
	CessAmount        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cess_amount"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *PurchaseInvoice) GetID() int {
	return p.ID
}

// ToMatcherInvoice converts to the comparison shape of the matcher.
func (p *PurchaseInvoice) ToMatcherInvoice() *matcher.Invoice {
	return &matcher.Invoice{
		ID:            uint(p.ID),
		SupplierGstin: p.SupplierGstin,
		BillNumber:    p.BillNumber,
		BillDate:      p.BillDate,
		TaxableValue:  p.TaxableValue,
		IgstAmount:    p.IgstAmount,
		CgstAmount:    p.CgstAmount,
		SgstAmount:    p.SgstAmount,
		CessAmount:    p.CessAmount,
	}
}

func GetPurchaseInvoice(ctx context.Context, id int) (*PurchaseInvoice, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok {
		return nil, errors.New("business id not found in context")
	}
	return utils.FetchModel[PurchaseInvoice](ctx, businessId, id, "Details")
}

// GetUnmatchedPurchaseInvoices fetches the purchase pool for one
// matcher run: invoices of the period with no inward-supply link yet.
func GetUnmatchedPurchaseInvoices(ctx context.Context, businessId string, periodStart, periodEnd time.Time) ([]*PurchaseInvoice, error) {
	db := config.GetDB()
	var invoices []*PurchaseInvoice
	err := db.WithContext(ctx).
		Where("business_id = ?", businessId).
		Where("bill_date >= ? AND bill_date < ?", periodStart, periodEnd).
		Where("id NOT IN (?)", db.Model(&InwardSupply{}).
			Select("purchase_invoice_id").
			Where("business_id = ? AND purchase_invoice_id IS NOT NULL", businessId)).
		Order("bill_date, id").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}
