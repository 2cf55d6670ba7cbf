package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmdatafocus/gst_backend/config"
)

// SalesInvoiceType selects the b2b wire classification of a registered
// outward supply.
type SalesInvoiceType string

const (
	SalesInvoiceRegular   SalesInvoiceType = "Regular"
	SalesInvoiceSEZWP     SalesInvoiceType = "SEZ With Payment"
	SalesInvoiceSEZWOP    SalesInvoiceType = "SEZ Without Payment"
	SalesInvoiceDeemedExp SalesInvoiceType = "Deemed Export"
)

// SalesInvoice is one books-side outward supply record. The books
// blob is assembled fresh from these rows; edits here surface on the
// next books rebuild, never by mutating a stored blob.
type SalesInvoice struct {
	ID            int                  `gorm:"primary_key" json:"id"`
	BusinessId    string               `gorm:"index;not null" json:"business_id" binding:"required"`
	CustomerGstin string               `gorm:"index;size:15" json:"customer_gstin"`
	CustomerName  string               `gorm:"size:255" json:"customer_name"`
	InvoiceNumber string               `gorm:"size:255;not null" json:"invoice_number" binding:"required"`
	InvoiceDate   time.Time            `gorm:"not null" json:"invoice_date" binding:"required"`
	PlaceOfSupply string               `gorm:"size:2;not null" json:"place_of_supply"`
	ReverseCharge string               `gorm:"size:1;default:'N'" json:"reverse_charge"`
	InvoiceType   SalesInvoiceType     `gorm:"type:enum('Regular','SEZ With Payment','SEZ Without Payment','Deemed Export');default:'Regular'" json:"invoice_type"`
	DocumentType  string               `gorm:"type:enum('Invoice','Credit Note','Debit Note');default:'Invoice'" json:"document_type"`
	TaxableValue  decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"taxable_value"`
	IgstAmount    decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"igst_amount"`
	CgstAmount    decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"cgst_amount"`
	SgstAmount    decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"sgst_amount"`
	CessAmount    decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"cess_amount"`
	DocumentValue decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"document_value"`
	Details       []SalesInvoiceDetail `json:"details"`
	CreatedAt     time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

type SalesInvoiceDetail struct {
	ID             int             `gorm:"primary_key" json:"id"`
	SalesInvoiceId int             `gorm:"index;not null" json:"sales_invoice_id"`
	HsnCode        string          `gorm:"size:8" json:"hsn_code"`
	Description    string          `gorm:"size:255" json:"description"`
	Uom            string          `gorm:"size:32" json:"uom"`
	Quantity       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	TaxRate        decimal.Decimal `gorm:"type:decimal(8,2);default:0" json:"tax_rate"`
	TaxableValue   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"taxable_value"`
	IgstAmount     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"igst_amount"`
	CgstAmount     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cgst_amount"`
	SgstAmount     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sgst_amount"`
	CessAmount     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cess_amount"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *SalesInvoice) GetID() int {
	return s.ID
}

// GetSalesInvoicesForPeriod fetches the outward supplies feeding one
// books rebuild, details included.
func GetSalesInvoicesForPeriod(ctx context.Context, businessId string, periodStart, periodEnd time.Time) ([]*SalesInvoice, error) {
	db := config.GetDB()
	var invoices []*SalesInvoice
	err := db.WithContext(ctx).
		Preload("Details").
		Where("business_id = ?", businessId).
		Where("invoice_date >= ? AND invoice_date < ?", periodStart, periodEnd).
		Order("invoice_date, id").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}
