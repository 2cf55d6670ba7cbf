package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mmdatafocus/gst_backend/config"
	"github.com/mmdatafocus/gst_backend/matcher"
	"github.com/mmdatafocus/gst_backend/utils"
)

// InwardSupply is one supplier-reported 2A/2B row. The purchase link
// (id + match status) is the only persisted matcher output; it is set
// by the cascade or by manual user action.
type InwardSupply struct {
	ID                int                `gorm:"primary_key" json:"id"`
	BusinessId        string             `gorm:"index;not null" json:"business_id" binding:"required"`
	ReturnType        ReturnType         `gorm:"type:enum('GSTR-1','GSTR-2A','GSTR-2B');default:'GSTR-2A'" json:"return_type"`
	ReturnPeriod      string             `gorm:"index;size:6;not null" json:"return_period" binding:"required"`
	SupplierGstin     string             `gorm:"index;size:15;not null" json:"supplier_gstin"`
	SupplierName      string             `gorm:"size:255" json:"supplier_name"`
	BillNumber        string             `gorm:"size:255;not null" json:"bill_number"`
	BillDate          time.Time          `gorm:"not null" json:"bill_date"`
	PlaceOfSupply     string             `gorm:"size:64" json:"place_of_supply"`
	ReverseCharge     string             `gorm:"size:1;default:'N'" json:"reverse_charge"`
	DocumentType      string             `gorm:"size:32;default:'Invoice'" json:"document_type"`
	TaxableValue      decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"taxable_value"`
	IgstAmount        decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"igst_amount"`
	CgstAmount        decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"cgst_amount"`
	SgstAmount        decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"sgst_amount"`
	CessAmount        decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"cess_amount"`
	DocumentValue     decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"document_value"`
	Items             []InwardSupplyItem `json:"items"`
	PurchaseInvoiceId *int               `gorm:"index;default:null" json:"purchase_invoice_id"`
	MatchStatus       InwardMatchStatus  `gorm:"size:32;default:'Unmatched'" json:"match_status"`
	CreatedAt         time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

type InwardSupplyItem struct {
	ID             int             `gorm:"primary_key" json:"id"`
	InwardSupplyId int             `gorm:"index;not null" json:"inward_supply_id"`
	TaxRate        decimal.Decimal `gorm:"type:decimal(8,2);default:0" json:"tax_rate"`
	TaxableValue   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"taxable_value"`
	IgstAmount     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"igst_amount"`
	CgstAmount     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cgst_amount"`
	SgstAmount     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sgst_amount"`
	CessAmount     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cess_amount"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *InwardSupply) GetID() int {
	return s.ID
}

func (s *InwardSupply) ToMatcherInvoice() *matcher.Invoice {
	return &matcher.Invoice{
		ID:            uint(s.ID),
		SupplierGstin: s.SupplierGstin,
		BillNumber:    s.BillNumber,
		BillDate:      s.BillDate,
		TaxableValue:  s.TaxableValue,
		IgstAmount:    s.IgstAmount,
		CgstAmount:    s.CgstAmount,
		SgstAmount:    s.SgstAmount,
		CessAmount:    s.CessAmount,
	}
}

// GetUnmatchedInwardSupplies fetches the gov-side pool for one matcher
// run.
func GetUnmatchedInwardSupplies(ctx context.Context, businessId string, returnPeriod string) ([]*InwardSupply, error) {
	db := config.GetDB()
	var supplies []*InwardSupply
	err := db.WithContext(ctx).
		Where("business_id = ? AND return_period = ?", businessId, returnPeriod).
		Where("match_status = ?", InwardMatchUnmatched).
		Order("bill_date, id").
		Find(&supplies).Error
	if err != nil {
		return nil, err
	}
	return supplies, nil
}

// RecordMatch persists one matcher result onto the inward-supply side.
func RecordMatch(ctx context.Context, tx *gorm.DB, inwardSupplyId int, purchaseInvoiceId int, status InwardMatchStatus) error {
	result := tx.WithContext(ctx).Model(&InwardSupply{}).
		Where("id = ? AND match_status = ?", inwardSupplyId, InwardMatchUnmatched).
		Updates(map[string]any{
			"purchase_invoice_id": purchaseInvoiceId,
			"match_status":        status,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("inward supply already matched")
	}
	return nil
}

// LinkInwardSupply is the manual link action from the review UI.
func LinkInwardSupply(ctx context.Context, inwardSupplyId int, purchaseInvoiceId int) (*InwardSupply, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok {
		return nil, errors.New("business id not found in context")
	}
	if err := utils.ValidateResourceId[PurchaseInvoice](ctx, businessId, purchaseInvoiceId); err != nil {
		return nil, err
	}
	supply, err := utils.FetchModel[InwardSupply](ctx, businessId, inwardSupplyId)
	if err != nil {
		return nil, err
	}
	if supply.PurchaseInvoiceId != nil {
		return nil, errors.New("inward supply already linked")
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(supply).Updates(map[string]any{
		"purchase_invoice_id": purchaseInvoiceId,
		"match_status":        InwardMatchManual,
	}).Error
	if err != nil {
		return nil, err
	}
	return supply, nil
}

// UnlinkInwardSupply clears a link so the pair re-enters both pools.
func UnlinkInwardSupply(ctx context.Context, inwardSupplyId int) (*InwardSupply, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok {
		return nil, errors.New("business id not found in context")
	}
	supply, err := utils.FetchModel[InwardSupply](ctx, businessId, inwardSupplyId)
	if err != nil {
		return nil, err
	}
	if supply.PurchaseInvoiceId == nil {
		return supply, nil
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(supply).Updates(map[string]any{
		"purchase_invoice_id": nil,
		"match_status":        InwardMatchUnmatched,
	}).Error
	if err != nil {
		return nil, err
	}
	return supply, nil
}
