package gstnsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mmdatafocus/gst_backend/config"
	"github.com/mmdatafocus/gst_backend/models"
	"github.com/mmdatafocus/gst_backend/utils"
)

// SyncInwardSupplies downloads one period's GSTR-2A for a business,
// replaces its unmatched inward-supply rows, stores the raw payload as
// the unfiled blob (which invalidates any cached reconciliation) and
// flags the log latest.
func SyncInwardSupplies(ctx context.Context, business *models.Business, returnPeriod string) error {
	client, err := newGstnClient(os.Getenv("GSTN_AUTH_TOKEN"))
	if err != nil {
		return err
	}

	raw, err := client.DownloadReturn(ctx, business.Gstin, returnPeriod, "GSTR2A")
	if err != nil {
		return err
	}

	var data inward2AData
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("invalid response, retry or raise a support ticket: %w", err)
	}

	supplies, err := parseInwardSupplies(business.BusinessId, returnPeriod, data)
	if err != nil {
		return err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// matched rows keep their purchase link; only unmatched rows
		// are replaced by the fresh download
		err := tx.Where("business_id = ? AND return_period = ? AND match_status = ?",
			business.BusinessId, returnPeriod, models.InwardMatchUnmatched).
			Delete(&models.InwardSupply{}).Error
		if err != nil {
			return err
		}
		if len(supplies) == 0 {
			return nil
		}
		return tx.Create(&supplies).Error
	})
	if err != nil {
		return err
	}

	log, err := models.GetOrCreateReturnLog(ctx, business.BusinessId, business.Gstin, returnPeriod, models.ReturnTypeGSTR2A)
	if err != nil {
		return err
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	if err := log.SaveBlob(ctx, models.BlobUnfiled, payload); err != nil {
		return err
	}
	return log.SetLatest(ctx, true)
}

func parseInwardSupplies(businessId, returnPeriod string, data inward2AData) ([]models.InwardSupply, error) {
	var supplies []models.InwardSupply

	for _, party := range data.B2B {
		for _, inv := range party.Inv {
			supply, err := inwardSupplyFromWire(businessId, returnPeriod, party.Ctin, inv.Inum, inv.Idt, inv.Pos, inv.Val, inv.Itms)
			if err != nil {
				return nil, err
			}
			supply.ReverseCharge = inv.Rchrg
			supplies = append(supplies, *supply)
		}
	}

	for _, party := range data.CDN {
		for _, note := range party.Nt {
			supply, err := inwardSupplyFromWire(businessId, returnPeriod, party.Ctin, note.NtNum, note.NtDt, note.Pos, note.Val, note.Itms)
			if err != nil {
				return nil, err
			}
			switch note.Ntty {
			case "C":
				supply.DocumentType = "Credit Note"
				supply.TaxableValue = supply.TaxableValue.Neg()
				supply.IgstAmount = supply.IgstAmount.Neg()
				supply.CgstAmount = supply.CgstAmount.Neg()
				supply.SgstAmount = supply.SgstAmount.Neg()
				supply.CessAmount = supply.CessAmount.Neg()
				supply.DocumentValue = supply.DocumentValue.Neg()
			case "D":
				supply.DocumentType = "Debit Note"
			default:
				return nil, fmt.Errorf("unknown note type %q", note.Ntty)
			}
			supplies = append(supplies, *supply)
		}
	}
	return supplies, nil
}

func inwardSupplyFromWire(businessId, returnPeriod, ctin, number, wireDate, pos string, val json.Number, items []inwardWireItem) (*models.InwardSupply, error) {
	dateStr, err := utils.ParseGovDate(wireDate)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", number, err)
	}
	billDate, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return nil, err
	}
	docValue, err := wireDecimal(val)
	if err != nil {
		return nil, err
	}

	supply := models.InwardSupply{
		BusinessId:    businessId,
		ReturnType:    models.ReturnTypeGSTR2A,
		ReturnPeriod:  returnPeriod,
		SupplierGstin: ctin,
		BillNumber:    number,
		BillDate:      billDate,
		PlaceOfSupply: pos,
		DocumentType:  "Invoice",
		DocumentValue: docValue,
		MatchStatus:   models.InwardMatchUnmatched,
	}
	for _, it := range items {
		item, err := inwardItemFromWire(it)
		if err != nil {
			return nil, err
		}
		supply.Items = append(supply.Items, *item)
		supply.TaxableValue = supply.TaxableValue.Add(item.TaxableValue)
		supply.IgstAmount = supply.IgstAmount.Add(item.IgstAmount)
		supply.CgstAmount = supply.CgstAmount.Add(item.CgstAmount)
		supply.SgstAmount = supply.SgstAmount.Add(item.SgstAmount)
		supply.CessAmount = supply.CessAmount.Add(item.CessAmount)
	}
	return &supply, nil
}

func inwardItemFromWire(it inwardWireItem) (*models.InwardSupplyItem, error) {
	rate, err := wireDecimal(it.Detail.Rate)
	if err != nil {
		return nil, err
	}
	txval, err := wireDecimal(it.Detail.Txval)
	if err != nil {
		return nil, err
	}
	iamt, err := wireDecimal(it.Detail.Iamt)
	if err != nil {
		return nil, err
	}
	camt, err := wireDecimal(it.Detail.Camt)
	if err != nil {
		return nil, err
	}
	samt, err := wireDecimal(it.Detail.Samt)
	if err != nil {
		return nil, err
	}
	csamt, err := wireDecimal(it.Detail.Csamt)
	if err != nil {
		return nil, err
	}
	return &models.InwardSupplyItem{
		TaxRate:      rate,
		TaxableValue: txval,
		IgstAmount:   iamt,
		CgstAmount:   camt,
		SgstAmount:   samt,
		CessAmount:   csamt,
	}, nil
}

func wireDecimal(n json.Number) (decimal.Decimal, error) {
	if n == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(n.String())
}

// StartWorker schedules the nightly 2A refresh when enabled. Each run
// re-downloads the current period for every active business; OTP
// expiry is logged and skipped, not treated as a failure.
func StartWorker() *cron.Cron {
	if !config.GSTAutoRefresh2A() {
		return nil
	}
	logger := config.GetLogger()

	c := cron.New()
	_, err := c.AddFunc("0 2 * * *", func() {
		ctx := context.Background()
		db := config.GetDB()

		var businesses []*models.Business
		if err := db.WithContext(ctx).Where("is_active = ?", true).Find(&businesses).Error; err != nil {
			config.LogError(logger, "gstnsync", "StartWorker", "fetch businesses", nil, err)
			return
		}

		period := time.Now().AddDate(0, -1, 0).Format("012006")
		for _, business := range businesses {
			if err := SyncInwardSupplies(ctx, business, period); err != nil {
				if errors.Is(err, ErrOTPRequired) {
					logger.WithField("gstin", business.Gstin).Info("gstn session expired, otp required")
					continue
				}
				config.LogError(logger, "gstnsync", "SyncInwardSupplies", business.Gstin, period, err)
			}
		}
	})
	if err != nil {
		config.LogError(logger, "gstnsync", "StartWorker", "schedule refresh", nil, err)
		return nil
	}
	c.Start()
	return c
}
