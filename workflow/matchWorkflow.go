package workflow

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mmdatafocus/gst_backend/config"
	"github.com/mmdatafocus/gst_backend/matcher"
	"github.com/mmdatafocus/gst_backend/models"
	"github.com/mmdatafocus/gst_backend/utils"
)

// MatchSummary reports one matcher run.
type MatchSummary struct {
	Matched            int `json:"matched"`
	UnmatchedPurchases int `json:"unmatched_purchases"`
	UnmatchedSupplies  int `json:"unmatched_supplies"`
}

// MatchPurchases runs the purchase <-> inward-supply cascade for one
// period and persists the resulting links. Records matching no rule
// stay unmatched for manual review; that is normal output.
func MatchPurchases(ctx context.Context, businessId, returnPeriod string) (*MatchSummary, error) {
	periodStart, err := utils.ParseReturnPeriod(returnPeriod)
	if err != nil {
		return nil, err
	}
	periodEnd := periodStart.AddDate(0, 1, 0)

	purchases, err := models.GetUnmatchedPurchaseInvoices(ctx, businessId, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	supplies, err := models.GetUnmatchedInwardSupplies(ctx, businessId, returnPeriod)
	if err != nil {
		return nil, err
	}

	purchasePool := make([]*matcher.Invoice, 0, len(purchases))
	for _, p := range purchases {
		purchasePool = append(purchasePool, p.ToMatcherInvoice())
	}
	supplyPool := make([]*matcher.Invoice, 0, len(supplies))
	for _, s := range supplies {
		supplyPool = append(supplyPool, s.ToMatcherInvoice())
	}

	m := matcher.New(config.GetMatcherSettings())
	results, unmatchedPurchases, unmatchedSupplies := m.Match(purchasePool, supplyPool)

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, result := range results {
			status := inwardStatusFor(result.MatchStatus)
			if err := models.RecordMatch(ctx, tx, int(result.InwardSupply.ID), int(result.Purchase.ID), status); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logMatchRun(businessId, returnPeriod, len(results), len(unmatchedPurchases), len(unmatchedSupplies))
	return &MatchSummary{
		Matched:            len(results),
		UnmatchedPurchases: len(unmatchedPurchases),
		UnmatchedSupplies:  len(unmatchedSupplies),
	}, nil
}

func inwardStatusFor(status matcher.MatchStatus) models.InwardMatchStatus {
	switch status {
	case matcher.MatchExact:
		return models.InwardMatchExact
	case matcher.MatchSuggested:
		return models.InwardMatchSuggested
	case matcher.MatchMismatch:
		return models.InwardMatchMismatch
	default:
		return models.InwardMatchResidual
	}
}

func logMatchRun(businessId, returnPeriod string, matched, unmatchedPurchases, unmatchedSupplies int) {
	logger := config.GetLogger()
	logger.WithField("business_id", businessId).
		WithField("return_period", returnPeriod).
		WithField("matched", matched).
		WithField("unmatched_purchases", unmatchedPurchases).
		WithField("unmatched_supplies", unmatchedSupplies).
		WithField("at", time.Now().Format(time.RFC3339)).
		Info("purchase match run complete")
}
