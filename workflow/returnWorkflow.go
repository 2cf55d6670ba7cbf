package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bsm/redislock"

	"github.com/mmdatafocus/gst_backend/config"
	"github.com/mmdatafocus/gst_backend/gstr"
	"github.com/mmdatafocus/gst_backend/models"
	"github.com/mmdatafocus/gst_backend/recon"
	"github.com/mmdatafocus/gst_backend/utils"
)

// ReconcileResult is the output of one reconciliation run.
type ReconcileResult struct {
	Reconciled recon.ReconciledData    `json:"reconciled"`
	Summary    []recon.ReconSummaryRow `json:"summary"`
	FromCache  bool                    `json:"from_cache"`
}

// ReconcileReturn reconciles one (gstin, period) GSTR-1 against books.
//
// The cached reconcile blob is returned as-is when the log is flagged
// latest and the blob survived invalidation; every write path that
// changes books/filed/unfiled clears it, so cache hits are always
// consistent. A redis lock serializes concurrent runs for the same
// (gstin, period) best-effort; without redis the known race between
// two runs writing the cache stands, as both runs compute identical
// output from identical inputs.
func ReconcileReturn(ctx context.Context, businessId, gstin, returnPeriod string) (*ReconcileResult, error) {
	log, err := models.GetOrCreateReturnLog(ctx, businessId, gstin, returnPeriod, models.ReturnTypeGSTR1)
	if err != nil {
		return nil, err
	}

	cached, err := log.CanUseCachedReconcile(ctx)
	if err != nil {
		return nil, err
	}
	if cached {
		var result ReconcileResult
		if err := log.LoadBlob(ctx, models.BlobReconcile, &result.Reconciled); err == nil {
			if err := log.LoadBlob(ctx, models.BlobReconcileSummary, &result.Summary); err != nil && !errors.Is(err, utils.ErrorRecordNotFound) {
				return nil, err
			}
			result.FromCache = true
			return &result, nil
		}
	}

	unlock := obtainReconLock(gstin, returnPeriod)
	defer unlock()

	gov, err := loadReturnData(ctx, log, govBlobKind(log))
	if err != nil {
		return nil, err
	}
	books, err := loadReturnData(ctx, log, models.BlobBooks)
	if err != nil {
		return nil, err
	}

	reconciler := recon.NewReconciler(recon.DefaultSettings())
	reconciler.Filed = log.FilingStatus == models.FilingStatusFiled
	reconciled := reconciler.Reconcile(gov, books)
	summary := recon.SummarizeReconciliation(reconciled)

	// the forward pass annotated upload statuses onto books; persist
	// them, then the reconcile blobs. SaveBlob(books) clears the
	// reconcile blobs, so order matters here.
	if !reconciler.Filed {
		if err := log.SaveBlob(ctx, models.BlobBooks, books); err != nil {
			return nil, err
		}
	}
	if err := log.SaveBlob(ctx, models.BlobReconcile, reconciled); err != nil {
		return nil, err
	}
	if err := log.SaveBlob(ctx, models.BlobReconcileSummary, summary); err != nil {
		return nil, err
	}

	return &ReconcileResult{Reconciled: reconciled, Summary: summary}, nil
}

// SaveBooksData persists a freshly built books side together with its
// summary. The reconcile cache is invalidated by the blob write itself.
func SaveBooksData(ctx context.Context, businessId, gstin, returnPeriod string, books gstr.ReturnData) error {
	log, err := models.GetOrCreateReturnLog(ctx, businessId, gstin, returnPeriod, models.ReturnTypeGSTR1)
	if err != nil {
		return err
	}
	if log.FilingStatus == models.FilingStatusFiled {
		return errors.New("filed period books are immutable")
	}
	if err := log.SaveBlob(ctx, models.BlobBooks, books); err != nil {
		return err
	}
	_ = config.RemoveRedisKey(reconSummaryCacheKey(businessId, gstin, returnPeriod))
	return log.SaveBlob(ctx, models.BlobBooksSummary, recon.Summarize(books))
}

// SaveGovData decodes and persists a downloaded GSTR-1 payload as the
// filed or unfiled side, flags the log latest and invalidates the
// reconcile cache.
func SaveGovData(ctx context.Context, businessId, gstin, returnPeriod string, filed bool, wire map[string]json.RawMessage) error {
	registry := gstr.NewRegistry(gstr.Settings{Precision: config.GSTRoundingPrecision()})
	data, err := registry.DecodeReturn(wire)
	if err != nil {
		return err
	}

	log, err := models.GetOrCreateReturnLog(ctx, businessId, gstin, returnPeriod, models.ReturnTypeGSTR1)
	if err != nil {
		return err
	}

	kind, summaryKind := models.BlobUnfiled, models.BlobUnfiledSummary
	if filed {
		kind, summaryKind = models.BlobFiled, models.BlobFiledSummary
		if err := updateFilingStatus(ctx, log); err != nil {
			return err
		}
	}
	if err := log.SaveBlob(ctx, kind, data); err != nil {
		return err
	}
	if err := log.SaveBlob(ctx, summaryKind, recon.Summarize(data)); err != nil {
		return err
	}
	_ = config.RemoveRedisKey(reconSummaryCacheKey(businessId, gstin, returnPeriod))
	return log.SetLatest(ctx, true)
}

// GetReconSummary serves the status-count rollup of one return. The
// dashboard polls this; a short-lived redis copy keeps those polls off
// the blob table. Redis misses (or no redis at all) fall through to a
// full ReconcileReturn, which is itself memoized.
func GetReconSummary(ctx context.Context, businessId, gstin, returnPeriod string) ([]recon.ReconSummaryRow, error) {
	cacheKey := reconSummaryCacheKey(businessId, gstin, returnPeriod)
	var summary []recon.ReconSummaryRow
	if found, err := config.GetRedisObject(cacheKey, &summary); err == nil && found {
		return summary, nil
	}

	result, err := ReconcileReturn(ctx, businessId, gstin, returnPeriod)
	if err != nil {
		return nil, err
	}
	if err := config.SetRedisObject(cacheKey, result.Summary, 10*time.Minute); err != nil {
		config.LogError(config.GetLogger(), "workflow", "GetReconSummary", cacheKey, nil, err)
	}
	return result.Summary, nil
}

func reconSummaryCacheKey(businessId, gstin, returnPeriod string) string {
	return "gst:reconsummary:" + businessId + ":" + gstin + ":" + returnPeriod
}

// FlattenedReconciliation produces the list-of-rows shape served to
// the UI table and the worksheet export.
func FlattenedReconciliation(ctx context.Context, businessId, gstin, returnPeriod string) (map[gstr.Subcategory][]*recon.ReconRow, error) {
	result, err := ReconcileReturn(ctx, businessId, gstin, returnPeriod)
	if err != nil {
		return nil, err
	}
	return recon.FlattenReconciled(result.Reconciled), nil
}

func updateFilingStatus(ctx context.Context, log *models.GSTReturnLog) error {
	if log.FilingStatus == models.FilingStatusFiled {
		return nil
	}
	db := config.GetDB()
	log.FilingStatus = models.FilingStatusFiled
	return db.WithContext(ctx).Model(log).Update("filing_status", models.FilingStatusFiled).Error
}

// govBlobKind prefers the filed side once a period is filed.
func govBlobKind(log *models.GSTReturnLog) models.BlobKind {
	if log.FilingStatus == models.FilingStatusFiled {
		return models.BlobFiled
	}
	return models.BlobUnfiled
}

// loadReturnData treats a never-written blob as an empty side; both
// sides empty still reconcile to an empty result.
func loadReturnData(ctx context.Context, log *models.GSTReturnLog, kind models.BlobKind) (gstr.ReturnData, error) {
	data := make(gstr.ReturnData)
	err := log.LoadBlob(ctx, kind, &data)
	if errors.Is(err, utils.ErrorRecordNotFound) {
		return make(gstr.ReturnData), nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// obtainReconLock serializes runs per (gstin, period) when redis is
// available. Returns a release func; a no-op when locking is
// unavailable or contended past the retry budget.
func obtainReconLock(gstin, returnPeriod string) func() {
	locker := config.GetRedisLock()
	if locker == nil {
		return func() {}
	}
	lock, err := locker.Obtain(config.GetRedisContext(), "gst:recon:"+gstin+":"+returnPeriod, 2*time.Minute, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(500*time.Millisecond), 10),
	})
	if err != nil {
		return func() {}
	}
	return func() { _ = lock.Release(config.GetRedisContext()) }
}
