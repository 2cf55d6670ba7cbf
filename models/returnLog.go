package models

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mmdatafocus/gst_backend/config"
	"github.com/mmdatafocus/gst_backend/utils"
)

// GSTReturnLog owns the persisted blobs of one (gstin, period,
// return type) reconciliation: books, filed, unfiled, reconcile and
// their summaries. IsLatest marks that the gov-side data has not
// changed since the last download; with an existing reconcile blob it
// authorizes returning the cached reconciliation without recomputing.
type GSTReturnLog struct {
	ID           int          `gorm:"primary_key" json:"id"`
	BusinessId   string       `gorm:"index;not null" json:"business_id" binding:"required"`
	Gstin        string       `gorm:"index;size:15;not null" json:"gstin" binding:"required"`
	ReturnPeriod string       `gorm:"index;size:6;not null" json:"return_period" binding:"required"`
	ReturnType   ReturnType   `gorm:"type:enum('GSTR-1','GSTR-2A','GSTR-2B');not null" json:"return_type"`
	FilingStatus FilingStatus `gorm:"type:enum('Not Filed','Filed');default:'Not Filed'" json:"filing_status"`
	IsLatest     *bool        `gorm:"not null;default:false" json:"is_latest"`
	Blobs        []ReturnBlob `json:"-"`
	CreatedAt    time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

// ReturnBlob is one named gzip-compressed JSON payload of a return
// log.
type ReturnBlob struct {
	ID             int       `gorm:"primary_key" json:"id"`
	GSTReturnLogId int       `gorm:"uniqueIndex:idx_return_blob_kind;not null" json:"gst_return_log_id"`
	Kind           BlobKind  `gorm:"uniqueIndex:idx_return_blob_kind;size:32;not null" json:"kind"`
	Content        []byte    `gorm:"type:longblob" json:"-"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (l *GSTReturnLog) GetID() int {
	return l.ID
}

// GetOrCreateReturnLog loads the log row for one (gstin, period,
// return type), creating it on first request.
func GetOrCreateReturnLog(ctx context.Context, businessId, gstin, returnPeriod string, returnType ReturnType) (*GSTReturnLog, error) {
	if _, err := utils.ParseReturnPeriod(returnPeriod); err != nil {
		return nil, err
	}
	db := config.GetDB()
	log := GSTReturnLog{
		BusinessId:   businessId,
		Gstin:        gstin,
		ReturnPeriod: returnPeriod,
		ReturnType:   returnType,
		IsLatest:     utils.NewFalse(),
	}
	err := db.WithContext(ctx).
		Where(GSTReturnLog{
			BusinessId:   businessId,
			Gstin:        gstin,
			ReturnPeriod: returnPeriod,
			ReturnType:   returnType,
		}).
		FirstOrCreate(&log).Error
	if err != nil {
		return nil, err
	}
	return &log, nil
}

// SaveBlob writes one named blob. Writing any reconciliation input
// (books, filed, unfiled) deletes the cached reconcile blobs in the
// same transaction: invalidation is immediate, not lazy.
func (l *GSTReturnLog) SaveBlob(ctx context.Context, kind BlobKind, v any) error {
	content, err := utils.GzipJSON(v)
	if err != nil {
		return err
	}

	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		blob := ReturnBlob{GSTReturnLogId: l.ID, Kind: kind}
		if err := tx.Where(blob).FirstOrCreate(&blob).Error; err != nil {
			return err
		}
		if err := tx.Model(&blob).Update("content", content).Error; err != nil {
			return err
		}
		if reconInputKinds[kind] {
			return l.deleteReconcileBlobs(tx)
		}
		return nil
	})
}

// LoadBlob reads one named blob into dest. utils.ErrorRecordNotFound
// signals the blob has never been written (or was invalidated).
func (l *GSTReturnLog) LoadBlob(ctx context.Context, kind BlobKind, dest any) error {
	db := config.GetDB()
	var blob ReturnBlob
	err := db.WithContext(ctx).
		Where("gst_return_log_id = ? AND kind = ?", l.ID, kind).
		First(&blob).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.ErrorRecordNotFound
	}
	if err != nil {
		return err
	}
	return utils.GunzipJSON(blob.Content, dest)
}

// HasBlob reports whether a named blob currently exists.
func (l *GSTReturnLog) HasBlob(ctx context.Context, kind BlobKind) (bool, error) {
	db := config.GetDB()
	var count int64
	err := db.WithContext(ctx).Model(&ReturnBlob{}).
		Where("gst_return_log_id = ? AND kind = ?", l.ID, kind).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InvalidateReconcile drops the cached reconciliation explicitly, for
// callers outside the blob write path (gov re-download, CLI rebuild).
func (l *GSTReturnLog) InvalidateReconcile(ctx context.Context) error {
	db := config.GetDB()
	return l.deleteReconcileBlobs(db.WithContext(ctx))
}

func (l *GSTReturnLog) deleteReconcileBlobs(tx *gorm.DB) error {
	return tx.
		Where("gst_return_log_id = ? AND kind IN (?)", l.ID, []BlobKind{BlobReconcile, BlobReconcileSummary}).
		Delete(&ReturnBlob{}).Error
}

// SetLatest flips the gov-data freshness flag.
func (l *GSTReturnLog) SetLatest(ctx context.Context, latest bool) error {
	db := config.GetDB()
	l.IsLatest = &latest
	return db.WithContext(ctx).Model(l).Update("is_latest", latest).Error
}

// CanUseCachedReconcile is the memoization contract of the
// reconciler: the gov data is flagged latest and a reconcile blob
// survived invalidation.
func (l *GSTReturnLog) CanUseCachedReconcile(ctx context.Context) (bool, error) {
	if !utils.DereferencePtr(l.IsLatest, false) {
		return false, nil
	}
	return l.HasBlob(ctx, BlobReconcile)
}
