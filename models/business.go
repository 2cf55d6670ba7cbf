package models

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/mmdatafocus/gst_backend/config"
	"github.com/mmdatafocus/gst_backend/utils"
)

// Business is one GSTIN registration the service prepares returns for.
type Business struct {
	ID           int          `gorm:"primary_key" json:"id"`
	BusinessId   string       `gorm:"uniqueIndex;size:64;not null" json:"business_id" binding:"required"`
	Name         string       `gorm:"size:255;not null" json:"name" binding:"required"`
	Gstin        string       `gorm:"uniqueIndex;size:15;not null" json:"gstin" binding:"required"`
	StateCode    string       `gorm:"size:2;not null" json:"state_code"`
	Email        string       `gorm:"size:255;default:null" json:"email"`
	FilingStatus FilingStatus `gorm:"type:enum('Not Filed','Filed');default:'Not Filed'" json:"filing_status"`
	IsActive     *bool        `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

var gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)

// gstinAlphabet is the base-36 alphabet of the GSTIN check digit.
const gstinAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// ValidateGstin checks shape and check digit of a GSTIN.
func ValidateGstin(gstin string) error {
	gstin = strings.ToUpper(strings.TrimSpace(gstin))
	if !gstinPattern.MatchString(gstin) {
		return errors.New("invalid gstin format")
	}

	// weighted mod-36 checksum over the first 14 characters
	sum := 0
	for i, ch := range gstin[:14] {
		value := strings.IndexRune(gstinAlphabet, ch)
		if value < 0 {
			return errors.New("invalid gstin character")
		}
		factor := 1
		if i%2 == 1 {
			factor = 2
		}
		product := value * factor
		sum += product/36 + product%36
	}
	check := (36 - sum%36) % 36
	if gstinAlphabet[check] != gstin[14] {
		return errors.New("invalid gstin check digit")
	}
	return nil
}

// PanFromGstin extracts the shared legal-entity prefix used by the
// matcher's second tier.
func PanFromGstin(gstin string) string {
	if len(gstin) < 10 {
		return gstin
	}
	return gstin[:10]
}

// CreateBusiness registers the GSTIN profile of the calling tenant.
func CreateBusiness(ctx context.Context, business *Business) error {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok {
		return errors.New("business id not found in context")
	}
	business.BusinessId = businessId
	business.Gstin = strings.ToUpper(strings.TrimSpace(business.Gstin))
	if err := ValidateGstin(business.Gstin); err != nil {
		return err
	}
	business.StateCode = business.Gstin[:2]
	if business.Email != "" && !utils.IsValidEmail(business.Email) {
		return errors.New("invalid email address")
	}
	if business.IsActive == nil {
		business.IsActive = utils.NewTrue()
	}
	db := config.GetDB()
	return db.WithContext(ctx).Create(business).Error
}

func GetBusiness(ctx context.Context, id int) (*Business, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok {
		return nil, errors.New("business id not found in context")
	}
	return utils.FetchModel[Business](ctx, businessId, id)
}

func GetBusinessByGstin(ctx context.Context, gstin string) (*Business, error) {
	if err := ValidateGstin(gstin); err != nil {
		return nil, err
	}
	var business Business
	db := config.GetDB()
	if err := db.WithContext(ctx).Where("gstin = ?", strings.ToUpper(gstin)).First(&business).Error; err != nil {
		return nil, err
	}
	return &business, nil
}
