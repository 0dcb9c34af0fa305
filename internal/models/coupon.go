package models

import (
	"time"

	"github.com/google/uuid"
)

// Coupon discount types.
const (
	CouponTypePercentage = "percentage"
	CouponTypeFixed      = "fixed"
)

type Coupon struct {
	BaseModel
	Code        string    `gorm:"uniqueIndex" json:"code"`
	Type        string    `json:"type"`
	Value       float64   `json:"value"`
	MinSpend    float64   `json:"min_spend"`
	MaxDiscount float64   `json:"max_discount"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	UsageCap    int       `json:"usage_cap"`
	UsageCount  int       `json:"usage_count"`
	IsActive    bool      `json:"is_active"`
}

// CouponRedemption records one coupon applied to one order. The unique index
// makes re-applying the same code to the same order a no-op instead of a
// double-counted usage.
type CouponRedemption struct {
	BaseModel
	CouponID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_coupon_redemption" json:"coupon_id"`
	OrderNumber string    `gorm:"uniqueIndex:idx_coupon_redemption" json:"order_number"`
	Amount      float64   `json:"amount"`
}
