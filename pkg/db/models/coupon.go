package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yasboss/storefront-backend/pkg/enums"
)

// Coupon is a redeemable discount rule. Codes are stored trimmed and
// uppercased; used_count only moves on redemption, never on validation.
type Coupon struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code          string           `gorm:"column:code;uniqueIndex;not null"`
	Type          enums.CouponType `gorm:"column:type;not null"`
	Value         decimal.Decimal  `gorm:"column:value;type:numeric(12,2);not null"`
	MinOrderValue decimal.Decimal  `gorm:"column:min_order_value;type:numeric(12,2);not null;default:0"`
	ExpiresAt     *time.Time       `gorm:"column:expires_at"`
	Active        bool             `gorm:"column:active;not null;default:true"`
	UsageLimit    *int             `gorm:"column:usage_limit"`
	UsedCount     int              `gorm:"column:used_count;not null;default:0"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
