package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yasboss/storefront-backend/pkg/enums"
)

// Order is the durable record of a purchase. Line items are snapshotted at
// checkout; money fields are computed once at creation and never recomputed.
type Order struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Reference string    `gorm:"column:reference;uniqueIndex;not null"`
	UserEmail string    `gorm:"column:user_email;not null;index"`

	Status       enums.OrderStatus  `gorm:"column:status;not null;default:'PENDING'"`
	RefundStatus enums.RefundStatus `gorm:"column:refund_status;not null;default:'NONE'"`

	Subtotal       decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"column:discount_amount;type:numeric(12,2);not null;default:0"`
	PointsValue    decimal.Decimal `gorm:"column:points_value;type:numeric(12,2);not null;default:0"`
	ShippingFee    decimal.Decimal `gorm:"column:shipping_fee;type:numeric(12,2);not null;default:0"`
	TaxAmount      decimal.Decimal `gorm:"column:tax_amount;type:numeric(12,2);not null;default:0"`
	TotalAmount    decimal.Decimal `gorm:"column:total_amount;type:numeric(12,2);not null"`

	AppliedCoupon *string `gorm:"column:applied_coupon"`
	PointsUsed    int     `gorm:"column:points_used;not null;default:0"`

	PointsToEarn   int  `gorm:"column:points_to_earn;not null;default:0"`
	PointsCredited bool `gorm:"column:points_credited;not null;default:false"`

	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;not null;default:'COD'"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;not null;default:'PENDING'"`
	PaymentRef    *string             `gorm:"column:payment_ref"`

	ShippingAddress string  `gorm:"column:shipping_address;not null"`
	CustomerNotes   *string `gorm:"column:customer_notes"`

	AgentName  *string `gorm:"column:agent_name"`
	AgentPhone *string `gorm:"column:agent_phone"`

	TrackingID  *string `gorm:"column:tracking_id;index"`
	TrackingURL *string `gorm:"column:tracking_url"`

	OrderDate         time.Time  `gorm:"column:order_date;not null"`
	EstimatedDelivery *time.Time `gorm:"column:estimated_delivery"`
	DeliveredAt       *time.Time `gorm:"column:delivered_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
