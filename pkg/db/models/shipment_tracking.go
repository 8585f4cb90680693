package models

import (
	"time"

	"github.com/google/uuid"
)

// ShipmentTracking mirrors the carrier-side state of one waybill. Status is
// a derived "latest" view kept in sync with the newest shipment log entry.
type ShipmentTracking struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderRef        string     `gorm:"column:order_ref;not null;index"`
	WaybillNumber   string     `gorm:"column:waybill_number;uniqueIndex;not null"`
	Carrier         string     `gorm:"column:carrier;not null"`
	FromCity        *string    `gorm:"column:from_city"`
	ToCity          *string    `gorm:"column:to_city"`
	CurrentLocation *string    `gorm:"column:current_location"`
	DeadWeightKg    *float64   `gorm:"column:dead_weight_kg"`
	VolWeightKg     *float64   `gorm:"column:vol_weight_kg"`
	Status          string     `gorm:"column:status;not null"`
	ShipDate        *time.Time `gorm:"column:ship_date"`
	EstimatedAt     *time.Time `gorm:"column:estimated_at"`
	LastEventAt     *time.Time `gorm:"column:last_event_at"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
