package models

import (
	"time"

	"github.com/google/uuid"
)

// ShipmentLog is one discrete carrier event for a waybill. Rows are only
// ever appended, one per received event, including replays.
type ShipmentLog struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WaybillNumber string    `gorm:"column:waybill_number;not null;index"`
	Status        string    `gorm:"column:status;not null"`
	Location      *string   `gorm:"column:location"`
	Detail        *string   `gorm:"column:detail"`
	EventAt       time.Time `gorm:"column:event_at;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}
