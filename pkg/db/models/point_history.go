package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/yasboss/storefront-backend/pkg/enums"
)

// PointHistory is the append-only loyalty ledger. Rows are never updated or
// deleted; the user's balance must always equal the sum of deltas.
type PointHistory struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserEmail string            `gorm:"column:user_email;not null;index"`
	Delta     int               `gorm:"column:delta;not null"`
	Type      enums.PointTxType `gorm:"column:type;not null"`
	Reference *string           `gorm:"column:reference"`
	Note      *string           `gorm:"column:note"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}
