package models

import (
	"time"

	"github.com/google/uuid"
)

// User carries the cached loyalty balance. The point_history ledger is the
// source of truth; reward_points is a projection kept in the same
// transaction as every ledger write.
type User struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string    `gorm:"column:email;uniqueIndex;not null"`
	Phone        *string   `gorm:"column:phone"`
	RewardPoints int       `gorm:"column:reward_points;not null;default:0"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
