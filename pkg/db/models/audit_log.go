package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog records every attempted order transition. Writing it must never
// block or roll back the operation being audited.
type AuditLog struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Kind      string    `gorm:"column:kind;not null"`
	Message   string    `gorm:"column:message;not null"`
	ActorID   string    `gorm:"column:actor_id;not null"`
	ActorRole string    `gorm:"column:actor_role;not null"`
	Level     string    `gorm:"column:level;not null;default:'info'"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
