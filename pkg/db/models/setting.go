package models

import "time"

// Setting is an admin-tunable key/value pair (tax percent, free shipping
// threshold, return window). Reads go through a TTL cache; writes
// invalidate it.
type Setting struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
