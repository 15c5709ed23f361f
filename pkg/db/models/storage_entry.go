package models

import "time"

// StorageEntry is one persisted client-state value for a device.
type StorageEntry struct {
	DeviceID   string    `gorm:"column:device_id;primaryKey"`
	StorageKey string    `gorm:"column:storage_key;primaryKey"`
	Value      string    `gorm:"column:value;type:text;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at;not null"`
}

func (StorageEntry) TableName() string { return "storage_entries" }
