package db

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hometex/storefront/pkg/db/models"
	"github.com/hometex/storefront/pkg/storage"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KVProvider persists device-scoped client state in the storage_entries table.
type KVProvider struct {
	client *Client
	now    func() time.Time
}

// NewKVProvider returns a storage.Provider backed by the SQL client.
func NewKVProvider(client *Client) *KVProvider {
	return &KVProvider{client: client, now: time.Now}
}

// ForDevice scopes reads and writes to a single device id.
func (p *KVProvider) ForDevice(deviceID string) storage.KV {
	return &deviceKV{provider: p, deviceID: strings.TrimSpace(deviceID)}
}

// Ping verifies the database is reachable.
func (p *KVProvider) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

type deviceKV struct {
	provider *KVProvider
	deviceID string
}

func (d *deviceKV) Get(ctx context.Context, key string) (string, error) {
	var entry models.StorageEntry
	err := d.provider.client.DB().WithContext(ctx).
		Where("device_id = ? AND storage_key = ?", d.deviceID, key).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return entry.Value, nil
}

func (d *deviceKV) Set(ctx context.Context, key, value string) error {
	entry := models.StorageEntry{
		DeviceID:   d.deviceID,
		StorageKey: key,
		Value:      value,
		UpdatedAt:  d.provider.now().UTC(),
	}
	return d.provider.client.DB().WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "device_id"}, {Name: "storage_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error
}

func (d *deviceKV) Remove(ctx context.Context, key string) error {
	return d.provider.client.DB().WithContext(ctx).
		Where("device_id = ? AND storage_key = ?", d.deviceID, key).
		Delete(&models.StorageEntry{}).Error
}
