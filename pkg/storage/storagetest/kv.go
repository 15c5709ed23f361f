// Package storagetest provides KV doubles for store tests.
package storagetest

import (
	"context"
	"errors"

	"github.com/hometex/storefront/pkg/storage"
)

// ErrQuotaExceeded mimics a browser refusing a write.
var ErrQuotaExceeded = errors.New("quota exceeded")

// FlakyKV wraps a KV and fails writes while FailWrites is set.
type FlakyKV struct {
	storage.KV
	FailWrites bool
	FailReads  bool
	Writes     int
}

// NewFlaky wraps a fresh in-memory KV.
func NewFlaky() *FlakyKV {
	return &FlakyKV{KV: storage.NewMemory().ForDevice("test")}
}

func (f *FlakyKV) Get(ctx context.Context, key string) (string, error) {
	if f.FailReads {
		return "", errors.New("read failed")
	}
	return f.KV.Get(ctx, key)
}

func (f *FlakyKV) Set(ctx context.Context, key, value string) error {
	f.Writes++
	if f.FailWrites {
		return ErrQuotaExceeded
	}
	return f.KV.Set(ctx, key, value)
}

func (f *FlakyKV) Remove(ctx context.Context, key string) error {
	f.Writes++
	if f.FailWrites {
		return ErrQuotaExceeded
	}
	return f.KV.Remove(ctx, key)
}

// Raw returns the stored value or "" when absent.
func Raw(kv storage.KV, key string) string {
	value, err := kv.Get(context.Background(), key)
	if err != nil {
		return ""
	}
	return value
}
