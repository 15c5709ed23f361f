package storage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/hometex/storefront/pkg/logger"
	"github.com/hometex/storefront/pkg/metrics"
)

// Persister layers JSON encoding and failure recovery over a KV. Reads of
// absent or corrupt values report "not found"; failed writes are logged and
// swallowed so in-memory state stays authoritative for the session.
type Persister struct {
	kv      KV
	store   string
	logg    *logger.Logger
	metrics *metrics.StoreMetrics
}

// NewPersister binds a KV to the named store for logging and metrics.
func NewPersister(kv KV, store string, logg *logger.Logger, m *metrics.StoreMetrics) *Persister {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Persister{kv: kv, store: store, logg: logg, metrics: m}
}

// LoadRaw returns the stored string and whether it exists.
func (p *Persister) LoadRaw(ctx context.Context, key string) (string, bool) {
	if p == nil || p.kv == nil {
		return "", false
	}
	raw, err := p.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			ctx = p.logg.WithFields(ctx, map[string]any{"store": p.store, "key": key})
			p.logg.Error(ctx, "storage.read_failed", err)
		}
		return "", false
	}
	return raw, true
}

// Load decodes the JSON value at key into dest. It returns false when the key
// is absent or the payload is corrupt.
func (p *Persister) Load(ctx context.Context, key string, dest any) bool {
	raw, ok := p.LoadRaw(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		p.reportCorrupt(ctx, key, err)
		return false
	}
	return true
}

// Save encodes value as JSON and writes it to key.
func (p *Persister) Save(ctx context.Context, key string, value any) {
	if p == nil || p.kv == nil {
		return
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		p.reportWriteFailure(ctx, key, "encode", err)
		return
	}
	p.SaveRaw(ctx, key, string(encoded))
}

// SaveRaw writes value verbatim.
func (p *Persister) SaveRaw(ctx context.Context, key, value string) {
	if p == nil || p.kv == nil {
		return
	}
	if err := p.kv.Set(ctx, key, value); err != nil {
		p.reportWriteFailure(ctx, key, "set", err)
	}
}

// Remove deletes key.
func (p *Persister) Remove(ctx context.Context, key string) {
	if p == nil || p.kv == nil {
		return
	}
	if err := p.kv.Remove(ctx, key); err != nil {
		p.reportWriteFailure(ctx, key, "remove", err)
	}
}

// ReportCorrupt lets callers with custom decoders flag an undecodable payload.
func (p *Persister) ReportCorrupt(ctx context.Context, key string, err error) {
	p.reportCorrupt(ctx, key, err)
}

func (p *Persister) reportCorrupt(ctx context.Context, key string, err error) {
	p.metrics.IncCorruptRead(key)
	ctx = p.logg.WithFields(ctx, map[string]any{"store": p.store, "key": key, "error": err.Error()})
	p.logg.Warn(ctx, "storage.corrupt_value_ignored")
}

func (p *Persister) reportWriteFailure(ctx context.Context, key, op string, err error) {
	p.metrics.IncPersistFailure(p.store, op)
	ctx = p.logg.WithFields(ctx, map[string]any{"store": p.store, "key": key, "op": op})
	p.logg.Error(ctx, "storage.write_failed", err)
}
