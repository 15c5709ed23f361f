// Package session wires the client-state stores of one device together and
// keeps them in memory while the device is active.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hometex/storefront/internal/auth"
	"github.com/hometex/storefront/internal/cart"
	"github.com/hometex/storefront/internal/notify"
	"github.com/hometex/storefront/internal/orders"
	"github.com/hometex/storefront/internal/wishlist"
	pkgerrors "github.com/hometex/storefront/pkg/errors"
	"github.com/hometex/storefront/pkg/latency"
	"github.com/hometex/storefront/pkg/logger"
	"github.com/hometex/storefront/pkg/metrics"
	"github.com/hometex/storefront/pkg/storage"
	"golang.org/x/sync/singleflight"
)

const maxDeviceIDLength = 128

// ManagerParams groups dependencies for the session manager.
type ManagerParams struct {
	Storage storage.Provider
	Backend auth.Backend
	Logger  *logger.Logger
	Metrics *metrics.StoreMetrics
	Now     func() time.Time

	SocialWaiter    latency.Waiter
	PlacementWaiter latency.Waiter
	DebounceWindow  time.Duration
	FeedCapacity    int
	TokenLeeway     time.Duration
	IdleTTL         time.Duration
}

// Bundle is the wired set of stores for one device. Run serialises
// operations so two requests for the same device never interleave.
type Bundle struct {
	DeviceID string
	Auth     *auth.Store
	Cart     *cart.Store
	Wishlist *wishlist.Store
	Orders   *orders.Store
	Feed     *notify.Feed

	mu          sync.Mutex
	lastUsed    time.Time
	unsubscribe func()
}

// Run executes fn while holding the device lock.
func (b *Bundle) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return fn(ctx)
}

// Manager lazily builds and caches bundles by device id.
type Manager struct {
	mu      sync.Mutex
	bundles map[string]*Bundle
	builds  singleflight.Group
	params  ManagerParams
	logg    *logger.Logger
	now     func() time.Time
}

// NewManager validates dependencies and returns a manager.
func NewManager(params ManagerParams) (*Manager, error) {
	if params.Storage == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "storage provider is required")
	}
	if params.Backend == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "auth backend is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	if params.FeedCapacity <= 0 {
		params.FeedCapacity = 20
	}
	return &Manager{
		bundles: make(map[string]*Bundle),
		params:  params,
		logg:    logg,
		now:     now,
	}, nil
}

// Get returns the bundle for deviceID, building and hydrating it on first use.
// Builds run outside the manager lock; concurrent first requests for one
// device share a single build.
func (m *Manager) Get(ctx context.Context, deviceID string) (*Bundle, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "device id is required")
	}
	if len(deviceID) > maxDeviceIDLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("device id must be at most %d characters", maxDeviceIDLength))
	}

	if b, ok := m.cached(deviceID); ok {
		return b, nil
	}

	v, err, _ := m.builds.Do(deviceID, func() (any, error) {
		if b, ok := m.cached(deviceID); ok {
			return b, nil
		}
		b, err := m.build(ctx, deviceID)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.bundles[deviceID] = b
		m.mu.Unlock()
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Bundle), nil
}

func (m *Manager) cached(deviceID string) (*Bundle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bundles[deviceID]
	if ok {
		b.lastUsed = m.now()
	}
	return b, ok
}

// build hydrates auth first, then hands the identity to the cart explicitly.
func (m *Manager) build(ctx context.Context, deviceID string) (*Bundle, error) {
	ctx = m.logg.WithDeviceID(ctx, deviceID)
	kv := m.params.Storage.ForDevice(deviceID)
	feed := notify.NewFeed(m.params.FeedCapacity)
	notifier := notify.Fanout(feed, notify.NewLogSink(m.logg))

	authStore, err := auth.NewStore(auth.StoreParams{
		KV:           kv,
		Backend:      m.params.Backend,
		Notifier:     notifier,
		Logger:       m.logg,
		Metrics:      m.params.Metrics,
		SocialWaiter: m.params.SocialWaiter,
		Now:          m.now,
		TokenLeeway:  m.params.TokenLeeway,
	})
	if err != nil {
		return nil, err
	}
	authStore.Hydrate(ctx)

	cartStore, err := cart.NewStore(ctx, cart.StoreParams{
		KV:             kv,
		Identity:       authStore.Current(),
		Notifier:       notifier,
		Logger:         m.logg,
		Metrics:        m.params.Metrics,
		Now:            m.now,
		DebounceWindow: m.params.DebounceWindow,
	})
	if err != nil {
		return nil, err
	}

	wishlistStore, err := wishlist.NewStore(ctx, wishlist.StoreParams{
		KV:       kv,
		Notifier: notifier,
		Logger:   m.logg,
		Metrics:  m.params.Metrics,
		Now:      m.now,
	})
	if err != nil {
		return nil, err
	}

	orderStore, err := orders.NewStore(ctx, orders.StoreParams{
		KV:              kv,
		Notifier:        notifier,
		Logger:          m.logg,
		Metrics:         m.params.Metrics,
		Now:             m.now,
		PlacementWaiter: m.params.PlacementWaiter,
		CurrentUserID: func() string {
			if id := authStore.Current(); id != nil {
				return id.ID
			}
			return ""
		},
	})
	if err != nil {
		return nil, err
	}

	identityCtx := m.logg.WithDeviceID(context.Background(), deviceID)
	unsubscribe := authStore.Subscribe(func(identity *auth.Identity) {
		cartStore.OnIdentityChange(identityCtx, identity)
	})

	m.logg.Debug(ctx, "device session created")
	return &Bundle{
		DeviceID:    deviceID,
		Auth:        authStore,
		Cart:        cartStore,
		Wishlist:    wishlistStore,
		Orders:      orderStore,
		Feed:        feed,
		lastUsed:    m.now(),
		unsubscribe: unsubscribe,
	}, nil
}

// EvictIdle drops bundles unused for longer than the idle TTL and returns
// how many were evicted. Persisted state is untouched.
func (m *Manager) EvictIdle() int {
	if m.params.IdleTTL <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.params.IdleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, b := range m.bundles {
		if b.lastUsed.Before(cutoff) {
			if b.unsubscribe != nil {
				b.unsubscribe()
			}
			delete(m.bundles, id)
			evicted++
		}
	}
	return evicted
}

// Len reports the number of cached bundles.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bundles)
}

// Run evicts idle bundles periodically until ctx is done.
func (m *Manager) Run(ctx context.Context) error {
	if m.params.IdleTTL <= 0 {
		<-ctx.Done()
		return nil
	}
	interval := m.params.IdleTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := m.EvictIdle(); n > 0 {
				m.logg.Debug(m.logg.WithField(ctx, "evicted", n), "idle device sessions evicted")
			}
		}
	}
}
