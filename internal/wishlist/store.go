// Package wishlist keeps the saved products of one device. The wishlist is
// device-level: it is not scoped to the signed-in identity.
package wishlist

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hometex/storefront/internal/notify"
	pkgerrors "github.com/hometex/storefront/pkg/errors"
	"github.com/hometex/storefront/pkg/logger"
	"github.com/hometex/storefront/pkg/metrics"
	"github.com/hometex/storefront/pkg/observer"
	"github.com/hometex/storefront/pkg/storage"
	"github.com/hometex/storefront/pkg/types"
)

const storeName = "wishlist"

// Item is one saved product.
type Item struct {
	ProductID string                `json:"productId"`
	Product   types.ProductSnapshot `json:"product"`
	AddedAt   time.Time             `json:"addedAt"`
}

// StoreParams groups dependencies for the wishlist store.
type StoreParams struct {
	KV       storage.KV
	Notifier notify.Notifier
	Logger   *logger.Logger
	Metrics  *metrics.StoreMetrics
	Now      func() time.Time
}

// Store is the wishlist of one device.
type Store struct {
	mu    sync.Mutex
	items []Item

	persister *storage.Persister
	notifier  notify.Notifier
	logg      *logger.Logger
	metrics   *metrics.StoreMetrics
	now       func() time.Time
	topic     observer.Topic[[]Item]
}

// NewStore builds the wishlist and loads the persisted list.
func NewStore(ctx context.Context, params StoreParams) (*Store, error) {
	if params.KV == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "key-value storage is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	notifier := params.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	s := &Store{
		items:     []Item{},
		persister: storage.NewPersister(params.KV, storeName, logg, params.Metrics),
		notifier:  notifier,
		logg:      logg,
		metrics:   params.Metrics,
		now:       now,
	}
	s.Reload(ctx)
	return s, nil
}

// Reload replaces the in-memory list with the persisted one.
func (s *Store) Reload(ctx context.Context) {
	ctx = s.logg.WithStore(ctx, storeName)
	var persisted []Item
	if !s.persister.Load(ctx, storage.KeyWishlist, &persisted) {
		persisted = nil
	}
	items := dedupe(persisted)

	s.mu.Lock()
	s.items = items
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.topic.Publish(snap)
}

// AddItem toggles product: a saved product is removed, otherwise it is
// appended. It reports whether the product is now saved.
func (s *Store) AddItem(ctx context.Context, product types.ProductSnapshot) (bool, error) {
	product = product.Normalize()
	if product.ID == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	var added bool
	s.mutate(ctx, "toggle", func(items []Item) []Item {
		if indexOf(items, product.ID) >= 0 {
			return without(items, product.ID)
		}
		added = true
		return append(items, Item{ProductID: product.ID, Product: product, AddedAt: s.now().UTC()})
	})

	name := product.Name
	if name == "" {
		name = "Item"
	}
	if added {
		s.notifier.Success(ctx, fmt.Sprintf("%s added to wishlist", name))
	} else {
		s.notifier.Info(ctx, fmt.Sprintf("%s removed from wishlist", name))
	}
	return added, nil
}

// RemoveItem drops productID if present.
func (s *Store) RemoveItem(ctx context.Context, productID string) {
	s.mutate(ctx, "remove_item", func(items []Item) []Item {
		return without(items, productID)
	})
	s.notifier.Info(ctx, "Removed from wishlist")
}

// Clear empties the wishlist.
func (s *Store) Clear(ctx context.Context) {
	s.mutate(ctx, "clear", func([]Item) []Item {
		return []Item{}
	})
	s.notifier.Info(ctx, "Wishlist cleared")
}

func (s *Store) IsInWishlist(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return indexOf(s.items, productID) >= 0
}

// Items returns a copy of the saved products in insertion order.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Subscribe registers fn for wishlist changes and returns the unsubscribe func.
func (s *Store) Subscribe(fn func([]Item)) func() {
	return s.topic.Subscribe(fn)
}

func (s *Store) mutate(ctx context.Context, op string, fn func([]Item) []Item) {
	ctx = s.logg.WithStore(ctx, storeName)

	s.mu.Lock()
	s.items = fn(s.snapshotLocked())
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.persister.Save(ctx, storage.KeyWishlist, snap)
	s.metrics.IncMutation(storeName, op)
	s.topic.Publish(snap)
}

func (s *Store) snapshotLocked() []Item {
	return append([]Item{}, s.items...)
}

func indexOf(items []Item, productID string) int {
	for i, item := range items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

func without(items []Item, productID string) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if item.ProductID != productID {
			out = append(out, item)
		}
	}
	return out
}

// dedupe keeps the first entry per product and fills ids missing from older payloads.
func dedupe(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if item.ProductID == "" {
			item.ProductID = item.Product.ID
		}
		if item.ProductID == "" || indexOf(out, item.ProductID) >= 0 {
			continue
		}
		out = append(out, item)
	}
	return out
}
