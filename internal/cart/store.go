// Package cart is the owner-scoped shopping cart of one device.
package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hometex/storefront/internal/auth"
	"github.com/hometex/storefront/internal/notify"
	pkgerrors "github.com/hometex/storefront/pkg/errors"
	"github.com/hometex/storefront/pkg/logger"
	"github.com/hometex/storefront/pkg/metrics"
	"github.com/hometex/storefront/pkg/observer"
	"github.com/hometex/storefront/pkg/storage"
	"github.com/hometex/storefront/pkg/types"
	"github.com/shopspring/decimal"
)

const (
	storeName = "cart"

	// DefaultDebounceWindow suppresses repeated "added to cart" notices.
	DefaultDebounceWindow = 500 * time.Millisecond
)

// AddItemInput describes a product being put in the cart.
type AddItemInput struct {
	Product  types.ProductSnapshot
	Quantity int
	Color    string
	Size     string
}

// StoreParams groups dependencies for the cart store.
type StoreParams struct {
	KV storage.KV
	// Identity is the already-hydrated identity the cart starts with.
	Identity       *auth.Identity
	Notifier       notify.Notifier
	Logger         *logger.Logger
	Metrics        *metrics.StoreMetrics
	Now            func() time.Time
	DebounceWindow time.Duration
}

// Store is the cart of one device.
type Store struct {
	mu          sync.Mutex
	initialized bool
	owner       *string
	items       []LineItem
	panelOpen   bool
	lastNotice  string
	lastShownAt time.Time

	persister *storage.Persister
	notifier  notify.Notifier
	logg      *logger.Logger
	metrics   *metrics.StoreMetrics
	now       func() time.Time
	debounce  time.Duration
	topic     observer.Topic[Snapshot]
}

// NewStore builds the cart and reconciles it against the starting identity.
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
	debounce := params.DebounceWindow
	if debounce <= 0 {
		debounce = DefaultDebounceWindow
	}
	s := &Store{
		items:     []LineItem{},
		persister: storage.NewPersister(params.KV, storeName, logg, params.Metrics),
		notifier:  notifier,
		logg:      logg,
		metrics:   params.Metrics,
		now:       now,
		debounce:  debounce,
	}
	s.OnIdentityChange(ctx, params.Identity)
	return s, nil
}

// OnIdentityChange reconciles cart ownership with a newly published identity.
func (s *Store) OnIdentityChange(ctx context.Context, identity *auth.Identity) Outcome {
	ctx = s.logg.WithStore(ctx, storeName)
	raw, ok := s.persister.LoadRaw(ctx, storage.KeyCart)

	s.mu.Lock()
	result := Reconcile(ReconcileInput{
		Initialized:  s.initialized,
		Remembered:   s.owner,
		Next:         auth.IDOf(identity),
		Current:      s.items,
		Persisted:    raw,
		HasPersisted: ok,
	})
	s.initialized = true
	s.owner = result.Owner
	s.items = result.Items
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if result.DecodeErr != nil {
		s.persister.ReportCorrupt(ctx, storage.KeyCart, result.DecodeErr)
	}
	if result.ClearStorage {
		s.persister.Remove(ctx, storage.KeyCart)
	}
	s.metrics.IncReconciliation(string(result.Outcome))
	s.logg.Debug(s.logg.WithField(ctx, "outcome", string(result.Outcome)), "cart ownership reconciled")

	if result.Outcome != OutcomeUnchanged {
		s.topic.Publish(snap)
	}
	return result.Outcome
}

// AddItem merges the product into the cart. A zero quantity counts as one.
func (s *Store) AddItem(ctx context.Context, in AddItemInput) error {
	product := in.Product.Normalize()
	if product.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	quantity := in.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	item := LineItem{
		ProductID:     product.ID,
		Quantity:      quantity,
		SelectedColor: strings.TrimSpace(in.Color),
		SelectedSize:  strings.TrimSpace(in.Size),
		Product:       product,
	}

	message := fmt.Sprintf("%s added to cart", displayName(product))
	s.mutate(ctx, "add_item", func(items []LineItem) []LineItem {
		return Merge(items, item)
	})
	s.notifyAdded(ctx, message)
	return nil
}

// RemoveItem drops every variant of productID.
func (s *Store) RemoveItem(ctx context.Context, productID string) {
	s.mutate(ctx, "remove_item", func(items []LineItem) []LineItem {
		return RemoveProduct(items, productID)
	})
	s.notifier.Success(ctx, "Item removed from cart")
}

// RemoveVariant drops the single line matching key.
func (s *Store) RemoveVariant(ctx context.Context, key ItemKey) {
	s.mutate(ctx, "remove_variant", func(items []LineItem) []LineItem {
		return RemoveVariant(items, key)
	})
	s.notifier.Success(ctx, "Item removed from cart")
}

// UpdateQuantity sets the quantity of productID; quantities below one remove it.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) {
	if quantity <= 0 {
		s.RemoveItem(ctx, productID)
		return
	}
	s.mutate(ctx, "update_quantity", func(items []LineItem) []LineItem {
		return SetQuantity(items, productID, quantity)
	})
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) {
	s.mutate(ctx, "clear", func([]LineItem) []LineItem {
		return []LineItem{}
	})
	s.notifier.Success(ctx, "Cart cleared")
}

// Reload re-reads the persisted cart for the current owner.
func (s *Store) Reload(ctx context.Context) {
	ctx = s.logg.WithStore(ctx, storeName)
	raw, ok := s.persister.LoadRaw(ctx, storage.KeyCart)

	s.mu.Lock()
	result := Reconcile(ReconcileInput{
		Next:         s.owner,
		Persisted:    raw,
		HasPersisted: ok,
	})
	s.items = result.Items
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if result.DecodeErr != nil {
		s.persister.ReportCorrupt(ctx, storage.KeyCart, result.DecodeErr)
	}
	if result.ClearStorage {
		s.persister.Remove(ctx, storage.KeyCart)
	}
	s.topic.Publish(snap)
}

// Items returns a copy of the line items in display order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LineItem{}, s.items...)
}

// Snapshot returns the cart as persisted.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// OwnerID returns the remembered owner, nil for a guest cart.
func (s *Store) OwnerID() *string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneID(s.owner)
}

func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return TotalItems(s.items)
}

func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return TotalPrice(s.items)
}

// SetPanelOpen records whether the cart panel is showing.
func (s *Store) SetPanelOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panelOpen = open
}

func (s *Store) PanelOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panelOpen
}

// Subscribe registers fn for cart changes and returns the unsubscribe func.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	return s.topic.Subscribe(fn)
}

func (s *Store) mutate(ctx context.Context, op string, fn func([]LineItem) []LineItem) {
	ctx = s.logg.WithStore(ctx, storeName)

	s.mu.Lock()
	s.items = fn(s.items)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.persister.Save(ctx, storage.KeyCart, snap)
	s.metrics.IncMutation(storeName, op)
	s.topic.Publish(snap)
}

// notifyAdded shows message unless the panel is open or the same message
// was shown within the debounce window.
func (s *Store) notifyAdded(ctx context.Context, message string) {
	now := s.now()

	s.mu.Lock()
	suppress := s.panelOpen || (message == s.lastNotice && now.Sub(s.lastShownAt) < s.debounce)
	if !suppress {
		s.lastNotice = message
		s.lastShownAt = now
	}
	s.mu.Unlock()

	if suppress {
		s.metrics.IncSuppressedNotification()
		return
	}
	s.notifier.Success(ctx, message)
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		OwnerID: cloneID(s.owner),
		Items:   append([]LineItem{}, s.items...),
	}
}

func displayName(p types.ProductSnapshot) string {
	if p.Name != "" {
		return p.Name
	}
	return "Item"
}
