// Package orders keeps the placed orders of one device, most recent first.
package orders

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hometex/storefront/internal/cart"
	"github.com/hometex/storefront/internal/notify"
	"github.com/hometex/storefront/pkg/enums"
	pkgerrors "github.com/hometex/storefront/pkg/errors"
	"github.com/hometex/storefront/pkg/latency"
	"github.com/hometex/storefront/pkg/logger"
	"github.com/hometex/storefront/pkg/metrics"
	"github.com/hometex/storefront/pkg/observer"
	"github.com/hometex/storefront/pkg/storage"
)

const (
	storeName = "orders"
	idPrefix  = "ORD-"

	placementFailedMessage = "Failed to place order. Please try again."
)

// StoreParams groups dependencies for the order store.
type StoreParams struct {
	KV       storage.KV
	Notifier notify.Notifier
	Logger   *logger.Logger
	Metrics  *metrics.StoreMetrics
	Now      func() time.Time
	// PlacementWaiter simulates the backend round trip of CreateOrder.
	PlacementWaiter latency.Waiter
	// CurrentUserID returns the signed-in user id, or "" for guests.
	CurrentUserID func() string
}

// Store holds the orders of one device.
type Store struct {
	mu     sync.Mutex
	orders []Order
	lastID int64

	persister *storage.Persister
	notifier  notify.Notifier
	logg      *logger.Logger
	metrics   *metrics.StoreMetrics
	now       func() time.Time
	waiter    latency.Waiter
	userID    func() string
	topic     observer.Topic[[]Order]
}

// NewStore builds the order store and loads persisted orders.
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
	waiter := params.PlacementWaiter
	if waiter == nil {
		waiter = latency.Instant{}
	}
	userID := params.CurrentUserID
	if userID == nil {
		userID = func() string { return "" }
	}
	s := &Store{
		orders:    []Order{},
		persister: storage.NewPersister(params.KV, storeName, logg, params.Metrics),
		notifier:  notifier,
		logg:      logg,
		metrics:   params.Metrics,
		now:       now,
		waiter:    waiter,
		userID:    userID,
	}
	s.Reload(ctx)
	return s, nil
}

// Reload replaces the in-memory orders with the persisted list.
func (s *Store) Reload(ctx context.Context) {
	ctx = s.logg.WithStore(ctx, storeName)
	var persisted []Order
	if !s.persister.Load(ctx, storage.KeyOrders, &persisted) {
		persisted = nil
	}

	s.mu.Lock()
	s.orders = append([]Order{}, persisted...)
	for _, o := range s.orders {
		if millis, ok := parseID(o.ID); ok && millis > s.lastID {
			s.lastID = millis
		}
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.topic.Publish(snap)
}

// CreateOrder places an order after the simulated round trip. A cancelled
// ctx aborts before any state changes.
func (s *Store) CreateOrder(ctx context.Context, in CreateOrderInput) (*Order, error) {
	ctx = s.logg.WithStore(ctx, storeName)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	if err := s.waiter.Wait(ctx); err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("order placement interrupted: %v", err))
		s.notifier.Error(ctx, placementFailedMessage)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, placementFailedMessage)
	}

	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		userID = s.userID()
	}
	total := cart.TotalPrice(in.Items)
	if in.TotalAmount != nil {
		total = *in.TotalAmount
	}
	paymentStatus := in.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = enums.PaymentStatusPending
	}

	now := s.now().UTC()

	s.mu.Lock()
	order := Order{
		ID:              s.nextIDLocked(now),
		UserID:          userID,
		Items:           append([]cart.LineItem{}, in.Items...),
		TotalAmount:     total,
		Status:          enums.OrderStatusPending,
		PaymentStatus:   paymentStatus,
		PaymentMethod:   in.PaymentMethod,
		ShippingAddress: in.ShippingAddress.Normalize(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.orders = append([]Order{order}, s.orders...)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.commit(ctx, "create", snap)
	s.logg.Info(s.logg.WithField(ctx, "order_id", order.ID), "order placed")
	s.notifier.Success(ctx, "Order placed successfully!")

	out := order.clone()
	return &out, nil
}

// OrderByID returns a copy of the order.
func (s *Store) OrderByID(id string) (*Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return nil, false
	}
	out := s.orders[idx].clone()
	return &out, true
}

// Orders returns every order, most recent first.
func (s *Store) Orders() []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// OrdersForUser returns the orders placed by userID, most recent first.
func (s *Store) OrdersForUser(userID string) []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Order, 0)
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, o.clone())
		}
	}
	return out
}

// UpdateOrderStatus sets any status from any other; transitions are not guarded.
func (s *Store) UpdateOrderStatus(ctx context.Context, id string, status enums.OrderStatus) error {
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid order status").WithDetails(map[string]any{"status": status})
	}
	err := s.update(ctx, id, "update_status", func(o *Order) {
		o.Status = status
	})
	if err != nil {
		return err
	}
	if status == enums.OrderStatusCancelled {
		s.notifier.Info(ctx, "Order cancelled")
	} else {
		s.notifier.Success(ctx, fmt.Sprintf("Order status updated to %s", status))
	}
	return nil
}

// CancelOrder is UpdateOrderStatus with cancelled.
func (s *Store) CancelOrder(ctx context.Context, id string) error {
	return s.UpdateOrderStatus(ctx, id, enums.OrderStatusCancelled)
}

// SetTrackingNumber records the carrier tracking number; blank clears it.
func (s *Store) SetTrackingNumber(ctx context.Context, id, number string) error {
	number = strings.TrimSpace(number)
	err := s.update(ctx, id, "set_tracking", func(o *Order) {
		if number == "" {
			o.TrackingNumber = nil
			return
		}
		o.TrackingNumber = &number
	})
	if err != nil {
		return err
	}
	s.notifier.Info(ctx, "Tracking number updated")
	return nil
}

// Subscribe registers fn for order list changes and returns the unsubscribe func.
func (s *Store) Subscribe(fn func([]Order)) func() {
	return s.topic.Subscribe(fn)
}

func (s *Store) update(ctx context.Context, id, op string, fn func(*Order)) error {
	ctx = s.logg.WithStore(ctx, storeName)
	now := s.now().UTC()

	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found").WithDetails(map[string]any{"id": id})
	}
	updated := s.orders[idx].clone()
	fn(&updated)
	updated.UpdatedAt = now
	s.orders[idx] = updated
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.commit(ctx, op, snap)
	return nil
}

func (s *Store) commit(ctx context.Context, op string, snap []Order) {
	s.persister.Save(ctx, storage.KeyOrders, snap)
	s.metrics.IncMutation(storeName, op)
	s.topic.Publish(snap)
}

// nextIDLocked derives the id from the clock and bumps it past the last
// issued id so ids stay unique and increasing within one millisecond.
func (s *Store) nextIDLocked(now time.Time) string {
	millis := now.UnixMilli()
	if millis <= s.lastID {
		millis = s.lastID + 1
	}
	s.lastID = millis
	return idPrefix + strconv.FormatInt(millis, 10)
}

func (s *Store) indexLocked(id string) int {
	for i, o := range s.orders {
		if o.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) snapshotLocked() []Order {
	out := make([]Order, len(s.orders))
	for i, o := range s.orders {
		out[i] = o.clone()
	}
	return out
}

func parseID(id string) (int64, bool) {
	if !strings.HasPrefix(id, idPrefix) {
		return 0, false
	}
	millis, err := strconv.ParseInt(strings.TrimPrefix(id, idPrefix), 10, 64)
	if err != nil {
		return 0, false
	}
	return millis, true
}

func validateInput(in CreateOrderInput) error {
	if len(in.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	for _, item := range in.Items {
		if item.ProductID == "" || item.Quantity < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "order items need a product and a positive quantity")
		}
	}
	if !in.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method").WithDetails(map[string]any{"paymentMethod": in.PaymentMethod})
	}
	if in.PaymentStatus != "" && !in.PaymentStatus.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}
	if in.TotalAmount != nil && in.TotalAmount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "total amount must not be negative")
	}
	if err := in.ShippingAddress.Validate(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping address")
	}
	return nil
}
