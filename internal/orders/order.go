package orders

import (
	"time"

	"github.com/hometex/storefront/internal/cart"
	"github.com/hometex/storefront/pkg/enums"
	"github.com/hometex/storefront/pkg/types"
	"github.com/shopspring/decimal"
)

// Order is a placed order. The list is persisted whole on every change.
type Order struct {
	ID              string              `json:"id"`
	UserID          string              `json:"userId"`
	Items           []cart.LineItem     `json:"items"`
	TotalAmount     decimal.Decimal     `json:"totalAmount"`
	Status          enums.OrderStatus   `json:"status"`
	PaymentStatus   enums.PaymentStatus `json:"paymentStatus"`
	PaymentMethod   enums.PaymentMethod `json:"paymentMethod"`
	ShippingAddress types.Address       `json:"shippingAddress"`
	TrackingNumber  *string             `json:"trackingNumber,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

// CreateOrderInput is what checkout hands to CreateOrder.
type CreateOrderInput struct {
	// UserID defaults to the signed-in identity when empty.
	UserID string
	Items  []cart.LineItem
	// TotalAmount defaults to the sum of the items when nil.
	TotalAmount     *decimal.Decimal
	PaymentMethod   enums.PaymentMethod
	PaymentStatus   enums.PaymentStatus
	ShippingAddress types.Address
}

func (o Order) clone() Order {
	o.Items = append([]cart.LineItem{}, o.Items...)
	if o.TrackingNumber != nil {
		tn := *o.TrackingNumber
		o.TrackingNumber = &tn
	}
	return o
}
