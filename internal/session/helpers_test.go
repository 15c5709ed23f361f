package session

import (
	"github.com/hometex/storefront/internal/cart"
	"github.com/hometex/storefront/internal/orders"
	"github.com/hometex/storefront/pkg/enums"
	"github.com/hometex/storefront/pkg/types"
)

func ordersInput(items []cart.LineItem) orders.CreateOrderInput {
	return orders.CreateOrderInput{
		Items:         items,
		PaymentMethod: enums.PaymentMethodCashOnDelivery,
		ShippingAddress: types.Address{
			FullName: "Ada", Phone: "0123", AddressLine1: "Road 1", City: "Dhaka",
		},
	}
}
