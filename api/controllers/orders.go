package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/hometex/storefront/api/responses"
	"github.com/hometex/storefront/api/validators"
	"github.com/hometex/storefront/internal/cart"
	"github.com/hometex/storefront/internal/orders"
	"github.com/hometex/storefront/internal/session"
	"github.com/hometex/storefront/pkg/enums"
	pkgerrors "github.com/hometex/storefront/pkg/errors"
	"github.com/hometex/storefront/pkg/logger"
	"github.com/hometex/storefront/pkg/pagination"
	"github.com/hometex/storefront/pkg/types"
)

const (
	maxCursorLength = 256
	maxUserIDLength = 128
)

type createOrderRequest struct {
	// Items defaults to the device cart, which is then cleared.
	Items           []cart.LineItem     `json:"items"`
	TotalAmount     *decimal.Decimal    `json:"totalAmount"`
	PaymentMethod   enums.PaymentMethod `json:"paymentMethod" validate:"required"`
	PaymentStatus   enums.PaymentStatus `json:"paymentStatus"`
	ShippingAddress types.Address       `json:"shippingAddress"`
}

type updateOrderStatusRequest struct {
	Status         string  `json:"status" validate:"required"`
	TrackingNumber *string `json:"trackingNumber"`
}

type orderPageView struct {
	Orders     []orders.Order `json:"orders"`
	NextCursor string         `json:"nextCursor,omitempty"`
}

func orderCursor(o orders.Order) pagination.Cursor {
	return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
}

// OrdersList returns a page of the device's orders, most recent first.
// userId filters to one shopper.
func OrdersList(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cursor, _ := validators.QueryString(r, "cursor", maxCursorLength)
		userID, _ := validators.QueryString(r, "userId", maxUserIDLength)
		params := pagination.Params{Limit: limit, Cursor: cursor}
		serveDevice(w, r, logg, http.StatusOK, func(ctx context.Context, b *session.Bundle) (any, error) {
			var list []orders.Order
			if userID != "" {
				list = b.Orders.OrdersForUser(userID)
			} else {
				list = b.Orders.Orders()
			}
			page, next, err := pagination.Page(list, orderCursor, params)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
			}
			return orderPageView{Orders: page, NextCursor: next}, nil
		})
	}
}

// OrdersCreate places an order through the checkout simulation.
func OrdersCreate(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		serveDevice(w, r, logg, http.StatusCreated, func(ctx context.Context, b *session.Bundle) (any, error) {
			items := payload.Items
			fromCart := len(items) == 0
			if fromCart {
				items = b.Cart.Items()
			}
			order, err := b.Orders.CreateOrder(ctx, orders.CreateOrderInput{
				Items:           items,
				TotalAmount:     payload.TotalAmount,
				PaymentMethod:   payload.PaymentMethod,
				PaymentStatus:   payload.PaymentStatus,
				ShippingAddress: payload.ShippingAddress,
			})
			if err != nil {
				return nil, err
			}
			if fromCart {
				b.Cart.Clear(ctx)
			}
			return order, nil
		})
	}
}

func OrdersGet(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID := chi.URLParam(r, "orderId")
		serveDevice(w, r, logg, http.StatusOK, func(ctx context.Context, b *session.Bundle) (any, error) {
			order, ok := b.Orders.OrderByID(orderID)
			if !ok {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return order, nil
		})
	}
}

// OrdersUpdateStatus sets the status and, when given, the tracking number.
func OrdersUpdateStatus(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID := chi.URLParam(r, "orderId")
		var payload updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
			return
		}
		serveDevice(w, r, logg, http.StatusOK, func(ctx context.Context, b *session.Bundle) (any, error) {
			if err := b.Orders.UpdateOrderStatus(ctx, orderID, status); err != nil {
				return nil, err
			}
			if payload.TrackingNumber != nil {
				if err := b.Orders.SetTrackingNumber(ctx, orderID, *payload.TrackingNumber); err != nil {
					return nil, err
				}
			}
			order, _ := b.Orders.OrderByID(orderID)
			return order, nil
		})
	}
}

func OrdersCancel(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID := chi.URLParam(r, "orderId")
		serveDevice(w, r, logg, http.StatusOK, func(ctx context.Context, b *session.Bundle) (any, error) {
			if err := b.Orders.CancelOrder(ctx, orderID); err != nil {
				return nil, err
			}
			order, _ := b.Orders.OrderByID(orderID)
			return order, nil
		})
	}
}
