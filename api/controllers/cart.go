package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/hometex/storefront/api/responses"
	"github.com/hometex/storefront/api/validators"
	"github.com/hometex/storefront/internal/cart"
	"github.com/hometex/storefront/internal/session"
	pkgerrors "github.com/hometex/storefront/pkg/errors"
	"github.com/hometex/storefront/pkg/logger"
	"github.com/hometex/storefront/pkg/types"
)

const maxVariantLength = 64

type addCartItemRequest struct {
	Product       types.ProductSnapshot `json:"product"`
	Quantity      int                   `json:"quantity" validate:"min=0"`
	SelectedColor string                `json:"selectedColor"`
	SelectedSize  string                `json:"selectedSize"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type cartPanelRequest struct {
	Open *bool `json:"open" validate:"required"`
}

type cartView struct {
	OwnerID    *string         `json:"ownerId"`
	Items      []cart.LineItem `json:"items"`
	TotalItems int             `json:"totalItems"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	PanelOpen  bool            `json:"panelOpen"`
}

func newCartView(store *cart.Store) cartView {
	snap := store.Snapshot()
	items := snap.Items
	if items == nil {
		items = []cart.LineItem{}
	}
	return cartView{
		OwnerID:    snap.OwnerID,
		Items:      items,
		TotalItems: cart.TotalItems(items),
		TotalPrice: cart.TotalPrice(items),
		PanelOpen:  store.PanelOpen(),
	}
}

func CartGet(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveDevice(w, r, logg, http.StatusOK, func(ctx context.Context, b *session.Bundle) (any, error) {
			return newCartView(b.Cart), nil
		})
	}
}

// CartAddItem merges a product into the cart.
func CartAddItem(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		serveDevice(w, r, logg, http.StatusOK, func(ctx context.Context, b *session.Bundle) (any, error) {
			err := b.Cart.AddItem(ctx, cart.AddItemInput{
				Product:  payload.Product,
				Quantity: payload.Quantity,
				Color:    validators.Clean(payload.SelectedColor, maxVariantLength),
				Size:     validators.Clean(payload.SelectedSize, maxVariantLength),
			})
			if err != nil {
				return nil, err
			}
			return newCartView(b.Cart), nil
		})
	}
}

// CartUpdateQuantity sets a product's quantity; zero or less removes it.
func CartUpdateQuantity(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID := chi.URLParam(r, "productId")
		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		serveDevice(w, r, logg, http.StatusOK, func(ctx context.Context, b *session.Bundle) (any, error) {
			b.Cart.UpdateQuantity(ctx, productID, *payload.Quantity)
			return newCartView(b.Cart), nil
		})
	}
}

// CartRemoveItem drops every variant of the product, or a single variant when
// color or size is given in the query.
func CartRemoveItem(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID := chi.URLParam(r, "productId")
		if productID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}
		color, hasColor := validators.QueryString(r, "color", maxVariantLength)
		size, hasSize := validators.QueryString(r, "size", maxVariantLength)
		key := cart.ItemKey{ProductID: productID, Color: color, Size: size}
		serveDevice(w, r, logg, http.StatusOK, func(ctx context.Context, b *session.Bundle) (any, error) {
			if hasColor || hasSize {
				b.Cart.RemoveVariant(ctx, key)
			} else {
				b.Cart.RemoveItem(ctx, productID)
			}
			return newCartView(b.Cart), nil
		})
	}
}

func CartClear(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveDevice(w, r, logg, http.StatusOK, func(ctx context.Context, b *session.Bundle) (any, error) {
			b.Cart.Clear(ctx)
			return newCartView(b.Cart), nil
		})
	}
}

// CartSetPanel records whether the cart drawer is open.
func CartSetPanel(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload cartPanelRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		serveDevice(w, r, logg, http.StatusOK, func(ctx context.Context, b *session.Bundle) (any, error) {
			b.Cart.SetPanelOpen(*payload.Open)
			return newCartView(b.Cart), nil
		})
	}
}
