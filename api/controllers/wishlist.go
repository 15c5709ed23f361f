package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hometex/storefront/api/responses"
	"github.com/hometex/storefront/api/validators"
	"github.com/hometex/storefront/internal/session"
	"github.com/hometex/storefront/internal/wishlist"
	"github.com/hometex/storefront/pkg/logger"
	"github.com/hometex/storefront/pkg/types"
)

type toggleWishlistRequest struct {
	Product types.ProductSnapshot `json:"product"`
}

type wishlistView struct {
	Items []wishlist.Item `json:"items"`
	Count int             `json:"count"`
}

type wishlistToggleView struct {
	Added    bool         `json:"added"`
	Wishlist wishlistView `json:"wishlist"`
}

type wishlistCheckView struct {
	ProductID  string `json:"productId"`
	InWishlist bool   `json:"inWishlist"`
}

func newWishlistView(store *wishlist.Store) wishlistView {
	items := store.Items()
	if items == nil {
		items = []wishlist.Item{}
	}
	return wishlistView{Items: items, Count: len(items)}
}

func WishlistGet(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveDevice(w, r, logg, http.StatusOK, func(ctx context.Context, b *session.Bundle) (any, error) {
			return newWishlistView(b.Wishlist), nil
		})
	}
}

// WishlistToggle saves the product, or removes it when already saved.
func WishlistToggle(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload toggleWishlistRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		serveDevice(w, r, logg, http.StatusOK, func(ctx context.Context, b *session.Bundle) (any, error) {
			added, err := b.Wishlist.AddItem(ctx, payload.Product)
			if err != nil {
				return nil, err
			}
			return wishlistToggleView{Added: added, Wishlist: newWishlistView(b.Wishlist)}, nil
		})
	}
}

func WishlistRemoveItem(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID := chi.URLParam(r, "productId")
		serveDevice(w, r, logg, http.StatusOK, func(ctx context.Context, b *session.Bundle) (any, error) {
			b.Wishlist.RemoveItem(ctx, productID)
			return newWishlistView(b.Wishlist), nil
		})
	}
}

func WishlistCheckItem(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID := chi.URLParam(r, "productId")
		serveDevice(w, r, logg, http.StatusOK, func(ctx context.Context, b *session.Bundle) (any, error) {
			return wishlistCheckView{ProductID: productID, InWishlist: b.Wishlist.IsInWishlist(productID)}, nil
		})
	}
}

func WishlistClear(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveDevice(w, r, logg, http.StatusOK, func(ctx context.Context, b *session.Bundle) (any, error) {
			b.Wishlist.Clear(ctx)
			return newWishlistView(b.Wishlist), nil
		})
	}
}
