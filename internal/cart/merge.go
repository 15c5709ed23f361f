package cart

import (
	"github.com/hometex/storefront/pkg/types"
	"github.com/shopspring/decimal"
)

// Merge adds item to items. A line with the same key has its quantity
// increased and keeps its original product snapshot; otherwise item is
// appended. The input slice is not modified.
func Merge(items []LineItem, item LineItem) []LineItem {
	out := make([]LineItem, len(items), len(items)+1)
	copy(out, items)
	key := item.Key()
	for i := range out {
		if out[i].Key() == key {
			out[i].Quantity += item.Quantity
			return out
		}
	}
	return append(out, item)
}

// RemoveProduct drops every line for productID regardless of variant.
func RemoveProduct(items []LineItem, productID string) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, item := range items {
		if item.ProductID != productID {
			out = append(out, item)
		}
	}
	return out
}

// RemoveVariant drops the single line matching key.
func RemoveVariant(items []LineItem, key ItemKey) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, item := range items {
		if item.Key() != key {
			out = append(out, item)
		}
	}
	return out
}

// SetQuantity rewrites the quantity of every line for productID. Quantities
// below one remove the product.
func SetQuantity(items []LineItem, productID string, quantity int) []LineItem {
	if quantity <= 0 {
		return RemoveProduct(items, productID)
	}
	out := make([]LineItem, len(items))
	copy(out, items)
	for i := range out {
		if out[i].ProductID == productID {
			out[i].Quantity = quantity
		}
	}
	return out
}

// TotalItems sums quantities.
func TotalItems(items []LineItem) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

// TotalPrice sums snapshot price times quantity.
func TotalPrice(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(types.LineTotal(item.Product.Price, item.Quantity))
	}
	return total
}
