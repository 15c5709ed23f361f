package cart

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/hometex/storefront/pkg/types"
)

// LineItem is one product variant in the cart.
type LineItem struct {
	ProductID     string                `json:"productId"`
	Quantity      int                   `json:"quantity"`
	SelectedColor string                `json:"selectedColor,omitempty"`
	SelectedSize  string                `json:"selectedSize,omitempty"`
	Product       types.ProductSnapshot `json:"product"`
}

// ItemKey is the merge identity of a line item.
type ItemKey struct {
	ProductID string
	Color     string
	Size      string
}

// Key returns the line item's merge identity.
func (i LineItem) Key() ItemKey {
	return ItemKey{ProductID: i.ProductID, Color: i.SelectedColor, Size: i.SelectedSize}
}

// Snapshot is the persisted cart shape.
type Snapshot struct {
	OwnerID *string    `json:"ownerId"`
	Items   []LineItem `json:"items"`
}

// UnmarshalJSON accepts both the owner-scoped object and the legacy bare
// array, which decodes as an anonymous cart.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []LineItem
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*s = Snapshot{Items: items}
		return nil
	}
	type plain Snapshot
	var decoded plain
	if err := json.Unmarshal(trimmed, &decoded); err != nil {
		return err
	}
	*s = Snapshot(decoded)
	return nil
}

// DecodeSnapshot parses a persisted cart and normalizes its items.
func DecodeSnapshot(raw string) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return Snapshot{}, err
	}
	if snap.OwnerID != nil && strings.TrimSpace(*snap.OwnerID) == "" {
		snap.OwnerID = nil
	}
	snap.Items = normalizeItems(snap.Items)
	return snap, nil
}

// normalizeItems fills missing product ids, drops lines that cannot be valid
// and folds duplicate keys together so the unique-key invariant holds.
func normalizeItems(items []LineItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, item := range items {
		if item.ProductID == "" {
			item.ProductID = item.Product.ID
		}
		if item.Product.ID == "" {
			item.Product.ID = item.ProductID
		}
		if item.ProductID == "" || item.Quantity < 1 {
			continue
		}
		out = Merge(out, item)
	}
	return out
}
