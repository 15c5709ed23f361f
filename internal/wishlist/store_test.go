package wishlist

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/hometex/storefront/internal/notify"
	"github.com/hometex/storefront/pkg/storage"
	"github.com/hometex/storefront/pkg/storage/storagetest"
	"github.com/hometex/storefront/pkg/types"
	"github.com/shopspring/decimal"
)

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T, kv storage.KV) (*Store, *notify.Feed) {
	t.Helper()
	feed := notify.NewFeed(20)
	store, err := NewStore(context.Background(), StoreParams{
		KV:       kv,
		Notifier: feed,
		Now:      func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store, feed
}

func pillow() types.ProductSnapshot {
	return types.ProductSnapshot{ID: "q", Name: "Pillow", Price: decimal.NewFromInt(20)}
}

func TestAddItemToggles(t *testing.T) {
	store, feed := newTestStore(t, storage.NewMemory().ForDevice("d"))
	ctx := context.Background()

	expect := []bool{true, false, true}
	for i, want := range expect {
		added, err := store.AddItem(ctx, pillow())
		if err != nil {
			t.Fatalf("toggle %d: %v", i, err)
		}
		if added != want || store.IsInWishlist("q") != want {
			t.Fatalf("toggle %d: expected present=%v", i, want)
		}
	}
	if store.Count() != 1 {
		t.Fatalf("expected single entry, got %d", store.Count())
	}
	if !store.Items()[0].AddedAt.Equal(fixedNow) {
		t.Fatalf("unexpected addedAt %v", store.Items()[0].AddedAt)
	}
	if n := len(feed.Drain()); n != 3 {
		t.Fatalf("expected a notice per toggle, got %d", n)
	}
}

func TestMutationsPersistFullList(t *testing.T) {
	kv := storage.NewMemory().ForDevice("d")
	store, _ := newTestStore(t, kv)
	ctx := context.Background()

	if _, err := store.AddItem(ctx, pillow()); err != nil {
		t.Fatalf("add: %v", err)
	}
	raw := storagetest.Raw(kv, storage.KeyWishlist)
	if !strings.HasPrefix(raw, "[") || !strings.Contains(raw, `"productId":"q"`) || !strings.Contains(raw, `"addedAt"`) {
		t.Fatalf("unexpected persisted wishlist %s", raw)
	}

	reloaded, _ := newTestStore(t, kv)
	if !reloaded.IsInWishlist("q") {
		t.Fatal("expected wishlist restored from storage")
	}

	store.RemoveItem(ctx, "q")
	if store.IsInWishlist("q") || storagetest.Raw(kv, storage.KeyWishlist) != "[]" {
		t.Fatalf("expected empty persisted list, got %s", storagetest.Raw(kv, storage.KeyWishlist))
	}
}

func TestClear(t *testing.T) {
	store, _ := newTestStore(t, storage.NewMemory().ForDevice("d"))
	ctx := context.Background()
	_, _ = store.AddItem(ctx, pillow())
	_, _ = store.AddItem(ctx, types.ProductSnapshot{ID: "r", Name: "Rug"})
	store.Clear(ctx)
	if store.Count() != 0 {
		t.Fatal("expected empty wishlist")
	}
}

func TestCorruptStorageInitializesEmpty(t *testing.T) {
	kv := storage.NewMemory().ForDevice("d")
	_ = kv.Set(context.Background(), storage.KeyWishlist, "{not json")

	store, _ := newTestStore(t, kv)
	if store.Count() != 0 {
		t.Fatal("corrupt wishlist must start empty")
	}
}

func TestLoadDropsDuplicates(t *testing.T) {
	kv := storage.NewMemory().ForDevice("d")
	_ = kv.Set(context.Background(), storage.KeyWishlist, `[{"productId":"a"},{"product":{"id":"a"}},{"product":{"id":"b"}}]`)

	store, _ := newTestStore(t, kv)
	if store.Count() != 2 || !store.IsInWishlist("b") {
		t.Fatalf("unexpected items %+v", store.Items())
	}
}

func TestAddItemRequiresProductID(t *testing.T) {
	store, _ := newTestStore(t, storage.NewMemory().ForDevice("d"))
	if _, err := store.AddItem(context.Background(), types.ProductSnapshot{Name: "x"}); err == nil {
		t.Fatal("expected missing id to fail")
	}
}
