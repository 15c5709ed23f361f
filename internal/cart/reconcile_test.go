package cart

import "testing"

func strPtr(v string) *string { return &v }

func TestReconcile(t *testing.T) {
	current := []LineItem{{ProductID: "mem", Quantity: 1}}
	ownedByA := `{"ownerId":"A","items":[{"productId":"x","quantity":2}]}`
	anonymous := `{"ownerId":null,"items":[{"productId":"g","quantity":1}]}`

	cases := []struct {
		name      string
		in        ReconcileInput
		outcome   Outcome
		items     int
		clear     bool
		decodeErr bool
	}{
		{
			name:    "first load without data",
			in:      ReconcileInput{Next: strPtr("A")},
			outcome: OutcomeEmpty,
		},
		{
			name:    "first load hydrates matching owner",
			in:      ReconcileInput{Next: strPtr("A"), Persisted: ownedByA, HasPersisted: true},
			outcome: OutcomeHydrated,
			items:   1,
		},
		{
			name:    "first load hydrates guest cart for guest",
			in:      ReconcileInput{Persisted: anonymous, HasPersisted: true},
			outcome: OutcomeHydrated,
			items:   1,
		},
		{
			name:    "first load discards foreign owner",
			in:      ReconcileInput{Next: strPtr("B"), Persisted: ownedByA, HasPersisted: true},
			outcome: OutcomeDiscardedForeign,
			clear:   true,
		},
		{
			name:    "signed-in cart is not adopted by a guest",
			in:      ReconcileInput{Persisted: ownedByA, HasPersisted: true},
			outcome: OutcomeDiscardedForeign,
			clear:   true,
		},
		{
			name:    "hard switch between identities",
			in:      ReconcileInput{Initialized: true, Remembered: strPtr("A"), Next: strPtr("B"), Current: current, Persisted: ownedByA, HasPersisted: true},
			outcome: OutcomeIdentitySwitched,
			clear:   true,
		},
		{
			name:    "logout is a hard switch",
			in:      ReconcileInput{Initialized: true, Remembered: strPtr("A"), Current: current},
			outcome: OutcomeIdentitySwitched,
			clear:   true,
		},
		{
			name:    "same identity keeps memory",
			in:      ReconcileInput{Initialized: true, Remembered: strPtr("A"), Next: strPtr("A"), Current: current, Persisted: ownedByA, HasPersisted: true},
			outcome: OutcomeUnchanged,
			items:   1,
		},
		{
			name:      "corrupt persisted cart",
			in:        ReconcileInput{Next: strPtr("A"), Persisted: "{not json", HasPersisted: true},
			outcome:   OutcomeEmpty,
			clear:     true,
			decodeErr: true,
		},
		{
			name:    "legacy array for guest",
			in:      ReconcileInput{Persisted: `[{"productId":"p1","quantity":1}]`, HasPersisted: true},
			outcome: OutcomeHydrated,
			items:   1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Reconcile(tc.in)
			if got.Outcome != tc.outcome {
				t.Fatalf("expected outcome %s, got %s", tc.outcome, got.Outcome)
			}
			if len(got.Items) != tc.items {
				t.Fatalf("expected %d items, got %d", tc.items, len(got.Items))
			}
			if got.ClearStorage != tc.clear {
				t.Fatalf("expected clear=%v, got %v", tc.clear, got.ClearStorage)
			}
			if (got.DecodeErr != nil) != tc.decodeErr {
				t.Fatalf("unexpected decode error %v", got.DecodeErr)
			}
			if !sameOwner(got.Owner, tc.in.Next) {
				t.Fatalf("owner must follow the new identity")
			}
		})
	}
}

func TestDecodeSnapshotNormalizesItems(t *testing.T) {
	snap, err := DecodeSnapshot(`{"ownerId":"","items":[
		{"productId":"p1","quantity":1},
		{"productId":"p1","quantity":2},
		{"productId":"","quantity":1,"product":{"id":"p2","name":"Sheet","price":5}},
		{"productId":"p3","quantity":0}
	]}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.OwnerID != nil {
		t.Fatal("blank owner decodes as anonymous")
	}
	if len(snap.Items) != 2 {
		t.Fatalf("expected duplicates folded and invalid lines dropped, got %+v", snap.Items)
	}
	if snap.Items[0].Quantity != 3 || snap.Items[1].ProductID != "p2" {
		t.Fatalf("unexpected items %+v", snap.Items)
	}
}
