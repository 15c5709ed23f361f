package cart

// Outcome names what ownership reconciliation did.
type Outcome string

const (
	OutcomeUnchanged        Outcome = "unchanged"
	OutcomeIdentitySwitched Outcome = "identity_switched"
	OutcomeHydrated         Outcome = "hydrated"
	OutcomeDiscardedForeign Outcome = "discarded_foreign"
	OutcomeEmpty            Outcome = "empty"
)

// ReconcileInput is everything reconciliation looks at.
type ReconcileInput struct {
	// Initialized is false until the first reconciliation has run.
	Initialized bool
	Remembered  *string
	Next        *string
	Current     []LineItem
	// Persisted is the raw stored cart; HasPersisted is false when absent.
	Persisted    string
	HasPersisted bool
}

// ReconcileResult is the state the cart adopts.
type ReconcileResult struct {
	Outcome Outcome
	Owner   *string
	Items   []LineItem
	// ClearStorage asks the caller to remove the persisted cart.
	ClearStorage bool
	// DecodeErr is set when the persisted cart was corrupt.
	DecodeErr error
}

// Reconcile decides which items survive an identity change. A cart never
// survives a switch between two different identities, and a persisted cart is
// only adopted when its owner matches the new identity.
func Reconcile(in ReconcileInput) ReconcileResult {
	owner := cloneID(in.Next)

	if in.Initialized {
		if in.Remembered != nil && !sameOwner(in.Remembered, in.Next) {
			return ReconcileResult{Outcome: OutcomeIdentitySwitched, Owner: owner, Items: []LineItem{}, ClearStorage: true}
		}
		if sameOwner(in.Remembered, in.Next) {
			return ReconcileResult{Outcome: OutcomeUnchanged, Owner: owner, Items: in.Current}
		}
	}

	if !in.HasPersisted {
		return ReconcileResult{Outcome: OutcomeEmpty, Owner: owner, Items: []LineItem{}}
	}

	snap, err := DecodeSnapshot(in.Persisted)
	if err != nil {
		return ReconcileResult{Outcome: OutcomeEmpty, Owner: owner, Items: []LineItem{}, ClearStorage: true, DecodeErr: err}
	}

	if sameOwner(snap.OwnerID, in.Next) {
		return ReconcileResult{Outcome: OutcomeHydrated, Owner: owner, Items: snap.Items}
	}
	return ReconcileResult{Outcome: OutcomeDiscardedForeign, Owner: owner, Items: []LineItem{}, ClearStorage: true}
}

func sameOwner(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func cloneID(id *string) *string {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
