// Package cart owns the shopping cart for an ecoshop session.
//
// # Overview
//
// A Synchronizer holds the single in-memory view of the cart, reconciled
// against a Remote cart service. UI actions call Synchronizer methods; no
// other component writes cart state.
//
//	UI action                     Synchronizer                 Remote
//	┌──────────────┐             ┌──────────────────┐         ┌──────────┐
//	│ add / update │────────────→│ provisional bump │         │          │
//	│ remove       │             │ remote call      │────────→│ mutation │
//	│ clear        │             │ Refresh()        │────────→│ GetCart  │
//	│ checkout     │             │ confirmed state  │         │          │
//	└──────────────┘             │ fallback copy ───┼──→ kvstore
//	                             └──────────────────┘
//
// # Provisional vs Confirmed
//
// Each state slice is a Tagged value carrying its Source:
//
//   - SourceConfirmed: taken from a successful remote response
//   - SourceProvisional: a local guess (AddItem's count bump, Clear)
//   - SourceFallback: loaded from the persisted copy after a failed refresh
//
// A provisional value is never persisted. Every mutation except Clear ends
// with a full Refresh, so the confirmed response replaces provisional values
// wholesale instead of being merged into them.
//
// # Fallback Copy
//
// After every successful refresh the snapshot is written to the kvstore under
// kvstore.KeyCartData, with the sync time under kvstore.KeyCartLastSync. When
// a refresh fails the error is recorded in State.Err and the fallback copy is
// loaded so the UI is not left blank. Clear and a successful Checkout remove
// the fallback copy.
//
// # Quantities
//
// UpdateItem takes an absolute quantity. Quantities must stay within
// [1, validation.MaxCartQuantity], including the merged quantity produced by
// AddItemOptimistic; violations return *InputError before any remote call.
//
// # Concurrency
//
// State is guarded by a sync.RWMutex that is never held across a remote
// call. Overlapping mutations are not serialised: each one ends with its own
// refresh and the last refresh to apply wins. Callers that need stable
// intermediate state debounce repeated actions on the same line.
//
// # Errors
//
// Remote failures are recorded in State.Err and returned wrapped with the
// operation name. Local checkout problems are returned as *CheckoutError.
// A failed refresh that runs after a successful mutation is only recorded
// in state; the mutation itself still reports success.
package cart
