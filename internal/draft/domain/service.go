package domain

import "context"

// Strategy names which store the facade currently routes to. It is
// selected once from the provisioning probe and only changes through an
// explicit RefreshCapability call; the remote-to-local transition is not
// modeled.
type Strategy string

const (
	StrategyLocal  Strategy = "local"
	StrategyRemote Strategy = "remote"
)

// Service is the draft facade: the single entry point application code
// uses. It hides the local/remote decision, mints ids, and normalizes
// store-specific failures into the shared error taxonomy.
type Service interface {
	// Save persists the draft, assigning a UUID on first save before any
	// store is chosen. The caller's user context must match draft.UserID.
	Save(ctx context.Context, draft Draft) (Draft, error)

	// Get returns one draft by id from the active store.
	Get(ctx context.Context, id string) (Draft, error)

	// List returns the user's drafts sorted by UpdatedAt descending.
	// Transient failures are retried with bounded backoff; a newer List
	// for the same user supersedes and cancels an in-flight one.
	List(ctx context.Context) ([]Draft, error)

	// Delete removes one draft and reports whether it existed.
	Delete(ctx context.Context, id string) (bool, error)

	// Strategy reports the store currently routed to.
	Strategy() Strategy

	// RefreshCapability re-runs the provisioning probe and, when the
	// remote table has appeared, switches routing from local to remote.
	RefreshCapability(ctx context.Context) Strategy
}
