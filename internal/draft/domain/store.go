package domain

import "context"

// Store is the surface both draft stores expose. The facade routes every
// call to exactly one Store; callers never see which one.
type Store interface {
	// List returns all drafts owned by the user. Ordering is not part of
	// the contract; sorting is the facade's concern.
	List(ctx context.Context, userID string) ([]Draft, error)

	// Get returns the draft with the given id or ErrNotFound.
	Get(ctx context.Context, userID, id string) (Draft, error)

	// Upsert inserts the draft when its id is new and replaces the whole
	// record otherwise. It stamps CreatedAt on insert and refreshes
	// UpdatedAt on every write.
	Upsert(ctx context.Context, draft Draft) (Draft, error)

	// Delete removes the draft and reports whether a record was removed.
	// Deleting an absent id is not an error.
	Delete(ctx context.Context, userID, id string) (bool, error)
}
