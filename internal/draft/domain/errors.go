package domain

import "errors"

var (
	// ErrNotFound means the requested draft id is absent from the active store.
	ErrNotFound = errors.New("draft_not_found")

	// ErrStoreUnavailable means the remote drafts table has not been
	// provisioned. Distinct from ErrNotFound so callers can offer a
	// provisioning action instead of a "record missing" message.
	ErrStoreUnavailable = errors.New("draft_store_unavailable")

	// ErrRemoteFailure wraps transient or permission-level backend failures.
	ErrRemoteFailure = errors.New("draft_remote_failure")

	// ErrAuthRequired means no authenticated user context is present.
	ErrAuthRequired = errors.New("auth_required")

	// ErrInvalidDraft rejects drafts that fail basic validation.
	ErrInvalidDraft = errors.New("invalid_draft")
)
