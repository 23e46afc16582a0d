package remotestore

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/folio/internal/clock"
	"github.com/smallbiznis/folio/internal/draft/codec"
	"github.com/smallbiznis/folio/internal/draft/domain"
	"github.com/smallbiznis/folio/internal/draft/probe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T, provisioned bool) (*Store, *gorm.DB, *clock.FakeClock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	if provisioned {
		require.NoError(t, db.AutoMigrate(&codec.Record{}))
	}

	clk := clock.NewFakeClock(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	store := New(Params{
		DB:    db,
		Probe: probe.New(probe.Params{DB: db, Log: zap.NewNop()}),
		Log:   zap.NewNop(),
		Clock: clk,
	})
	return store, db, clk
}

func TestOperationsFailWhenUnprovisioned(t *testing.T) {
	store, _, _ := newTestStore(t, false)
	ctx := context.Background()

	_, err := store.List(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	_, err = store.Get(ctx, "u1", "d1")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	_, err = store.Upsert(ctx, domain.Draft{UserID: "u1", Type: domain.DraftTypeInvoice})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	_, err = store.Delete(ctx, "u1", "d1")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	err = store.Import(ctx, domain.Draft{ID: "d1", UserID: "u1", Type: domain.DraftTypeInvoice})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestRoundTrip(t *testing.T) {
	store, _, _ := newTestStore(t, true)
	ctx := context.Background()

	want := domain.Draft{
		UserID:        "u1",
		BusinessID:    "b1",
		Type:          domain.DraftTypeInvoice,
		InvoiceNumber: "INV-7",
		Currency:      "USD",
		TaxRate:       7.5,
		Items:         []domain.LineItem{{ID: "li-1", Description: "Design", Quantity: 2, Price: 50}},
	}

	saved, err := store.Upsert(ctx, want)
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	got, err := store.Get(ctx, "u1", saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved, got)
}

func TestUpsertIsIdempotentOnID(t *testing.T) {
	store, db, clk := newTestStore(t, true)
	ctx := context.Background()

	saved, err := store.Upsert(ctx, domain.Draft{UserID: "u1", Type: domain.DraftTypeOffer, Notes: "v1"})
	require.NoError(t, err)

	clk.Advance(time.Second)
	saved.Notes = "v2"
	updated, err := store.Upsert(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, updated.ID)
	assert.True(t, updated.UpdatedAt.After(saved.UpdatedAt))
	assert.Equal(t, saved.CreatedAt, updated.CreatedAt)

	var count int64
	require.NoError(t, db.Model(&codec.Record{}).Where("id = ?", saved.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	got, err := store.Get(ctx, "u1", saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Notes)
}

func TestOwnershipGuards(t *testing.T) {
	store, _, _ := newTestStore(t, true)
	ctx := context.Background()

	saved, err := store.Upsert(ctx, domain.Draft{UserID: "u1", Type: domain.DraftTypeInvoice})
	require.NoError(t, err)

	_, err = store.Get(ctx, "u2", saved.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	removed, err := store.Delete(ctx, "u2", saved.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	got, err := store.Get(ctx, "u1", saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
}

func TestDeleteReportsRemoval(t *testing.T) {
	store, _, _ := newTestStore(t, true)
	ctx := context.Background()

	saved, err := store.Upsert(ctx, domain.Draft{UserID: "u1", Type: domain.DraftTypeInvoice})
	require.NoError(t, err)

	removed, err := store.Delete(ctx, "u1", saved.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.Delete(ctx, "u1", saved.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestImportPreservesIdentityAndTimestamps(t *testing.T) {
	store, _, _ := newTestStore(t, true)
	ctx := context.Background()

	created := time.Date(2025, 11, 2, 8, 30, 0, 0, time.UTC)
	draft := domain.Draft{
		ID:        "carried-over",
		UserID:    "u1",
		Type:      domain.DraftTypeInvoice,
		CreatedAt: created,
		UpdatedAt: created.Add(time.Hour),
	}

	require.NoError(t, store.Import(ctx, draft))

	got, err := store.Get(ctx, "u1", "carried-over")
	require.NoError(t, err)
	assert.Equal(t, created, got.CreatedAt)
	assert.Equal(t, created.Add(time.Hour), got.UpdatedAt)
}

func TestCorruptRowIsRemoteFailure(t *testing.T) {
	store, db, _ := newTestStore(t, true)
	ctx := context.Background()

	saved, err := store.Upsert(ctx, domain.Draft{UserID: "u1", Type: domain.DraftTypeInvoice})
	require.NoError(t, err)

	require.NoError(t, db.Exec("UPDATE drafts SET items = ? WHERE id = ?", "{not json", saved.ID).Error)

	_, err = store.Get(ctx, "u1", saved.ID)
	assert.ErrorIs(t, err, domain.ErrRemoteFailure)

	_, err = store.List(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrRemoteFailure)
}

func TestConstraintViolationIsRemoteFailure(t *testing.T) {
	store, _, _ := newTestStore(t, true)

	err := store.Import(context.Background(), domain.Draft{
		ID:     "bad-type",
		UserID: "u1",
		Type:   "receipt",
	})
	assert.ErrorIs(t, err, domain.ErrRemoteFailure)
}
